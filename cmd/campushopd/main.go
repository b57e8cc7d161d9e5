package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/campushop/campushop/config"
	"github.com/campushop/campushop/internal/adminapi"
	"github.com/campushop/campushop/internal/app"
	"github.com/campushop/campushop/internal/shopapi"
	"github.com/campushop/campushop/internal/webserver"
)

var configFile = flag.String("c", "campushop.yml", "config file path")

func main() {
	flag.Parse()

	cfg := config.LoadConfig(*configFile)
	application := app.NewApplication(cfg)
	if err := application.Init(cfg); err != nil {
		panic(err)
	}
	defer application.Release()

	server := webserver.Init(application)
	adminapi.Register()
	shopapi.Register(application)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application.StartBackgroundJobs(ctx)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		zap.L().Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Echo().Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zap.L().Error("server stopped", zap.Error(err))
	}
}
