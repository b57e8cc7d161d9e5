package app

import (
	"os"
	"time"
	_ "time/tzdata"

	"github.com/asaskevich/EventBus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/campushop/campushop/config"
	"github.com/campushop/campushop/internal/catalog"
	"github.com/campushop/campushop/internal/docstore"
	"github.com/campushop/campushop/internal/journal"
	"github.com/campushop/campushop/internal/orders"
	"github.com/campushop/campushop/internal/ratelimit"
	"github.com/campushop/campushop/internal/telegram"
)

type Application struct {
	appConfig *config.AppConfig
	store     *docstore.Client
	settings  *SettingsManager
	bus       EventBus.Bus
	sched     *cron.Cron
	limiter   *ratelimit.Limiter
	resJrnl   *journal.Journal
	catalog   catalog.Repository
	orders    orders.Repository
	orderSvc  *orders.Service
	notifier  *telegram.Service
}

// Ensure Application implements all interfaces
var (
	_ StoreProvider     = (*Application)(nil)
	_ ConfigProvider    = (*Application)(nil)
	_ SettingsProvider  = (*Application)(nil)
	_ SchedulerProvider = (*Application)(nil)
	_ OrderProvider     = (*Application)(nil)
	_ CatalogProvider   = (*Application)(nil)
	_ LimiterProvider   = (*Application)(nil)
	_ AppContext        = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig      { return a.appConfig }
func (a *Application) Store() *docstore.Client        { return a.store }
func (a *Application) Settings() *SettingsManager     { return a.settings }
func (a *Application) Scheduler() *cron.Cron          { return a.sched }
func (a *Application) Limiter() *ratelimit.Limiter    { return a.limiter }
func (a *Application) Catalog() catalog.Repository    { return a.catalog }
func (a *Application) Orders() orders.Repository      { return a.orders }
func (a *Application) OrderService() *orders.Service  { return a.orderSvc }
func (a *Application) Notifier() *telegram.Service    { return a.notifier }
func (a *Application) Journal() *journal.Journal      { return a.resJrnl }

func (a *Application) Init(cfg *config.AppConfig) error {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	// Initialize zap logger
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	var logger *zap.Logger
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}
		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	} else {
		logger, err = zapConfig.Build(zap.AddCaller(), zap.AddCallerSkip(1))
		if err != nil {
			panic(err)
		}
	}
	zap.ReplaceGlobals(logger)

	if err := os.MkdirAll(cfg.System.Workdir, 0755); err != nil {
		zap.S().Errorf("workdir init failed: %v", err)
	}

	a.store = docstore.NewClient(cfg.Store.BaseURL, cfg.Store.Auth, cfg.Store.TimeoutDuration())
	zap.S().Infof("Document store client ready, base: %s", cfg.Store.BaseURL)

	a.resJrnl, err = journal.Open(cfg.System.Workdir)
	if err != nil {
		return err
	}
	if pending, err := a.resJrnl.Uncommitted(); err == nil && len(pending) > 0 {
		zap.S().Warnf("found %d uncommitted reservation(s) from a previous run, manual reconciliation may be needed", len(pending))
	}

	a.bus = EventBus.New()
	a.settings = NewSettingsManager(a.store, a.bus)
	a.limiter = ratelimit.NewLimiter(
		time.Duration(cfg.RateLimit.Window)*time.Second,
		cfg.RateLimit.Limit,
		cfg.RateLimit.MaxKeys,
	)

	a.notifier, err = telegram.New(cfg.Telegram)
	if err != nil {
		return err
	}

	a.catalog = catalog.NewStoreRepository(a.store)
	a.orders = orders.NewStoreRepository(a.store)
	a.orderSvc = orders.NewService(a.catalog, a.orders, a.settings, a.notifier, a.resJrnl)

	a.initJob()
	return nil
}

// OverrideOrderService replaces the order workflow service (used in tests).
func (a *Application) OverrideOrderService(svc *orders.Service) {
	a.orderSvc = svc
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		a.sched.Stop()
	}
	if a.notifier != nil {
		a.notifier.Release()
	}
	if a.resJrnl != nil {
		_ = a.resJrnl.Close()
	}
	_ = zap.L().Sync()
}
