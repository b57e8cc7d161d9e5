package webserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/campushop/campushop/internal/app"
)

const appContextKey = "campushop_app"

var server *WebServer

// WebServer hosts every HTTP surface: the authenticated admin API under
// /api/admin, the public storefront under /api/shop, and the bot webhook.
type WebServer struct {
	root    *echo.Echo
	app     *app.Application
	admin   *echo.Group
	public  *echo.Group
	reqNode *snowflake.Node
}

// Init builds the package server instance. Route registration helpers
// below target it, matching how the route files in adminapi and shopapi
// register themselves.
func Init(application *app.Application) *WebServer {
	server = New(application)
	return server
}

func New(application *app.Application) *WebServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	node, err := snowflake.NewNode(1)
	if err != nil {
		zap.S().Errorf("request id node init failed: %v", err)
	}

	s := &WebServer{root: e, app: application, reqNode: node}

	e.Use(middleware.Recover())
	e.Use(s.requestID())
	e.Use(s.injectApp())
	e.Use(s.accessLog())

	s.public = e.Group("/api/shop")
	s.admin = e.Group("/api/admin", echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(application.Config().Web.Secret),
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, map[string]interface{}{
				"code":    "UNAUTHORIZED",
				"message": "Missing or invalid session",
			})
		},
	}))

	return s
}

// Start runs the HTTP listener until it fails or is shut down.
func (s *WebServer) Start() error {
	cfg := s.app.Config().Web
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	zap.S().Infof("web server listening at %s", addr)
	return s.root.Start(addr)
}

// Echo exposes the underlying router (tests and shutdown).
func (s *WebServer) Echo() *echo.Echo {
	return s.root
}

func (s *WebServer) injectApp() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(appContextKey, s.app)
			return next(c)
		}
	}
}

func (s *WebServer) requestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if s.reqNode != nil {
				c.Response().Header().Set(echo.HeaderXRequestID, s.reqNode.Generate().String())
			}
			return next(c)
		}
	}
}

func (s *WebServer) accessLog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			zap.L().Debug("http request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("ip", c.RealIP()))
			return err
		}
	}
}

// GetApp returns the application from the request context.
func GetApp(c echo.Context) *app.Application {
	return c.Get(appContextKey).(*app.Application)
}

// ApiGET registers an authenticated admin route.
func ApiGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.admin.GET(path, h, m...)
}

func ApiPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.admin.POST(path, h, m...)
}

func ApiPUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.admin.PUT(path, h, m...)
}

func ApiDELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.admin.DELETE(path, h, m...)
}

// PubGET registers an unauthenticated storefront route.
func PubGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.public.GET(path, h, m...)
}

func PubPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.public.POST(path, h, m...)
}

// RootPOST registers a route outside both groups (login).
func RootPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	server.root.POST(path, h, m...)
}
