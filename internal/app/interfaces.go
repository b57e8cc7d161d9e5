package app

import (
	"github.com/robfig/cron/v3"

	"github.com/campushop/campushop/config"
	"github.com/campushop/campushop/internal/catalog"
	"github.com/campushop/campushop/internal/docstore"
	"github.com/campushop/campushop/internal/orders"
	"github.com/campushop/campushop/internal/ratelimit"
)

// StoreProvider provides document store access
type StoreProvider interface {
	Store() *docstore.Client
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SettingsProvider provides runtime settings access
type SettingsProvider interface {
	Settings() *SettingsManager
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// OrderProvider provides the order workflow services
type OrderProvider interface {
	OrderService() *orders.Service
	Orders() orders.Repository
}

// CatalogProvider provides catalog data access
type CatalogProvider interface {
	Catalog() catalog.Repository
}

// LimiterProvider provides the request rate limiter
type LimiterProvider interface {
	Limiter() *ratelimit.Limiter
}

// AppContext combines all provider interfaces for full application context.
// Handlers should depend on specific providers or this combined interface.
type AppContext interface {
	StoreProvider
	ConfigProvider
	SettingsProvider
	SchedulerProvider
	OrderProvider
	CatalogProvider
	LimiterProvider
}
