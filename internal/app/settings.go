package app

import (
	"context"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/campushop/campushop/internal/docstore"
)

const settingsPath = "settings"

// EventSettingsChanged is published on the app bus whenever the settings
// document is updated through the admin API.
const EventSettingsChanged = "settings.changed"

// Settings keys and their built-in defaults.
const (
	KeyDeliveryFee           = "deliveryFee"
	KeyFreeDeliveryThreshold = "freeDeliveryThreshold"

	DefaultDeliveryFee           = 5.0
	DefaultFreeDeliveryThreshold = 150.0
)

const settingsCacheTTL = time.Minute

// SettingsManager serves runtime-tunable values from the store's settings
// document with a short read cache. Admin updates publish on the bus and
// drop the cache, so both server instances and jobs see new values without
// a restart.
type SettingsManager struct {
	store *docstore.Client
	bus   EventBus.Bus

	mu      sync.RWMutex
	cache   map[string]interface{}
	fetched time.Time
}

func NewSettingsManager(store *docstore.Client, bus EventBus.Bus) *SettingsManager {
	m := &SettingsManager{store: store, bus: bus}
	if bus != nil {
		if err := bus.Subscribe(EventSettingsChanged, m.Invalidate); err != nil {
			zap.L().Warn("settings: bus subscribe failed", zap.Error(err))
		}
	}
	return m
}

// Invalidate drops the cached document.
func (m *SettingsManager) Invalidate() {
	m.mu.Lock()
	m.cache = nil
	m.mu.Unlock()
}

// All returns the current settings document.
func (m *SettingsManager) All() map[string]interface{} {
	m.mu.RLock()
	if m.cache != nil && time.Since(m.fetched) < settingsCacheTTL {
		defer m.mu.RUnlock()
		return m.cache
	}
	m.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var doc map[string]interface{}
	err := m.store.Get(ctx, settingsPath, &doc)
	if err != nil {
		if !docstore.IsNotFound(err) {
			zap.L().Warn("settings: load failed, serving defaults", zap.Error(err))
		}
		doc = map[string]interface{}{}
	}

	m.mu.Lock()
	m.cache = doc
	m.fetched = time.Now()
	m.mu.Unlock()
	return doc
}

// Update patches the settings document and broadcasts the change.
func (m *SettingsManager) Update(ctx context.Context, fields map[string]interface{}) error {
	if err := m.store.Patch(ctx, settingsPath, fields); err != nil {
		return err
	}
	m.Invalidate()
	if m.bus != nil {
		m.bus.Publish(EventSettingsChanged)
	}
	return nil
}

// GetFloat64 reads one settings value with a default.
func (m *SettingsManager) GetFloat64(key string, def float64) float64 {
	v, ok := m.All()[key]
	if !ok {
		return def
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		zap.L().Warn("settings: value is not numeric", zap.String("key", key))
		return def
	}
	return f
}

// DeliveryFee returns the flat house-seller delivery fee.
func (m *SettingsManager) DeliveryFee() float64 {
	return m.GetFloat64(KeyDeliveryFee, DefaultDeliveryFee)
}

// FreeDeliveryThreshold returns the subtotal at which the fee is waived.
func (m *SettingsManager) FreeDeliveryThreshold() float64 {
	return m.GetFloat64(KeyFreeDeliveryThreshold, DefaultFreeDeliveryThreshold)
}
