package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg := LoadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Equal(t, DefaultAppConfig.Web.Port, cfg.Web.Port)
	assert.Equal(t, DefaultAppConfig.Store.BaseURL, cfg.Store.BaseURL)
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campushop.yml")
	content := `
system:
  workdir: /tmp/campushop-test
web:
  host: 127.0.0.1
  port: 2816
store:
  base_url: https://shop-db.example.com
  timeout: 30
rate_limit:
  window: 10
  limit: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := LoadConfig(path)
	assert.Equal(t, "/tmp/campushop-test", cfg.System.Workdir)
	assert.Equal(t, 2816, cfg.Web.Port)
	assert.Equal(t, "https://shop-db.example.com", cfg.Store.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Store.TimeoutDuration())
	assert.Equal(t, 3, cfg.RateLimit.Limit)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CAMPUSHOP_WEB_PORT", "3816")
	t.Setenv("CAMPUSHOP_STORE_BASE_URL", "https://env.example.com")
	t.Setenv("CAMPUSHOP_RATELIMIT_LIMIT", "99")

	cfg := LoadConfig("")
	assert.Equal(t, 3816, cfg.Web.Port)
	assert.Equal(t, "https://env.example.com", cfg.Store.BaseURL)
	assert.Equal(t, 99, cfg.RateLimit.Limit)
}

func TestTimeoutDurationFallback(t *testing.T) {
	c := StoreConfig{Timeout: 0}
	assert.Equal(t, 10*time.Second, c.TimeoutDuration())
}
