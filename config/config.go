package config

import (
	"os"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v2"
)

type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type WebConfig struct {
	Host          string `yaml:"host" json:"host"`
	Port          int    `yaml:"port" json:"port"`
	Secret        string `yaml:"secret" json:"-"`
	AdminUsername string `yaml:"admin_username" json:"-"`
	AdminPassword string `yaml:"admin_password" json:"-"`
}

// StoreConfig points at the remote document database. Every persistent
// record (products, orders, sales, settings) lives behind this endpoint.
type StoreConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
	Auth    string `yaml:"auth" json:"-"`
	Timeout int    `yaml:"timeout" json:"timeout"` // seconds
}

type TelegramConfig struct {
	APIBase  string `yaml:"api_base" json:"api_base"`
	BotToken string `yaml:"bot_token" json:"-"`
	ChatID   int64  `yaml:"chat_id" json:"chat_id"`
	Workers  int    `yaml:"workers" json:"workers"`
}

type RateLimitConfig struct {
	Window  int `yaml:"window" json:"window"` // seconds
	Limit   int `yaml:"limit" json:"limit"`
	MaxKeys int `yaml:"max_keys" json:"max_keys"`
}

type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type AppConfig struct {
	System    SysConfig       `yaml:"system" json:"system"`
	Web       WebConfig       `yaml:"web" json:"web"`
	Store     StoreConfig     `yaml:"store" json:"store"`
	Telegram  TelegramConfig  `yaml:"telegram" json:"telegram"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Logger    LogConfig       `yaml:"logger" json:"logger"`
}

func (c *StoreConfig) TimeoutDuration() time.Duration {
	if c.Timeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "CampusShop",
		Location: "Europe/Istanbul",
		Workdir:  "/var/campushop",
		Debug:    true,
	},
	Web: WebConfig{
		Host:          "0.0.0.0",
		Port:          1816,
		Secret:        "9b6de5cc-campushop-0cc3-11eb-adc1",
		AdminUsername: "admin",
		AdminPassword: "campushop",
	},
	Store: StoreConfig{
		BaseURL: "http://127.0.0.1:9000",
		Timeout: 10,
	},
	Telegram: TelegramConfig{
		APIBase: "https://api.telegram.org",
		Workers: 4,
	},
	RateLimit: RateLimitConfig{
		Window:  60,
		Limit:   10,
		MaxKeys: 4096,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: false,
		Filename:   "/var/campushop/campushop.log",
	},
}

func setEnvValue(name string, val *string) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		*val = evalue
	}
}

func setEnvInt64Value(name string, val *int64) {
	var evalue = os.Getenv(name)
	if evalue == "" {
		return
	}
	p, err := cast.ToInt64E(evalue)
	if err == nil {
		*val = p
	}
}

func setEnvIntValue(name string, val *int) {
	var evalue = os.Getenv(name)
	if evalue == "" {
		return
	}
	p, err := cast.ToIntE(evalue)
	if err == nil {
		*val = p
	}
}

func setEnvBoolValue(name string, val *bool) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		*val = evalue == "true" || evalue == "1" || evalue == "on"
	}
}

// LoadConfig reads the YAML config file when present and then applies
// CAMPUSHOP_* environment overrides on top.
func LoadConfig(cfile string) *AppConfig {
	cfg := DefaultAppConfig
	if cfile != "" {
		if _, err := os.Stat(cfile); err == nil {
			data, err := os.ReadFile(cfile)
			if err == nil {
				fcfg := new(AppConfig)
				if err := yaml.Unmarshal(data, fcfg); err == nil {
					cfg = fcfg
				}
			}
		}
	}

	setEnvValue("CAMPUSHOP_SYSTEM_WORKDIR", &cfg.System.Workdir)
	setEnvValue("CAMPUSHOP_SYSTEM_LOCATION", &cfg.System.Location)
	setEnvBoolValue("CAMPUSHOP_SYSTEM_DEBUG", &cfg.System.Debug)

	setEnvValue("CAMPUSHOP_WEB_HOST", &cfg.Web.Host)
	setEnvIntValue("CAMPUSHOP_WEB_PORT", &cfg.Web.Port)
	setEnvValue("CAMPUSHOP_WEB_SECRET", &cfg.Web.Secret)
	setEnvValue("CAMPUSHOP_WEB_ADMIN_USERNAME", &cfg.Web.AdminUsername)
	setEnvValue("CAMPUSHOP_WEB_ADMIN_PASSWORD", &cfg.Web.AdminPassword)

	setEnvValue("CAMPUSHOP_STORE_BASE_URL", &cfg.Store.BaseURL)
	setEnvValue("CAMPUSHOP_STORE_AUTH", &cfg.Store.Auth)
	setEnvIntValue("CAMPUSHOP_STORE_TIMEOUT", &cfg.Store.Timeout)

	setEnvValue("CAMPUSHOP_TELEGRAM_API_BASE", &cfg.Telegram.APIBase)
	setEnvValue("CAMPUSHOP_TELEGRAM_BOT_TOKEN", &cfg.Telegram.BotToken)
	setEnvInt64Value("CAMPUSHOP_TELEGRAM_CHAT_ID", &cfg.Telegram.ChatID)
	setEnvIntValue("CAMPUSHOP_TELEGRAM_WORKERS", &cfg.Telegram.Workers)

	setEnvIntValue("CAMPUSHOP_RATELIMIT_WINDOW", &cfg.RateLimit.Window)
	setEnvIntValue("CAMPUSHOP_RATELIMIT_LIMIT", &cfg.RateLimit.Limit)
	setEnvIntValue("CAMPUSHOP_RATELIMIT_MAX_KEYS", &cfg.RateLimit.MaxKeys)

	setEnvValue("CAMPUSHOP_LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBoolValue("CAMPUSHOP_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)
	setEnvValue("CAMPUSHOP_LOGGER_FILENAME", &cfg.Logger.Filename)

	return cfg
}
