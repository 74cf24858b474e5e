package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"remit-rates/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Logging    logging.Config   `mapstructure:"logging"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Sync       SyncConfig       `mapstructure:"sync"`
	RateSource RateSourceConfig `mapstructure:"rate_source"`
	History    HistoryConfig    `mapstructure:"history"`
	Pricing    PricingConfig    `mapstructure:"pricing"`
	Alerting   AlertingConfig   `mapstructure:"alerting"`
	Export     ExportConfig     `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity. An empty DSN disables
// persistence entirely.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// SyncConfig governs the rate polling loop.
type SyncConfig struct {
	Assets          []string           `mapstructure:"assets"`
	Interval        time.Duration      `mapstructure:"interval"`
	FetchTimeout    time.Duration      `mapstructure:"fetch_timeout"`
	AdvisoryLockKey int64              `mapstructure:"advisory_lock_key"`
	Defaults        map[string]Default `mapstructure:"defaults"`
}

// Default is a static rate rendered before the first successful fetch.
type Default struct {
	QuotePrice     float64 `mapstructure:"quote_price"`
	ReferencePrice float64 `mapstructure:"reference_price"`
}

// RateSourceConfig captures upstream price API connectivity.
type RateSourceConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	QuoteCurrency     string        `mapstructure:"quote_currency"`
	ReferenceCurrency string        `mapstructure:"reference_currency"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	UserAgent         string        `mapstructure:"user_agent"`
}

// HistoryConfig sets chart history defaults.
type HistoryConfig struct {
	DefaultDays int   `mapstructure:"default_days"`
	Windows     []int `mapstructure:"windows"`
}

// PricingConfig carries the protocol fee applied to conversions.
type PricingConfig struct {
	ProtocolFeeRate float64 `mapstructure:"protocol_fee_rate"`
}

// AlertingConfig defines staleness alerting thresholds and routing.
type AlertingConfig struct {
	Enabled        bool           `mapstructure:"enabled"`
	StaleThreshold time.Duration  `mapstructure:"stale_threshold"`
	Cooldown       time.Duration  `mapstructure:"cooldown"`
	Telegram       TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes Telegram delivery parameters.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("REMITRATES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "ratewatcher")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("sync.assets", []string{"bitcoin"})
	v.SetDefault("sync.interval", "30s")
	v.SetDefault("sync.fetch_timeout", "10s")
	v.SetDefault("sync.advisory_lock_key", int64(0x72617465))

	v.SetDefault("rate_source.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("rate_source.quote_currency", "ngn")
	v.SetDefault("rate_source.reference_currency", "usd")
	v.SetDefault("rate_source.request_timeout", "10s")
	v.SetDefault("rate_source.user_agent", "ratewatcher/1.0")

	v.SetDefault("history.default_days", 7)
	v.SetDefault("history.windows", []int{7, 30, 90, 365})

	v.SetDefault("pricing.protocol_fee_rate", 0.005)

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.stale_threshold", "5m")
	v.SetDefault("alerting.cooldown", "30m")
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrations_path", "migrations")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if len(c.Sync.Assets) == 0 {
		return fmt.Errorf("sync.assets must name at least one asset")
	}
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("sync.interval must be greater than zero")
	}
	if c.Sync.FetchTimeout <= 0 {
		return fmt.Errorf("sync.fetch_timeout must be greater than zero")
	}
	if c.Pricing.ProtocolFeeRate < 0 || c.Pricing.ProtocolFeeRate >= 1 {
		return fmt.Errorf("pricing.protocol_fee_rate must be in [0, 1)")
	}
	if c.History.DefaultDays <= 0 {
		return fmt.Errorf("history.default_days must be greater than zero")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required when telegram is enabled")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required when telegram is enabled")
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}

// ResolveDays returns either the CLI override or the default lookback window.
func (c *Config) ResolveDays(override int) int {
	if override > 0 {
		return override
	}
	return c.History.DefaultDays
}
