package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"autosales-dashboard/internal/dataset"
)

type Config struct {
	Server      ServerConfig      `mapstructure:",squash"`
	Dataset     DatasetConfig     `mapstructure:",squash"`
	Logger      LoggerConfig      `mapstructure:",squash"`
	Security    SecurityConfig    `mapstructure:",squash"`
	Maintenance MaintenanceConfig `mapstructure:",squash"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"server_host"`
	Port            int           `mapstructure:"server_port"`
	ReadTimeout     time.Duration `mapstructure:"server_read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"server_write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"server_idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"server_shutdown_timeout"`
}

type DatasetConfig struct {
	Source      string        `mapstructure:"dataset_source"`
	Table       string        `mapstructure:"dataset_table"`
	LoadTimeout time.Duration `mapstructure:"dataset_load_timeout"`
	Strict      bool          `mapstructure:"dataset_strict"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"log_level"`
	Format string `mapstructure:"log_format"`
}

type SecurityConfig struct {
	EnableRateLimit bool     `mapstructure:"security_rate_limit_enabled"`
	RateLimitRPS    int      `mapstructure:"security_rate_limit_rps"`
	RateLimitBurst  int      `mapstructure:"security_rate_limit_burst"`
	AllowedOrigins  []string `mapstructure:"security_allowed_origins"`
	TrustedProxies  []string `mapstructure:"security_trusted_proxies"`
}

type MaintenanceConfig struct {
	SweepInterval time.Duration `mapstructure:"maintenance_sweep_interval"`
	LimiterIdle   time.Duration `mapstructure:"maintenance_limiter_idle"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "localhost")
	v.SetDefault("SERVER_PORT", 8050)
	v.SetDefault("SERVER_READ_TIMEOUT", 10*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 10*time.Second)
	v.SetDefault("SERVER_IDLE_TIMEOUT", 60*time.Second)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second)

	v.SetDefault("DATASET_SOURCE", dataset.DefaultURL)
	v.SetDefault("DATASET_TABLE", dataset.DefaultTable)
	v.SetDefault("DATASET_LOAD_TIMEOUT", 30*time.Second)
	v.SetDefault("DATASET_STRICT", false)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SECURITY_RATE_LIMIT_ENABLED", true)
	v.SetDefault("SECURITY_RATE_LIMIT_RPS", 100)
	v.SetDefault("SECURITY_RATE_LIMIT_BURST", 10)
	v.SetDefault("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8050"})
	v.SetDefault("SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"})

	v.SetDefault("MAINTENANCE_SWEEP_INTERVAL", time.Minute)
	v.SetDefault("MAINTENANCE_LIMITER_IDLE", 3*time.Minute)
}

// Load reads configuration from defaults, an optional .env file, an optional
// dashboard.yaml in the working directory and the environment, in increasing
// order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("dashboard")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	err := v.Unmarshal(cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if strings.TrimSpace(c.Dataset.Source) == "" {
		return fmt.Errorf("dataset source cannot be empty")
	}

	if c.Dataset.LoadTimeout <= 0 {
		return fmt.Errorf("dataset load timeout must be positive")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	if c.Maintenance.SweepInterval <= 0 {
		return fmt.Errorf("maintenance sweep interval must be positive")
	}

	return nil
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
