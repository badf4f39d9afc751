package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Update    UpdateConfig    `mapstructure:"update"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Env             string        `mapstructure:"env"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	// EmployeeTokenTTL bounds the tokens cmd/seed prints for the order kiosk.
	EmployeeTokenTTL time.Duration `mapstructure:"employee_token_ttl"`
}

// AnalyticsConfig fixes the reference calendar all counters are bucketed in.
type AnalyticsConfig struct {
	TimezoneOffsetMinutes int           `mapstructure:"timezone_offset_minutes"`
	RollupCutoffHour      int           `mapstructure:"rollup_cutoff_hour"`
	CacheTTL              time.Duration `mapstructure:"cache_ttl"`
}

type TelegramConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	BotToken      string `mapstructure:"bot_token"`
	APIBaseURL    string `mapstructure:"api_base_url"`
	NotifyRollups bool   `mapstructure:"notify_rollups"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

type UpdateConfig struct {
	CheckEnabled bool   `mapstructure:"check_enabled"`
	Repo         string `mapstructure:"repo"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (*Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	v := viper.New()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	// SERVER_PORT, AUTH_JWT_SECRET, ANALYTICS_ROLLUP_CUTOFF_HOUR ...
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("database.dsn", "file:canteen.db?_journal_mode=WAL&_busy_timeout=5000")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("rate_limit.requests_per_second", 10.0)
	v.SetDefault("rate_limit.burst", 20)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("auth.employee_token_ttl", 365*24*time.Hour)

	v.SetDefault("analytics.timezone_offset_minutes", 330)
	v.SetDefault("analytics.rollup_cutoff_hour", 21)
	v.SetDefault("analytics.cache_ttl", 24*time.Hour)

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.api_base_url", "https://api.telegram.org")
	v.SetDefault("telegram.notify_rollups", true)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "canteen-api")

	v.SetDefault("update.check_enabled", false)
	v.SetDefault("update.repo", "nulzo/canteen-api")
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Analytics.RollupCutoffHour < 0 || c.Analytics.RollupCutoffHour > 23 {
		errs = append(errs, fmt.Errorf("analytics.rollup_cutoff_hour must be 0-23, got %d", c.Analytics.RollupCutoffHour))
	}
	if off := c.Analytics.TimezoneOffsetMinutes; off < -12*60 || off > 14*60 {
		errs = append(errs, fmt.Errorf("analytics.timezone_offset_minutes out of range: %d", off))
	}
	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		errs = append(errs, errors.New("telegram.bot_token is required when telegram is enabled"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}
