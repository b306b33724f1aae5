package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	API       API       `mapstructure:"api"`
	Dashboard Dashboard `mapstructure:"dashboard"`
	Logger    Logger    `mapstructure:"logger"`
	Server    Server    `mapstructure:"server"`
	Database  Database  `mapstructure:"database"`
}

// API holds the configuration for the backend REST API.
type API struct {
	BaseURL        string        `mapstructure:"base_url"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	Timeout        time.Duration `mapstructure:"timeout"` // per request; 0 disables
}

// Dashboard holds the polling cadence and read windows.
type Dashboard struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	EquityInterval  time.Duration `mapstructure:"equity_interval"`
	NotificationTTL time.Duration `mapstructure:"notification_ttl"`
	OverviewLimit   int           `mapstructure:"overview_limit"`
	HistoryLimit    int           `mapstructure:"history_limit"`
	EquityLimit     int           `mapstructure:"equity_limit"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the action journal.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
// A missing config file is not an error; defaults and the environment
// (including a .env file in the working directory) still apply.
func LoadConfig(path string) (config Config, err error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")

	// Allow environment variables to override config file, e.g. API_BASE_URL
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return
		}
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8866/api")
	v.SetDefault("api.rate_limit", 20) // requests per second
	v.SetDefault("api.rate_limit_burst", 10)
	v.SetDefault("api.timeout", 10*time.Second)

	v.SetDefault("dashboard.poll_interval", 3*time.Second)
	v.SetDefault("dashboard.equity_interval", 10*time.Second)
	v.SetDefault("dashboard.notification_ttl", 3*time.Second)
	v.SetDefault("dashboard.overview_limit", 10)
	v.SetDefault("dashboard.history_limit", 100)
	v.SetDefault("dashboard.equity_limit", 100)

	v.SetDefault("server.port", 8080)
	v.SetDefault("database.dsn", "hft-ui.db")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
}
