package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config is the runtime configuration of the front end and the reference backend.
type Config struct {
	AppPort            string
	APIBaseURL         string
	StoreDriver        string
	DatabaseDSN        string
	RedisAddr          string
	SessionTTL         time.Duration
	SessionIdleTimeout time.Duration
	RabbitMQURL        string
	JWTSecret          string
	LogLevel           string
	HTTPTimeout        time.Duration
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
	SessionCookie      string

	BackendPort        string
	BackendDBDriver    string
	BackendDatabaseDSN string
	BackendSeed        bool
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("API_BASE_URL", "http://localhost:8000/api")
	v.SetDefault("STORE_DRIVER", StoreMemory)
	v.SetDefault("DATABASE_DSN", "file:foodfront.db?cache=shared")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("SESSION_TTL", "720h")
	v.SetDefault("SESSION_IDLE_TIMEOUT", "30m")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("JWT_SECRET", "dev_jwt_secret")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_TIMEOUT", "0s")
	v.SetDefault("BREAKER_MAX_FAILURES", 5)
	v.SetDefault("BREAKER_OPEN_TIMEOUT", "30s")
	v.SetDefault("SESSION_COOKIE", "sid")
	v.SetDefault("BACKEND_PORT", ":8000")
	v.SetDefault("BACKEND_DB_DRIVER", StoreSQLite)
	v.SetDefault("BACKEND_DATABASE_DSN", "file:backend.db?cache=shared")
	v.SetDefault("BACKEND_SEED", false)
}

// Load reads the configuration from v. Environment variables override the
// optional file named by CONFIG_FILE, which overrides the defaults.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := Config{
		AppPort:            v.GetString("APP_PORT"),
		APIBaseURL:         v.GetString("API_BASE_URL"),
		StoreDriver:        strings.ToLower(v.GetString("STORE_DRIVER")),
		DatabaseDSN:        v.GetString("DATABASE_DSN"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		SessionTTL:         v.GetDuration("SESSION_TTL"),
		SessionIdleTimeout: v.GetDuration("SESSION_IDLE_TIMEOUT"),
		RabbitMQURL:        v.GetString("RABBITMQ_URL"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		HTTPTimeout:        v.GetDuration("HTTP_TIMEOUT"),
		BreakerMaxFailures: v.GetUint32("BREAKER_MAX_FAILURES"),
		BreakerOpenTimeout: v.GetDuration("BREAKER_OPEN_TIMEOUT"),
		SessionCookie:      v.GetString("SESSION_COOKIE"),
		BackendPort:        v.GetString("BACKEND_PORT"),
		BackendDBDriver:    strings.ToLower(v.GetString("BACKEND_DB_DRIVER")),
		BackendDatabaseDSN: v.GetString("BACKEND_DATABASE_DSN"),
		BackendSeed:        v.GetBool("BACKEND_SEED"),
	}

	switch cfg.StoreDriver {
	case StoreMemory, StoreSQLite, StorePostgres, StoreRedis:
	default:
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	switch cfg.BackendDBDriver {
	case StoreSQLite, StorePostgres:
	default:
		return Config{}, fmt.Errorf("unknown BACKEND_DB_DRIVER %q", cfg.BackendDBDriver)
	}
	if cfg.APIBaseURL == "" {
		return Config{}, fmt.Errorf("API_BASE_URL must be set")
	}
	return cfg, nil
}
