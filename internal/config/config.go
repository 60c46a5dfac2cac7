// Package config loads service configuration from the environment.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the runtime configuration of the inventory service.
type Config struct {
	AppPort  string
	LogLevel string

	Database DatabaseConfig

	RabbitMQURL string

	RedisAddr      string
	RedisPassword  string
	ReportCacheTTL time.Duration

	JWTSecret string

	LowStockThreshold int
	Currency          string
}

// DatabaseConfig describes the store and the size of its connection pool.
type DatabaseConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// SetDefaults registers the default of every setting on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=inventory port=5432 sslmode=disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REPORT_CACHE_TTL", "30s")
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("LOW_STOCK_THRESHOLD", 10)
	v.SetDefault("CURRENCY", "USD")
}

// Load reads the configuration from environment variables, falling back to
// the defaults.
func Load() Config {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv() // Load environment variables
	return FromViper(v)
}

// FromViper builds a Config out of an already populated viper instance.
func FromViper(v *viper.Viper) Config {
	return Config{
		AppPort:  v.GetString("APP_PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),
		Database: DatabaseConfig{
			Driver:          v.GetString("DB_DRIVER"),
			DSN:             v.GetString("DATABASE_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		RabbitMQURL:       v.GetString("RABBITMQ_URL"),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		ReportCacheTTL:    v.GetDuration("REPORT_CACHE_TTL"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		LowStockThreshold: v.GetInt("LOW_STOCK_THRESHOLD"),
		Currency:          v.GetString("CURRENCY"),
	}
}
