package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	DBConfig `mapstructure:",squash"`

	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	GRPCAddr string `mapstructure:"GRPC_ADDR"`

	// Empty RedisURL keeps change notifications inside the process.
	RedisURL     string `mapstructure:"REDIS_URL"`
	RedisChannel string `mapstructure:"REDIS_CHANNEL"`

	SlotIntervalMinutes int `mapstructure:"SLOT_INTERVAL_MINUTES"`
}

var defaults = map[string]any{
	"DB_DRIVER":                DriverPostgres,
	"DB_SQLITE_PATH":           "clinic.db",
	"DB_HOST":                  "postgres",
	"DB_PORT":                  5432,
	"DB_USER":                  "clinic",
	"DB_PASSWORD":              "clinic",
	"DB_NAME":                  "clinic_db",
	"DB_SSLMODE":               "disable",
	"DB_TIMEZONE":              "UTC",
	"DB_MAX_OPEN_CONNS":        10,
	"DB_MAX_IDLE_CONNS":        5,
	"DB_CONN_MAX_LIFETIME_MIN": 30,
	"ENV":                      "development",
	"LOG_LEVEL":                "info",
	"GRPC_ADDR":                ":50051",
	"REDIS_URL":                "",
	"REDIS_CHANNEL":            "clinic:changes",
	"SLOT_INTERVAL_MINUTES":    30,
}

// Load reads configuration from the environment and an optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	for key, val := range defaults {
		v.SetDefault(key, val)
		// Bind explicitly so Unmarshal sees env-only keys.
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	// The .env file is optional.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Driver = strings.ToLower(strings.TrimSpace(cfg.Driver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := c.DBConfig.validate(); err != nil {
		return err
	}
	if c.SlotIntervalMinutes <= 0 {
		return fmt.Errorf("SLOT_INTERVAL_MINUTES must be positive, got %d", c.SlotIntervalMinutes)
	}
	if c.GRPCAddr == "" {
		return fmt.Errorf("GRPC_ADDR must not be empty")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
