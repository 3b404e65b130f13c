package config

import (
	"fmt"

	"github.com/equipsight/api/internal/db"
	"github.com/spf13/viper"
)

// Config holds the server configuration.
type Config struct {
	ServerAddr     string
	AllowedOrigins []string
	Database       db.Config
}

// DefaultConfig returns the defaults used when no config file or env vars are present.
func DefaultConfig() Config {
	return Config{
		ServerAddr:     ":8080",
		AllowedOrigins: []string{"http://localhost:3000"},
		Database:       db.DefaultConfig(),
	}
}

// Load reads config.yaml from the given path with environment overrides.
func Load(configPath string) (Config, error) {
	// Start with default
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()      // allow environment overrides
	v.SetEnvPrefix("APP") // map env vars like APP_SERVER_ADDR

	// Optional: Map nested keys to flat env vars
	v.BindEnv("server.addr")
	v.BindEnv("cors.allowed_origins")
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Just log it, use defaults + env
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	// Override defaults if values exist
	if v.IsSet("server.addr") {
		cfg.ServerAddr = v.GetString("server.addr")
	}
	if v.IsSet("cors.allowed_origins") {
		cfg.AllowedOrigins = v.GetStringSlice("cors.allowed_origins")
	}
	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}

	return cfg, nil
}
