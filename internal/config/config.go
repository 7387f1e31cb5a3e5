package config

import (
	"fmt"

	vault "github.com/hashicorp/vault/api"
	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Vault    VaultConfig    `mapstructure:"vault"`
	Insights InsightsConfig `mapstructure:"insights"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// RedisConfig holds event bus configuration. Leave Addr empty to disable
// event publishing entirely.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// VaultConfig holds the optional Vault lookup for the database password.
type VaultConfig struct {
	Addr       string `mapstructure:"addr"`
	Token      string `mapstructure:"token"`
	SecretPath string `mapstructure:"secret_path"`
}

// InsightsConfig bounds the analysis windows exposed over the API.
type InsightsConfig struct {
	HistoryMonths  int `mapstructure:"history_months"`
	ForecastMonths int `mapstructure:"forecast_months"`
	TopN           int `mapstructure:"top_n"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from ./config/config.yaml (when present) and
// the environment, then resolves the database password through Vault if a
// Vault address is configured.
func Load() (*Config, error) {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8086")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "library")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("insights.history_months", 12)
	viper.SetDefault("insights.forecast_months", 6)
	viper.SetDefault("insights.top_n", 10)
	viper.SetDefault("log.level", "info")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	viper.AutomaticEnv()

	bindings := map[string]string{
		"server.host":       "SERVER_HOST",
		"server.port":       "SERVER_PORT",
		"database.host":     "DATABASE_HOST",
		"database.port":     "DATABASE_PORT",
		"database.name":     "DATABASE_NAME",
		"database.user":     "DATABASE_USER",
		"database.password": "DATABASE_PASSWORD",
		"database.ssl_mode": "DATABASE_SSL_MODE",
		"redis.addr":        "REDIS_ADDR",
		"redis.password":    "REDIS_PASSWORD",
		"vault.addr":        "VAULT_ADDR",
		"vault.token":       "VAULT_TOKEN",
		"vault.secret_path": "VAULT_SECRET_PATH",
		"log.level":         "LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Vault.Addr != "" {
		password, err := fetchVaultPassword(cfg.Vault)
		if err != nil {
			return nil, err
		}
		if password != "" {
			cfg.Database.Password = password
		}
	}

	return &cfg, nil
}

// fetchVaultPassword reads the database password from a KV secret. The
// secret is expected to carry a "password" field.
func fetchVaultPassword(vc VaultConfig) (string, error) {
	clientCfg := vault.DefaultConfig()
	clientCfg.Address = vc.Addr

	client, err := vault.NewClient(clientCfg)
	if err != nil {
		return "", fmt.Errorf("failed to create vault client: %w", err)
	}
	if vc.Token != "" {
		client.SetToken(vc.Token)
	}

	path := vc.SecretPath
	if path == "" {
		path = "secret/data/library-insights/database"
	}

	secret, err := client.Logical().Read(path)
	if err != nil {
		return "", fmt.Errorf("failed to read vault secret %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return "", nil
	}

	data := secret.Data
	if nested, ok := data["data"].(map[string]interface{}); ok {
		data = nested
	}
	if password, ok := data["password"].(string); ok {
		return password, nil
	}
	return "", nil
}
