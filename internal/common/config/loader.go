package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like SECURITY_PASSWORD
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, e.g. config.production.yaml
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig() // ignore error if not found

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Load .env from multiple possible locations (running from different directories).
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "health-agents"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 90000
	}

	if cfg.Upstreams.DiseaseSh.BaseURL == "" {
		cfg.Upstreams.DiseaseSh.BaseURL = "https://disease.sh/v3/covid-19"
	}
	if cfg.Upstreams.DiseaseSh.Timeout == 0 {
		cfg.Upstreams.DiseaseSh.Timeout = 25000
	}
	if cfg.Upstreams.WorldBank.BaseURL == "" {
		cfg.Upstreams.WorldBank.BaseURL = "https://api.worldbank.org/v2"
	}
	if cfg.Upstreams.WorldBank.Timeout == 0 {
		cfg.Upstreams.WorldBank.Timeout = 30000
	}
	if cfg.Upstreams.OpenFDA.BaseURL == "" {
		cfg.Upstreams.OpenFDA.BaseURL = "https://api.fda.gov/drug/event.json"
	}
	if cfg.Upstreams.OpenFDA.Timeout == 0 {
		cfg.Upstreams.OpenFDA.Timeout = 20000
	}
	if cfg.Upstreams.USDA.BaseURL == "" {
		cfg.Upstreams.USDA.BaseURL = "https://api.nal.usda.gov/fdc/v1/foods/search"
	}
	if cfg.Upstreams.USDA.Timeout == 0 {
		cfg.Upstreams.USDA.Timeout = 20000
	}
	if cfg.Upstreams.Wikipedia.BaseURL == "" {
		cfg.Upstreams.Wikipedia.BaseURL = "https://en.wikipedia.org/api/rest_v1/page/summary"
	}
	if cfg.Upstreams.Wikipedia.Timeout == 0 {
		cfg.Upstreams.Wikipedia.Timeout = 12000
	}

	if cfg.Security.Username == "" {
		cfg.Security.Username = "admin"
	}
	if cfg.Security.Password == "" {
		cfg.Security.Password = "admin"
	}
	if cfg.Security.Timeout == 0 {
		cfg.Security.Timeout = 10000
	}

	if cfg.Artifacts.Dir == "" {
		cfg.Artifacts.Dir = "artifacts"
	}
	if cfg.Artifacts.BaseURL == "" {
		cfg.Artifacts.BaseURL = "/artifacts"
	}

	if cfg.Cache.Redis.Address == "" {
		cfg.Cache.Redis.Address = "localhost:6379"
	}
	if cfg.Cache.Redis.TTL == 0 {
		cfg.Cache.Redis.TTL = 3600
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	if cfg.Security.Enabled && cfg.Security.Username == "" {
		return fmt.Errorf("security.username required when security is enabled")
	}
	return nil
}
