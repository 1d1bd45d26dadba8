package config

import (
	"fmt"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds everything the api binary needs to start.
type Config struct {
	DatabaseURL string
	JWTSecret   string
	HTTPAddr    string
}

// New reads configuration from the environment, honoring a local .env file
// when present.
func New() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("http_addr", ":8080")
	v.AutomaticEnv()

	for _, key := range []string{"database_url", "jwt_secret", "http_addr"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", key, err)
		}
	}

	cfg := &Config{
		DatabaseURL: v.GetString("database_url"),
		JWTSecret:   v.GetString("jwt_secret"),
		HTTPAddr:    v.GetString("http_addr"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("config: DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET is required")
	}

	log.Info("config parsed")

	return cfg, nil
}
