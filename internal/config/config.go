package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// DatabaseURL is the only required setting; startup halts without it.
	DatabaseURL string `envconfig:"DATABASE_URL"`
	Port        string `envconfig:"PORT" default:"3000"`
	Env         string `envconfig:"APP_ENV" default:"development"`
	// ClientOrigins is the comma-separated allow-list applied to both the
	// REST and realtime surfaces. "*" allows every origin.
	ClientOrigins []string `envconfig:"CLIENT_ORIGINS" default:"*"`
}

// Load reads .env when present, then the process environment. Missing
// required configuration is fatal here rather than a runtime error later.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[CONFIG] No .env file found, relying on system environment variables")
	}

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		log.Fatalf("[CONFIG] Failed to parse environment: %v", err)
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("[CONFIG] CRITICAL: DATABASE_URL is missing. Server cannot start.")
	}

	log.Printf("[CONFIG] Environment: %s", cfg.Env)
	log.Printf("[CONFIG] Target Port: %s", cfg.Port)
	log.Printf("[CONFIG] Database URL: %s", maskDBSource(cfg.DatabaseURL))
	log.Printf("[CONFIG] Allowed origins: %s", strings.Join(cfg.ClientOrigins, ", "))

	return cfg
}

func maskDBSource(dsn string) string {
	parts := strings.Split(dsn, "@")
	if len(parts) < 2 {
		return "invalid-dsn-format"
	}
	return "postgres://****:****@" + parts[1]
}
