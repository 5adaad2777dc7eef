package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries everything read from the environment at boot.
type Config struct {
	Port              string
	DatabaseURL       string
	JWTSecret         string
	TokenTTL          time.Duration
	BcryptCost        int
	KeepAliveInterval time.Duration
	ActivityWindow    time.Duration
	IsDevelopment     bool
	AllowedOrigins    []string
}

// Load reads configuration from environment variables, applying defaults for
// anything unset. JWT_SECRET has no default; main refuses to start without it.
func Load() Config {
	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       getEnv("DB_URL", "postgres://localhost:5432/vocadeck?sslmode=disable"),
		JWTSecret:         os.Getenv("JWT_SECRET_KEY"),
		TokenTTL:          getDuration("TOKEN_TTL", 24*time.Hour),
		BcryptCost:        getInt("BCRYPT_COST", 12),
		KeepAliveInterval: getDuration("KEEPALIVE_INTERVAL", 5*time.Minute),
		ActivityWindow:    getDuration("ACTIVITY_WINDOW", time.Minute),
		IsDevelopment:     os.Getenv("APP_ENV") != "production",
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{"http://localhost:3000"}
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

