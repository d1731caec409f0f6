// Package config reads the storefront's runtime settings from the
// environment.
package config

import (
	"os"
	"time"
)

type Config struct {
	// BackendURL is the base URL of the store backend, e.g. http://127.0.0.1:8000.
	BackendURL string
	// StatePath is the bbolt file for persisted session/cart state.
	StatePath string
	// RedisAddr, when set, switches state persistence to redis.
	RedisAddr string

	RequestTimeout time.Duration
	// GatewayDelay is the simulated card-processing time.
	GatewayDelay time.Duration

	Debug bool
}

func Load() *Config {
	return &Config{
		BackendURL:     getEnv("STOREFRONT_BACKEND_URL", "http://127.0.0.1:8000"),
		StatePath:      getEnv("STOREFRONT_STATE_PATH", "storefront.db"),
		RedisAddr:      getEnv("STOREFRONT_REDIS_ADDR", ""),
		RequestTimeout: getDuration("STOREFRONT_REQUEST_TIMEOUT", 30*time.Second),
		GatewayDelay:   getDuration("STOREFRONT_GATEWAY_DELAY", 1500*time.Millisecond),
		Debug:          os.Getenv("STOREFRONT_DEBUG") != "",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
