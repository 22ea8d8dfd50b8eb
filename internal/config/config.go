// Package config loads runtime configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds every runtime setting. Fields with empty defaults are only
// required when the feature they configure is enabled (MySQL settings for
// the mysql backend, RabbitURL for the event pipeline).
type Config struct {
	Env  string // application environment (dev/test/prod)
	Port string // HTTP port to listen on

	StoreBackend string // memory | redis | mysql

	DBUser string
	DBPass string
	DBHost string
	DBPort string
	DBName string

	AuthHash   string // legacy | bcrypt
	BcryptCost int

	RabbitURL       string        // empty disables the event pipeline
	CleanupInterval time.Duration // zero disables the recurring cleanup
}

// Load reads the environment into a Config. Missing optional values fall
// back to demo-friendly defaults; the mysql backend's settings are
// validated by the caller when that backend is selected.
func Load() Config {
	return Config{
		Env:          getenv("APP_ENV", "dev"),
		Port:         getenv("APP_PORT", "8080"),
		StoreBackend: getenv("STORE_BACKEND", "memory"),

		DBUser: os.Getenv("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: os.Getenv("DB_HOST"),
		DBPort: os.Getenv("DB_PORT"),
		DBName: os.Getenv("DB_NAME"),

		AuthHash:   getenv("AUTH_HASH", "legacy"),
		BcryptCost: atoi(getenv("BCRYPT_COST", "10")),

		RabbitURL:       os.Getenv("RABBITMQ_URL"),
		CleanupInterval: parseDur(getenv("CLEANUP_INTERVAL", "0s")),
	}
}

// MustMySQL exits when the mysql backend is selected without its settings.
func (c Config) MustMySQL() {
	for _, kv := range []struct{ key, val string }{
		{"DB_USER", c.DBUser},
		{"DB_HOST", c.DBHost},
		{"DB_PORT", c.DBPort},
		{"DB_NAME", c.DBName},
	} {
		if kv.val == "" {
			log.Fatalf("STORE_BACKEND=mysql requires env var %s", kv.key)
		}
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
