// Package config builds the server configuration from environment variables
// so main stays lean. Every external system is optional: with nothing set the
// server runs fully in-memory, which is how tests and local development use
// it.
package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr string

	// PostgresDSN enables the durable audit ledger when set; otherwise the
	// in-memory ledger is used.
	PostgresDSN string

	// RedisURL enables the shared usage counters when set; otherwise counters
	// live in process memory.
	RedisURL string

	// KafkaBrokers enables the outbound event stream when non-empty;
	// otherwise events are logged.
	KafkaBrokers []string
	KafkaTopic   string

	ShutdownTimeout time.Duration
}

// FromEnv reads the configuration from SPISOK_* environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:            getenv("SPISOK_ADDR", ":8080"),
		PostgresDSN:     os.Getenv("SPISOK_POSTGRES_DSN"),
		RedisURL:        os.Getenv("SPISOK_REDIS_URL"),
		KafkaTopic:      getenv("SPISOK_KAFKA_TOPIC", "spisok.moderation"),
		ShutdownTimeout: 10 * time.Second,
	}
	if brokers := os.Getenv("SPISOK_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	if raw := os.Getenv("SPISOK_SHUTDOWN_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.ShutdownTimeout = d
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
