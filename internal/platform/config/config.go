// Package config loads runtime configuration from the environment so main
// stays lean. Every knob has a development default; production overrides via
// CERTO_* variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pstrings "certo/pkg/platform/strings"
)

// Server captures the full runtime configuration.
type Server struct {
	Addr            string
	DatabaseDSN     string
	Redis           RedisConfig
	Kafka           KafkaConfig
	SweepInterval   time.Duration
	ShutdownTimeout time.Duration

	// AdminUserIDs are notified on administrative events such as renewals.
	AdminUserIDs []string
}

// RedisConfig configures the verification cache connection. An empty URL
// disables Redis and verification falls through to the store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// KafkaConfig configures the notification sink. Empty brokers disable it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds the configuration from environment variables.
func FromEnv() Server {
	return Server{
		Addr:        envStr("CERTO_ADDR", ":8080"),
		DatabaseDSN: os.Getenv("CERTO_DATABASE_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("CERTO_REDIS_URL"),
			PoolSize:     envInt("CERTO_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("CERTO_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("CERTO_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("CERTO_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("CERTO_REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     envDuration("CERTO_VERIFY_CACHE_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: envList("CERTO_KAFKA_BROKERS"),
			Topic:   envStr("CERTO_KAFKA_TOPIC", "certo.notifications"),
		},
		SweepInterval:   envDuration("CERTO_SWEEP_INTERVAL", time.Hour),
		ShutdownTimeout: envDuration("CERTO_SHUTDOWN_TIMEOUT", 15*time.Second),
		AdminUserIDs:    envList("CERTO_ADMIN_USER_IDS"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	out := pstrings.DedupeAndTrim(strings.Split(v, ","))
	if len(out) == 0 {
		return nil
	}
	return out
}
