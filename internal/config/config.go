package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything both binaries read from the environment. A
// local .env file is honored when present, real env vars win.
type Config struct {
	HTTPAddr      string
	EstimatorAddr string

	MySQLDSN  string
	RedisAddr string

	// JWTSecret is the pre-shared secret both services verify tokens
	// against.
	JWTSecret string

	SessionTTL time.Duration
	// CapabilityTTL bounds the estimation token; kept short because the
	// client refetches it per estimate call.
	CapabilityTTL time.Duration

	// SnapshotTTL bounds how stale the advisory availability cache may be.
	SnapshotTTL time.Duration

	LogMode        string
	AllowedOrigins []string
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:       envOr("HTTP_ADDR", ":3001"),
		EstimatorAddr:  envOr("ESTIMATOR_ADDR", ":3002"),
		MySQLDSN:       envOr("MYSQL_DSN", "root:root@tcp(localhost:3306)/carconfig?parseTime=true"),
		RedisAddr:      envOr("REDIS_ADDR", "localhost:6379"),
		JWTSecret:      envOr("JWT_SECRET", "dev-only-secret"),
		SessionTTL:     durationOr("SESSION_TTL", 12*time.Hour),
		CapabilityTTL:  durationOr("CAPABILITY_TTL", time.Minute),
		SnapshotTTL:    durationOr("SNAPSHOT_TTL", 2*time.Second),
		LogMode:        envOr("LOG_MODE", "dev"),
		AllowedOrigins: []string{envOr("ALLOWED_ORIGIN", "http://localhost:5173")},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
