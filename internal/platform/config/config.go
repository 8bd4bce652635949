package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends selectable via METASIGNET_STORE.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	Environment   string
	JWTSigningKey string
	TokenTTL      time.Duration
	StoreBackend  string
	SeedDemo      bool
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds the audit-stream producer settings. An empty broker list
// disables Kafka and keeps the audit trail in memory.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// ChainConfig holds the optional signing-relay settings for the blockchain
// mirror. An empty URL disables mirroring.
type ChainConfig struct {
	RelayURL string
	APIKey   string
}

// BlueskyConfig points at the AT-protocol AppView used for post fetches.
type BlueskyConfig struct {
	BaseURL string
}

// Config is everything main needs to wire the service.
type Config struct {
	Server   Server
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Chain    ChainConfig
	Bluesky  BlueskyConfig
}

// FromEnv builds the full configuration from environment variables so main
// stays lean. Unset values fall back to development defaults.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:          envOr("METASIGNET_ADDR", ":8080"),
			Environment:   envOr("METASIGNET_ENV", "development"),
			JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			TokenTTL:      envDuration("TOKEN_TTL", 24*time.Hour),
			StoreBackend:  envOr("METASIGNET_STORE", StoreMemory),
			SeedDemo:      os.Getenv("METASIGNET_SEED_DEMO") == "true",
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: envList("KAFKA_BROKERS"),
			Topic:   envOr("KAFKA_AUDIT_TOPIC", "metasignet.audit"),
		},
		Chain: ChainConfig{
			RelayURL: os.Getenv("CHAIN_RELAY_URL"),
			APIKey:   os.Getenv("CHAIN_RELAY_API_KEY"),
		},
		Bluesky: BlueskyConfig{
			BaseURL: envOr("BLUESKY_API_URL", "https://public.api.bsky.app"),
		},
	}
}

func envOr(key, fallback string) string {
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
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
