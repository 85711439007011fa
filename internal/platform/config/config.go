package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs from the environment.
type Config struct {
	Addr string

	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	// StoreAPIVersion is the platform store-API major version; it drives
	// capability gating for promotional and win-back offers.
	StoreAPIVersion int

	// StoreBackend selects the store.Client implementation: "memory" or
	// "appstore".
	StoreBackend string

	// Publisher selects the outbound update channel: "log", "redis" or
	// "kafka".
	Publisher string

	AppStore AppStoreConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// AppStoreConfig configures the receipt-service store backend.
type AppStoreConfig struct {
	SharedSecret string
	BundleID     string
	Receipt      string
	PollInterval time.Duration
}

// RedisConfig configures the Redis connection and pub/sub channel.
type RedisConfig struct {
	URL          string
	Channel      string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the Kafka update publisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Addr:            envOr("STOREBRIDGE_ADDR", ":8080"),
		JWTSigningKey:   envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:       envOr("JWT_ISSUER", "storebridge"),
		JWTAudience:     envOr("JWT_AUDIENCE", "storebridge-clients"),
		StoreAPIVersion: envInt("STORE_API_VERSION", 18),
		StoreBackend:    envOr("STORE_BACKEND", "memory"),
		Publisher:       envOr("UPDATE_PUBLISHER", "log"),
		AppStore: AppStoreConfig{
			SharedSecret: os.Getenv("APPSTORE_SHARED_SECRET"),
			BundleID:     os.Getenv("APPSTORE_BUNDLE_ID"),
			Receipt:      os.Getenv("APPSTORE_RECEIPT"),
			PollInterval: envDuration("APPSTORE_POLL_INTERVAL", 30*time.Second),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			Channel:      envOr("REDIS_UPDATES_CHANNEL", "transactions.updated"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			Topic:   envOr("KAFKA_UPDATES_TOPIC", "transactions.updated"),
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
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
