// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// GRPCAddr is the address the gRPC server listens on (e.g. :8080). Clients dial it too.
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN; empty selects the in-memory order store.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file; used with JWT_PUBLIC_KEY for RS256/ES256.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; used with JWT_PRIVATE_KEY.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim of handshake tokens.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim of handshake tokens.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the token lifetime (e.g. "15m").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`

	// PollInterval is how often a client reconciles each tracked order (e.g. "5s").
	PollInterval string `mapstructure:"POLL_INTERVAL"`
	// NotificationFeedCap bounds each actor's notification feed (1-1000).
	NotificationFeedCap int `mapstructure:"NOTIFICATION_FEED_CAP"`
	// SessionSendBuffer is the per-connection push buffer; a full buffer drops pushes.
	SessionSendBuffer int `mapstructure:"SESSION_SEND_BUFFER"`
	// CommitMaxAttempts bounds the refetch-and-retry loop after a store conflict.
	CommitMaxAttempts int `mapstructure:"COMMIT_MAX_ATTEMPTS"`
	// ReconnectInitialInterval is the first client reconnect delay (e.g. "500ms").
	ReconnectInitialInterval string `mapstructure:"RECONNECT_INITIAL_INTERVAL"`
	// ReconnectMaxInterval caps the client reconnect delay (e.g. "30s").
	ReconnectMaxInterval string `mapstructure:"RECONNECT_MAX_INTERVAL"`

	// KafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	// When set, every published order envelope is relayed to OrderEventsTopic.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// OrderEventsTopic is the Kafka topic for relayed order envelopes.
	OrderEventsTopic string `mapstructure:"ORDER_EVENTS_TOPIC"`
	// KafkaGroupID is the consumer group of the order event worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	// OTelEndpoint is the OTLP gRPC collector endpoint; empty disables export.
	OTelEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTelInsecure disables TLS to the collector.
	OTelInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// OTelServiceName is the service.name resource attribute.
	OTelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("GRPC_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "ordersync-auth")
	v.SetDefault("JWT_AUDIENCE", "ordersync-api")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("POLL_INTERVAL", "5s")
	v.SetDefault("NOTIFICATION_FEED_CAP", 50)
	v.SetDefault("SESSION_SEND_BUFFER", 64)
	v.SetDefault("COMMIT_MAX_ATTEMPTS", 3)
	v.SetDefault("RECONNECT_INITIAL_INTERVAL", "500ms")
	v.SetDefault("RECONNECT_MAX_INTERVAL", "30s")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("ORDER_EVENTS_TOPIC", "ordersync-order-events")
	v.SetDefault("KAFKA_GROUP_ID", "ordersync-order-events-worker")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "ordersync")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.GRPCAddr == "" {
		return nil, errors.New("config: GRPC_ADDR must be set")
	}
	if cfg.NotificationFeedCap < 1 || cfg.NotificationFeedCap > 1000 {
		return nil, errors.New("config: NOTIFICATION_FEED_CAP must be between 1 and 1000")
	}
	if cfg.SessionSendBuffer < 1 {
		return nil, errors.New("config: SESSION_SEND_BUFFER must be positive")
	}
	if cfg.CommitMaxAttempts < 1 {
		return nil, errors.New("config: COMMIT_MAX_ATTEMPTS must be positive")
	}
	if (cfg.JWTPrivateKey == "") != (cfg.JWTPublicKey == "") {
		return nil, errors.New("config: JWT_PRIVATE_KEY and JWT_PUBLIC_KEY must be set together")
	}
	if cfg.Env == "production" && cfg.JWTPrivateKey == "" {
		return nil, errors.New("config: JWT keys are required when APP_ENV=production")
	}

	return &cfg, nil
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	return parseDuration(c.JWTAccessTTL, 15*time.Minute)
}

// PollEvery parses PollInterval. Returns 5s if unset or invalid.
func (c *Config) PollEvery() time.Duration {
	return parseDuration(c.PollInterval, 5*time.Second)
}

// ReconnectInitial parses ReconnectInitialInterval. Returns 500ms if unset or invalid.
func (c *Config) ReconnectInitial() time.Duration {
	return parseDuration(c.ReconnectInitialInterval, 500*time.Millisecond)
}

// ReconnectMax parses ReconnectMaxInterval. Returns 30s if unset or invalid.
func (c *Config) ReconnectMax() time.Duration {
	return parseDuration(c.ReconnectMaxInterval, 30*time.Second)
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if the order event relay is enabled (non-empty list) and to create the producer.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
