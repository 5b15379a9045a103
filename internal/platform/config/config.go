package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string

	// BootstrapAdmin seeds an admin role grant at startup so a fresh
	// deployment has at least one identity that can manage users.
	BootstrapAdmin string

	DatabaseURL string
	Redis       RedisConfig
	Kafka       KafkaConfig
}

// RedisConfig holds connection settings for the role cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RoleCacheTTL time.Duration
}

// KafkaConfig holds settings for the audit stream sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays
// lean. Every collaborator is optional: with no database, Redis, or Kafka
// configured the service runs fully in memory.
func FromEnv() Server {
	addr := os.Getenv("COMPASS_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("COMPASS_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("COMPASS_KAFKA_TOPIC")
	if topic == "" {
		topic = "compass.audit.events"
	}

	var brokers []string
	if raw := os.Getenv("COMPASS_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Server{
		Addr:           addr,
		JWTSigningKey:  jwtSigningKey,
		BootstrapAdmin: os.Getenv("COMPASS_BOOTSTRAP_ADMIN"),
		DatabaseURL:    os.Getenv("COMPASS_DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("COMPASS_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			RoleCacheTTL: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   topic,
		},
	}
}
