package core

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config carries the connection settings for the real backends. Tests
// bypass it entirely by constructing New with in-memory implementations.
type Config struct {
	// MongoURI and DBName locate the remote document store.
	MongoURI string
	DBName   string
	// RedisURL locates the device-local store.
	RedisURL string
	// AMQPURL locates the message broker for the quest-count signal.
	// Empty disables notifications.
	AMQPURL string
	// KeyringService, KeyringKey and JWTSigningKey locate and validate the
	// stored auth token. Empty service means always-guest.
	KeyringService string
	KeyringKey     string
	JWTSigningKey  string
	// DebounceOverride, when positive, replaces every per-entity debounce
	// window.
	DebounceOverride time.Duration
}

// LoadConfig reads the configuration from environment variables, loading a
// .env file first if one is present.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Error loading .env file")
	}

	cfg := Config{
		MongoURI:       os.Getenv("MONGODB_URI"),
		DBName:         os.Getenv("DB_NAME"),
		RedisURL:       os.Getenv("REDIS_URL"),
		AMQPURL:        os.Getenv("RABBITMQ_URL"),
		KeyringService: os.Getenv("KEYRING_SERVICE"),
		KeyringKey:     os.Getenv("KEYRING_KEY"),
		JWTSigningKey:  os.Getenv("JWT_SIGNING_KEY"),
	}
	if cfg.MongoURI == "" {
		return cfg, fmt.Errorf("MONGODB_URI must be set")
	}
	if cfg.DBName == "" {
		return cfg, fmt.Errorf("DB_NAME must be set")
	}
	if cfg.RedisURL == "" {
		return cfg, fmt.Errorf("REDIS_URL must be set")
	}
	return cfg, nil
}
