package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// EmailConfig selects and configures the outgoing mail provider
type EmailConfig struct {
	Provider      string // console, postmark or sendgrid
	PostmarkToken string
	SendGridKey   string
	Sender        string
}

// Config holds the runtime settings read from the environment
type Config struct {
	Port           string
	Env            string
	MongoURI       string
	MongoDB        string
	RedisAddr      string
	RedisPassword  string
	SessionTTL     time.Duration
	JWTTTL         time.Duration
	RequestTimeout time.Duration
	JWTSecret      string
	PublicURL      string
	Email          EmailConfig
}

// Production reports whether the service runs in production mode
func (c Config) Production() bool {
	return c.Env == "production"
}

// LoadConfig reads the configuration from environment variables.
// Call godotenv.Load first to pick up a .env file.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:          getEnv("PORT", "8000"),
		Env:           getEnv("ENV", "development"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "ecommerce"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		Email: EmailConfig{
			Provider:      strings.ToLower(getEnv("EMAIL_PROVIDER", "console")),
			PostmarkToken: os.Getenv("POSTMARK_API_TOKEN"),
			SendGridKey:   os.Getenv("SENDGRID_API_KEY"),
			Sender:        getEnv("EMAIL_SENDER", "Tienda <no-reply@localhost>"),
		},
	}
	cfg.PublicURL = strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:"+cfg.Port), "/")

	var err error
	if cfg.SessionTTL, err = time.ParseDuration(getEnv("SESSION_TTL", "336h")); err != nil {
		return Config{}, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	if cfg.JWTTTL, err = time.ParseDuration(getEnv("JWT_TTL", "24h")); err != nil {
		return Config{}, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	if cfg.RequestTimeout, err = time.ParseDuration(getEnv("REQUEST_TIMEOUT", "5s")); err != nil {
		return Config{}, fmt.Errorf("invalid REQUEST_TIMEOUT: %w", err)
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is not set")
	}
	switch cfg.Email.Provider {
	case "console":
	case "postmark":
		if cfg.Email.PostmarkToken == "" {
			return Config{}, errors.New("POSTMARK_API_TOKEN is not set")
		}
	case "sendgrid":
		if cfg.Email.SendGridKey == "" {
			return Config{}, errors.New("SENDGRID_API_KEY is not set")
		}
	default:
		return Config{}, fmt.Errorf("unknown EMAIL_PROVIDER %q", cfg.Email.Provider)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
