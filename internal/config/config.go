package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

type Config struct {
	Environment Environment
	Port        string
	AppURL      string

	WebhookSecret     string
	PaystackSecretKey string
	PaystackBaseURL   string
	JWTSecret         string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string

	RateLimit      int
	SignupTokenTTL time.Duration
}

func Load() (*Config, error) {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if env != "production" {
		if err := godotenv.Load(); err != nil {
			godotenv.Load("../../.env")
		}
	}

	cfg := &Config{
		Environment: Environment(env),
		Port:        getEnv("PORT", "8080"),
		AppURL:      getEnv("APP_URL", "http://localhost:8080"),

		WebhookSecret:     getEnv("SECRET", ""),
		PaystackSecretKey: getEnv("PAYSTACK_SECRET_KEY", ""),
		PaystackBaseURL:   getEnv("PAYSTACK_BASE_URL", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		FromEmail:    getEnv("FROM_EMAIL", "noreply@example.com"),
		FromName:     getEnv("FROM_NAME", "Signup"),

		RateLimit:      getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
		SignupTokenTTL: time.Duration(getEnvAsInt("SIGNUP_TOKEN_TTL_MINUTES", 30)) * time.Minute,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.WebhookSecret == "" {
		return fmt.Errorf("SECRET is required")
	}

	if c.PaystackSecretKey == "" {
		return fmt.Errorf("PAYSTACK_SECRET_KEY is required")
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.SignupTokenTTL <= 0 {
		return fmt.Errorf("SIGNUP_TOKEN_TTL_MINUTES must be positive")
	}

	if c.SMTPHost != "" || c.SMTPUsername != "" || c.SMTPPassword != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("incomplete SMTP configuration: all SMTP fields must be set")
		}
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

func (c *Config) IsStaging() bool {
	return c.Environment == Staging
}

func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
