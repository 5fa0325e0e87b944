package config

import (
	"os"
	"testing"
	"time"
)

func TestConfigLoad(t *testing.T) {
	os.Setenv("SECRET", "whsec_test")
	os.Setenv("PAYSTACK_SECRET_KEY", "sk_test")
	os.Setenv("JWT_SECRET", "jwt-test")
	defer os.Unsetenv("SECRET")
	defer os.Unsetenv("PAYSTACK_SECRET_KEY")
	defer os.Unsetenv("JWT_SECRET")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.WebhookSecret != "whsec_test" {
		t.Errorf("Expected WebhookSecret 'whsec_test', got '%s'", cfg.WebhookSecret)
	}

	if cfg.PaystackSecretKey != "sk_test" {
		t.Errorf("Expected PaystackSecretKey 'sk_test', got '%s'", cfg.PaystackSecretKey)
	}

	if cfg.SignupTokenTTL != 30*time.Minute {
		t.Errorf("Expected default token TTL 30m, got %v", cfg.SignupTokenTTL)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default port '8080', got '%s'", cfg.Port)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name: "Valid config",
			config: &Config{
				WebhookSecret:     "whsec",
				PaystackSecretKey: "sk",
				JWTSecret:         "jwt",
				SignupTokenTTL:    30 * time.Minute,
			},
			wantErr: false,
		},
		{
			name: "Missing webhook secret",
			config: &Config{
				PaystackSecretKey: "sk",
				JWTSecret:         "jwt",
				SignupTokenTTL:    30 * time.Minute,
			},
			wantErr: true,
		},
		{
			name: "Missing Paystack key",
			config: &Config{
				WebhookSecret:  "whsec",
				JWTSecret:      "jwt",
				SignupTokenTTL: 30 * time.Minute,
			},
			wantErr: true,
		},
		{
			name: "Missing JWT secret",
			config: &Config{
				WebhookSecret:     "whsec",
				PaystackSecretKey: "sk",
				SignupTokenTTL:    30 * time.Minute,
			},
			wantErr: true,
		},
		{
			name: "Zero token TTL",
			config: &Config{
				WebhookSecret:     "whsec",
				PaystackSecretKey: "sk",
				JWTSecret:         "jwt",
			},
			wantErr: true,
		},
		{
			name: "Incomplete SMTP config",
			config: &Config{
				WebhookSecret:     "whsec",
				PaystackSecretKey: "sk",
				JWTSecret:         "jwt",
				SignupTokenTTL:    30 * time.Minute,
				SMTPHost:          "smtp.gmail.com",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvironmentHelpers(t *testing.T) {
	cfg := &Config{Environment: Development}
	if !cfg.IsDevelopment() {
		t.Error("Expected IsDevelopment() to be true")
	}
	if cfg.IsProduction() {
		t.Error("Expected IsProduction() to be false")
	}

	cfg.Environment = Production
	if cfg.IsDevelopment() {
		t.Error("Expected IsDevelopment() to be false")
	}
	if !cfg.IsProduction() {
		t.Error("Expected IsProduction() to be true")
	}
}
