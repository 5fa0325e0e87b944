package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mekazstan/payment-first-signup-api/internal/auth"
	"github.com/Mekazstan/payment-first-signup-api/internal/authz"
	"github.com/Mekazstan/payment-first-signup-api/internal/config"
	"github.com/Mekazstan/payment-first-signup-api/internal/email"
	"github.com/Mekazstan/payment-first-signup-api/internal/ident"
	"github.com/Mekazstan/payment-first-signup-api/internal/jobs"
	"github.com/Mekazstan/payment-first-signup-api/internal/ledger"
	"github.com/Mekazstan/payment-first-signup-api/internal/outbox"
	"github.com/Mekazstan/payment-first-signup-api/internal/payment"
	"github.com/Mekazstan/payment-first-signup-api/internal/signup"
	"github.com/robfig/cron/v3"
)

type apiConfig struct {
	config   *config.Config
	workflow *signup.Workflow
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	emailService, err := email.NewService(email.Settings{
		SMTPHost:     cfg.SMTPHost,
		SMTPPort:     cfg.SMTPPort,
		SMTPUsername: cfg.SMTPUsername,
		SMTPPassword: cfg.SMTPPassword,
		FromEmail:    cfg.FromEmail,
		FromName:     cfg.FromName,
		AppURL:       cfg.AppURL,
	})
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	notifications := outbox.New(&emailSender{service: emailService}, outbox.Options{})
	notifications.Start()

	provider := payment.NewPaystackProvider(cfg.PaystackSecretKey, cfg.WebhookSecret, cfg.PaystackBaseURL)

	ids := ident.New()
	issuer := authz.NewIssuer(ids, cfg.SignupTokenTTL)

	workflow := signup.New(signup.Config{
		Ledger:       ledger.New(ids),
		Issuer:       issuer,
		Provider:     provider,
		Dispatcher:   notifications,
		HashPassword: auth.HashPassword,
		AppURL:       cfg.AppURL,
		TokenTTL:     cfg.SignupTokenTTL,
	})

	api := &apiConfig{
		config:   cfg,
		workflow: workflow,
	}

	// Hourly token reaper; redemption re-checks expiry regardless.
	scheduler := cron.New(cron.WithSeconds())
	if _, err := scheduler.AddFunc("0 0 * * * *", func() {
		jobs.ReapExpiredTokens(issuer)
	}); err != nil {
		log.Fatalf("Failed to schedule token reaper: %v", err)
	}
	scheduler.Start()

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.routes(),
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	<-scheduler.Stop().Done()
	notifications.Close()

	log.Println("Shutdown complete")
}

func (cfg *apiConfig) routes() http.Handler {
	mux := http.NewServeMux()

	rateLimit := RateLimitMiddleware(cfg.config.RateLimit)

	mux.Handle("POST /initiate-payment", rateLimit(http.HandlerFunc(cfg.initiatePaymentHandler)))
	mux.Handle("POST /signup", rateLimit(http.HandlerFunc(cfg.signupHandler)))
	mux.HandleFunc("GET /check-payment-status", cfg.checkPaymentStatusHandler)

	// Webhook route: no auth, verified by signature.
	mux.HandleFunc("POST /pay/webhook/url", cfg.paystackWebhookHandler)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{
			"message": "Payment-First Signup API",
		})
	})

	return middlewareCors(SecurityHeadersMiddleware(LoggingMiddleware(mux)))
}
