// Package signup orchestrates the payment-first signup flow: a payment is
// initiated with the provider, the provider's webhook resolves it, a one-time
// token is minted on completion, and redeeming that token creates exactly one
// user account.
package signup

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Mekazstan/payment-first-signup-api/internal/authz"
	"github.com/Mekazstan/payment-first-signup-api/internal/ledger"
	"github.com/Mekazstan/payment-first-signup-api/internal/outbox"
	"github.com/Mekazstan/payment-first-signup-api/internal/payment"
	"github.com/Mekazstan/payment-first-signup-api/internal/store"
	"github.com/google/uuid"
)

const (
	eventChargeSuccess = "charge.success"
	eventChargeFailed  = "charge.failed"
)

var (
	ErrMissingToken  = errors.New("signup: signup token is required")
	ErrMissingFields = errors.New("signup: missing required fields")
	ErrUnauthorized  = errors.New("signup: webhook signature verification failed")
	ErrMalformed     = errors.New("signup: malformed request")
	ErrUserExists    = errors.New("signup: user already exists")
	ErrUpstream      = errors.New("signup: payment provider failure")
)

type User struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	FullName         string    `json:"full_name"`
	Phone            string    `json:"phone,omitempty"`
	PlanType         string    `json:"plan_type"`
	PaymentReference string    `json:"payment_reference"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	PasswordHash     string    `json:"-"`
}

// Provider is the slice of the Paystack client the workflow depends on.
type Provider interface {
	InitializeTransaction(ctx context.Context, params payment.InitializeParams) (*payment.InitializeResponse, error)
	VerifyWebhookSignature(payload []byte, signature string) bool
	ParseWebhookEvent(payload []byte) (*payment.WebhookEvent, error)
}

// Dispatcher accepts notification intents for asynchronous delivery.
type Dispatcher interface {
	Enqueue(msg outbox.Message)
}

type Workflow struct {
	ledger   *ledger.Ledger
	issuer   *authz.Issuer
	provider Provider
	dispatch Dispatcher
	users    *store.Store[User]

	hashPassword func(string) (string, error)
	appURL       string
	tokenTTL     time.Duration
}

type Config struct {
	Ledger       *ledger.Ledger
	Issuer       *authz.Issuer
	Provider     Provider
	Dispatcher   Dispatcher
	HashPassword func(string) (string, error)
	AppURL       string
	TokenTTL     time.Duration
}

func New(cfg Config) *Workflow {
	return &Workflow{
		ledger:       cfg.Ledger,
		issuer:       cfg.Issuer,
		provider:     cfg.Provider,
		dispatch:     cfg.Dispatcher,
		users:        store.New[User](),
		hashPassword: cfg.HashPassword,
		appURL:       cfg.AppURL,
		tokenTTL:     cfg.TokenTTL,
	}
}

type InitiateRequest struct {
	Email    string            `json:"email"`
	Amount   int64             `json:"amount"`
	PlanType string            `json:"planType"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type InitiateResult struct {
	PaymentURL string `json:"paymentUrl"`
	Reference  string `json:"reference"`
}

// InitiatePayment records a pending payment and asks the provider for a
// hosted checkout URL tagged with the reference. On provider failure the
// record is deliberately left pending: no token can ever be issued for it,
// and a status check will show it stuck.
func (w *Workflow) InitiatePayment(ctx context.Context, req InitiateRequest) (InitiateResult, error) {
	pending, err := w.ledger.Initiate(req.Email, req.Amount, req.PlanType, req.Metadata)
	if err != nil {
		return InitiateResult{}, err
	}

	metadata := map[string]string{"plan_type": req.PlanType}
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	resp, err := w.provider.InitializeTransaction(ctx, payment.InitializeParams{
		Email:       req.Email,
		Amount:      req.Amount,
		Reference:   pending.Reference,
		CallbackURL: w.appURL + "/payment-callback",
		Metadata:    metadata,
	})
	if err != nil {
		log.Printf("Payment initialization failed for %s: %v", pending.Reference, err)
		return InitiateResult{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return InitiateResult{
		PaymentURL: resp.Data.AuthorizationURL,
		Reference:  pending.Reference,
	}, nil
}

// HandleProviderNotification authenticates and applies a provider webhook.
// Unknown event types, unknown references, and replayed notifications for
// already-resolved payments all return nil so the caller acknowledges them
// and the provider stops retrying.
func (w *Workflow) HandleProviderNotification(rawBody []byte, signature string) error {
	if len(rawBody) == 0 {
		return fmt.Errorf("%w: empty notification body", ErrMalformed)
	}

	if !w.provider.VerifyWebhookSignature(rawBody, signature) {
		return ErrUnauthorized
	}

	event, err := w.provider.ParseWebhookEvent(rawBody)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch event.Event {
	case eventChargeSuccess:
		w.completePayment(event.Data)
	case eventChargeFailed:
		w.failPayment(event.Data)
	default:
		log.Printf("Ignoring unhandled event type: %s", event.Event)
	}

	return nil
}

func (w *Workflow) completePayment(data payment.ChargeData) {
	resolved, changed, err := w.ledger.ResolveCompleted(data.Reference, data.ID)
	if err != nil {
		// Providers retry notifications for references this process never
		// issued or no longer tracks; acknowledge and move on.
		log.Printf("No pending payment for reference %s, discarding notification", data.Reference)
		return
	}
	if !changed {
		log.Printf("Replayed notification for resolved payment %s, no effects re-fired", data.Reference)
		return
	}

	auth := w.issuer.Issue(resolved.Email, resolved.PlanType, resolved.Reference)
	log.Printf("Payment %s completed, signup authorized for %s", resolved.Reference, resolved.Email)

	w.dispatch.Enqueue(outbox.Message{
		Kind:      outbox.KindSignupAuthorization,
		Recipient: resolved.Email,
		Reference: resolved.Reference,
		PlanType:  resolved.PlanType,
		Amount:    resolved.Amount,
		Token:     auth.Token,
		ExpiresIn: formatTTL(w.tokenTTL),
	})
}

func (w *Workflow) failPayment(data payment.ChargeData) {
	resolved, changed, err := w.ledger.ResolveFailed(data.Reference, data.GatewayResponse)
	if err != nil {
		log.Printf("No pending payment for reference %s, discarding notification", data.Reference)
		return
	}
	if !changed {
		log.Printf("Replayed notification for resolved payment %s, no effects re-fired", data.Reference)
		return
	}

	log.Printf("Payment %s failed: %s", resolved.Reference, resolved.FailureReason)

	w.dispatch.Enqueue(outbox.Message{
		Kind:      outbox.KindPaymentFailed,
		Recipient: resolved.Email,
		Reference: resolved.Reference,
		Amount:    resolved.Amount,
		Reason:    resolved.FailureReason,
	})
}

type SubmitRequest struct {
	Token    string
	FullName string
	Password string
	Phone    string
	Email    string // optional; when set it must match the token's bound email
}

// SubmitSignup redeems a token and creates the account it authorizes. Token
// redemption and user creation are each atomic, so concurrent submissions
// can produce at most one user per token and at most one user per email.
func (w *Workflow) SubmitSignup(req SubmitRequest) (User, error) {
	if req.Token == "" {
		return User{}, ErrMissingToken
	}
	if req.FullName == "" || req.Password == "" {
		return User{}, fmt.Errorf("%w: full name and password are required", ErrMissingFields)
	}

	auth, err := w.issuer.Redeem(req.Token, req.Email)
	if err != nil {
		return User{}, err
	}

	hash, err := w.hashPassword(req.Password)
	if err != nil {
		return User{}, fmt.Errorf("failed to hash credential: %w", err)
	}

	user := User{
		ID:               uuid.New(),
		Email:            auth.Email,
		FullName:         req.FullName,
		Phone:            req.Phone,
		PlanType:         auth.PlanType,
		PaymentReference: auth.PaymentReference,
		Status:           "active",
		CreatedAt:        time.Now().UTC(),
		PasswordHash:     hash,
	}

	// The token check above already blocks double-redeems; this guards the
	// email uniqueness invariant if two distinct tokens share an email.
	if !w.users.PutIfAbsent(auth.Email, user) {
		return User{}, fmt.Errorf("%w: %s", ErrUserExists, auth.Email)
	}

	log.Printf("User created successfully: %s", auth.Email)
	return user, nil
}

type StatusView struct {
	Reference     string        `json:"reference"`
	Status        ledger.Status `json:"status"`
	SignupAllowed bool          `json:"signupAllowed"`
	Email         string        `json:"email"`
	PlanType      string        `json:"planType"`
	SignupToken   string        `json:"signupToken,omitempty"`
}

// CheckStatus reports a payment's public fields. For a completed payment with
// an outstanding token the token is included, which lets a checkout page poll
// for it; anyone holding the reference can obtain that token.
func (w *Workflow) CheckStatus(reference string) (StatusView, error) {
	pending, err := w.ledger.Get(reference)
	if err != nil {
		return StatusView{}, err
	}

	view := StatusView{
		Reference:     pending.Reference,
		Status:        pending.Status,
		SignupAllowed: pending.SignupAllowed,
		Email:         pending.Email,
		PlanType:      pending.PlanType,
	}

	if pending.SignupAllowed {
		if token, ok := w.issuer.ActiveTokenFor(reference); ok {
			view.SignupToken = token
		}
	}

	return view, nil
}

func formatTTL(ttl time.Duration) string {
	return fmt.Sprintf("%d minutes", int(ttl.Minutes()))
}
