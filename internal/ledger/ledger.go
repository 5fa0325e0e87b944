// Package ledger tracks payment attempts from initiation to their terminal
// outcome. Records are kept for the lifetime of the process so status checks
// keep working after a payment resolves.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/Mekazstan/payment-first-signup-api/internal/ident"
	"github.com/Mekazstan/payment-first-signup-api/internal/store"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var (
	ErrNotFound     = errors.New("ledger: payment not found")
	ErrInvalidInput = errors.New("ledger: invalid input")
)

type PendingPayment struct {
	Reference     string            `json:"reference"`
	Email         string            `json:"email"`
	Amount        int64             `json:"amount"`
	PlanType      string            `json:"plan_type"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Status        Status            `json:"status"`
	SignupAllowed bool              `json:"signup_allowed"`
	CreatedAt     time.Time         `json:"created_at"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
	TransactionID int64             `json:"transaction_id,omitempty"`
	FailureReason string            `json:"failure_reason,omitempty"`
}

// Terminal reports whether the payment reached an outcome no further
// transition may leave.
func (p PendingPayment) Terminal() bool {
	return p.Status == StatusCompleted || p.Status == StatusFailed
}

type Ledger struct {
	payments *store.Store[PendingPayment]
	ids      ident.Generator
	now      func() time.Time
}

func New(ids ident.Generator) *Ledger {
	return &Ledger{
		payments: store.New[PendingPayment](),
		ids:      ids,
		now:      time.Now,
	}
}

// Initiate records a new pending payment and returns it with a fresh
// reference. Signup stays disallowed until the provider confirms the charge.
func (l *Ledger) Initiate(email string, amount int64, planType string, metadata map[string]string) (PendingPayment, error) {
	if email == "" {
		return PendingPayment{}, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if amount <= 0 {
		return PendingPayment{}, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidInput)
	}
	if planType == "" {
		return PendingPayment{}, fmt.Errorf("%w: plan type is required", ErrInvalidInput)
	}

	if metadata == nil {
		metadata = map[string]string{}
	}

	for {
		payment := PendingPayment{
			Reference:     l.ids.PaymentReference(),
			Email:         email,
			Amount:        amount,
			PlanType:      planType,
			Metadata:      metadata,
			Status:        StatusPending,
			SignupAllowed: false,
			CreatedAt:     l.now().UTC(),
		}
		if l.payments.PutIfAbsent(payment.Reference, payment) {
			return payment, nil
		}
	}
}

// ResolveCompleted transitions a pending payment to completed and enables
// signup. A replayed notification for an already terminal payment is a no-op:
// the stored record is returned with changed=false so callers never re-fire
// downstream effects.
func (l *Ledger) ResolveCompleted(reference string, transactionID int64) (PendingPayment, bool, error) {
	return l.resolve(reference, func(p PendingPayment) PendingPayment {
		now := l.now().UTC()
		p.Status = StatusCompleted
		p.SignupAllowed = true
		p.CompletedAt = &now
		p.TransactionID = transactionID
		return p
	})
}

// ResolveFailed transitions a pending payment to failed. Same idempotency
// contract as ResolveCompleted.
func (l *Ledger) ResolveFailed(reference, reason string) (PendingPayment, bool, error) {
	return l.resolve(reference, func(p PendingPayment) PendingPayment {
		now := l.now().UTC()
		p.Status = StatusFailed
		p.SignupAllowed = false
		p.CompletedAt = &now
		p.FailureReason = reason
		return p
	})
}

func (l *Ledger) resolve(reference string, apply func(PendingPayment) PendingPayment) (PendingPayment, bool, error) {
	var result PendingPayment
	changed := false

	err := l.payments.Update(reference, func(p PendingPayment) (PendingPayment, error) {
		if p.Terminal() {
			result = p
			return p, nil
		}
		changed = true
		result = apply(p)
		return result, nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return PendingPayment{}, false, fmt.Errorf("%w: %s", ErrNotFound, reference)
		}
		return PendingPayment{}, false, err
	}

	return result, changed, nil
}

func (l *Ledger) Get(reference string) (PendingPayment, error) {
	payment, ok := l.payments.Get(reference)
	if !ok {
		return PendingPayment{}, fmt.Errorf("%w: %s", ErrNotFound, reference)
	}
	return payment, nil
}
