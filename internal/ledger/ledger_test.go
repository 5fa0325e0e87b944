package ledger

import (
	"errors"
	"sync"
	"testing"

	"github.com/Mekazstan/payment-first-signup-api/internal/ident"
)

func TestInitiateValidation(t *testing.T) {
	l := New(ident.New())

	tests := []struct {
		name     string
		email    string
		amount   int64
		planType string
		wantErr  bool
	}{
		{
			name:     "Valid input",
			email:    "alice@x.com",
			amount:   5000,
			planType: "pro",
			wantErr:  false,
		},
		{
			name:     "Missing email",
			email:    "",
			amount:   5000,
			planType: "pro",
			wantErr:  true,
		},
		{
			name:     "Zero amount",
			email:    "alice@x.com",
			amount:   0,
			planType: "pro",
			wantErr:  true,
		},
		{
			name:     "Negative amount",
			email:    "alice@x.com",
			amount:   -100,
			planType: "pro",
			wantErr:  true,
		},
		{
			name:     "Missing plan",
			email:    "alice@x.com",
			amount:   5000,
			planType: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payment, err := l.Initiate(tt.email, tt.amount, tt.planType, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Initiate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("Expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if payment.Status != StatusPending {
				t.Errorf("Expected status pending, got %s", payment.Status)
			}
			if payment.SignupAllowed {
				t.Error("Expected SignupAllowed false on initiation")
			}
			if payment.Reference == "" {
				t.Error("Expected a generated reference")
			}
		})
	}
}

func TestInitiateUniqueReferences(t *testing.T) {
	l := New(ident.New())

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		payment, err := l.Initiate("alice@x.com", 5000, "pro", nil)
		if err != nil {
			t.Fatalf("Initiate() error = %v", err)
		}
		if seen[payment.Reference] {
			t.Fatalf("Duplicate reference: %s", payment.Reference)
		}
		seen[payment.Reference] = true
	}
}

func TestResolveCompleted(t *testing.T) {
	l := New(ident.New())
	payment, _ := l.Initiate("alice@x.com", 5000, "pro", nil)

	resolved, changed, err := l.ResolveCompleted(payment.Reference, 12345)
	if err != nil {
		t.Fatalf("ResolveCompleted() error = %v", err)
	}
	if !changed {
		t.Error("Expected first resolution to report a change")
	}
	if resolved.Status != StatusCompleted {
		t.Errorf("Expected status completed, got %s", resolved.Status)
	}
	if !resolved.SignupAllowed {
		t.Error("Expected SignupAllowed true after completion")
	}
	if resolved.TransactionID != 12345 {
		t.Errorf("Expected transaction id 12345, got %d", resolved.TransactionID)
	}
	if resolved.CompletedAt == nil {
		t.Error("Expected completion timestamp")
	}
}

func TestResolveFailed(t *testing.T) {
	l := New(ident.New())
	payment, _ := l.Initiate("bob@x.com", 2000, "starter", nil)

	resolved, changed, err := l.ResolveFailed(payment.Reference, "Insufficient funds")
	if err != nil {
		t.Fatalf("ResolveFailed() error = %v", err)
	}
	if !changed {
		t.Error("Expected first resolution to report a change")
	}
	if resolved.Status != StatusFailed {
		t.Errorf("Expected status failed, got %s", resolved.Status)
	}
	if resolved.SignupAllowed {
		t.Error("Expected SignupAllowed false after failure")
	}
	if resolved.FailureReason != "Insufficient funds" {
		t.Errorf("Expected failure reason preserved, got '%s'", resolved.FailureReason)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	l := New(ident.New())
	payment, _ := l.Initiate("alice@x.com", 5000, "pro", nil)

	_, changed, _ := l.ResolveCompleted(payment.Reference, 111)
	if !changed {
		t.Fatal("Expected first resolution to change the record")
	}

	replayed, changed, err := l.ResolveCompleted(payment.Reference, 222)
	if err != nil {
		t.Fatalf("ResolveCompleted() replay error = %v", err)
	}
	if changed {
		t.Error("Expected replayed resolution to be a no-op")
	}
	if replayed.TransactionID != 111 {
		t.Errorf("Expected original transaction id 111, got %d", replayed.TransactionID)
	}
}

func TestTerminalStateIsFinal(t *testing.T) {
	l := New(ident.New())
	payment, _ := l.Initiate("alice@x.com", 5000, "pro", nil)

	l.ResolveFailed(payment.Reference, "Declined")

	resolved, changed, err := l.ResolveCompleted(payment.Reference, 999)
	if err != nil {
		t.Fatalf("ResolveCompleted() error = %v", err)
	}
	if changed {
		t.Error("Expected no transition out of a terminal state")
	}
	if resolved.Status != StatusFailed {
		t.Errorf("Expected status to remain failed, got %s", resolved.Status)
	}
	if resolved.SignupAllowed {
		t.Error("Expected SignupAllowed to remain false")
	}
}

func TestResolveUnknownReference(t *testing.T) {
	l := New(ident.New())

	_, _, err := l.ResolveCompleted("pay_unknown", 1)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentResolveAppliesOnce(t *testing.T) {
	l := New(ident.New())
	payment, _ := l.Initiate("alice@x.com", 5000, "pro", nil)

	const workers = 32
	changes := make(chan bool, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, changed, err := l.ResolveCompleted(payment.Reference, 777)
			if err != nil {
				t.Errorf("ResolveCompleted() error = %v", err)
				return
			}
			changes <- changed
		}()
	}
	wg.Wait()
	close(changes)

	applied := 0
	for changed := range changes {
		if changed {
			applied++
		}
	}
	if applied != 1 {
		t.Errorf("Expected exactly 1 applied transition, got %d", applied)
	}
}

func TestGet(t *testing.T) {
	l := New(ident.New())
	payment, _ := l.Initiate("alice@x.com", 5000, "pro", map[string]string{"source": "landing"})

	got, err := l.Get(payment.Reference)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Email != "alice@x.com" {
		t.Errorf("Expected email 'alice@x.com', got '%s'", got.Email)
	}
	if got.Metadata["source"] != "landing" {
		t.Errorf("Expected metadata preserved, got %v", got.Metadata)
	}

	if _, err := l.Get("pay_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
