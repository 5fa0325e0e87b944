// Package authz mints and redeems the one-time signup tokens that authorize
// account creation after a completed payment.
package authz

import (
	"errors"
	"time"

	"github.com/Mekazstan/payment-first-signup-api/internal/ident"
	"github.com/Mekazstan/payment-first-signup-api/internal/store"
)

var (
	ErrNotFound      = errors.New("authz: token not found")
	ErrExpired       = errors.New("authz: token expired")
	ErrAlreadyUsed   = errors.New("authz: token already used")
	ErrEmailMismatch = errors.New("authz: token bound to a different email")
)

// Authorization is a single-use, time-bounded credential tied to one
// completed payment. It authorizes exactly one account creation for its
// bound email.
type Authorization struct {
	Token            string    `json:"token"`
	Email            string    `json:"email"`
	PlanType         string    `json:"plan_type"`
	PaymentReference string    `json:"payment_reference"`
	ExpiresAt        time.Time `json:"expires_at"`
	Used             bool      `json:"used"`
}

type Issuer struct {
	tokens *store.Store[Authorization]
	ids    ident.Generator
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(ids ident.Generator, ttl time.Duration) *Issuer {
	return &Issuer{
		tokens: store.New[Authorization](),
		ids:    ids,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue mints a fresh token for a completed payment. Callers must only issue
// after the ledger confirms completion for the reference.
func (i *Issuer) Issue(email, planType, reference string) Authorization {
	auth := Authorization{
		Token:            i.ids.SignupToken(),
		Email:            email,
		PlanType:         planType,
		PaymentReference: reference,
		ExpiresAt:        i.now().UTC().Add(i.ttl),
		Used:             false,
	}
	i.tokens.Put(auth.Token, auth)
	return auth
}

// Redeem consumes a token. The used check and the flip to used happen under a
// single store update, so at most one concurrent redemption can succeed.
// Expiry is checked here regardless of whether the reaper has run. An empty
// email skips the bound-email check.
func (i *Issuer) Redeem(token, email string) (Authorization, error) {
	if token == "" {
		return Authorization{}, ErrNotFound
	}

	var redeemed Authorization
	err := i.tokens.Update(token, func(a Authorization) (Authorization, error) {
		if i.now().After(a.ExpiresAt) {
			return a, ErrExpired
		}
		if a.Used {
			return a, ErrAlreadyUsed
		}
		if email != "" && email != a.Email {
			return a, ErrEmailMismatch
		}
		a.Used = true
		redeemed = a
		return a, nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Authorization{}, ErrNotFound
		}
		return Authorization{}, err
	}

	return redeemed, nil
}

// ActiveTokenFor returns the outstanding unused, unexpired token for a
// payment reference, if any. Used by status polling, never for authorization
// decisions.
func (i *Issuer) ActiveTokenFor(reference string) (string, bool) {
	now := i.now()

	var found string
	i.tokens.Range(func(token string, a Authorization) bool {
		if a.PaymentReference == reference && !a.Used && now.Before(a.ExpiresAt) {
			found = token
			return false
		}
		return true
	})
	return found, found != ""
}

// Reap deletes tokens past expiry and returns how many were removed. Purely
// a memory-reclamation step; Redeem re-checks expiry on every call.
func (i *Issuer) Reap() int {
	now := i.now()

	var expired []string
	i.tokens.Range(func(token string, a Authorization) bool {
		if now.After(a.ExpiresAt) {
			expired = append(expired, token)
		}
		return true
	})

	for _, token := range expired {
		i.tokens.Delete(token)
	}
	return len(expired)
}
