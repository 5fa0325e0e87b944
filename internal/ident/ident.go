// Package ident generates the unguessable identifiers used for payment
// references and signup tokens.
package ident

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Generator is the identifier capability injected into the ledger and the
// authorization issuer. Implementations must produce values that are
// practically impossible to predict or collide.
type Generator interface {
	PaymentReference() string
	SignupToken() string
}

type generator struct{}

func New() Generator {
	return generator{}
}

// PaymentReference returns a fixed-length reference combining a nanosecond
// timestamp with 8 cryptographically random bytes, e.g.
// "pay_1756300000000000000_3f2a9c01d4e5b6a7".
func (generator) PaymentReference() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return fmt.Sprintf("pay_%d_%s", time.Now().UnixNano(), hex.EncodeToString(bytes))
}

func (generator) SignupToken() string {
	return uuid.NewString()
}
