package jobs

import (
	"log"

	"github.com/Mekazstan/payment-first-signup-api/internal/authz"
)

// ReapExpiredTokens deletes signup tokens past expiry. Scheduled hourly;
// token validation re-checks expiry on every redemption, so this only
// reclaims memory.
func ReapExpiredTokens(issuer *authz.Issuer) {
	removed := issuer.Reap()
	if removed > 0 {
		log.Printf("Reaped %d expired signup tokens", removed)
	}
}
