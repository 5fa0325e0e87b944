package main

import (
	"errors"
	"io"
	"net/http"

	"github.com/Mekazstan/payment-first-signup-api/internal/signup"
)

// paystackWebhookHandler ingests provider notifications. Events this service
// does not act on are still acknowledged with a 200 so Paystack stops
// retrying; only authentication and payload failures get a 4xx.
func (cfg *apiConfig) paystackWebhookHandler(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ApiError{
			Code:    "INVALID_PAYLOAD",
			Message: "Failed to read request body",
		})
		return
	}

	if len(payload) == 0 {
		respondWithError(w, http.StatusBadRequest, ApiError{
			Code:    "EMPTY_BODY",
			Message: "Empty request body",
		})
		return
	}

	signature := r.Header.Get("X-Paystack-Signature")
	if signature == "" {
		respondWithError(w, http.StatusUnauthorized, ApiError{
			Code:    "MISSING_SIGNATURE",
			Message: "Missing Paystack signature",
		})
		return
	}

	if err := cfg.workflow.HandleProviderNotification(payload, signature); err != nil {
		switch {
		case errors.Is(err, signup.ErrUnauthorized):
			respondWithError(w, http.StatusUnauthorized, ApiError{
				Code:    "INVALID_SIGNATURE",
				Message: "Invalid webhook signature",
			})
		case errors.Is(err, signup.ErrMalformed):
			respondWithError(w, http.StatusBadRequest, ApiError{
				Code:    "INVALID_PAYLOAD",
				Message: "Invalid webhook payload",
			})
		default:
			respondWithError(w, http.StatusInternalServerError, ApiError{
				Code:    "INTERNAL_ERROR",
				Message: "Webhook processing failed",
			})
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"received": true})
}
