package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Mekazstan/payment-first-signup-api/internal/ledger"
	"github.com/Mekazstan/payment-first-signup-api/internal/signup"
)

func (cfg *apiConfig) initiatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	type parameters struct {
		Email    string            `json:"email"`
		Amount   int64             `json:"amount"`
		PlanType string            `json:"planType"`
		Metadata map[string]string `json:"metadata"`
	}

	var params parameters
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		respondWithError(w, http.StatusBadRequest, ApiError{
			Code:    "INVALID_REQUEST",
			Message: "Invalid request body",
		})
		return
	}

	if params.Email == "" {
		respondWithError(w, http.StatusBadRequest, ApiError{
			Code:    "VALIDATION_ERROR",
			Message: "Email is required",
			Details: map[string]interface{}{
				"field":  "email",
				"reason": "This field cannot be empty",
			},
		})
		return
	}

	if params.Amount <= 0 {
		respondWithError(w, http.StatusBadRequest, ApiError{
			Code:    "VALIDATION_ERROR",
			Message: "Amount must be greater than zero",
			Details: map[string]interface{}{
				"field":  "amount",
				"reason": "Amount is in the minor currency unit and must be positive",
			},
		})
		return
	}

	if params.PlanType == "" {
		respondWithError(w, http.StatusBadRequest, ApiError{
			Code:    "VALIDATION_ERROR",
			Message: "Plan type is required",
			Details: map[string]interface{}{
				"field":  "planType",
				"reason": "This field cannot be empty",
			},
		})
		return
	}

	result, err := cfg.workflow.InitiatePayment(r.Context(), signup.InitiateRequest{
		Email:    params.Email,
		Amount:   params.Amount,
		PlanType: params.PlanType,
		Metadata: params.Metadata,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidInput):
			respondWithError(w, http.StatusBadRequest, ApiError{
				Code:    "VALIDATION_ERROR",
				Message: "Invalid payment details",
			})
		case errors.Is(err, signup.ErrUpstream):
			respondWithError(w, http.StatusBadRequest, ApiError{
				Code:    "PAYMENT_ERROR",
				Message: "Failed to initialize payment",
			})
		default:
			respondWithError(w, http.StatusInternalServerError, ApiError{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to initiate payment",
			})
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Message: "Complete payment to proceed with signup",
		Data: map[string]interface{}{
			"paymentUrl": result.PaymentURL,
			"reference":  result.Reference,
		},
	})
}

func (cfg *apiConfig) checkPaymentStatusHandler(w http.ResponseWriter, r *http.Request) {
	reference := r.URL.Query().Get("reference")
	if reference == "" {
		respondWithError(w, http.StatusBadRequest, ApiError{
			Code:    "VALIDATION_ERROR",
			Message: "Payment reference is required",
			Details: map[string]interface{}{
				"field":  "reference",
				"reason": "Pass the reference as a query parameter",
			},
		})
		return
	}

	status, err := cfg.workflow.CheckStatus(reference)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, ApiError{
				Code:    "PAYMENT_NOT_FOUND",
				Message: "Payment not found",
			})
			return
		}
		respondWithError(w, http.StatusInternalServerError, ApiError{
			Code:    "INTERNAL_ERROR",
			Message: "Failed to check payment status",
		})
		return
	}

	respondWithJSON(w, http.StatusOK, status)
}
