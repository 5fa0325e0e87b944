package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Mekazstan/payment-first-signup-api/internal/auth"
	"github.com/Mekazstan/payment-first-signup-api/internal/authz"
	"github.com/Mekazstan/payment-first-signup-api/internal/signup"
)

func (cfg *apiConfig) signupHandler(w http.ResponseWriter, r *http.Request) {
	type userData struct {
		FullName string `json:"fullName"`
		Password string `json:"password"`
		Phone    string `json:"phone"`
		Email    string `json:"email"`
	}
	type parameters struct {
		SignupToken string   `json:"signupToken"`
		UserData    userData `json:"userData"`
	}

	var params parameters
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		respondWithError(w, http.StatusBadRequest, ApiError{
			Code:    "INVALID_REQUEST",
			Message: "Invalid request body",
		})
		return
	}

	user, err := cfg.workflow.SubmitSignup(signup.SubmitRequest{
		Token:    params.SignupToken,
		FullName: params.UserData.FullName,
		Password: params.UserData.Password,
		Phone:    params.UserData.Phone,
		Email:    params.UserData.Email,
	})
	if err != nil {
		respondWithSignupError(w, err)
		return
	}

	accessToken, err := auth.MakeJWT(user.ID, cfg.config.JWTSecret, time.Hour*24*7)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ApiError{
			Code:    "INTERNAL_ERROR",
			Message: "Failed to generate authentication token",
		})
		return
	}

	respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Account created successfully",
		Data: map[string]interface{}{
			"user": map[string]interface{}{
				"id":       user.ID,
				"email":    user.Email,
				"fullName": user.FullName,
				"planType": user.PlanType,
			},
			"token": accessToken,
		},
	})
}

func respondWithSignupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, signup.ErrMissingToken):
		respondWithError(w, http.StatusBadRequest, ApiError{
			Code:    "MISSING_TOKEN",
			Message: "Signup token required. Please complete payment first.",
		})
	case errors.Is(err, signup.ErrMissingFields):
		respondWithError(w, http.StatusBadRequest, ApiError{
			Code:    "VALIDATION_ERROR",
			Message: "Full name and password are required",
		})
	case errors.Is(err, authz.ErrNotFound):
		respondWithError(w, http.StatusUnauthorized, ApiError{
			Code:    "INVALID_TOKEN",
			Message: "Invalid or expired signup token",
		})
	case errors.Is(err, authz.ErrExpired):
		respondWithError(w, http.StatusUnauthorized, ApiError{
			Code:    "TOKEN_EXPIRED",
			Message: "Signup token expired",
		})
	case errors.Is(err, authz.ErrAlreadyUsed):
		respondWithError(w, http.StatusUnauthorized, ApiError{
			Code:    "TOKEN_USED",
			Message: "Signup token already used",
		})
	case errors.Is(err, authz.ErrEmailMismatch):
		respondWithError(w, http.StatusUnauthorized, ApiError{
			Code:    "TOKEN_EMAIL_MISMATCH",
			Message: "Signup token is bound to a different email",
		})
	case errors.Is(err, signup.ErrUserExists):
		respondWithError(w, http.StatusBadRequest, ApiError{
			Code:    "USER_EXISTS",
			Message: "User already exists",
		})
	default:
		respondWithError(w, http.StatusInternalServerError, ApiError{
			Code:    "INTERNAL_ERROR",
			Message: "Failed to create account",
		})
	}
}
