package apperrors

import (
	"net/http"
)

// Factories for wrapping repository-level errors.

func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

func ErrAlreadyExists(err error) *AppError {
	return Wrap(err, CodeAlreadyExists, "resource", "Resource already exists", http.StatusConflict)
}

func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

func ErrInvalidStatus(domain, message string) *AppError {
	return New(CodeInvalidStatus, domain, message, http.StatusConflict)
}

// Predefined errors for the donations domain.

var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusUnauthorized,
)

var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"Insufficient permissions",
	http.StatusForbidden,
)

// ErrWebhookSignature rejects a webhook whose signature is missing or does
// not verify. No state may change after this error.
var ErrWebhookSignature = New(
	CodeInvalidSignature,
	"payment",
	"Webhook signature verification failed",
	http.StatusBadRequest,
)

var ErrCampaignNotActive = New(
	CodeInvalidOperation,
	"campaign",
	"Campaign is not accepting donations",
	http.StatusBadRequest,
)

var ErrCampaignDatesInvalid = New(
	CodeValidationFailed,
	"campaign",
	"Campaign end date must be after start date",
	http.StatusBadRequest,
)

var ErrDonationNotCompleted = New(
	CodeInvalidStatus,
	"receipt",
	"Receipts can only be issued for completed donations",
	http.StatusConflict,
)

var ErrPaymentProvider = New(
	CodeExternalServiceError,
	"payment",
	"Payment provider error",
	http.StatusServiceUnavailable,
)
