package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on Code so callers can compare against a constructor result:
// errors.Is(err, apperror.ErrAccountNotFound()).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Webhook caller authentication (SEC) ----

func ErrInvalidWebhookToken() *AppError {
	return New("SEC_001", "Unauthorized", http.StatusUnauthorized)
}

func ErrInvalidWebhookSignature() *AppError {
	return New("SEC_002", "Unauthorized", http.StatusUnauthorized)
}

func ErrSignatureReplayed() *AppError {
	return New("SEC_004", "Signed payload has already been used", http.StatusForbidden)
}

// ---- Payments (PAY) ----

func ErrInvalidAmount() *AppError {
	return New("PAY_002", "Invalid amount", http.StatusBadRequest)
}

func ErrNotFound(entity string) *AppError {
	return New("PAY_004", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Authentication (AUTH) ----

func ErrAccountExists() *AppError {
	return New("AUTH_002", "User already exists!", http.StatusBadRequest)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrAccountSuspended() *AppError {
	return New("AUTH_004", "Account is suspended", http.StatusForbidden)
}

func ErrForbidden() *AppError {
	return New("AUTH_005", "Access to this resource is not allowed", http.StatusForbidden)
}

func ErrInvalidSignature(err error) *AppError {
	return Wrap("AUTH_010", "Invalid signature", http.StatusBadRequest, err)
}

func ErrKeyNotAuthorized() *AppError {
	return New("AUTH_011", "Invalid public key", http.StatusBadRequest)
}

func ErrAccountNotFound() *AppError {
	return New("AUTH_012", "User not found!", http.StatusNotFound)
}

// ---- Webhook payloads (WH) ----

// ErrMalformedPayload is reported as a server error: indexer retries on 5xx and
// a payload the parser cannot read is treated as a processing failure.
func ErrMalformedPayload(err error) *AppError {
	return Wrap("WH_002", "Malformed webhook payload", http.StatusInternalServerError, err)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrNetwork(err error) *AppError {
	return Wrap("SYS_004", "Blockchain RPC unavailable", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a PAY_002-style validation error.
func Validation(message string) *AppError {
	return New("PAY_002", message, http.StatusBadRequest)
}
