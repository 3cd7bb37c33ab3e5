package errors

import (
	"errors"
	"net/http"
	"time"
)

var (
	// ErrUnauthenticated is returned when no valid session accompanies a request.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	// Unknown email and wrong password share this error so login cannot be
	// used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthorized is returned when the principal's role does not permit the operation.
	ErrUnauthorized = errors.New("insufficient permissions")
	// ErrAccountDeactivated is returned when the principal's account has been soft-deleted.
	ErrAccountDeactivated = errors.New("account has been deactivated")
	// ErrAccountNotFound is returned when the target account is absent or soft-deleted.
	ErrAccountNotFound = errors.New("account not found")
	// ErrEmailAlreadyExists is returned when an email collides with a non-deleted account.
	ErrEmailAlreadyExists = errors.New("email already in use")
	// ErrSelfDeletion is returned when an account targets itself for deletion.
	ErrSelfDeletion = errors.New("accounts cannot delete themselves")
	// ErrNoUpdateData is returned when an update payload contains no recognized field.
	ErrNoUpdateData = errors.New("no update data provided")
	// ErrEmailDeliveryFailed marks the credential email as undelivered after a
	// successful mutation. It never rolls the mutation back.
	ErrEmailDeliveryFailed = errors.New("credential email could not be delivered")
)

// ValidationError carries the accumulated field-level failures from input
// validation. Fields maps a payload field name to every message it violated.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {message}}}
}

// RateLimitError is returned when a rate gate rejects a request.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return "rate limit exceeded"
}

// ErrorResponse represents a standardized error response body.
type ErrorResponse struct {
	Error      string              `json:"error"`
	Code       string              `json:"code"`
	Fields     map[string][]string `json:"fields,omitempty"`
	RetryAfter int                 `json:"retry_after,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Fields     map[string][]string
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error:      e.Message,
		Code:       e.Code,
		Fields:     e.Fields,
		RetryAfter: int(e.RetryAfter.Seconds()),
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. The taxonomy is closed:
// anything outside it collapses to a generic internal error so storage-layer
// detail never reaches a caller.
func MapErrorToHTTP(err error) *HTTPError {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		httpErr := NewHTTPError(http.StatusUnprocessableEntity, vErr.Error(), "VALIDATION_FAILED")
		httpErr.Fields = vErr.Fields
		return httpErr
	}
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		httpErr := NewHTTPError(http.StatusTooManyRequests, rlErr.Error(), "RATE_LIMITED")
		httpErr.RetryAfter = rlErr.RetryAfter
		return httpErr
	}

	switch {
	case errors.Is(err, ErrUnauthenticated):
		return NewHTTPError(http.StatusUnauthorized, ErrUnauthenticated.Error(), "UNAUTHENTICATED")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusForbidden, ErrUnauthorized.Error(), "UNAUTHORIZED")
	case errors.Is(err, ErrAccountDeactivated):
		return NewHTTPError(http.StatusForbidden, ErrAccountDeactivated.Error(), "ACCOUNT_DEACTIVATED")
	case errors.Is(err, ErrAccountNotFound):
		return NewHTTPError(http.StatusNotFound, ErrAccountNotFound.Error(), "RESOURCE_NOT_FOUND")
	case errors.Is(err, ErrEmailAlreadyExists):
		return NewHTTPError(http.StatusConflict, ErrEmailAlreadyExists.Error(), "EMAIL_ALREADY_EXISTS")
	case errors.Is(err, ErrSelfDeletion):
		return NewHTTPError(http.StatusUnprocessableEntity, ErrSelfDeletion.Error(), "SELF_DELETION_NOT_ALLOWED")
	case errors.Is(err, ErrNoUpdateData):
		return NewHTTPError(http.StatusUnprocessableEntity, ErrNoUpdateData.Error(), "NO_UPDATE_DATA")
	case errors.Is(err, ErrEmailDeliveryFailed):
		// Partial success: surfaced alongside the created resource in a
		// multi-status response, never on its own.
		return NewHTTPError(http.StatusMultiStatus, ErrEmailDeliveryFailed.Error(), "EMAIL_DELIVERY_FAILED")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
