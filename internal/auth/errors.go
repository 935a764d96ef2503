package auth

import (
	"errors"
	"fmt"
)

// Stable machine-checkable error codes surfaced to callers.
const (
	// CodeConfig indicates a server-side configuration problem. It is
	// never attributable to the caller and maps to an internal error.
	CodeConfig = "CONFIG"

	// CodeTokenExpired indicates the token's expiry claim is in the past.
	CodeTokenExpired = "TOKEN_EXPIRED"

	// CodeTokenInvalid covers every other verification failure: bad
	// signature, malformed structure, audience mismatch, wrong algorithm.
	CodeTokenInvalid = "TOKEN_INVALID"
)

// Sentinel errors for token verification.
var (
	// ErrSecretNotConfigured indicates that no signing secret is
	// configured. This is a deployment fault, not a client fault.
	ErrSecretNotConfigured = errors.New("jwt signing secret is not configured")

	// ErrNoCredentials indicates that no bearer token was provided.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrEmptyToken indicates that the token is empty.
	ErrEmptyToken = errors.New("token is empty")

	// ErrTokenMalformed indicates that the token is not a three-part
	// compact JWT or its segments fail to decode.
	ErrTokenMalformed = errors.New("token is malformed")

	// ErrTokenExpired indicates that the token has expired.
	ErrTokenExpired = errors.New("token has expired")

	// ErrInvalidSignature indicates that the token signature is invalid.
	ErrInvalidSignature = errors.New("token signature is invalid")

	// ErrInvalidAudience indicates that the token audience does not
	// contain the expected value.
	ErrInvalidAudience = errors.New("token audience is invalid")

	// ErrUnsupportedAlgorithm indicates that the token asserts a signing
	// algorithm other than the single accepted one.
	ErrUnsupportedAlgorithm = errors.New("signing algorithm is not supported")
)

// VerificationError represents a token verification failure with detail.
type VerificationError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *VerificationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("token verification error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("token verification error: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *VerificationError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *VerificationError) Is(target error) bool {
	_, ok := target.(*VerificationError)
	return ok || errors.Is(e.Cause, target)
}

// NewVerificationError creates a new VerificationError.
func NewVerificationError(message string, cause error) *VerificationError {
	return &VerificationError{
		Message: message,
		Cause:   cause,
	}
}

// ErrorCode maps a verification error to its stable code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrSecretNotConfigured):
		return CodeConfig
	case errors.Is(err, ErrTokenExpired):
		return CodeTokenExpired
	default:
		return CodeTokenInvalid
	}
}

// IsExpiredError checks if an error indicates token expiration.
func IsExpiredError(err error) bool {
	return errors.Is(err, ErrTokenExpired)
}

// IsConfigError checks if an error is a server configuration error.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrSecretNotConfigured)
}
