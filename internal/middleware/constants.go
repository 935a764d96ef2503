// Package middleware provides HTTP middleware for the authorization service.
package middleware

// HTTP header constants.
const (
	// HeaderContentType is the Content-Type header name.
	HeaderContentType = "Content-Type"

	// HeaderRetryAfter is the Retry-After header name.
	HeaderRetryAfter = "Retry-After"

	// HeaderXRequestID is the X-Request-ID header name.
	HeaderXRequestID = "X-Request-ID"

	// HeaderRateLimitLimit is the X-RateLimit-Limit header name.
	HeaderRateLimitLimit = "X-RateLimit-Limit"

	// HeaderRateLimitRemaining is the X-RateLimit-Remaining header name.
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"

	// HeaderRateLimitReset is the X-RateLimit-Reset header name.
	HeaderRateLimitReset = "X-RateLimit-Reset"
)

// Content type constants.
const (
	// ContentTypeJSON is the JSON content type.
	ContentTypeJSON = "application/json"
)

// Error response constants.
const (
	// ErrInternalServerError is the error message for internal server error.
	ErrInternalServerError = `{"code":"CONFIG","message":"internal server error"}`
)
