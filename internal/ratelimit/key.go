package ratelimit

import (
	"net"
	"net/http"
	"strings"

	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/auth"
)

// Header names used for key derivation.
const (
	// HeaderXUserID carries an upstream-authenticated user identifier.
	HeaderXUserID = "X-User-ID"

	// HeaderXForwardedFor carries the proxy-forwarded client chain.
	HeaderXForwardedFor = "X-Forwarded-For"
)

// UnknownKey is the shared bucket for callers with no usable identity
// or address. All such callers drain one budget together.
const UnknownKey = "unknown"

// KeyFunc derives a rate limit key from a request.
type KeyFunc func(r *http.Request) string

// RequestKey derives the limiter key for a request under the given
// scope. Identity derivation prefers the authenticated identity, then
// the upstream-supplied user header, then the leftmost forwarded
// address, then the transport peer address.
func RequestKey(scope string, r *http.Request) string {
	if identity, ok := auth.IdentityFromContext(r.Context()); ok && identity != nil && identity.SubjectID != "" {
		return scope + ":user:" + identity.SubjectID
	}

	if userID := strings.TrimSpace(r.Header.Get(HeaderXUserID)); userID != "" {
		return scope + ":user:" + userID
	}

	if ip := forwardedClientIP(r); ip != "" {
		return scope + ":ip:" + ip
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return scope + ":ip:" + host
	}

	return scope + ":" + UnknownKey
}

// ScopedKeyFunc binds a scope into a KeyFunc.
func ScopedKeyFunc(scope string) KeyFunc {
	return func(r *http.Request) string {
		return RequestKey(scope, r)
	}
}

// forwardedClientIP returns the leftmost entry of the X-Forwarded-For
// header, the address closest to the original client.
func forwardedClientIP(r *http.Request) string {
	forwarded := r.Header.Get(HeaderXForwardedFor)
	if forwarded == "" {
		return ""
	}

	first := forwarded
	if idx := strings.Index(forwarded, ","); idx >= 0 {
		first = forwarded[:idx]
	}

	return strings.TrimSpace(first)
}
