package auth

import (
	"net/http"
	"strings"
)

// ExtractBearerToken extracts a bearer token from the Authorization header.
// It returns the empty string when the header is absent or does not carry
// the "Bearer " scheme.
func ExtractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}

	return strings.TrimSpace(auth[len(prefix):])
}
