package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/observability"
)

// Authenticator handles authentication for HTTP requests.
type Authenticator interface {
	// Authenticate authenticates an HTTP request.
	Authenticate(r *http.Request) (*Identity, error)

	// Middleware returns an HTTP middleware that rejects requests
	// without a valid bearer token.
	Middleware() func(http.Handler) http.Handler

	// OptionalMiddleware returns an HTTP middleware that attaches an
	// identity when a valid token is present and passes the request
	// through anonymously on any authentication failure.
	OptionalMiddleware() func(http.Handler) http.Handler
}

// authenticator implements the Authenticator interface.
type authenticator struct {
	verifier Verifier
	logger   observability.Logger
}

// AuthenticatorOption is a functional option for the authenticator.
type AuthenticatorOption func(*authenticator)

// WithAuthenticatorLogger sets the logger.
func WithAuthenticatorLogger(logger observability.Logger) AuthenticatorOption {
	return func(a *authenticator) {
		a.logger = logger
	}
}

// NewAuthenticator creates a new authenticator.
func NewAuthenticator(verifier Verifier, opts ...AuthenticatorOption) (Authenticator, error) {
	if verifier == nil {
		return nil, errors.New("verifier is required")
	}

	a := &authenticator{
		verifier: verifier,
		logger:   observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a, nil
}

// Authenticate authenticates an HTTP request.
func (a *authenticator) Authenticate(r *http.Request) (*Identity, error) {
	token := ExtractBearerToken(r)
	if token == "" {
		return nil, ErrNoCredentials
	}

	claims, err := a.verifier.Verify(r.Context(), token)
	if err != nil {
		return nil, err
	}

	return NewIdentity(claims), nil
}

// Middleware returns an HTTP middleware for mandatory authentication.
func (a *authenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := a.Authenticate(r)
			if err != nil {
				a.handleAuthError(w, r, err)
				return
			}

			ctx := ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalMiddleware returns an HTTP middleware for optional authentication.
func (a *authenticator) OptionalMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := a.Authenticate(r)
			if err != nil {
				// Every authentication failure proceeds anonymously.
				// The handler behind this middleware must tolerate a
				// missing identity either way.
				if !errors.Is(err, ErrNoCredentials) {
					a.logger.Debug("optional authentication failed",
						observability.String("path", r.URL.Path),
						observability.Error(err),
					)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// handleAuthError handles authentication errors.
func (a *authenticator) handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	a.logger.Warn("authentication failed",
		observability.String("path", r.URL.Path),
		observability.String("method", r.Method),
		observability.Error(err),
	)

	w.Header().Set(HeaderContentType, ContentTypeJSON)

	var statusCode int
	var message string
	code := ErrorCode(err)

	switch {
	case errors.Is(err, ErrSecretNotConfigured):
		// Misconfiguration is a server fault, never the caller's.
		statusCode = http.StatusInternalServerError
		message = "authentication misconfigured"
	case errors.Is(err, ErrNoCredentials):
		statusCode = http.StatusUnauthorized
		message = "authentication required"
		w.Header().Set(HeaderWWWAuthenticate, "Bearer")
	case errors.Is(err, ErrTokenExpired):
		statusCode = http.StatusUnauthorized
		message = "token expired"
	default:
		statusCode = http.StatusUnauthorized
		message = "invalid token"
	}

	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}

// Ensure authenticator implements Authenticator.
var _ Authenticator = (*authenticator)(nil)
