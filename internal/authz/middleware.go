package authz

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/auth"
	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/observability"
)

// Check is a single authorization predicate over an identity.
type Check func(identity *auth.Identity) error

// Permission adapts RequirePermission into a Check.
func Permission(perm string) Check {
	return func(identity *auth.Identity) error {
		return RequirePermission(identity, perm)
	}
}

// AnyPermission adapts RequireAnyPermission into a Check.
func AnyPermission(perms ...string) Check {
	return func(identity *auth.Identity) error {
		return RequireAnyPermission(identity, perms)
	}
}

// Role adapts RequireRole into a Check.
func Role(minRole string) Check {
	return func(identity *auth.Identity) error {
		return RequireRole(identity, minRole)
	}
}

// Tenant adapts RequireTenant into a Check.
func Tenant() Check {
	return RequireTenant
}

// VerifiedEmail adapts RequireVerifiedEmail into a Check.
func VerifiedEmail() Check {
	return RequireVerifiedEmail
}

// PlatformAdmin adapts RequirePlatformAdmin into a Check.
func PlatformAdmin() Check {
	return RequirePlatformAdmin
}

// Guard evaluates checks against the request identity and turns
// denials into HTTP responses.
type Guard struct {
	logger  observability.Logger
	metrics *Metrics
}

// GuardOption is a functional option for the guard.
type GuardOption func(*Guard)

// WithGuardLogger sets the logger.
func WithGuardLogger(logger observability.Logger) GuardOption {
	return func(g *Guard) {
		g.logger = logger
	}
}

// WithGuardMetrics sets the metrics.
func WithGuardMetrics(metrics *Metrics) GuardOption {
	return func(g *Guard) {
		g.metrics = metrics
	}
}

// NewGuard creates a new guard.
func NewGuard(opts ...GuardOption) *Guard {
	g := &Guard{
		logger: observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.metrics == nil {
		g.metrics = NewMetrics("olympus")
	}

	return g
}

// Middleware returns an HTTP middleware that runs the given checks in
// order against the identity in the request context. The first failing
// check short-circuits with a denial response.
func (g *Guard) Middleware(checks ...Check) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := auth.IdentityFromContextOrError(r.Context())
			if err != nil {
				g.handleAuthzError(w, r, ErrNoIdentity)
				return
			}

			for _, check := range checks {
				if err := check(identity); err != nil {
					g.handleAuthzError(w, r, err)
					return
				}
			}

			g.metrics.RecordDecision("chain", "allowed", "")
			next.ServeHTTP(w, r)
		})
	}
}

// denialResponse is the JSON body of a denied request. The detail
// fields carry whichever requirement failed so callers can react
// without parsing the message.
type denialResponse struct {
	Code         string   `json:"code"`
	Message      string   `json:"message"`
	Required     string   `json:"required,omitempty"`
	RequiredAny  []string `json:"required_any,omitempty"`
	RequiredRole string   `json:"required_role,omitempty"`
	CurrentRole  string   `json:"current_role,omitempty"`
}

// handleAuthzError writes a denial or internal error response.
func (g *Guard) handleAuthzError(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set(auth.HeaderContentType, auth.ContentTypeJSON)

	var denied *DeniedError
	switch {
	case errors.As(err, &denied):
		g.logger.Warn("access denied",
			observability.String("path", r.URL.Path),
			observability.String("method", r.Method),
			observability.String("code", denied.Code),
			observability.String("reason", denied.Reason),
		)
		g.metrics.RecordDecision("chain", "denied", denied.Code)

		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(denialResponse{
			Code:         denied.Code,
			Message:      denied.Error(),
			Required:     denied.RequiredPermission,
			RequiredAny:  denied.RequiredAnyOf,
			RequiredRole: denied.RequiredRole,
			CurrentRole:  denied.CurrentRole,
		})
	case errors.Is(err, ErrNoIdentity):
		g.metrics.RecordDecision("chain", "denied", "no_identity")

		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code":    "TOKEN_INVALID",
			"message": "authentication required",
		})
	default:
		g.logger.Error("authorization error",
			observability.String("path", r.URL.Path),
			observability.Error(err),
		)

		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code":    "CONFIG",
			"message": "authorization error",
		})
	}
}
