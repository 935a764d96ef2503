package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/auth"
	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/observability"
)

// writeJSON writes a JSON response with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", observability.Error(err))
	}
}

// writeError writes an error response with a stable code.
func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

// handleHealthz reports liveness.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}

// verifyRequest is the body of POST /v1/auth/verify.
type verifyRequest struct {
	Token string `json:"token"`
}

// handleVerify checks a presented token and reports its validity
// without requiring the caller to be authenticated. The endpoint sits
// under the auth limiter profile, which tolerates very few attempts.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, auth.CodeTokenInvalid, "invalid request body")
		return
	}

	claims, err := s.verifier.Verify(r.Context(), req.Token)
	if err != nil {
		code := auth.ErrorCode(err)
		status := http.StatusUnauthorized
		if auth.IsConfigError(err) {
			status = http.StatusInternalServerError
		}
		s.writeError(w, status, code, "token verification failed")
		return
	}

	identity := auth.NewIdentity(claims)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":       true,
		"subject_id":  identity.SubjectID,
		"tenant_id":   identity.TenantID,
		"tenant_role": identity.TenantRole,
	})
}

// handleMe echoes the authenticated identity.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.IdentityFromContextOrError(r.Context())
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, auth.CodeTokenInvalid, "authentication required")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"subject_id":        identity.SubjectID,
		"email":             identity.Email,
		"email_verified":    identity.EmailVerified,
		"tenant_id":         identity.TenantID,
		"tenant_role":       identity.TenantRole,
		"tenant_slug":       identity.TenantSlug,
		"permissions":       identity.Permissions.Values(),
		"plan_tier":         identity.PlanTier,
		"is_platform_admin": identity.IsPlatformAdmin,
	})
}

// handleStatus serves both anonymous and authenticated callers. The
// response carries identity details only when a valid token was
// presented.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":        "ok",
		"authenticated": false,
	}

	if identity, ok := auth.IdentityFromContext(r.Context()); ok && identity != nil {
		body["authenticated"] = true
		body["subject_id"] = identity.SubjectID
	}

	s.writeJSON(w, http.StatusOK, body)
}

// handleTenantInfo reports the caller's tenant scope. Guarded by
// RequireTenant and RequireRole(viewer).
func (s *Server) handleTenantInfo(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.IdentityFromContextOrError(r.Context())
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, auth.CodeTokenInvalid, "authentication required")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"tenant_id":   identity.TenantID,
		"tenant_slug": identity.TenantSlug,
		"tenant_role": identity.TenantRole,
		"plan_tier":   identity.PlanTier,
	})
}

// handleTenantKeys issues a new API key identifier for the tenant.
// Guarded by RequireTenant, RequireRole(admin), and the keys:write
// permission.
func (s *Server) handleTenantKeys(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.IdentityFromContextOrError(r.Context())
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, auth.CodeTokenInvalid, "authentication required")
		return
	}

	keyID := uuid.New().String()

	s.logger.Info("tenant key issued",
		observability.String("tenant_id", identity.TenantID),
		observability.String("subject_id", identity.SubjectID),
		observability.String("key_id", keyID),
	)

	s.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"key_id":     keyID,
		"tenant_id":  identity.TenantID,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleAdminStats reports limiter state for platform operators.
func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"rate_limit_enabled": s.config.RateLimit.Enabled,
		"profiles": map[string]interface{}{
			"api": map[string]interface{}{
				"window":       s.config.RateLimit.API.Window.String(),
				"max_requests": s.config.RateLimit.API.MaxRequests,
			},
			"auth": map[string]interface{}{
				"window":       s.config.RateLimit.Auth.Window.String(),
				"max_requests": s.config.RateLimit.Auth.MaxRequests,
			},
			"strict": map[string]interface{}{
				"window":       s.config.RateLimit.Strict.Window.String(),
				"max_requests": s.config.RateLimit.Strict.MaxRequests,
			},
		},
	}

	if counter, ok := s.store.(interface{ Size() int }); ok {
		stats["tracked_keys"] = counter.Size()
	}

	s.writeJSON(w, http.StatusOK, stats)
}
