package auth

import (
	"context"
	"errors"
	"sort"
)

// WildcardPermission satisfies any specific-permission check. It never
// satisfies role, tenant, or email-verification checks.
const WildcardPermission = "*"

// PermissionSet is a set of capability tokens.
type PermissionSet map[string]struct{}

// NewPermissionSet builds a set from a list, collapsing duplicates.
func NewPermissionSet(perms []string) PermissionSet {
	s := make(PermissionSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// Has checks exact membership. Wildcard semantics belong to the caller.
func (s PermissionSet) Has(perm string) bool {
	_, ok := s[perm]
	return ok
}

// HasWildcard checks if the set carries the wildcard permission.
func (s PermissionSet) HasWildcard() bool {
	return s.Has(WildcardPermission)
}

// Values returns the permissions as a sorted slice.
func (s PermissionSet) Values() []string {
	values := make([]string, 0, len(s))
	for p := range s {
		values = append(values, p)
	}
	sort.Strings(values)
	return values
}

// Identity is the immutable per-request authorization context derived
// from a single verified token. Every authorization decision is a pure
// function of it; it is never mutated after creation.
type Identity struct {
	// SubjectID is the authenticated principal identifier. It is the
	// empty string when the token carries no subject claim.
	SubjectID string `json:"subject_id"`

	// Email is the principal's email address, may be empty.
	Email string `json:"email,omitempty"`

	// EmailVerified indicates if the email has been verified.
	EmailVerified bool `json:"email_verified"`

	// TenantID is the active tenant scope; empty means none.
	TenantID string `json:"tenant_id,omitempty"`

	// TenantRole is the principal's role within the tenant.
	TenantRole string `json:"tenant_role,omitempty"`

	// TenantSlug is informational only.
	TenantSlug string `json:"tenant_slug,omitempty"`

	// Permissions is the set of capability tokens granted by the token.
	Permissions PermissionSet `json:"-"`

	// PlanTier is informational and carries no authorization weight.
	PlanTier string `json:"plan_tier,omitempty"`

	// IsPlatformAdmin marks platform operators.
	IsPlatformAdmin bool `json:"is_platform_admin"`
}

// NewIdentity maps a verified token payload into an Identity. It is a
// pure mapping: absent fields take their zero defaults, and an absent
// subject claim yields an empty-string identifier rather than failing.
func NewIdentity(claims *Claims) *Identity {
	custom := claims.OlympusOrDefault()

	return &Identity{
		SubjectID:       claims.Subject,
		Email:           claims.Email,
		EmailVerified:   claims.EmailVerified,
		TenantID:        custom.TenantID,
		TenantRole:      custom.TenantRole,
		TenantSlug:      custom.TenantSlug,
		Permissions:     NewPermissionSet(custom.Permissions),
		PlanTier:        custom.PlanTier,
		IsPlatformAdmin: custom.IsPlatformAdmin,
	}
}

// Context key type for identity.
type identityContextKey struct{}

// ContextWithIdentity adds an identity to the context.
func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext extracts the identity from the context.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(*Identity)
	return identity, ok
}

// ErrIdentityNotFound is returned when identity is not found in context.
var ErrIdentityNotFound = errors.New("identity not found in context")

// ErrIdentityNil is returned when identity in context is nil.
var ErrIdentityNil = errors.New("identity in context is nil")

// IdentityFromContextOrError extracts the identity from the context or
// returns an error, allowing handlers to fail cleanly instead of
// panicking when authentication middleware did not run.
func IdentityFromContextOrError(ctx context.Context) (*Identity, error) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, ErrIdentityNotFound
	}
	if identity == nil {
		return nil, ErrIdentityNil
	}
	return identity, nil
}
