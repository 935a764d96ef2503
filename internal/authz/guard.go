package authz

import (
	"github.com/ayoubagrebi062-hue/olympus-2.0/internal/auth"
)

// RequirePermission succeeds when the identity holds the permission or
// the wildcard. It fails with a PERMISSION_DENIED error otherwise.
func RequirePermission(identity *auth.Identity, perm string) error {
	if identity == nil {
		return ErrNoIdentity
	}
	if identity.Permissions.HasWildcard() || identity.Permissions.Has(perm) {
		return nil
	}
	return &DeniedError{
		Code:               CodePermissionDenied,
		Reason:             "missing required permission",
		RequiredPermission: perm,
	}
}

// RequireAnyPermission succeeds when the identity holds the wildcard or
// at least one of the listed permissions.
func RequireAnyPermission(identity *auth.Identity, perms []string) error {
	if identity == nil {
		return ErrNoIdentity
	}
	if identity.Permissions.HasWildcard() {
		return nil
	}
	for _, p := range perms {
		if identity.Permissions.Has(p) {
			return nil
		}
	}
	return &DeniedError{
		Code:          CodePermissionDenied,
		Reason:        "missing required permission",
		RequiredAnyOf: perms,
	}
}

// RequireRole succeeds when the identity's tenant role ranks at least
// as high as the given role. The wildcard permission never bypasses
// role checks.
func RequireRole(identity *auth.Identity, minRole string) error {
	if identity == nil {
		return ErrNoIdentity
	}
	if identity.TenantRole == "" {
		return &DeniedError{
			Code:   CodePermissionDenied,
			Reason: "no tenant role",
		}
	}
	if !RoleSatisfies(identity.TenantRole, minRole) {
		return &DeniedError{
			Code:         CodePermissionDenied,
			Reason:       "insufficient tenant role",
			RequiredRole: minRole,
			CurrentRole:  identity.TenantRole,
		}
	}
	return nil
}

// RequireTenant succeeds when the identity carries an active tenant.
func RequireTenant(identity *auth.Identity) error {
	if identity == nil {
		return ErrNoIdentity
	}
	if identity.TenantID == "" {
		return &DeniedError{
			Code:   CodeTenantRequired,
			Reason: "tenant context required",
		}
	}
	return nil
}

// RequireVerifiedEmail succeeds when the identity's email is verified.
func RequireVerifiedEmail(identity *auth.Identity) error {
	if identity == nil {
		return ErrNoIdentity
	}
	if !identity.EmailVerified {
		return &DeniedError{
			Code:   CodeEmailUnverified,
			Reason: "email verification required",
		}
	}
	return nil
}

// RequirePlatformAdmin succeeds only for platform operators. The
// wildcard permission never bypasses this check.
func RequirePlatformAdmin(identity *auth.Identity) error {
	if identity == nil {
		return ErrNoIdentity
	}
	if !identity.IsPlatformAdmin {
		return &DeniedError{
			Code:   CodePermissionDenied,
			Reason: "platform admin required",
		}
	}
	return nil
}
