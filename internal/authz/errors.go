package authz

import (
	"errors"
	"fmt"
	"strings"
)

// Stable machine-checkable denial codes.
const (
	// CodePermissionDenied covers permission, role, and platform-admin
	// failures.
	CodePermissionDenied = "PERMISSION_DENIED"

	// CodeTenantRequired indicates the caller has no active tenant.
	CodeTenantRequired = "TENANT_REQUIRED"

	// CodeEmailUnverified indicates the caller's email is not verified.
	CodeEmailUnverified = "EMAIL_UNVERIFIED"
)

// Common authorization errors.
var (
	// ErrAccessDenied indicates that access was denied.
	ErrAccessDenied = errors.New("access denied")

	// ErrNoIdentity indicates that no identity was found in the context.
	ErrNoIdentity = errors.New("no identity in context")
)

// DeniedError reports a single failed authorization predicate with
// enough context to explain the decision.
type DeniedError struct {
	// Code is the stable machine-checkable denial code.
	Code string

	// Reason is a human-readable explanation of the denial.
	Reason string

	// RequiredPermission is set when a single permission was required.
	RequiredPermission string

	// RequiredAnyOf is set when any one of several permissions would
	// have sufficed.
	RequiredAnyOf []string

	// RequiredRole is the minimum tenant role that was required.
	RequiredRole string

	// CurrentRole is the tenant role the caller actually holds.
	CurrentRole string
}

// Error returns the error message.
func (e *DeniedError) Error() string {
	switch {
	case e.RequiredPermission != "":
		return fmt.Sprintf("access denied: missing permission %q", e.RequiredPermission)
	case len(e.RequiredAnyOf) > 0:
		return fmt.Sprintf("access denied: requires one of [%s]", strings.Join(e.RequiredAnyOf, ", "))
	case e.RequiredRole != "":
		return fmt.Sprintf("access denied: requires role %q, have %q", e.RequiredRole, e.CurrentRole)
	case e.Reason != "":
		return fmt.Sprintf("access denied: %s", e.Reason)
	default:
		return "access denied"
	}
}

// Unwrap lets errors.Is match the ErrAccessDenied sentinel.
func (e *DeniedError) Unwrap() error {
	return ErrAccessDenied
}

// IsAccessDenied checks if an error is an access denied error.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// DenialCode returns the stable code for a denial, or the empty string
// when the error is not a denial.
func DenialCode(err error) string {
	var denied *DeniedError
	if errors.As(err, &denied) {
		return denied.Code
	}
	return ""
}
