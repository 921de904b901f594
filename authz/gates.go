package authz

import (
	"fmt"

	"github.com/tradepost/marketauth/core"
)

// Gate names carried by PermissionDeniedError.
const (
	GateSeller = "seller"
	GateAdmin  = "admin"
)

// PermissionDeniedError is returned when an authorization gate denies a
// caller. It matches core.ErrPermissionDenied with errors.Is and carries the
// permission_denied code.
type PermissionDeniedError struct {
	// Gate is GateSeller or GateAdmin.
	Gate string
	// Subject is the denied caller's sub, if known.
	Subject string
	// SellerID is the seller the caller tried to act on, for GateSeller.
	SellerID string

	cause *core.ValidationError
}

func newPermissionDenied(ac *AuthContext, gate, sellerID, message string) *PermissionDeniedError {
	e := &PermissionDeniedError{Gate: gate, SellerID: sellerID}
	if ac != nil {
		e.Subject = ac.Identity.Subject
	}
	e.cause = core.NewValidationError(core.ErrPermissionDenied, core.ErrorCodePermissionDenied, message, nil)
	return e
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("%s gate: %s", e.Gate, e.cause.Message)
}

// Unwrap exposes the underlying *core.ValidationError.
func (e *PermissionDeniedError) Unwrap() error {
	return e.cause
}

// RequireSeller passes iff sellerID is one of the caller's seller scopes.
// A nil AuthContext or an empty sellerID is denied.
func RequireSeller(ac *AuthContext, sellerID string) error {
	if ac.HasSeller(sellerID) {
		return nil
	}
	return newPermissionDenied(ac, GateSeller, sellerID,
		fmt.Sprintf("caller may not act on seller %q", sellerID))
}

// RequireAdmin passes iff resource_access["realm-management"].roles or
// realm_access.roles contains "realm-admin". A nil AuthContext is denied.
func RequireAdmin(ac *AuthContext) error {
	if ac.IsAdmin() {
		return nil
	}
	return newPermissionDenied(ac, GateAdmin, "", "caller is not a realm administrator")
}
