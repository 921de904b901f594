// Package authz turns verified token claims into an AuthContext and decides
// whether the caller may act on a seller or perform administrative actions.
//
// Both gates fail closed and return a *PermissionDeniedError:
//
//	ac := authz.Build(claims, correlationID)
//	if err := authz.RequireSeller(ac, sellerID); err != nil {
//	    // errors.Is(err, core.ErrPermissionDenied) == true
//	}
//
// Composite rules such as "admin or the user themself" belong to the caller.
package authz
