package authz

import (
	"sort"
	"strings"

	"github.com/tradepost/marketauth/core"
)

// Claim names read by Build and the gates.
const (
	ClaimSubject        = "sub"
	ClaimIssuer         = "iss"
	ClaimSellers        = "sellers"
	ClaimRealmAccess    = "realm_access"
	ClaimResourceAccess = "resource_access"

	// AdminRole grants realm-wide administration.
	AdminRole = "realm-admin"
	// AdminClient is the resource_access client whose roles can carry AdminRole.
	AdminClient = "realm-management"
)

// Identity is who the token was issued to, verbatim from the token.
type Identity struct {
	Subject string
	Issuer  string
}

// AuthContext is the per-request view of a verified caller. It is built once
// per request by Build and never persisted.
type AuthContext struct {
	Identity Identity

	// CorrelationID comes from the inbound request, never from the token.
	CorrelationID string

	sellers map[string]struct{}
	claims  core.Claims
}

// Build normalizes verified claims into an AuthContext.
//
// The sellers claim may be a comma separated string, a list of strings or
// absent. Empty segments are dropped and duplicates collapse. Any other
// shape yields no seller scopes.
//
// claims must come from a token that has passed signature and expiry checks.
func Build(claims core.Claims, correlationID string) *AuthContext {
	return &AuthContext{
		Identity: Identity{
			Subject: claims.String(ClaimSubject),
			Issuer:  claims.String(ClaimIssuer),
		},
		CorrelationID: correlationID,
		sellers:       normalizeSellers(claims[ClaimSellers]),
		claims:        claims,
	}
}

// normalizeSellers trims the segments of a comma-separated string. List
// entries are kept verbatim; only empty ids are dropped from either form.
func normalizeSellers(raw any) map[string]struct{} {
	set := map[string]struct{}{}
	add := func(id string) {
		if id != "" {
			set[id] = struct{}{}
		}
	}

	switch v := raw.(type) {
	case string:
		for _, segment := range strings.Split(v, ",") {
			add(strings.TrimSpace(segment))
		}
	case []string:
		for _, id := range v {
			add(id)
		}
	case []any:
		for _, entry := range v {
			if id, ok := entry.(string); ok {
				add(id)
			}
		}
	}

	return set
}

// HasSeller reports whether sellerID is one of the caller's seller scopes.
func (ac *AuthContext) HasSeller(sellerID string) bool {
	if ac == nil || sellerID == "" {
		return false
	}
	_, ok := ac.sellers[sellerID]
	return ok
}

// SellerIDs returns the seller scopes in sorted order.
func (ac *AuthContext) SellerIDs() []string {
	if ac == nil {
		return []string{}
	}
	ids := make([]string, 0, len(ac.sellers))
	for id := range ac.sellers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Claims returns the full verified claim map.
func (ac *AuthContext) Claims() core.Claims {
	if ac == nil {
		return nil
	}
	return ac.claims
}

// RealmRoles returns realm_access.roles.
func (ac *AuthContext) RealmRoles() []string {
	if ac == nil {
		return nil
	}
	return rolesAt(ac.claims[ClaimRealmAccess])
}

// ResourceRoles returns resource_access[client].roles.
func (ac *AuthContext) ResourceRoles(client string) []string {
	if ac == nil {
		return nil
	}
	resources, ok := ac.claims[ClaimResourceAccess].(map[string]any)
	if !ok {
		return nil
	}
	return rolesAt(resources[client])
}

// IsAdmin reports whether either admin claim path grants AdminRole.
func (ac *AuthContext) IsAdmin() bool {
	return contains(ac.ResourceRoles(AdminClient), AdminRole) ||
		contains(ac.RealmRoles(), AdminRole)
}

// rolesAt reads the "roles" array of an access object. Non-string entries
// are skipped.
func rolesAt(access any) []string {
	obj, ok := access.(map[string]any)
	if !ok {
		return nil
	}

	var roles []string
	switch v := obj["roles"].(type) {
	case []string:
		roles = append(roles, v...)
	case []any:
		for _, entry := range v {
			if role, ok := entry.(string); ok {
				roles = append(roles, role)
			}
		}
	}
	return roles
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
