/*
Package oidc reads the identity provider's discovery document.

The discovery URL is configured in full (for Keycloak-style providers it is
https://idp.example.com/realms/<realm>/.well-known/openid-configuration) and
read once, when the key provider is constructed. Only the issuer and jwks_uri
fields are used.

	endpoints, err := oidc.GetWellKnownEndpoints(ctx, client, discoveryURL)
	if err != nil {
	    // network failure, non-200 status, bad JSON or missing jwks_uri
	}
*/
package oidc
