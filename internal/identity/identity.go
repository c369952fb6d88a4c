// Package identity is the boundary to the external identity provider. The rest of
// the service only sees opaque user identifiers and role names.
package identity

import (
	"context"
)

// Resolver answers which identity-provider user is behind the current request.
type Resolver interface {
	ResolveCurrentUser(ctx context.Context) (string, bool)
}

// Principal is an authenticated caller.
type Principal struct {
	UserID string
	Roles  []string
}

// HasRole reports whether the principal carries role.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom extracts the principal stored by WithPrincipal.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok || p.UserID == "" {
		return Principal{}, false
	}
	return p, true
}

// ContextResolver resolves the caller from the request context populated by the auth middleware.
type ContextResolver struct{}

// ResolveCurrentUser implements Resolver.
func (ContextResolver) ResolveCurrentUser(ctx context.Context) (string, bool) {
	p, ok := PrincipalFrom(ctx)
	if !ok {
		return "", false
	}
	return p.UserID, true
}
