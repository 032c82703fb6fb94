package shared

import "context"

// Identity is the verified actor triple extracted from a bearer token.
// The values are trusted as given; verification happens in the auth layer.
type Identity struct {
	UserID   string
	TenantID string
	Role     string
}

type identityContextKey struct{}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context. The second return
// value reports whether an identity was present.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
