package middleware

import (
	"context"

	"taskvault/backend/internal/user/domain"
)

type contextKey struct{ name string }

var (
	identityKey = contextKey{"identity"}
	clientIPKey = contextKey{"client_ip"}
)

// Identity is the acting identity of an authenticated request, resolved from
// the bearer token and the live user row.
type Identity struct {
	ID       int64
	Username string
	Role     domain.Role
	IsActive bool
}

// WithIdentity returns a context carrying the acting identity. Handlers and
// guards read it via IdentityFrom.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the acting identity from ctx and true if set.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(identityKey).(Identity)
	return v, ok
}

// WithClientIP returns a context carrying the request's client address.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIPFrom returns the client address from ctx, or "unknown" if unset.
func ClientIPFrom(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey).(string); ok && v != "" {
		return v
	}
	return "unknown"
}
