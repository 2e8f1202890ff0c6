package httpx

import (
	"context"

	"github.com/Auth-ism/ann-ai-backend/pkg/jwtx"
)

type ctxKey string

const ctxKeyIdentity ctxKey = "identity"

// Identity is the authenticated-identity value produced by AuthnMiddleware
// and consumed by handler-level authorization checks.
type Identity struct {
	UserID int64
	Role   string
	Claims jwtx.Claims

	// Token is the raw bearer token, needed for revocation on logout.
	Token string
}

// IsAdmin reports whether the identity carries the admin role.
func (id Identity) IsAdmin() bool { return id.Role == "admin" }

// ContextWithIdentity attaches an authenticated identity to ctx.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

// IdentityFromContext extracts the authenticated identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity).(Identity)
	return id, ok
}
