package httpx

import "context"

type ctxKey string

// CtxKeyIdentity carries the authenticated Discord user id.
const CtxKeyIdentity ctxKey = "identity"

// IdentityFromContext returns the authenticated identity, or "" when the
// request did not pass through session authentication.
func IdentityFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyIdentity).(string); ok {
		return v
	}
	return ""
}

// ContextWithIdentity attaches the authenticated identity for downstream
// handlers.
func ContextWithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, CtxKeyIdentity, identity)
}
