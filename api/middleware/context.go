package middleware

import (
	"context"

	"github.com/lucasmoura/vitalstock-backend/pkg/authz"
)

type contextKey string

const ctxPrincipal contextKey = "principal"

// WithPrincipal injects the verified caller identity into the context.
func WithPrincipal(ctx context.Context, p authz.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, p)
}

// PrincipalFromContext returns the caller identity seeded by Auth, if any.
func PrincipalFromContext(ctx context.Context) (authz.Principal, bool) {
	if ctx == nil {
		return authz.Principal{}, false
	}
	p, ok := ctx.Value(ctxPrincipal).(authz.Principal)
	return p, ok
}
