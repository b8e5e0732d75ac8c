package tenant

import "context"

type ctxKey string

const currentKey ctxKey = "tenant"

// WithTenant scopes ctx to t. Repositories reading a context built from it
// are filtered to t without taking a tenant argument.
func WithTenant(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, currentKey, t)
}

// Current returns the active tenant for the request, if one was resolved.
func Current(ctx context.Context) (*Tenant, bool) {
	if ctx == nil {
		return nil, false
	}
	t, ok := ctx.Value(currentKey).(*Tenant)
	return t, ok && t != nil
}

func IDFromContext(ctx context.Context) (int64, bool) {
	t, ok := Current(ctx)
	if !ok {
		return 0, false
	}
	return t.ID, true
}
