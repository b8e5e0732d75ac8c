package internal

import (
	"context"
	"time"
)

type ctxKey string

const (
	ContextPrincipalKey ctxKey = "principal"
	ContextRequestIDKey ctxKey = "requestID"
)

// Principal is the authenticated caller attached to a request.
type Principal struct {
	ID       int64  `json:"id"`
	TenantID int64  `json:"tenant_id"`
	OfficeID int64  `json:"office_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	if ctx == nil {
		return nil, false
	}
	p, ok := ctx.Value(ContextPrincipalKey).(*Principal)
	return p, ok && p != nil
}

func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ContextPrincipalKey, p)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(ContextRequestIDKey).(string); ok {
		return id
	}
	return ""
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextRequestIDKey, id)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
