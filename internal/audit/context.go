package audit

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/frahmantamala/fleet-backoffice/internal"
	"github.com/go-chi/chi"
)

type ctxKey string

const (
	metaKey  ctxKey = "audit.meta"
	batchKey ctxKey = "audit.batch"
)

func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, metaKey, &meta)
}

// RequestMetaFromContext returns the request metadata, preferring the chi
// route pattern over the raw path once routing has happened.
func RequestMetaFromContext(ctx context.Context) *RequestMeta {
	stored, ok := ctx.Value(metaKey).(*RequestMeta)
	if !ok || stored == nil {
		return nil
	}
	meta := *stored
	if rctx := chi.RouteContext(ctx); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			meta.Route = pattern
		}
	}
	if meta.RequestID == "" {
		meta.RequestID = internal.RequestIDFromContext(ctx)
	}
	return &meta
}

func MetaFromRequest(r *http.Request) RequestMeta {
	return RequestMeta{
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
		Route:     r.URL.Path,
		Method:    r.Method,
		RequestID: internal.RequestIDFromContext(r.Context()),
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
