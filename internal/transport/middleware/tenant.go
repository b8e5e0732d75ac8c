package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/fleet-backoffice/internal"
	"github.com/frahmantamala/fleet-backoffice/internal/core/metrics"
	"github.com/frahmantamala/fleet-backoffice/internal/tenant"
	"github.com/frahmantamala/fleet-backoffice/internal/transport"
	"github.com/frahmantamala/fleet-backoffice/pkg/logger"
)

type TenantResolver interface {
	Resolve(ctx context.Context, ref string) (*tenant.Tenant, error)
}

// TenantContext resolves the tenant before anything downstream runs. A
// request it rejects never reaches authentication or a permission gate.
func TenantContext(resolver TenantResolver, extract tenant.Extractor, lg *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ref := extract(r)
			if ref == "" {
				metrics.TenantResolutions.WithLabelValues("not_found").Inc()
				transport.WriteError(w, internal.NewTenantNotFoundError(""), lg)
				return
			}

			t, err := resolver.Resolve(r.Context(), ref)
			if err != nil {
				appErr, ok := internal.IsAppError(err)
				if !ok {
					appErr = internal.NewInternalError("failed to resolve tenant", err)
				}
				switch appErr.Code {
				case internal.ErrCodeTenantNotFound:
					metrics.TenantResolutions.WithLabelValues("not_found").Inc()
				case internal.ErrCodeTenantInactive:
					metrics.TenantResolutions.WithLabelValues("inactive").Inc()
				default:
					metrics.TenantResolutions.WithLabelValues("error").Inc()
				}
				transport.WriteError(w, appErr, lg)
				return
			}

			metrics.TenantResolutions.WithLabelValues("resolved").Inc()
			ctx := tenant.WithTenant(r.Context(), t)
			ctx = logger.With(ctx, "tenant", t.Slug)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
