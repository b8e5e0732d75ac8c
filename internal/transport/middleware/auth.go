package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/fleet-backoffice/internal"
	"github.com/frahmantamala/fleet-backoffice/internal/transport"
	"github.com/frahmantamala/fleet-backoffice/pkg/logger"
)

// PrincipalValidator turns a bearer token into the caller it belongs to,
// checked against the tenant already on ctx.
type PrincipalValidator interface {
	ValidatePrincipal(ctx context.Context, token string) (*internal.Principal, error)
}

// Authenticate attaches the caller to the request. Without a valid token
// the request continues anonymously; gates turn that into a 401.
func Authenticate(validator PrincipalValidator, lg *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := transport.BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			p, err := validator.ValidatePrincipal(r.Context(), token)
			if err != nil {
				appErr, ok := internal.IsAppError(err)
				if !ok || appErr.StatusCode >= http.StatusInternalServerError {
					transport.WriteError(w, internal.NewInternalError("failed to authenticate", err), lg)
					return
				}
				transport.WriteError(w, appErr, lg)
				return
			}

			ctx := internal.ContextWithPrincipal(r.Context(), p)
			ctx = logger.With(ctx, "userID", strconv.FormatInt(p.ID, 10))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests on routes that need a caller but
// no particular permission.
func RequireAuth(lg *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := internal.PrincipalFromContext(r.Context()); !ok {
				transport.WriteError(w, internal.ErrUnauthenticated, lg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
