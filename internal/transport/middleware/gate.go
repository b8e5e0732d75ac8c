package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/fleet-backoffice/internal"
	"github.com/frahmantamala/fleet-backoffice/internal/core/metrics"
	"github.com/frahmantamala/fleet-backoffice/internal/permission"
	"github.com/frahmantamala/fleet-backoffice/internal/transport"
	"github.com/frahmantamala/fleet-backoffice/pkg/logger"
)

type Mode string

const (
	ModeAll Mode = "all"
	ModeAny Mode = "any"
)

type Decision string

const (
	Allow           Decision = "allow"
	Unauthenticated Decision = "unauthenticated"
	Forbidden       Decision = "forbidden"
	Failed          Decision = "error"
)

// Outcome is the gate's verdict for one request. Missing is empty unless
// Decision is Forbidden.
type Outcome struct {
	Decision Decision
	Mode     Mode
	Required []permission.Key
	Missing  []permission.Key
	Err      error
}

type PermissionSource interface {
	EffectivePermissions(ctx context.Context, userID int64) (permission.Set, error)
}

type Gate struct {
	resolver PermissionSource
	registry *permission.Registry
	logger   *slog.Logger
}

func NewGate(resolver PermissionSource, registry *permission.Registry, lg *slog.Logger) *Gate {
	return &Gate{
		resolver: resolver,
		registry: registry,
		logger:   lg,
	}
}

func (g *Gate) Evaluate(ctx context.Context, mode Mode, keys []permission.Key) Outcome {
	out := Outcome{Mode: mode, Required: keys}

	p, ok := internal.PrincipalFromContext(ctx)
	if !ok {
		out.Decision = Unauthenticated
		return out
	}

	set, err := g.resolver.EffectivePermissions(ctx, p.ID)
	if err != nil {
		out.Decision = Failed
		out.Err = err
		return out
	}

	switch mode {
	case ModeAny:
		if set.HasAny(keys...) {
			out.Decision = Allow
			return out
		}
		out.Missing = append([]permission.Key{}, keys...)
	default:
		out.Missing = set.Missing(keys...)
		if len(out.Missing) == 0 {
			out.Decision = Allow
			return out
		}
	}
	out.Decision = Forbidden
	return out
}

// Require builds chi middleware guarding a route. Keys must be registered;
// an unknown key is a wiring mistake and panics when routes are built.
func (g *Gate) Require(mode Mode, keys ...permission.Key) func(http.Handler) http.Handler {
	if len(keys) == 0 {
		panic("permission gate needs at least one key")
	}
	if err := g.registry.Validate(keys...); err != nil {
		panic(fmt.Sprintf("permission gate: %v", err))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			out := g.Evaluate(r.Context(), mode, keys)
			metrics.GateDecisions.WithLabelValues(string(out.Decision)).Inc()

			lg := logger.FromOr(r.Context(), g.logger)
			switch out.Decision {
			case Allow:
				next.ServeHTTP(w, r)
			case Unauthenticated:
				transport.WriteError(w, internal.ErrUnauthenticated, lg)
			case Forbidden:
				lg.Warn("permission denied",
					"mode", out.Mode,
					"required", out.Required,
					"missing", out.Missing)
				transport.WriteError(w, internal.NewPermissionDeniedError(string(out.Mode), permission.Strings(out.Required), permission.Strings(out.Missing)), lg)
			default:
				lg.Error("permission lookup failed", "error", out.Err)
				transport.WriteError(w, internal.NewInternalError("failed to check permissions", out.Err), lg)
			}
		})
	}
}

func (g *Gate) RequireAll(keys ...permission.Key) func(http.Handler) http.Handler {
	return g.Require(ModeAll, keys...)
}

func (g *Gate) RequireAny(keys ...permission.Key) func(http.Handler) http.Handler {
	return g.Require(ModeAny, keys...)
}

// PermissionMemo scopes permission lookups to the request.
func PermissionMemo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(permission.WithMemo(r.Context())))
	})
}
