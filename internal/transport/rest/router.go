package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/fleet-backoffice/internal/audit"
	"github.com/frahmantamala/fleet-backoffice/internal/auth"
	"github.com/frahmantamala/fleet-backoffice/internal/checklist"
	"github.com/frahmantamala/fleet-backoffice/internal/core/metrics"
	"github.com/frahmantamala/fleet-backoffice/internal/menu"
	"github.com/frahmantamala/fleet-backoffice/internal/permission"
	"github.com/frahmantamala/fleet-backoffice/internal/projector"
	"github.com/frahmantamala/fleet-backoffice/internal/role"
	"github.com/frahmantamala/fleet-backoffice/internal/tenant"
	"github.com/frahmantamala/fleet-backoffice/internal/transport/middleware"
	"github.com/frahmantamala/fleet-backoffice/internal/transport/swagger"
	"github.com/frahmantamala/fleet-backoffice/internal/user"
	"github.com/go-chi/chi"
)

// Handlers groups the HTTP handlers. A nil handler leaves its routes out.
type Handlers struct {
	Health       *HealthHandler
	Auth         *auth.Handler
	User         *user.Handler
	Capabilities *projector.Handler
	Checklist    *checklist.Handler
	Menu         *menu.Handler
	Role         *role.Handler
	Audit        *audit.Handler
}

type Options struct {
	Tenants         middleware.TenantResolver
	TenantExtractor tenant.Extractor
	Principals      middleware.PrincipalValidator
	Gate            *middleware.Gate
	AuditScheduler  audit.Scheduler
	AllowedOrigins  string
	TenantHeader    string
	// MetricsPath mounts the prometheus handler; empty disables it.
	MetricsPath string
	OpenAPIPath string
	Logger      *slog.Logger
}

func NewRouter(opts Options, h Handlers) *chi.Mux {
	router := chi.NewRouter()
	RegisterAllRoutes(router, opts, h)
	return router
}

func RegisterAllRoutes(router *chi.Mux, opts Options, h Handlers) {
	lg := opts.Logger

	router.Use(middleware.CORS(opts.AllowedOrigins, opts.TenantHeader))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(lg))
	router.Use(middleware.LoggingMiddleware(lg))

	if opts.MetricsPath != "" {
		router.Handle(opts.MetricsPath, metrics.Handler())
	}
	if opts.OpenAPIPath != "" {
		router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, opts.OpenAPIPath)
		})
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.healthCheckHandler)
			r.Get("/ping", h.Health.pingHandler)
		}

		r.Group(func(tr chi.Router) {
			tenantRoutes(tr, opts, h)
		})
		// Path strategy: /api/v1/t/{tenant}/...
		r.Route("/t/{tenant}", func(tr chi.Router) {
			tenantRoutes(tr, opts, h)
		})
	})
}

// tenantRoutes mounts everything that runs inside a tenant. The tenant is
// resolved first, so a rejected tenant never reaches auth or a gate.
func tenantRoutes(r chi.Router, opts Options, h Handlers) {
	lg := opts.Logger
	gate := opts.Gate

	r.Use(middleware.TenantContext(opts.Tenants, opts.TenantExtractor, lg))
	r.Use(middleware.Authenticate(opts.Principals, lg))
	r.Use(middleware.PermissionMemo)
	if opts.AuditScheduler != nil {
		r.Use(audit.Deferred(opts.AuditScheduler))
	}

	if h.Auth != nil {
		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/login", h.Auth.Login)
			ar.Post("/refresh", h.Auth.RefreshToken)
			ar.Post("/logout", h.Auth.Logout)
		})
	}

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireAuth(lg))

		if h.User != nil {
			pr.Get("/users/me", h.User.GetCurrentUser)
		}
		if h.Capabilities != nil {
			pr.Get("/users/me/capabilities", h.Capabilities.GetCapabilities)
		}
		if h.Menu != nil {
			pr.Get("/menus", h.Menu.List)
		}
	})

	if h.Checklist != nil {
		r.Route("/checklists", func(cr chi.Router) {
			cr.Group(func(vr chi.Router) {
				vr.Use(gate.RequireAll(permission.ChecklistsView))
				vr.Get("/", h.Checklist.List)
				vr.Get("/{id}", h.Checklist.Get)
			})
			cr.Group(func(mr chi.Router) {
				mr.Use(gate.RequireAll(permission.ChecklistsManage))
				mr.Post("/", h.Checklist.Create)
				mr.Patch("/{id}", h.Checklist.Update)
				mr.Delete("/{id}", h.Checklist.Delete)
				mr.Post("/{id}/restore", h.Checklist.Restore)
			})
		})
	}

	if h.Menu != nil {
		r.Group(func(mr chi.Router) {
			mr.Use(gate.RequireAll(permission.MenusManage))
			mr.Post("/menus", h.Menu.Create)
			mr.Patch("/menus/{id}", h.Menu.Update)
		})
	}

	if h.Role != nil {
		r.Group(func(rr chi.Router) {
			rr.Use(gate.RequireAll(permission.RolesView))
			rr.Get("/roles/{id}", h.Role.Get)
		})
		r.Group(func(rr chi.Router) {
			rr.Use(gate.RequireAll(permission.RolesManage))
			rr.Post("/roles", h.Role.Create)
			rr.Post("/roles/{id}/permissions", h.Role.GrantPermission)
			rr.Delete("/roles/{id}/permissions/{key}", h.Role.RevokePermission)
			rr.Post("/users/{id}/roles", h.Role.AssignRole)
			rr.Delete("/users/{id}/roles/{roleID}", h.Role.UnassignRole)
		})
	}

	if h.Audit != nil {
		r.Group(func(ar chi.Router) {
			ar.Use(gate.RequireAll(permission.AuditLogsView))
			ar.Get("/audit-logs", h.Audit.List)
		})
		r.Group(func(ar chi.Router) {
			ar.Use(gate.RequireAny(permission.AuditLogsView, permission.AuditLogsExport))
			ar.Get("/audit-logs/export", h.Audit.Export)
		})
	}
}
