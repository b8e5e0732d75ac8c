package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/fleet-backoffice/internal"
	"github.com/frahmantamala/fleet-backoffice/internal/audit"
	auditpg "github.com/frahmantamala/fleet-backoffice/internal/audit/postgres"
	"github.com/frahmantamala/fleet-backoffice/internal/auth"
	authpg "github.com/frahmantamala/fleet-backoffice/internal/auth/postgres"
	"github.com/frahmantamala/fleet-backoffice/internal/checklist"
	checklistpg "github.com/frahmantamala/fleet-backoffice/internal/checklist/postgres"
	"github.com/frahmantamala/fleet-backoffice/internal/core/events"
	"github.com/frahmantamala/fleet-backoffice/internal/menu"
	menupg "github.com/frahmantamala/fleet-backoffice/internal/menu/postgres"
	"github.com/frahmantamala/fleet-backoffice/internal/permission"
	permissionpg "github.com/frahmantamala/fleet-backoffice/internal/permission/postgres"
	"github.com/frahmantamala/fleet-backoffice/internal/projector"
	"github.com/frahmantamala/fleet-backoffice/internal/role"
	rolepg "github.com/frahmantamala/fleet-backoffice/internal/role/postgres"
	"github.com/frahmantamala/fleet-backoffice/internal/tenant"
	tenantpg "github.com/frahmantamala/fleet-backoffice/internal/tenant/postgres"
	"github.com/frahmantamala/fleet-backoffice/internal/transport"
	"github.com/frahmantamala/fleet-backoffice/internal/transport/middleware"
	"github.com/frahmantamala/fleet-backoffice/internal/transport/rest"
	"github.com/frahmantamala/fleet-backoffice/internal/user"
	userpg "github.com/frahmantamala/fleet-backoffice/internal/user/postgres"
	"github.com/frahmantamala/fleet-backoffice/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config     *internal.Config
	DB         *sqlx.DB
	Gorm       *gorm.DB
	Router     *chi.Mux
	Dispatcher *audit.Dispatcher
	Logger     *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	lg := deps.Logger

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	lg.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		lg.Info("Received signal, shutting down...", "signal", sig)
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			lg.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		lg.Error("Server shutdown error", "error", err)
	}
	// Requests are done; drain what they left for the audit workers.
	if err := deps.Dispatcher.Shutdown(ctx); err != nil {
		lg.Error("Audit dispatcher shutdown error", "error", err)
	}
	if err := deps.DB.Close(); err != nil {
		lg.Error("Database close error", "error", err)
	}

	lg.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	if config.Server.OpenAPIPath != "" {
		if _, err := rest.LoadOpenAPI(context.Background(), config.Server.OpenAPIPath); err != nil {
			return nil, err
		}
	}

	db, gdb, err := openDatabase(config, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	bus := events.NewEventBus(lg)

	dispatcher := audit.NewDispatcher(auditpg.NewAuditStore(gdb), audit.Config{
		MaxWorkers:   config.Audit.Workers,
		QueueSize:    config.Audit.QueueSize,
		WriteTimeout: config.Audit.WriteTimeout,
	}, logger.Component("audit"))
	audit.NewSubscriber(audit.NewRecorder(dispatcher, logger.Component("audit")), logger.Component("audit")).Register(bus)

	var cache *permission.Cache
	if config.Permission.CacheEnabled {
		cache, err = permission.NewCache(config.Permission.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to build permission cache: %w", err)
		}
	}
	permissionStore := permissionpg.NewPermissionStore(gdb)
	resolver := permission.NewResolver(permissionStore, cache, logger.Component("permission"))
	gate := middleware.NewGate(resolver, permission.DefaultRegistry, logger.Component("permission"))

	tenantService := tenant.NewService(tenantpg.NewTenantRepository(gdb), logger.Component("tenant"))

	roleRepo := rolepg.NewRoleRepository(gdb)
	roleService := role.NewService(roleRepo, permission.DefaultRegistry, resolver, bus, lg)

	tokens := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authpg.NewRepository(gdb), tokens, bus, config.Security.BCryptCost, lg)

	baseHandler := transport.NewBaseHandler(lg)
	handlers := rest.Handlers{
		Health:       rest.NewHealthHandler(baseHandler, db.DB, dispatcher),
		Auth:         auth.NewHandler(baseHandler, authService),
		User:         user.NewHandler(baseHandler, user.NewService(userpg.NewUserRepository(gdb), roleService, resolver, lg)),
		Capabilities: projector.NewHandler(baseHandler, projector.New(resolver, permission.DefaultRegistry)),
		Checklist:    checklist.NewHandler(baseHandler, checklist.NewService(checklistpg.NewChecklistRepository(gdb), bus, lg)),
		Menu:         menu.NewHandler(baseHandler, menu.NewService(menupg.NewMenuRepository(gdb), roleRepo, bus, lg)),
		Role:         role.NewHandler(baseHandler, roleService),
		Audit:        audit.NewHandler(baseHandler, auditpg.NewAuditStore(gdb)),
	}

	metricsPath := ""
	if config.Observability.Metrics.Enabled {
		metricsPath = config.Observability.Metrics.Path
	}

	router := rest.NewRouter(rest.Options{
		Tenants:         tenantService,
		TenantExtractor: tenant.ExtractorFromConfig(config.Tenant),
		Principals:      authService,
		Gate:            gate,
		AuditScheduler:  dispatcher,
		AllowedOrigins:  config.Server.AllowedOrigins,
		TenantHeader:    config.Tenant.Header,
		MetricsPath:     metricsPath,
		OpenAPIPath:     config.Server.OpenAPIPath,
		Logger:          lg,
	}, handlers)

	return &Dependencies{
		Config:     config,
		DB:         db,
		Gorm:       gdb,
		Router:     router,
		Dispatcher: dispatcher,
		Logger:     lg,
	}, nil
}
