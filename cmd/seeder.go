package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/fleet-backoffice/internal"
	tenantDatamodel "github.com/frahmantamala/fleet-backoffice/internal/core/datamodel/tenant"
	userDatamodel "github.com/frahmantamala/fleet-backoffice/internal/core/datamodel/user"
	"github.com/frahmantamala/fleet-backoffice/internal/menu"
	menupg "github.com/frahmantamala/fleet-backoffice/internal/menu/postgres"
	"github.com/frahmantamala/fleet-backoffice/internal/permission"
	permissionpg "github.com/frahmantamala/fleet-backoffice/internal/permission/postgres"
	"github.com/frahmantamala/fleet-backoffice/internal/role"
	rolepg "github.com/frahmantamala/fleet-backoffice/internal/role/postgres"
	"github.com/frahmantamala/fleet-backoffice/internal/tenant"
	tenantpg "github.com/frahmantamala/fleet-backoffice/internal/tenant/postgres"
	userpg "github.com/frahmantamala/fleet-backoffice/internal/user/postgres"
	"github.com/frahmantamala/fleet-backoffice/pkg/logger"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const seedPassword = "password"

var clearData bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long: `Seed permissions from the registry, a global super_admin role, demo tenants,
their roles, users and menus. Re-running only adds what is missing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		lg := logger.LoggerWrapper()

		db, gdb, err := openDatabase(cfg, lg)
		if err != nil {
			return err
		}
		defer db.Close()

		s := &seeder{
			db:          gdb,
			logger:      lg,
			permissions: permissionpg.NewPermissionStore(gdb),
			tenants:     tenantpg.NewTenantRepository(gdb),
			tenantSvc:   tenant.NewService(tenantpg.NewTenantRepository(gdb), lg),
			users:       userpg.NewUserRepository(gdb),
			roleRepo:    rolepg.NewRoleRepository(gdb),
			roles:       role.NewService(rolepg.NewRoleRepository(gdb), permission.DefaultRegistry, nil, nil, lg),
			menus:       menu.NewService(menupg.NewMenuRepository(gdb), rolepg.NewRoleRepository(gdb), nil, lg),
			bcryptCost:  cfg.Security.BCryptCost,
		}
		return s.run(cmd.Context())
	},
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")
}

type seeder struct {
	db          *gorm.DB
	logger      *slog.Logger
	permissions *permissionpg.PermissionStore
	tenants     tenant.RepositoryAPI
	tenantSvc   *tenant.Service
	users       *userpg.UserRepository
	roleRepo    *rolepg.RoleRepository
	roles       *role.Service
	menus       *menu.Service
	bcryptCost  int
}

type demoUser struct {
	email string
	name  string
	roles []string
}

type demoTenant struct {
	slug   string
	name   string
	status tenant.Status
	users  []demoUser
}

var tenantRoles = map[string][]string{
	"fleet_manager": {
		"checklists.view", "checklists.manage", "vehicles.view", "vehicles.edit",
		"vehicles.tires.view", "vehicles.tires.manage", "menus.view", "menus.manage",
		"roles.view", "roles.manage", "users.view", "audit_logs.view", "audit_logs.export",
	},
	"mechanic": {"checklists.view", "vehicles.view", "vehicles.tires.view", "menus.view"},
	"auditor":  {"audit_logs.view", "audit_logs.export"},
}

var demoTenants = []demoTenant{
	{
		slug: "acme", name: "Acme Logistics", status: tenant.StatusActive,
		users: []demoUser{
			{"manager@acme.test", "Acme Manager", []string{"fleet_manager"}},
			{"mechanic@acme.test", "Acme Mechanic", []string{"mechanic"}},
			{"auditor@acme.test", "Acme Auditor", []string{"auditor"}},
		},
	},
	{
		slug: "frozen", name: "Frozen Freight", status: tenant.StatusSuspended,
		users: []demoUser{
			{"manager@frozen.test", "Frozen Manager", []string{"fleet_manager"}},
		},
	},
}

func (s *seeder) run(ctx context.Context) error {
	if clearData {
		if err := s.clear(ctx); err != nil {
			return err
		}
	}

	added, err := s.permissions.Sync(ctx, permission.DefaultRegistry, role.DefaultGuard)
	if err != nil {
		return fmt.Errorf("sync permissions: %w", err)
	}
	s.logger.Info("permissions synced", "added", added)

	if err := s.ensureRole(ctx, "super_admin", permission.Strings(permission.DefaultRegistry.Keys())); err != nil {
		return err
	}

	for _, dt := range demoTenants {
		if err := s.seedTenant(ctx, dt); err != nil {
			return fmt.Errorf("seed tenant %s: %w", dt.slug, err)
		}
	}
	s.logger.Info("seed complete", "password", seedPassword)
	return nil
}

func (s *seeder) clear(ctx context.Context) error {
	s.logger.Warn("clearing existing data")
	return s.db.WithContext(ctx).Exec(`TRUNCATE audit_logs, checklists, menu_roles, menus, user_permissions,
		user_roles, role_permissions, roles, permissions, users, offices, tenants RESTART IDENTITY CASCADE`).Error
}

// ensureRole creates the role in ctx's tenant (or globally without one)
// unless it already exists.
func (s *seeder) ensureRole(ctx context.Context, name string, keys []string) error {
	_, err := s.roles.Create(ctx, &role.CreateRoleDTO{Name: name, Permissions: keys})
	if err != nil && !errors.Is(err, internal.ErrRoleExists) {
		return fmt.Errorf("create role %s: %w", name, err)
	}
	return nil
}

func (s *seeder) seedTenant(ctx context.Context, dt demoTenant) error {
	row, err := s.tenants.GetBySlug(ctx, dt.slug)
	if err != nil {
		return err
	}
	var t *tenant.Tenant
	if row == nil {
		t, err = s.tenantSvc.Provision(ctx, &tenant.Tenant{
			Name: dt.name, Slug: dt.slug, Status: dt.status, Type: tenant.TypeRoot, Namespace: dt.slug,
		})
		if err != nil {
			return err
		}
	} else {
		t = tenant.FromDataModel(row)
	}

	tctx := tenant.WithTenant(ctx, t)

	office := tenantDatamodel.Office{Name: dt.name + " HQ"}
	if err := s.db.WithContext(tctx).Where("name = ?", office.Name).FirstOrCreate(&office).Error; err != nil {
		return fmt.Errorf("office: %w", err)
	}

	for name, keys := range tenantRoles {
		if err := s.ensureRole(tctx, name, keys); err != nil {
			return err
		}
	}

	roleIDs := map[string]int64{}
	for name := range tenantRoles {
		r, err := s.roleRepo.GetByName(tctx, name, role.DefaultGuard)
		if err != nil || r == nil {
			return fmt.Errorf("role %s missing after create: %w", name, err)
		}
		roleIDs[name] = r.ID
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	for _, du := range dt.users {
		var u userDatamodel.User
		err := s.db.WithContext(tctx).Where("email = ?", du.email).First(&u).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			u = userDatamodel.User{OfficeID: office.ID, Email: du.email, Name: du.name, PasswordHash: string(hash), IsActive: true}
			err = s.users.Create(tctx, &u)
		}
		if err != nil {
			return fmt.Errorf("user %s: %w", du.email, err)
		}
		for _, rn := range du.roles {
			if err := s.roles.AssignRole(tctx, u.ID, roleIDs[rn]); err != nil {
				return fmt.Errorf("assign %s to %s: %w", rn, du.email, err)
			}
		}
		s.logger.Info("seeded user", "tenant", dt.slug, "email", du.email, "roles", du.roles)
	}

	return s.seedMenus(tctx, roleIDs)
}

func (s *seeder) seedMenus(ctx context.Context, roleIDs map[string]int64) error {
	existing, err := s.menus.VisibleFor(ctx, 0)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	fleet, err := s.menus.Create(ctx, &menu.CreateMenuDTO{Name: "Fleet", Route: "/fleet", Icon: "truck", Position: 1})
	if err != nil {
		return err
	}
	children := []menu.CreateMenuDTO{
		{ParentID: &fleet.ID, Name: "Checklists", Route: "/fleet/checklists", Position: 1},
		{ParentID: &fleet.ID, Name: "Tires", Route: "/fleet/tires", Position: 2, RoleIDs: []int64{roleIDs["fleet_manager"], roleIDs["mechanic"]}},
		{Name: "Administration", Route: "/admin", Icon: "shield", Position: 2, RoleIDs: []int64{roleIDs["fleet_manager"]}},
		{Name: "Audit trail", Route: "/audit", Icon: "list", Position: 3, RoleIDs: []int64{roleIDs["fleet_manager"], roleIDs["auditor"]}},
	}
	for i := range children {
		if _, err := s.menus.Create(ctx, &children[i]); err != nil {
			return err
		}
	}
	return nil
}
