package cmd

import (
	"fmt"
	"strconv"

	"github.com/frahmantamala/fleet-backoffice/internal/tenant"
	tenantpg "github.com/frahmantamala/fleet-backoffice/internal/tenant/postgres"
	"github.com/frahmantamala/fleet-backoffice/pkg/logger"
	"github.com/spf13/cobra"
)

var tenantsCmd = &cobra.Command{
	Use:   "tenants",
	Short: "Tenant administration",
}

var (
	tenantParent    int64
	tenantNamespace string
)

func withTenantService(run func(cmd *cobra.Command, svc *tenant.Service, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		lg := logger.Component("tenant")

		db, gdb, err := openDatabase(cfg, lg)
		if err != nil {
			return err
		}
		defer db.Close()

		return run(cmd, tenant.NewService(tenantpg.NewTenantRepository(gdb), lg), args)
	}
}

var tenantsCreateCmd = &cobra.Command{
	Use:   "create <slug> <name>",
	Short: "Provision a root tenant, or a branch with --parent",
	Args:  cobra.ExactArgs(2),
	RunE: withTenantService(func(cmd *cobra.Command, svc *tenant.Service, args []string) error {
		t := &tenant.Tenant{Slug: args[0], Name: args[1], Type: tenant.TypeRoot, Namespace: tenantNamespace}
		if t.Namespace == "" {
			t.Namespace = t.Slug
		}
		if tenantParent > 0 {
			t.Type = tenant.TypeBranch
			t.ParentID = &tenantParent
		}
		created, err := svc.Provision(cmd.Context(), t)
		if err != nil {
			return err
		}
		fmt.Printf("tenant %d (%s) provisioned\n", created.ID, created.Slug)
		return nil
	}),
}

var tenantsStatusCmd = &cobra.Command{
	Use:   "status <id> <active|inactive|suspended>",
	Short: "Change a tenant's status",
	Args:  cobra.ExactArgs(2),
	RunE: withTenantService(func(cmd *cobra.Command, svc *tenant.Service, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid tenant id %q", args[0])
		}
		return svc.SetStatus(cmd.Context(), id, tenant.Status(args[1]))
	}),
}

var tenantsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete a tenant; a root takes its branches with it",
	Args:  cobra.ExactArgs(1),
	RunE: withTenantService(func(cmd *cobra.Command, svc *tenant.Service, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid tenant id %q", args[0])
		}
		return svc.Remove(cmd.Context(), id)
	}),
}

func init() {
	tenantsCreateCmd.Flags().Int64Var(&tenantParent, "parent", 0, "root tenant id for a branch")
	tenantsCreateCmd.Flags().StringVar(&tenantNamespace, "namespace", "", "schema or database identifier (defaults to the slug)")

	tenantsCmd.AddCommand(tenantsCreateCmd)
	tenantsCmd.AddCommand(tenantsStatusCmd)
	tenantsCmd.AddCommand(tenantsRemoveCmd)
}
