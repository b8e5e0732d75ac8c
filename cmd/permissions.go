package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/frahmantamala/fleet-backoffice/internal/permission"
	permissionpg "github.com/frahmantamala/fleet-backoffice/internal/permission/postgres"
	"github.com/frahmantamala/fleet-backoffice/pkg/logger"
	"github.com/spf13/cobra"
)

var permissionsCmd = &cobra.Command{
	Use:   "permissions",
	Short: "Inspect the permission key registry",
}

var permissionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every registered permission key",
	Run: func(cmd *cobra.Command, args []string) {
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tMODULE\tDESCRIPTION")
		for _, k := range permission.DefaultRegistry.Keys() {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", k, k.Module(), permission.DefaultRegistry.Description(k))
		}
		tw.Flush()
	},
}

var permissionsLintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Compare stored permission keys with the registry",
	Long:  `Exits non-zero when storage holds unknown or malformed keys, or a registered key was never seeded.`,
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

		stored, err := permissionpg.NewPermissionStore(gdb).StoredKeys(cmd.Context())
		if err != nil {
			return fmt.Errorf("load stored keys: %w", err)
		}

		report := permission.Lint(permission.DefaultRegistry, stored)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
		if !report.Clean() {
			return fmt.Errorf("permission lint failed: %d unknown, %d unseeded, %d malformed",
				len(report.Unknown), len(report.Unseeded), len(report.Malformed))
		}
		return nil
	},
}

func init() {
	permissionsCmd.AddCommand(permissionsListCmd)
	permissionsCmd.AddCommand(permissionsLintCmd)
}
