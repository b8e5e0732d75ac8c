package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/fleet-backoffice/db/migrations"
	"github.com/frahmantamala/fleet-backoffice/pkg/logger"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "Run the embedded SQL migrations",
	}
	migrateRollback bool
	migrateStatus   bool
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "roll back the latest migration")
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "print migration status and exit")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	lg := logger.LoggerWrapper()

	db, err := goose.OpenDBWithDriver("pgx", cfg.Database.GetDSN())
	if err != nil {
		return fmt.Errorf("goose: failed to open DB: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	goose.SetTableName("schema_migrations")
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	switch {
	case migrateStatus:
		return goose.StatusContext(ctx, db, ".")
	case migrateRollback:
		if err := goose.DownContext(ctx, db, "."); err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
	default:
		if err := goose.UpContext(ctx, db, "."); err != nil {
			return fmt.Errorf("goose up: %w", err)
		}
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return err
	}
	lg.Info("migrations applied", "version", version)
	return nil
}
