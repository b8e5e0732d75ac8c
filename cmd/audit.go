package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/frahmantamala/fleet-backoffice/internal/audit"
	auditpg "github.com/frahmantamala/fleet-backoffice/internal/audit/postgres"
	"github.com/frahmantamala/fleet-backoffice/internal/tenant"
	tenantpg "github.com/frahmantamala/fleet-backoffice/internal/tenant/postgres"
	"github.com/frahmantamala/fleet-backoffice/pkg/logger"
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit trail commands",
}

var (
	exportFormat  string
	exportTenant  string
	exportEvent   string
	exportSubject string
	exportSince   time.Duration
	exportLimit   int
	exportOut     string
)

var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export audit rows as CSV or NDJSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := audit.ParseFormat(exportFormat)
		if err != nil {
			return err
		}

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

		ctx := cmd.Context()
		if exportTenant != "" {
			row, err := tenantpg.NewTenantRepository(gdb).GetBySlug(ctx, exportTenant)
			if err != nil {
				return err
			}
			if row == nil {
				return fmt.Errorf("tenant %q not found", exportTenant)
			}
			ctx = tenant.WithTenant(ctx, tenant.FromDataModel(row))
		}

		filter := audit.Filter{Event: exportEvent, SubjectType: exportSubject, Limit: exportLimit}
		if exportSince > 0 {
			from := time.Now().Add(-exportSince)
			filter.From = &from
		}

		rows, err := auditpg.NewAuditStore(gdb).List(ctx, filter)
		if err != nil {
			return fmt.Errorf("list audit rows: %w", err)
		}

		var w io.Writer = os.Stdout
		if exportOut != "" && exportOut != "-" {
			f, err := os.Create(exportOut)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		if err := audit.Export(w, format, rows); err != nil {
			return err
		}
		lg.Info("audit export written", "rows", len(rows), "format", format)
		return nil
	},
}

func init() {
	auditExportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "csv or ndjson")
	auditExportCmd.Flags().StringVarP(&exportTenant, "tenant", "t", "", "tenant slug; all tenants when empty")
	auditExportCmd.Flags().StringVar(&exportEvent, "event", "", "only this event kind")
	auditExportCmd.Flags().StringVar(&exportSubject, "subject-type", "", "only this subject type")
	auditExportCmd.Flags().DurationVar(&exportSince, "since", 0, "only rows newer than this, e.g. 24h")
	auditExportCmd.Flags().IntVar(&exportLimit, "limit", 10000, "maximum rows")
	auditExportCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "output file, - for stdout")

	auditCmd.AddCommand(auditExportCmd)
}
