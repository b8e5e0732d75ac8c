package cmd

import (
	"fmt"
	"log/slog"

	"github.com/frahmantamala/fleet-backoffice/internal"
	tenantpg "github.com/frahmantamala/fleet-backoffice/internal/tenant/postgres"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// initDB opens the pgx-backed pool shared by sqlx (health checks) and gorm.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return dbConn, nil
}

// initGorm wraps the existing pool and installs the tenant scope callbacks.
func initGorm(db *sqlx.DB, lg *slog.Logger) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	if err := tenantpg.RegisterScope(gdb); err != nil {
		return nil, fmt.Errorf("failed to register tenant scope: %w", err)
	}
	lg.Debug("database ready")
	return gdb, nil
}

// openDatabase is the sqlx + gorm pair used by every command.
func openDatabase(cfg *internal.Config, lg *slog.Logger) (*sqlx.DB, *gorm.DB, error) {
	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	gdb, err := initGorm(db, lg)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, gdb, nil
}
