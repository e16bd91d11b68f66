package database

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/noah-isme/lob-api/migrations"
	"github.com/noah-isme/lob-api/pkg/config"
)

// Migrate applies pending goose migrations for the driver. When dir is empty the embedded
// migrations are used, otherwise the SQL files are read from dir on disk.
func Migrate(ctx context.Context, db *sqlx.DB, driver, dir string) error {
	fsys, dialect, err := migrationSource(driver, dir)
	if err != nil {
		return err
	}

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db.DB, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func migrationSource(driver, dir string) (fs.FS, string, error) {
	sub := "postgres"
	dialect := "postgres"
	switch driver {
	case "", config.DriverPostgres:
	case config.DriverSQLite:
		sub = "sqlite"
		dialect = "sqlite3"
	default:
		return nil, "", fmt.Errorf("unsupported database driver %q", driver)
	}

	if dir != "" {
		return os.DirFS(dir), dialect, nil
	}
	fsys, err := fs.Sub(migrations.FS, sub)
	if err != nil {
		return nil, "", fmt.Errorf("open embedded migrations: %w", err)
	}
	return fsys, dialect, nil
}
