package database

import (
	"fmt"
	"path/filepath"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"

	"github.com/noah-isme/lob-api/pkg/config"
)

// StartEmbedded boots a throwaway PostgreSQL instance for local development and points cfg at it.
// The caller owns the returned server and must Stop it on shutdown.
func StartEmbedded(cfg *config.DatabaseConfig) (*embeddedpostgres.EmbeddedPostgres, error) {
	dir := cfg.EmbeddedDir
	if dir == "" {
		dir = ".pgdata"
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve embedded dir: %w", err)
	}

	pg := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
		Port(uint32(cfg.Port)).
		Username(cfg.User).
		Password(cfg.Password).
		Database(cfg.Name).
		DataPath(filepath.Join(absDir, "data")).
		RuntimePath(filepath.Join(absDir, "runtime")).
		BinariesPath(filepath.Join(absDir, "bin")))

	if err := pg.Start(); err != nil {
		return nil, fmt.Errorf("start embedded postgres: %w", err)
	}

	cfg.Host = "localhost"
	cfg.SSLMode = "disable"
	return pg, nil
}
