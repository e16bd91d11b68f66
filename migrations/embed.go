package migrations

import "embed"

// FS holds the goose migrations for every supported dialect.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
