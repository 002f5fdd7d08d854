// Package migrations embeds the schema migrations for each SQL driver.
package migrations

import "embed"

// FS holds the migration files under postgres/ and sqlite/.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

// Directory names inside FS.
const (
	PostgresDir = "postgres"
	SQLiteDir   = "sqlite"
)
