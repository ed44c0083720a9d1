// Package migrations embeds the SQL schema for the SQLite and PostgreSQL stores.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
