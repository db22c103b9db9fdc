// Package data embeds the schema migrations.
package data

import (
	"embed"
)

// Migrations holds one goose migration directory per SQL dialect.
//
//go:embed migrations/mysql/*.sql migrations/postgres/*.sql
var Migrations embed.FS
