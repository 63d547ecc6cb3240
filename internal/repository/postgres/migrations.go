package postgres

import "embed"

// Migrations holds the goose SQL migrations applied by cmd/migrator.
//
//go:embed migrations/*.sql
var Migrations embed.FS
