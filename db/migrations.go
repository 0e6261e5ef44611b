// Package db ships the SQL schema migrations.
package db

import "embed"

// Migrations holds the numbered *.up.sql / *.down.sql files.
//
//go:embed migrations/*.sql
var Migrations embed.FS
