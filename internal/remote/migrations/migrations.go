// Package migrations embeds the backend Postgres schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
