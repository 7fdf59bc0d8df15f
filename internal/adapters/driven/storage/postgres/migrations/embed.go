// Package migrations embeds SQL migration files for the Postgres store.
package migrations

import "embed"

// FS contains all SQL migration files embedded at compile time.
// The placeholder {{dim}} is replaced with the configured vector dimension.
//
//go:embed *.sql
var FS embed.FS
