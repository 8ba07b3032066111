// Package migrations holds the SQL schema for the Postgres record source.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
