// Package migrations embeds the SQL schema so the migrate binary ships a
// complete, ordered migration set.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
