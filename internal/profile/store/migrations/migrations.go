// Package migrations embeds the profile schema migrations applied by goose.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
