// Package assets bundles the files shipped inside the binaries.
package assets

import "embed"

//go:embed all:templates migrations
var FS embed.FS

const (
	EmailTemplatesDir = "templates/email"
	MigrationsDir     = "migrations"
)
