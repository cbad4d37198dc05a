// Package migrations embeds the SQL schema and seed files applied by the
// migrate tool.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed sql/*.sql
var schema embed.FS

//go:embed seeds/*.sql
var seeds embed.FS

// SchemaFS returns the migration files rooted at their directory.
func SchemaFS() fs.FS {
	sub, err := fs.Sub(schema, "sql")
	if err != nil {
		panic(err)
	}
	return sub
}

// SeedFS returns the seed files rooted at their directory.
func SeedFS() fs.FS {
	sub, err := fs.Sub(seeds, "seeds")
	if err != nil {
		panic(err)
	}
	return sub
}
