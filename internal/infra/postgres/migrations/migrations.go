// Package migrations registers the Postgres schema for topics and scores with bun migrate.
package migrations

import "github.com/uptrace/bun/migrate"

var Migrations = migrate.NewMigrations()
