// Package migrations holds the schema migration registry. Each migration file
// registers itself in an init-time MustRegister call; cmd/api applies pending
// ones on boot and cmd/migrations drives them manually.
package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

var Migrations = migrate.NewMigrations()

// BringUpToDate applies all unapplied migrations, creating the bookkeeping
// tables on first run. The returned group is empty (ID 0) when the schema was
// already current.
func BringUpToDate(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	migrator := migrate.NewMigrator(db, Migrations)
	if err := migrator.Init(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return group, nil
}
