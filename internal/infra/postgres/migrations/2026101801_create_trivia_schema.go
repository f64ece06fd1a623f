package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
)

//go:embed 2026101801_create_trivia_schema.up.sql
var createTriviaSchemaSQL string

//go:embed 2026101801_create_trivia_schema.down.sql
var dropTriviaSchemaSQL string

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, createTriviaSchemaSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, dropTriviaSchemaSQL)
			return err
		},
	)
}
