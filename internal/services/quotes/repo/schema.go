package repo

import (
	"context"

	_ "embed"

	"quotary/internal/modkit/repokit"
	perr "quotary/internal/platform/errors"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the quote tables if they do not exist yet. Used
// by the loader and by integration tests against a fresh database
func EnsureSchema(ctx context.Context, q repokit.Queryer) error {
	if _, err := q.Exec(ctx, schemaSQL); err != nil {
		return perr.FromPostgres(err, "ensure quotes schema")
	}
	return nil
}
