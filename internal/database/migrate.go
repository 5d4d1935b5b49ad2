package database

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the DDL for every table the importer uses.
func Schema() string {
	return schemaSQL
}

// Migrate applies the schema. Every statement is IF NOT EXISTS, so running
// it against an initialized database is a no-op.
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
