/*-------------------------------------------------------------------------
 *
 * migrate.go
 *    SQL migration runner for Basecamp
 *
 * Applies .sql files from the migrations directory in lexical order,
 * tracking applied versions in basecamp.schema_migrations.
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/db/migrate.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

type MigrationRunner struct {
	db  *sqlx.DB
	dir string
}

func NewMigrationRunner(db *sqlx.DB, dir string) (*MigrationRunner, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("migrations directory not found: dir='%s', error=%w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("migrations path is not a directory: dir='%s'", dir)
	}
	return &MigrationRunner{db: db, dir: dir}, nil
}

/* Run applies all pending migrations in order */
func (m *MigrationRunner) Run(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, `CREATE SCHEMA IF NOT EXISTS basecamp`); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS basecamp.schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: dir='%s', error=%w", m.dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		var applied bool
		err := m.db.GetContext(ctx, &applied,
			`SELECT EXISTS (SELECT 1 FROM basecamp.schema_migrations WHERE version = $1)`, name)
		if err != nil {
			return fmt.Errorf("failed to check migration: version='%s', error=%w", name, err)
		}
		if applied {
			continue
		}

		sqlBytes, err := os.ReadFile(filepath.Join(m.dir, name))
		if err != nil {
			return fmt.Errorf("failed to read migration: version='%s', error=%w", name, err)
		}

		tx, err := m.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration tx: version='%s', error=%w", name, err)
		}
		if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration failed: version='%s', error=%w", name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO basecamp.schema_migrations (version) VALUES ($1)`, name); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration: version='%s', error=%w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration: version='%s', error=%w", name, err)
		}
	}

	return nil
}
