package repository

import (
	"context"
	"fmt"
	"strings"

	"salesdesk/internal/catalog"
	"salesdesk/internal/model"
)

type dialect struct {
	json      string
	bigint    string
	real      string
	timestamp string
	serial    string
}

var dialects = map[string]dialect{
	DriverPostgres: {json: "JSONB", bigint: "BIGINT", real: "DOUBLE PRECISION", timestamp: "TIMESTAMPTZ", serial: "BIGSERIAL PRIMARY KEY"},
	DriverSQLite:   {json: "TEXT", bigint: "INTEGER", real: "REAL", timestamp: "DATETIME", serial: "INTEGER PRIMARY KEY AUTOINCREMENT"},
}

func schema(d dialect) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			ordinal INTEGER NOT NULL DEFAULT 0,
			name TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			features %[1]s,
			developer TEXT NOT NULL DEFAULT '',
			certification TEXT NOT NULL DEFAULT '',
			parking TEXT NOT NULL DEFAULT '',
			connectivity TEXT NOT NULL DEFAULT '',
			total_units INTEGER NOT NULL DEFAULT 0,
			available_units INTEGER NOT NULL DEFAULT 0,
			price_range %[1]s,
			completion_date TEXT NOT NULL DEFAULT '',
			transport_connections %[1]s,
			amenities %[1]s,
			specifications %[1]s,
			amenity_digest %[1]s,
			narratives %[1]s
		)`, d.json),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS units (
			id TEXT PRIMARY KEY,
			ordinal INTEGER NOT NULL DEFAULT 0,
			project_id TEXT NOT NULL REFERENCES projects(id),
			type TEXT NOT NULL,
			bedrooms INTEGER NOT NULL DEFAULT 0,
			bathrooms INTEGER NOT NULL DEFAULT 0,
			area %[2]s NOT NULL DEFAULT 0,
			price %[3]s NOT NULL,
			availability TEXT NOT NULL,
			features %[1]s,
			specifications %[1]s
		)`, d.json, d.real, d.bigint),
		`CREATE INDEX IF NOT EXISTS idx_units_project ON units (project_id)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS faqs (
			id TEXT PRIMARY KEY,
			ordinal INTEGER NOT NULL DEFAULT 0,
			project_id TEXT NOT NULL REFERENCES projects(id),
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			tags %[1]s
		)`, d.json),
		`CREATE INDEX IF NOT EXISTS idx_faqs_project ON faqs (project_id)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS query_logs (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			project_id TEXT NOT NULL DEFAULT '',
			stage TEXT NOT NULL,
			result_type TEXT NOT NULL,
			related_ids %[1]s,
			elapsed_ms %[2]s NOT NULL DEFAULT 0,
			last_action TEXT,
			created_at %[3]s NOT NULL
		)`, d.json, d.bigint, d.timestamp),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS query_feedback (
			id %[1]s,
			query_id TEXT NOT NULL REFERENCES query_logs(id),
			action TEXT NOT NULL,
			item_id TEXT NOT NULL DEFAULT '',
			created_at %[2]s NOT NULL
		)`, d.serial, d.timestamp),
	}
}

func vectorSchema(dims int) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS faq_embeddings (
			faq_id TEXT PRIMARY KEY REFERENCES faqs(id) ON DELETE CASCADE,
			project_id TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, dims),
	}
}

// Migrate creates the schema if it does not exist. On PostgreSQL with a
// known embedding size it also creates the pgvector table.
func (r *SQLRepository) Migrate(ctx context.Context) error {
	d, ok := dialects[r.Driver()]
	if !ok {
		return fmt.Errorf("no schema for driver %q", r.Driver())
	}
	statements := schema(d)
	if r.SupportsVectors() && r.vectorDims > 0 {
		statements = append(statements, vectorSchema(r.vectorDims)...)
	}

	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return nil
}

type seededProject struct {
	model.Project
	Ordinal int `db:"ordinal"`
}

type seededUnit struct {
	model.Unit
	Ordinal int `db:"ordinal"`
}

type seededFAQ struct {
	model.FAQ
	Ordinal int `db:"ordinal"`
}

// upsertSQL builds a named INSERT that overwrites every column on id conflict.
func upsertSQL(table, columns string) string {
	cols := strings.Split(columns, ",")
	named := make([]string, 0, len(cols)+1)
	updates := make([]string, 0, len(cols))
	names := make([]string, 0, len(cols)+1)
	for _, c := range append([]string{"ordinal"}, cols...) {
		c = strings.TrimSpace(c)
		names = append(names, c)
		named = append(named, ":"+c)
		if c != "id" {
			updates = append(updates, c+" = excluded."+c)
		}
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s",
		table, strings.Join(names, ", "), strings.Join(named, ", "), strings.Join(updates, ", "))
}

// Seed upserts the fixture in one transaction, keeping fixture order.
func (r *SQLRepository) Seed(ctx context.Context, f *catalog.Fixture) error {
	if err := f.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	for i, p := range f.Projects {
		if _, err := tx.NamedExecContext(ctx, upsertSQL("projects", projectColumns), seededProject{Project: p, Ordinal: i}); err != nil {
			return fmt.Errorf("failed to seed project %s: %w", p.ID, err)
		}
	}
	for i, u := range f.Units {
		if _, err := tx.NamedExecContext(ctx, upsertSQL("units", unitColumns), seededUnit{Unit: u, Ordinal: i}); err != nil {
			return fmt.Errorf("failed to seed unit %s: %w", u.ID, err)
		}
	}
	for i, q := range f.FAQs {
		if _, err := tx.NamedExecContext(ctx, upsertSQL("faqs", faqColumns), seededFAQ{FAQ: q, Ordinal: i}); err != nil {
			return fmt.Errorf("failed to seed faq %s: %w", q.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}
	return nil
}
