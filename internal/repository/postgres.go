package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"salesdesk/internal/catalog"
	"salesdesk/internal/model"
)

// Driver names as registered with database/sql
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

var _ catalog.Store = (*SQLRepository)(nil)

// SQLRepository is the domain store, query log and FAQ vector index on
// PostgreSQL, or on SQLite for local runs and tests. Queries are written
// with ? placeholders and rebound per driver.
type SQLRepository struct {
	db         *sqlx.DB
	vectorDims int
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn, vectorDims int) (*SQLRepository, error) {
	db, err := sqlx.Connect(DriverPostgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLRepository{db: db, vectorDims: vectorDims}, nil
}

// NewSQLiteRepository opens a SQLite database file, or a private in-memory
// database for ":memory:".
func NewSQLiteRepository(path string) (*SQLRepository, error) {
	db, err := sqlx.Connect(DriverSQLite, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// every connection to :memory: would see its own empty database
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	return &SQLRepository{db: db}, nil
}

// Close closes the database connection
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// Driver reports the database/sql driver in use.
func (r *SQLRepository) Driver() string {
	return r.db.DriverName()
}

// SupportsVectors reports whether FAQ embeddings can be stored.
func (r *SQLRepository) SupportsVectors() bool {
	return r.Driver() == DriverPostgres
}

func (r *SQLRepository) rebind(query string) string {
	return r.db.Rebind(query)
}

const (
	projectColumns = `id, name, location, type, status, description, features, developer,
		certification, parking, connectivity, total_units, available_units, price_range,
		completion_date, transport_connections, amenities, specifications, amenity_digest, narratives`
	unitColumns = `id, project_id, type, bedrooms, bathrooms, area, price, availability, features, specifications`
	faqColumns  = `id, project_id, question, answer, tags`
)

// qualified prefixes every column in a list with alias.
func qualified(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func (r *SQLRepository) ListProjects(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY ordinal, id`
	if err := r.db.SelectContext(ctx, &projects, query); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

func (r *SQLRepository) GetProject(ctx context.Context, id string) (*model.Project, error) {
	var project model.Project
	query := r.rebind(`SELECT ` + projectColumns + ` FROM projects WHERE id = ?`)
	err := r.db.GetContext(ctx, &project, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

func (r *SQLRepository) ListUnits(ctx context.Context) ([]model.Unit, error) {
	var units []model.Unit
	query := `SELECT ` + unitColumns + ` FROM units ORDER BY ordinal, id`
	if err := r.db.SelectContext(ctx, &units, query); err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	return units, nil
}

func (r *SQLRepository) ListUnitsByProject(ctx context.Context, projectID string) ([]model.Unit, error) {
	var units []model.Unit
	query := r.rebind(`SELECT ` + unitColumns + ` FROM units WHERE project_id = ? ORDER BY ordinal, id`)
	if err := r.db.SelectContext(ctx, &units, query, projectID); err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	return units, nil
}

func (r *SQLRepository) ListFaqs(ctx context.Context) ([]model.FAQ, error) {
	var faqs []model.FAQ
	query := `SELECT ` + faqColumns + ` FROM faqs ORDER BY ordinal, id`
	if err := r.db.SelectContext(ctx, &faqs, query); err != nil {
		return nil, fmt.Errorf("failed to list faqs: %w", err)
	}
	return faqs, nil
}

func (r *SQLRepository) ListFaqsByProject(ctx context.Context, projectID string) ([]model.FAQ, error) {
	var faqs []model.FAQ
	query := r.rebind(`SELECT ` + faqColumns + ` FROM faqs WHERE project_id = ? ORDER BY ordinal, id`)
	if err := r.db.SelectContext(ctx, &faqs, query, projectID); err != nil {
		return nil, fmt.Errorf("failed to list faqs: %w", err)
	}
	return faqs, nil
}

// SearchUnits performs a filtered unit search. It matches catalog.MatchUnit.
func (r *SQLRepository) SearchUnits(ctx context.Context, filter model.UnitFilter) ([]model.Unit, error) {
	whereClauses := []string{"1=1"}
	var args []any

	if filter.ProjectID != "" {
		whereClauses = append(whereClauses, "u.project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if filter.PriceMax != nil {
		whereClauses = append(whereClauses, "u.price <= ?")
		args = append(args, *filter.PriceMax)
	}
	if filter.Bedrooms != nil {
		whereClauses = append(whereClauses, "u.bedrooms = ?")
		args = append(args, *filter.Bedrooms)
	}
	// features is a JSON array; matching its text form is a substring match
	// on any element
	if filter.Feature != "" {
		whereClauses = append(whereClauses, "LOWER(CAST(u.features AS TEXT)) LIKE ?")
		args = append(args, likePattern(filter.Feature))
	}
	if filter.TypeContains != "" {
		whereClauses = append(whereClauses, "LOWER(u.type) LIKE ?")
		args = append(args, likePattern(filter.TypeContains))
	}
	if filter.ProjectStatus != "" {
		whereClauses = append(whereClauses, "LOWER(p.status) LIKE ?")
		args = append(args, likePattern(filter.ProjectStatus))
	}
	if filter.AvailableOnly {
		whereClauses = append(whereClauses, "u.availability = ?")
		args = append(args, string(model.Available))
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM units u
		JOIN projects p ON p.id = u.project_id
		WHERE %s
		ORDER BY u.ordinal, u.id
	`, qualified("u", unitColumns), strings.Join(whereClauses, " AND "))

	var units []model.Unit
	if err := r.db.SelectContext(ctx, &units, r.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to search units: %w", err)
	}
	return units, nil
}

func likePattern(s string) string {
	return "%" + strings.ToLower(s) + "%"
}
