package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salesdesk/internal/model"
)

// ErrQueryNotFound is returned when feedback names an unknown query id
var ErrQueryNotFound = errors.New("query not found")

// LogQuery records one resolved query
func (r *SQLRepository) LogQuery(ctx context.Context, entry *model.QueryLogEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	query := r.rebind(`
		INSERT INTO query_logs (id, query, project_id, stage, result_type, related_ids, elapsed_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.Query, entry.ProjectID, entry.Stage, string(entry.ResultType),
		entry.RelatedIDs, entry.ElapsedMs, createdAt)
	if err != nil {
		return fmt.Errorf("failed to log query: %w", err)
	}
	return nil
}

// RecentQueries returns the newest log entries first
func (r *SQLRepository) RecentQueries(ctx context.Context, limit int) ([]model.QueryLogEntry, error) {
	var entries []model.QueryLogEntry
	query := r.rebind(`
		SELECT id, query, project_id, stage, result_type, related_ids, elapsed_ms, created_at
		FROM query_logs
		ORDER BY created_at DESC
		LIMIT ?
	`)
	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list queries: %w", err)
	}
	return entries, nil
}

// LogFeedback logs user feedback/action against a logged query
func (r *SQLRepository) LogFeedback(ctx context.Context, fb *model.FeedbackRequest) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, r.rebind(`UPDATE query_logs SET last_action = ? WHERE id = ?`), fb.Action, fb.QueryID)
	if err != nil {
		return fmt.Errorf("failed to log feedback: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrQueryNotFound
	}

	_, err = tx.ExecContext(ctx,
		r.rebind(`INSERT INTO query_feedback (query_id, action, item_id, created_at) VALUES (?, ?, ?, ?)`),
		fb.QueryID, fb.Action, fb.ItemID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to log feedback: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit feedback: %w", err)
	}
	return nil
}

// FeedbackCount returns how many feedback rows a query has.
func (r *SQLRepository) FeedbackCount(ctx context.Context, queryID string) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.rebind(`SELECT COUNT(*) FROM query_feedback WHERE query_id = ?`), queryID); err != nil {
		return 0, fmt.Errorf("failed to count feedback: %w", err)
	}
	return n, nil
}
