package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"salesdesk/internal/model"
)

// ErrVectorUnsupported is returned by vector operations on a driver
// without pgvector.
var ErrVectorUnsupported = errors.New("vector search requires postgres with pgvector")

// UpsertFAQEmbeddings stores FAQ vectors in one transaction. It returns the
// number stored and a message per failed item. Each row runs under its own
// savepoint, so a rejected row (an unknown FAQ, say) leaves the rest intact.
func (r *SQLRepository) UpsertFAQEmbeddings(ctx context.Context, items []model.FAQEmbedding) (int, []string, error) {
	if !r.SupportsVectors() {
		return 0, nil, ErrVectorUnsupported
	}

	valid, errs := checkEmbeddings(items, r.vectorDims)
	if len(valid) == 0 {
		return 0, errs, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO faq_embeddings (faq_id, project_id, embedding, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (faq_id) DO UPDATE SET embedding = excluded.embedding, project_id = excluded.project_id, updated_at = NOW()
	`)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	success := 0
	for _, item := range valid {
		if _, err := tx.ExecContext(ctx, "SAVEPOINT faq_embedding"); err != nil {
			return 0, errs, fmt.Errorf("failed to set savepoint: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, item.FAQID, item.ProjectID, pgvector.NewVector(item.Embedding)); err != nil {
			errs = append(errs, fmt.Sprintf("faq %s: %v", item.FAQID, err))
			if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT faq_embedding"); rbErr != nil {
				return 0, errs, fmt.Errorf("failed to roll back to savepoint: %w", rbErr)
			}
			continue
		}
		if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT faq_embedding"); err != nil {
			return 0, errs, fmt.Errorf("failed to release savepoint: %w", err)
		}
		success++
	}

	if err := tx.Commit(); err != nil {
		return 0, errs, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return success, errs, nil
}

// checkEmbeddings drops items the vector column would reject. dims <= 0
// accepts any non-empty vector.
func checkEmbeddings(items []model.FAQEmbedding, dims int) ([]model.FAQEmbedding, []string) {
	valid := make([]model.FAQEmbedding, 0, len(items))
	var errs []string
	for _, item := range items {
		switch {
		case item.FAQID == "":
			errs = append(errs, "faq without id")
		case len(item.Embedding) == 0:
			errs = append(errs, fmt.Sprintf("faq %s: empty embedding", item.FAQID))
		case dims > 0 && len(item.Embedding) != dims:
			errs = append(errs, fmt.Sprintf("faq %s: embedding has %d dimensions, want %d", item.FAQID, len(item.Embedding), dims))
		default:
			valid = append(valid, item)
		}
	}
	return valid, errs
}

// NearestFAQs returns up to limit FAQs closest to embedding by cosine
// distance, scoped to projectID when it is set.
func (r *SQLRepository) NearestFAQs(ctx context.Context, embedding []float32, projectID string, limit int) ([]model.FAQ, error) {
	if !r.SupportsVectors() {
		return nil, ErrVectorUnsupported
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM faq_embeddings e
		JOIN faqs f ON f.id = e.faq_id
		WHERE ($1 = '' OR f.project_id = $1)
		ORDER BY e.embedding <=> $2
		LIMIT $3
	`, qualified("f", faqColumns))

	var faqs []model.FAQ
	if err := r.db.SelectContext(ctx, &faqs, query, projectID, pgvector.NewVector(embedding), limit); err != nil {
		return nil, fmt.Errorf("failed to search faq embeddings: %w", err)
	}
	return faqs, nil
}
