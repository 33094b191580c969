package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"salesdesk/internal/catalog"
	"salesdesk/internal/logger"
	"salesdesk/internal/model"
)

// ErrEmbeddingsDisabled is returned when no embedding provider is configured
var ErrEmbeddingsDisabled = errors.New("embeddings are not configured")

// FAQVectorStore stores FAQ embeddings
type FAQVectorStore interface {
	UpsertFAQEmbeddings(ctx context.Context, items []model.FAQEmbedding) (int, []string, error)
}

// FAQIndexer embeds FAQs and stores the vectors for nearest-FAQ lookups
type FAQIndexer struct {
	store    catalog.Store
	embedder Embedder
	vectors  FAQVectorStore
	logger   *zap.Logger
}

// NewFAQIndexer creates an indexer. embedder and vectors may be nil, which
// disables it.
func NewFAQIndexer(store catalog.Store, embedder Embedder, vectors FAQVectorStore, log *zap.Logger) *FAQIndexer {
	return &FAQIndexer{store: store, embedder: embedder, vectors: vectors, logger: logger.OrNop(log)}
}

// Enabled reports whether Rebuild can run.
func (x *FAQIndexer) Enabled() bool {
	return x != nil && x.embedder != nil && x.vectors != nil && x.embedder.IsEnabled()
}

// Rebuild embeds the FAQs of projectID (all FAQs when empty) and upserts
// their vectors.
func (x *FAQIndexer) Rebuild(ctx context.Context, projectID string) (*model.EmbeddingBatchResponse, error) {
	if !x.Enabled() {
		return nil, ErrEmbeddingsDisabled
	}

	var (
		faqs []model.FAQ
		err  error
	)
	if projectID != "" {
		faqs, err = x.store.ListFaqsByProject(ctx, projectID)
	} else {
		faqs, err = x.store.ListFaqs(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list faqs: %w", err)
	}
	if len(faqs) == 0 {
		return &model.EmbeddingBatchResponse{}, nil
	}

	texts := make([]string, len(faqs))
	for i, f := range faqs {
		texts[i] = FAQText(f)
	}

	vectors, err := x.embedder.CreateEmbeddings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed faqs: %w", err)
	}

	items := make([]model.FAQEmbedding, len(faqs))
	for i, f := range faqs {
		items[i] = model.FAQEmbedding{FAQID: f.ID, ProjectID: f.ProjectID}
		if i < len(vectors) {
			items[i].Embedding = vectors[i]
		}
	}

	success, errs, err := x.vectors.UpsertFAQEmbeddings(ctx, items)
	if err != nil {
		return nil, err
	}

	x.logger.Info("✅ faq embeddings rebuilt",
		zap.String("project_id", projectID),
		zap.Int("success", success),
		zap.Int("failed", len(faqs)-success),
	)
	return &model.EmbeddingBatchResponse{
		Success: success,
		Failed:  len(faqs) - success,
		Errors:  errs,
	}, nil
}

// FAQText is the text embedded for an FAQ.
func FAQText(f model.FAQ) string {
	return f.Question + "\n" + f.Answer
}
