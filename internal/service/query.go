package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"salesdesk/internal/catalog"
	"salesdesk/internal/logger"
	"salesdesk/internal/model"
	"salesdesk/internal/pipeline"
)

var (
	// ErrInvalidAction is returned for feedback with an unknown action
	ErrInvalidAction = errors.New("invalid feedback action")
	// ErrFeedbackDisabled is returned when no query log is configured
	ErrFeedbackDisabled = errors.New("feedback requires a query log")
	// ErrHistoryDisabled is returned for history without a query log
	ErrHistoryDisabled = errors.New("query history requires a query log")
)

// Feedback actions a client may record against a query
const (
	ActionHelpful    = "helpful"
	ActionNotHelpful = "not_helpful"
	ActionContact    = "contact"
	ActionViewUnit   = "view_unit"
)

var validActions = map[string]bool{
	ActionHelpful:    true,
	ActionNotHelpful: true,
	ActionContact:    true,
	ActionViewUnit:   true,
}

const logTimeout = 5 * time.Second

// QueryLog persists resolved queries and what users did with them
type QueryLog interface {
	LogQuery(ctx context.Context, entry *model.QueryLogEntry) error
	LogFeedback(ctx context.Context, fb *model.FeedbackRequest) error
	RecentQueries(ctx context.Context, limit int) ([]model.QueryLogEntry, error)
	FeedbackCount(ctx context.Context, queryID string) (int, error)
}

// History limits
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// QueryService resolves queries against the domain store
type QueryService struct {
	store        catalog.Store
	orchestrator *pipeline.Orchestrator
	queryLog     QueryLog
	logger       *zap.Logger
	wg           sync.WaitGroup
}

// NewQueryService creates a new query service. queryLog may be nil.
func NewQueryService(store catalog.Store, orchestrator *pipeline.Orchestrator, queryLog QueryLog, log *zap.Logger) *QueryService {
	return &QueryService{
		store:        store,
		orchestrator: orchestrator,
		queryLog:     queryLog,
		logger:       logger.OrNop(log),
	}
}

// Resolve answers one query.
func (s *QueryService) Resolve(ctx context.Context, req *model.QueryRequest) (*model.QueryResponse, error) {
	return s.ResolveObserved(ctx, req, nil)
}

// ResolveObserved answers one query, reporting each pipeline stage to observe.
func (s *QueryService) ResolveObserved(ctx context.Context, req *model.QueryRequest, observe pipeline.Observer) (*model.QueryResponse, error) {
	startTime := time.Now()

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, pipeline.ErrEmptyQuery
	}

	snap, err := catalog.LoadSnapshot(ctx, s.store, req.ProjectID)
	if err != nil {
		return nil, err
	}

	res, err := s.orchestrator.ResolveObserved(ctx, pipeline.NewInput(query, snap), observe)
	if err != nil {
		return nil, err
	}

	resp := &model.QueryResponse{
		ID:        uuid.NewString(),
		Result:    res.Result,
		Stage:     res.Stage,
		ElapsedMs: time.Since(startTime).Milliseconds(),
	}

	s.logger.Info("query resolved",
		zap.String("id", resp.ID),
		zap.String("project_id", req.ProjectID),
		zap.String("stage", res.Stage),
		zap.String("detail", res.Detail),
		zap.Int64("elapsed_ms", resp.ElapsedMs),
	)

	s.logAsync(&model.QueryLogEntry{
		ID:         resp.ID,
		Query:      query,
		ProjectID:  req.ProjectID,
		Stage:      res.Stage,
		ResultType: res.Result.Type,
		RelatedIDs: model.JSONArray(res.Result.RelatedIDs()),
		ElapsedMs:  resp.ElapsedMs,
		CreatedAt:  time.Now().UTC(),
	})

	return resp, nil
}

// logAsync writes the entry without holding up the response
func (s *QueryService) logAsync(entry *model.QueryLogEntry) {
	if s.queryLog == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), logTimeout)
		defer cancel()
		if err := s.queryLog.LogQuery(ctx, entry); err != nil {
			s.logger.Warn("⚠️ failed to log query", zap.String("id", entry.ID), zap.Error(err))
		}
	}()
}

// Wait blocks until pending query log writes finish.
func (s *QueryService) Wait() {
	s.wg.Wait()
}

// Feedback records what the user did with an answer.
func (s *QueryService) Feedback(ctx context.Context, fb *model.FeedbackRequest) error {
	if !validActions[fb.Action] {
		return ErrInvalidAction
	}
	if s.queryLog == nil {
		return ErrFeedbackDisabled
	}
	return s.queryLog.LogFeedback(ctx, fb)
}

// History returns the newest logged queries with their feedback counts.
// limit is clamped to (0, MaxHistoryLimit]; zero or less means
// DefaultHistoryLimit.
func (s *QueryService) History(ctx context.Context, limit int) ([]model.QueryHistoryEntry, error) {
	if s.queryLog == nil {
		return nil, ErrHistoryDisabled
	}
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	entries, err := s.queryLog.RecentQueries(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]model.QueryHistoryEntry, 0, len(entries))
	for _, e := range entries {
		n, err := s.queryLog.FeedbackCount(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, model.QueryHistoryEntry{QueryLogEntry: e, FeedbackCount: n})
	}
	return out, nil
}
