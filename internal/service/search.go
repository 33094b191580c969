package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"salesdesk/internal/catalog"
	"salesdesk/internal/logger"
	"salesdesk/internal/model"
	"salesdesk/internal/pipeline"
)

// ErrFilterNotFound is returned for an unknown quick filter id
var ErrFilterNotFound = errors.New("quick filter not found")

// SearchService evaluates quick filter criteria against the unit catalogue.
// It is separate from the query pipeline, which only replays a filter's
// canonical query.
type SearchService struct {
	store  catalog.Store
	ranker *Ranker
	logger *zap.Logger
}

// NewSearchService creates a new search service
func NewSearchService(store catalog.Store, ranker *Ranker, log *zap.Logger) *SearchService {
	if ranker == nil {
		ranker = DefaultRanker()
	}
	return &SearchService{
		store:  store,
		ranker: ranker,
		logger: logger.OrNop(log),
	}
}

// FilterUnits applies quick filter filterID, optionally within one project,
// and returns the matching units ranked.
func (s *SearchService) FilterUnits(ctx context.Context, filterID, projectID string) (*model.UnitSearchResponse, error) {
	qf, ok := pipeline.QuickFilterByID(filterID)
	if !ok {
		return nil, ErrFilterNotFound
	}

	if projectID != "" {
		if _, err := s.store.GetProject(ctx, projectID); err != nil {
			return nil, err
		}
	}

	filter := ParseCriteria(qf.Criteria)
	filter.ProjectID = projectID
	if len(filter.Ignored) > 0 {
		s.logger.Debug("quick filter has criteria the store cannot evaluate",
			zap.String("filter", filterID),
			zap.Strings("ignored", filter.Ignored),
		)
	}

	units, err := s.store.SearchUnits(ctx, filter)
	if err != nil {
		return nil, err
	}

	results := s.ranker.RankUnits(units, filter)
	return &model.UnitSearchResponse{
		Filter:  qf,
		Applied: filter,
		Results: results,
		Total:   len(results),
	}, nil
}
