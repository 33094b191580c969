package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"salesdesk/internal/catalog"
	"salesdesk/internal/model"
)

func TestParseCriteria(t *testing.T) {
	f := ParseCriteria("price_max: 10000000")
	require.NotNil(t, f.PriceMax)
	assert.Equal(t, int64(10_000_000), *f.PriceMax)
	assert.Empty(t, f.Ignored)

	f = ParseCriteria("special_features: Sea View; unit_type: corner; bedrooms: 3")
	assert.Equal(t, "Sea View", f.Feature)
	assert.Equal(t, "corner", f.TypeContains)
	require.NotNil(t, f.Bedrooms)
	assert.Equal(t, 3, *f.Bedrooms)

	f = ParseCriteria("possession_status: ready")
	assert.Equal(t, "ready", f.ProjectStatus)

	f = ParseCriteria("floor_min: 10; parking_spaces: 2; price_max: lots; bedrooms; ")
	assert.Equal(t, []string{"floor_min", "parking_spaces", "price_max", "bedrooms"}, f.Ignored)
	assert.Nil(t, f.PriceMax)
	assert.Nil(t, f.Bedrooms)
}

func TestRanker_RankUnits(t *testing.T) {
	units := allUnits(t)[:2]
	ceiling := int64(30_000_000)

	ranked := DefaultRanker().RankUnits(units, model.UnitFilter{PriceMax: &ceiling, Feature: "terrace"})
	require.Len(t, ranked, 2)

	assert.Equal(t, "unit-1", ranked[0].Unit.ID)
	assert.InDelta(t, 0.5*28.0/30.0+0.3, ranked[0].Score, 1e-9)
	assert.Equal(t, []string{ReasonPriceMatch, ReasonAvailableNow}, ranked[0].MatchedReasons)

	assert.Equal(t, "unit-2", ranked[1].Unit.ID)
	assert.InDelta(t, 0.35, ranked[1].Score, 1e-9)
	assert.Equal(t, []string{ReasonFeatureMatch}, ranked[1].MatchedReasons)
}

func TestRanker_StableForEqualScores(t *testing.T) {
	units := syntheticUnits(4)
	ranked := DefaultRanker().RankUnits(units, model.UnitFilter{})

	ids := make([]string, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.Unit.ID)
		assert.Equal(t, []string{ReasonAvailableNow}, r.MatchedReasons)
	}
	assert.Equal(t, []string{"u-1", "u-2", "u-3", "u-4"}, ids)
}

func TestRanker_GeneralMatch(t *testing.T) {
	sold := model.Unit{ID: "u-sold", Availability: model.Sold}
	ranked := DefaultRanker().RankUnits([]model.Unit{sold}, model.UnitFilter{})
	require.Len(t, ranked, 1)
	assert.Equal(t, []string{ReasonGeneralMatch}, ranked[0].MatchedReasons)
	assert.InDelta(t, 0.6, ranked[0].Score, 1e-9)
}

func newSearchService(t *testing.T) *SearchService {
	t.Helper()
	return NewSearchService(loadStore(t), nil, zaptest.NewLogger(t))
}

func TestSearchService_FilterUnits(t *testing.T) {
	svc := newSearchService(t)

	resp, err := svc.FilterUnits(context.Background(), "ready-to-move", "")
	require.NoError(t, err)

	assert.Equal(t, "Ready to Move", resp.Filter.Label)
	assert.Equal(t, "ready", resp.Applied.ProjectStatus)
	require.Equal(t, 2, resp.Total)
	assert.Equal(t, "unit-5", resp.Results[0].Unit.ID)
	assert.InDelta(t, 0.9, resp.Results[0].Score, 1e-9)
	assert.Equal(t, []string{ReasonPossessionMatch, ReasonAvailableNow}, resp.Results[0].MatchedReasons)
	assert.Equal(t, "unit-6", resp.Results[1].Unit.ID)
	assert.InDelta(t, 0.75, resp.Results[1].Score, 1e-9)
	assert.Equal(t, []string{ReasonPossessionMatch}, resp.Results[1].MatchedReasons)
}

func TestSearchService_FilterUnitsNoMatches(t *testing.T) {
	svc := newSearchService(t)

	for _, id := range []string{"under-1cr", "sea-view", "corner-units"} {
		resp, err := svc.FilterUnits(context.Background(), id, "")
		require.NoError(t, err, id)
		assert.Zero(t, resp.Total, id)
		assert.NotNil(t, resp.Results, id)
	}
}

func TestSearchService_IgnoredCriteriaKeepEveryUnit(t *testing.T) {
	svc := newSearchService(t)

	resp, err := svc.FilterUnits(context.Background(), "high-floor", "")
	require.NoError(t, err)
	assert.Equal(t, 8, resp.Total)
	assert.Equal(t, []string{"floor_min"}, resp.Applied.Ignored)

	scoped, err := svc.FilterUnits(context.Background(), "dual-parking", "edge-4")
	require.NoError(t, err)
	assert.Equal(t, 2, scoped.Total)
	assert.Equal(t, "edge-4", scoped.Applied.ProjectID)
	assert.Equal(t, "unit-7", scoped.Results[0].Unit.ID)
}

func TestSearchService_FilterUnitsErrors(t *testing.T) {
	svc := newSearchService(t)

	_, err := svc.FilterUnits(context.Background(), "penthouses-only", "")
	assert.ErrorIs(t, err, ErrFilterNotFound)

	_, err = svc.FilterUnits(context.Background(), "sea-view", "atlantis-9")
	assert.ErrorIs(t, err, catalog.ErrProjectNotFound)
}
