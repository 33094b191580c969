package service

import (
	"sort"

	"salesdesk/internal/model"
)

// Match reason constants
const (
	ReasonPriceMatch      = "Price within budget"
	ReasonAvailableNow    = "Available now"
	ReasonFeatureMatch    = "Feature match"
	ReasonBedroomsMatch   = "Bedrooms match"
	ReasonUnitTypeMatch   = "Unit type match"
	ReasonPossessionMatch = "Possession status match"
	ReasonGeneralMatch    = "General match"
)

// Ranker handles ranking and scoring of filtered units
type Ranker struct {
	weightPrice        float64
	weightAvailability float64
	weightFeature      float64
}

// NewRanker creates a new ranker with specified weights
func NewRanker(weightPrice, weightAvailability, weightFeature float64) *Ranker {
	return &Ranker{
		weightPrice:        weightPrice,
		weightAvailability: weightAvailability,
		weightFeature:      weightFeature,
	}
}

// DefaultRanker weighs budget fit highest, then availability.
func DefaultRanker() *Ranker {
	return NewRanker(0.5, 0.3, 0.2)
}

// RankUnits scores units against the filter they were selected with.
// Units with equal scores keep their store order.
func (r *Ranker) RankUnits(units []model.Unit, filter model.UnitFilter) []model.RankedUnit {
	results := make([]model.RankedUnit, 0, len(units))

	for _, u := range units {
		priceScore := r.calculatePriceScore(u.Price, filter.PriceMax)
		availabilityScore := r.calculateAvailabilityScore(u.Availability)
		featureScore := r.calculateFeatureScore(u, filter.Feature)

		results = append(results, model.RankedUnit{
			Unit: u,
			Score: (r.weightPrice * priceScore) +
				(r.weightAvailability * availabilityScore) +
				(r.weightFeature * featureScore),
			MatchedReasons: r.generateMatchedReasons(u, filter, priceScore),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results
}

// calculatePriceScore: full marks without a ceiling; otherwise closer to the
// ceiling is better and anything above it scores zero.
func (r *Ranker) calculatePriceScore(price int64, ceiling *int64) float64 {
	if ceiling == nil {
		return 1.0
	}
	if *ceiling <= 0 || price > *ceiling {
		return 0.0
	}
	return float64(price) / float64(*ceiling)
}

func (r *Ranker) calculateAvailabilityScore(a model.Availability) float64 {
	switch a {
	case model.Available:
		return 1.0
	case model.Pending:
		return 0.5
	default:
		return 0.0
	}
}

// calculateFeatureScore is neutral when the filter names no feature.
func (r *Ranker) calculateFeatureScore(u model.Unit, feature string) float64 {
	if feature == "" {
		return 0.5
	}
	if u.HasFeature(feature) {
		return 1.0
	}
	return 0.0
}

// generateMatchedReasons generates human-readable reasons for why this unit matched
func (r *Ranker) generateMatchedReasons(u model.Unit, filter model.UnitFilter, priceScore float64) []string {
	reasons := []string{}

	if filter.PriceMax != nil && priceScore > 0.8 {
		reasons = append(reasons, ReasonPriceMatch)
	}
	if filter.Bedrooms != nil && u.Bedrooms == *filter.Bedrooms {
		reasons = append(reasons, ReasonBedroomsMatch)
	}
	if filter.TypeContains != "" {
		reasons = append(reasons, ReasonUnitTypeMatch)
	}
	if filter.Feature != "" && u.HasFeature(filter.Feature) {
		reasons = append(reasons, ReasonFeatureMatch)
	}
	if filter.ProjectStatus != "" {
		reasons = append(reasons, ReasonPossessionMatch)
	}
	if u.IsAvailable() {
		reasons = append(reasons, ReasonAvailableNow)
	}

	if len(reasons) == 0 {
		reasons = append(reasons, ReasonGeneralMatch)
	}

	return reasons
}
