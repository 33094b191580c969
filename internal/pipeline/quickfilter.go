package pipeline

import (
	"strings"

	"salesdesk/internal/model"
)

var quickFilters = []model.QuickFilter{
	{ID: "under-1cr", Label: "Under ₹1 Cr", Description: "Units below ₹1 crore",
		Criteria: "price_max: 10000000", Query: "Show me units under 1 crore"},
	{ID: "sea-view", Label: "Sea View", Description: "Sea-facing units",
		Criteria: "special_features: Sea View", Query: "Show me sea view properties"},
	{ID: "ready-to-move", Label: "Ready to Move", Description: "Immediate availability",
		Criteria: "possession_status: ready", Query: "Show me ready to move properties"},
	{ID: "corner-units", Label: "Corner Units", Description: "Extra light/space",
		Criteria: "unit_type: corner", Query: "Show me corner units"},
	{ID: "high-floor", Label: "High Floor", Description: "Floors 10+",
		Criteria: "floor_min: 10", Query: "Show me high floor apartments"},
	{ID: "dual-parking", Label: "2 Parking", Description: "Dual parking spaces",
		Criteria: "parking_spaces: 2", Query: "Show me units with 2 parking spaces"},
}

// QuickFilters returns the shortcut table in match order.
func QuickFilters() []model.QuickFilter {
	return append([]model.QuickFilter(nil), quickFilters...)
}

// QuickFilterByID looks up a shortcut.
func QuickFilterByID(id string) (model.QuickFilter, bool) {
	for _, f := range quickFilters {
		if f.ID == id {
			return f, true
		}
	}
	return model.QuickFilter{}, false
}

// MatchQuickFilter returns the first filter whose label is inside the
// query, whose canonical query contains the query, or whose description
// is inside the query. All comparisons ignore case.
func MatchQuickFilter(query string) (model.QuickFilter, bool) {
	lower := strings.ToLower(query)
	for _, f := range quickFilters {
		if strings.Contains(lower, strings.ToLower(f.Label)) ||
			strings.Contains(strings.ToLower(f.Query), lower) ||
			strings.Contains(lower, strings.ToLower(f.Description)) {
			return f, true
		}
	}
	return model.QuickFilter{}, false
}

// FilterSuffix is appended to an answer produced by replaying a filter.
func FilterSuffix(f model.QuickFilter) string {
	return "\n\nFilter: " + f.Label + " - " + f.Description
}
