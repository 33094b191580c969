package pipeline

import (
	"strings"

	"salesdesk/internal/model"
)

// MiscellaneousID is the category FAQs land in when no tag matches.
const MiscellaneousID = "miscellaneous"

// categories is the FAQ taxonomy in match-priority order.
var categories = []model.Category{
	{ID: "location", Name: "Location", Description: "Proximity, Traffic, Routes",
		Tags: []string{"location", "proximity", "traffic", "routes", "connectivity", "distance"}},
	{ID: "developer", Name: "Developer", Description: "Background, Portfolio, Credentials",
		Tags: []string{"developer", "background", "portfolio", "credentials", "experience"}},
	{ID: "apartment", Name: "Apartment", Description: "Unit Types, Layouts, Carpet Area",
		Tags: []string{"apartment", "unit", "layout", "carpet area", "bhk", "size"}},
	{ID: "penthouse", Name: "Penthouse", Description: "Features, Terrace, Floor Plans",
		Tags: []string{"penthouse", "terrace", "floor plan", "duplex", "luxury"}},
	{ID: "amenities", Name: "Amenities", Description: "Pools, Gyms, Timings",
		Tags: []string{"amenities", "pool", "gym", "facilities", "timings", "clubhouse"}},
	{ID: "parking", Name: "Parking", Description: "Allotment, Visitor Spaces",
		Tags: []string{"parking", "allotment", "visitor", "spaces", "garage"}},
	{ID: "financial", Name: "Financial", Description: "Total Price, Payment Schedule, Maintenance",
		Tags: []string{"price", "payment", "schedule", "maintenance", "cost", "charges"}},
	{ID: "legal", Name: "Legal", Description: "RERA, Land Title, Approvals",
		Tags: []string{"rera", "legal", "approval", "title", "documents", "registration"}},
	{ID: "construction", Name: "Construction", Description: "Materials, Earthquake Safety",
		Tags: []string{"construction", "materials", "safety", "earthquake", "quality"}},
	{ID: "possession", Name: "Possession", Description: "Timeline, Inspection, Customization",
		Tags: []string{"possession", "timeline", "inspection", "customization", "handover"}},
	{ID: "utilities", Name: "Utilities", Description: "Power, Water, STP, Lifts",
		Tags: []string{"utilities", "power", "water", "stp", "lifts", "electricity"}},
	{ID: "neighborhood", Name: "Neighborhood", Description: "Schools, Hospitals, Retail",
		Tags: []string{"neighborhood", "schools", "hospitals", "retail", "nearby", "vicinity"}},
	{ID: "investment", Name: "Investment", Description: "Price Trends, Rental, Resale",
		Tags: []string{"investment", "price trends", "rental", "resale", "appreciation"}},
	// Catch-all with no tags: it can only be reached by Categorize.
	{ID: MiscellaneousID, Name: "Miscellaneous", Description: "Offers, Loans, Comparisons"},
}

// Categories returns a copy of the taxonomy in priority order.
func Categories() []model.Category {
	out := make([]model.Category, len(categories))
	for i, c := range categories {
		c.Tags = append([]string(nil), c.Tags...)
		out[i] = c
	}
	return out
}

// CategoryByID looks up a category.
func CategoryByID(id string) (model.Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return model.Category{}, false
}

// Categorize files an FAQ under the first category with a tag appearing in
// its question or answer, or equal to one of its own tags.
func Categorize(faq model.FAQ) string {
	question := strings.ToLower(faq.Question)
	answer := strings.ToLower(faq.Answer)
	tags := make(map[string]bool, len(faq.Tags))
	for _, t := range faq.Tags {
		tags[strings.ToLower(t)] = true
	}

	for _, c := range categories {
		for _, tag := range c.Tags {
			if strings.Contains(question, tag) || strings.Contains(answer, tag) || tags[tag] {
				return c.ID
			}
		}
	}
	return MiscellaneousID
}

// CategoryForQuery returns the first category with a tag inside lower.
func CategoryForQuery(lower string) (model.Category, bool) {
	for _, c := range categories {
		if anyTagIn(c.Tags, lower) {
			return c, true
		}
	}
	return model.Category{}, false
}

// FAQsByCategory keeps the FAQs filed under id, in order.
func FAQsByCategory(faqs []model.FAQ, id string) []model.FAQ {
	var out []model.FAQ
	for _, f := range faqs {
		if Categorize(f) == id {
			out = append(out, f)
		}
	}
	return out
}

// CountByCategory returns every category with its FAQ count, taxonomy order.
// The counts always sum to len(faqs).
func CountByCategory(faqs []model.FAQ) []model.CategoryCount {
	counts := make(map[string]int, len(categories))
	for _, f := range faqs {
		counts[Categorize(f)]++
	}
	out := make([]model.CategoryCount, 0, len(categories))
	for _, c := range Categories() {
		out = append(out, model.CategoryCount{Category: c, Count: counts[c.ID]})
	}
	return out
}

func anyTagIn(tags []string, lower string) bool {
	for _, tag := range tags {
		if strings.Contains(lower, strings.ToLower(tag)) {
			return true
		}
	}
	return false
}
