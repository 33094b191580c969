package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"salesdesk/internal/model"
)

var bedroomCount = regexp.MustCompile(`(\d+)\s*(?:bhk|bedroom)`)

// featureTags are checked in order; the first one named in the query wins.
var featureTags = []string{
	"sea view", "garden view", "city view", "private pool", "smart home",
	"italian marble", "modular kitchen", "terrace", "balcony", "personal foyer",
	"vitrified", "granite", "video door", "work from home", "wfh",
}

func processBedroom(in *Input) *model.QueryResult {
	lower := in.lower()
	if !strings.Contains(lower, "bhk") && !strings.Contains(lower, "bedroom") {
		return nil
	}
	m := bedroomCount.FindStringSubmatch(lower)
	if len(m) < 2 {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return nil
	}

	var matched []model.Unit
	for _, u := range in.scoped(in.Units) {
		if u.Bedrooms == n {
			matched = append(matched, u)
		}
	}

	scope := in.scopeName("our portfolio")
	if len(matched) == 0 {
		return general(fmt.Sprintf("I couldn't find any %d BHK properties in %s.", n, scope))
	}
	return unitResult(fmt.Sprintf("I found %d %d BHK properties in %s.", len(matched), n, scope), matched)
}

func processFeature(in *Input) *model.QueryResult {
	lower := in.lower()
	for _, feature := range featureTags {
		if !strings.Contains(lower, feature) {
			continue
		}

		var matched []model.Unit
		for _, u := range in.scoped(in.Units) {
			if u.HasFeature(feature) {
				matched = append(matched, u)
			}
		}

		scope := in.scopeName("our portfolio")
		if len(matched) == 0 {
			return general(fmt.Sprintf("I couldn't find any properties with %s in %s.", feature, scope))
		}
		return unitResult(fmt.Sprintf("I found %d properties with %s in %s.", len(matched), feature, scope), matched)
	}
	return nil
}

func processAvailability(in *Input) *model.QueryResult {
	lower := in.lower()
	if !strings.Contains(lower, "available") && !strings.Contains(lower, "ready to move") {
		return nil
	}

	var available []model.Unit
	for _, u := range in.scoped(in.Units) {
		if u.IsAvailable() {
			available = append(available, u)
		}
	}
	return unitResult(fmt.Sprintf("There are %d available units in %s that are ready for booking.", len(available), in.scopeName("our portfolio")), available)
}
