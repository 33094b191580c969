package service

import (
	"strconv"
	"strings"

	"salesdesk/internal/model"
)

// Quick filter criteria keys
const (
	CriterionPriceMax         = "price_max"
	CriterionSpecialFeatures  = "special_features"
	CriterionPossessionStatus = "possession_status"
	CriterionUnitType         = "unit_type"
	CriterionBedrooms         = "bedrooms"
)

// ParseCriteria turns a quick filter criteria string ("key: value", several
// separated by ';') into a unit filter. Keys the store cannot evaluate, and
// values that do not parse, are listed in Ignored.
func ParseCriteria(criteria string) model.UnitFilter {
	var f model.UnitFilter
	for _, part := range strings.Split(criteria, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, ":")
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if !ok || value == "" {
			f.Ignored = append(f.Ignored, key)
			continue
		}

		switch key {
		case CriterionPriceMax:
			v, err := strconv.ParseFloat(value, 64)
			if err != nil || v <= 0 {
				f.Ignored = append(f.Ignored, key)
				continue
			}
			ceiling := int64(v)
			f.PriceMax = &ceiling
		case CriterionSpecialFeatures:
			f.Feature = value
		case CriterionPossessionStatus:
			f.ProjectStatus = value
		case CriterionUnitType:
			f.TypeContains = value
		case CriterionBedrooms:
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				f.Ignored = append(f.Ignored, key)
				continue
			}
			f.Bedrooms = &n
		default:
			f.Ignored = append(f.Ignored, key)
		}
	}
	return f
}
