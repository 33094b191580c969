package pipeline

import (
	"fmt"
	"strings"

	"salesdesk/internal/model"
	"salesdesk/internal/utils"
)

var (
	commercialKeywords = []string{"commercial", "showroom", "office space", "retail", "business space"}
	penthouseKeywords  = []string{"penthouse", "duplex", "terrace", "top floor"}
	amenityKeywords    = []string{"amenities", "facilities", "features", "gym", "pool", "swimming", "clubhouse", "spa"}
	wfhKeywords        = []string{"work from home", "wfh", "home office"}
)

func processCommercial(in *Input) *model.QueryResult {
	if !containsAny(in.lower(), commercialKeywords) {
		return nil
	}
	if in.Project != nil {
		if text := narrative(in.Project, model.TopicCommercial); text != "" {
			return projectResult(in.Project, text)
		}
	}

	var names []string
	for i := range in.Projects {
		if in.Projects[i].IsCommercial() {
			names = append(names, in.Projects[i].Name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return general(fmt.Sprintf("We have commercial offerings such as %s. Would you like more information about any of these commercial projects?", strings.Join(names, ", ")))
}

func isPenthouse(u model.Unit) bool {
	return strings.Contains(strings.ToLower(u.Type), "penthouse") || u.HasFeature("duplex")
}

func processPenthouse(in *Input) *model.QueryResult {
	if !containsAny(in.lower(), penthouseKeywords) {
		return nil
	}

	var penthouses []model.Unit
	for _, u := range in.Units {
		if isPenthouse(u) {
			penthouses = append(penthouses, u)
		}
	}
	local := in.scoped(penthouses)

	switch {
	case len(local) > 0 && in.Project != nil && in.Project.Narrative(model.TopicPenthouse) != "":
		return unitResult(narrative(in.Project, model.TopicPenthouse), local)
	case len(local) > 0:
		return unitResult(fmt.Sprintf("I found %d penthouses in %s.", len(local), in.scopeName("our portfolio")), local)
	case len(penthouses) > 0:
		return unitResult(fmt.Sprintf("While %s doesn't offer penthouses, we have %d penthouses in other projects in our portfolio.",
			in.scopeName("the current project"), len(penthouses)), penthouses)
	default:
		return general("I couldn't find any penthouses in our current portfolio.")
	}
}

func processAmenities(in *Input) *model.QueryResult {
	if !containsAny(in.lower(), amenityKeywords) {
		return nil
	}
	p := in.Project
	if p == nil {
		return general("Please select a project to get specific amenity information.")
	}

	var text string
	if digest := renderAmenityDigest(p); digest != "" {
		text = digest
	} else if len(p.Features) > 0 {
		text = fmt.Sprintf("%s offers various features including: %s.", p.Name, strings.Join(p.Features, ", "))
	} else {
		text = "Please contact our sales team for detailed information about the amenities offered at " + p.Name + "."
	}

	if matches := utils.MatchingAmenities(in.Query, p.Amenities.All()); len(matches) > 0 {
		text += "\n\nMatching amenities: " + strings.Join(matches, ", ")
	}
	return projectResult(p, text)
}

// renderAmenityDigest builds "{name} {intro}: Label (a, b), ..., and Label (c)."
// Groups whose category has no items are left out.
func renderAmenityDigest(p *model.Project) string {
	d := p.AmenityDigest
	if d == nil || len(d.Groups) == 0 {
		return ""
	}

	var parts []string
	for _, g := range d.Groups {
		items := p.Amenities.Get(g.Category).Items()
		if len(items) == 0 {
			continue
		}
		joined := strings.Join(items, ", ")
		if g.Label == "" {
			parts = append(parts, joined)
		} else {
			parts = append(parts, fmt.Sprintf("%s (%s)", g.Label, joined))
		}
	}
	if len(parts) == 0 {
		return ""
	}

	body := parts[0]
	if n := len(parts); n > 1 {
		body = strings.Join(parts[:n-1], ", ") + ", and " + parts[n-1]
	}
	return fmt.Sprintf("%s %s: %s.", p.Name, d.Intro, body)
}

func isWorkFromHome(u model.Unit) bool {
	if strings.Contains(strings.ToLower(u.Type), "wfh") {
		return true
	}
	for _, f := range u.Features {
		lf := strings.ToLower(f)
		if strings.Contains(lf, "work") && strings.Contains(lf, "home") {
			return true
		}
	}
	return false
}

func processWorkFromHome(in *Input) *model.QueryResult {
	if !containsAny(in.lower(), wfhKeywords) {
		return nil
	}
	if in.Project != nil {
		if text := narrative(in.Project, model.TopicWorkFromHome); text != "" {
			return projectResult(in.Project, text)
		}
	}

	var names []string
	for i := range in.Projects {
		if in.Projects[i].Narrative(model.TopicWorkFromHome) != "" {
			names = append(names, in.Projects[i].Name)
		}
	}

	var units []model.Unit
	for _, u := range in.Units {
		if isWorkFromHome(u) {
			units = append(units, u)
		}
	}

	if len(units) > 0 {
		text := fmt.Sprintf("We have %d units specifically designed with work-from-home features in our portfolio.", len(units))
		if len(names) > 0 {
			text += fmt.Sprintf(" The %s project specifically offers work-from-home apartments designed for the modern professional.", strings.Join(names, ", "))
		}
		return unitResult(text, units)
	}
	if len(names) > 0 {
		return general(fmt.Sprintf("Our %s project offers work-from-home apartments specifically designed for professionals who need dedicated space for remote work. Other projects can accommodate home office setups in their spacious layouts.", strings.Join(names, ", ")))
	}
	return general("Our projects can accommodate home office setups in their spacious layouts. Please contact our sales team for details.")
}
