package pipeline

import (
	"fmt"
	"strings"

	"salesdesk/internal/model"
)

// topicProcessor is the shape shared by the project-copy topics: match a
// keyword, ask for a project when none is selected, prefer the project's
// stored narrative, else render a generic sentence from project fields.
type topicProcessor struct {
	topic     string
	keywords  []string
	noProject string
	generic   func(p *model.Project) string
}

func (t topicProcessor) process(in *Input) *model.QueryResult {
	if !containsAny(in.lower(), t.keywords) {
		return nil
	}
	if in.Project == nil {
		return general(t.noProject)
	}
	if text := narrative(in.Project, t.topic); text != "" {
		return projectResult(in.Project, text)
	}
	return projectResult(in.Project, t.generic(in.Project))
}

var locationTopic = topicProcessor{
	topic:     model.TopicLocation,
	keywords:  []string{"location", "connectivity", "nearby", "distance", "how far", "traffic", "transportation", "commute"},
	noProject: "Please select a project to get location-specific information.",
	generic: func(p *model.Project) string {
		text := fmt.Sprintf("%s is located in %s, offering convenience and accessibility to key areas of the city.", p.Name, p.Location)
		return text + describeTransport(p.TransportConnections)
	},
}

var developerTopic = topicProcessor{
	topic:     model.TopicDeveloper,
	keywords:  []string{"developer", "builder", "shivalik", "track record", "reputation", "rera"},
	noProject: "Please select a project to get developer-specific information.",
	generic: func(p *model.Project) string {
		by := "a reputable developer in the real estate sector"
		if p.Developer != "" {
			by = p.Developer + ", " + by
		}
		return fmt.Sprintf("%s is developed by %s. The project is designed with quality and customer satisfaction in mind, with all necessary legal approvals in place.", p.Name, by)
	},
}

var ecoTopic = topicProcessor{
	topic:     model.TopicEco,
	keywords:  []string{"green building", "eco-friendly", "sustainable", "certification", "pre-certified"},
	noProject: "Please select a project to get specific information about green building features.",
	generic: func(p *model.Project) string {
		return p.Name + " incorporates modern design principles with focus on natural light and ventilation. Please contact our sales team for specific information about eco-friendly features of this project."
	},
}

var layoutTopic = topicProcessor{
	topic:     model.TopicLayout,
	keywords:  []string{"layout", "floor plan", "carpet area", "carpet", "super built", "direction", "face", "vastu"},
	noProject: "Please select a project to get specific layout information.",
	generic: func(p *model.Project) string {
		return p.Name + " features thoughtfully designed layouts that maximize space utilization and comfort. Please contact our sales team for specific floor plans and layout details."
	},
}

var parkingTopic = topicProcessor{
	topic:     model.TopicParking,
	keywords:  []string{"parking", "car", "vehicle", "storage", "basement"},
	noProject: "Please select a project to get specific information about parking facilities.",
	generic: func(p *model.Project) string {
		if p.Parking != "" {
			return fmt.Sprintf("%s provides %s.", p.Name, p.Parking)
		}
		return p.Name + " includes designated parking facilities for residents. Please contact our sales team for specific details about parking allocation for different unit types."
	},
}

var constructionTopic = topicProcessor{
	topic:     model.TopicConstruction,
	keywords:  []string{"construction", "material", "quality", "fixtures", "fittings", "brand", "earthquake"},
	noProject: "Please select a project to get specific information about construction quality.",
	generic: func(p *model.Project) string {
		return p.Name + " is built with quality materials and modern construction techniques to ensure durability and comfort. The project adheres to safety standards and uses premium fixtures and fittings throughout."
	},
}

var specificationsTopic = topicProcessor{
	topic:     model.TopicSpecifications,
	keywords:  []string{"specification", "material", "quality", "flooring", "bathroom", "kitchen"},
	noProject: "Please select a project to get specific specification information.",
	generic: func(p *model.Project) string {
		if len(p.Specifications) > 0 {
			return describeSpecifications(p)
		}
		return p.Name + " features quality specifications including premium flooring, modern fixtures in bathrooms and kitchens, and durable finishes throughout. Please contact our sales team for detailed specifications."
	},
}

var utilitiesTopic = topicProcessor{
	topic:     model.TopicUtilities,
	keywords:  []string{"water supply", "power backup", "electricity", "sewage", "lifts", "elevators", "waste"},
	noProject: "Please select a project to get specific information about utilities and services.",
	generic: func(p *model.Project) string {
		return p.Name + " is equipped with modern utility systems including water supply, power management, and waste handling. The project features elevator services appropriate for the building height and occupancy needs."
	},
}

// describeTransport renders roads, metro and travel times as extra
// sentences. Empty when nothing is recorded.
func describeTransport(tc *model.TransportConnections) string {
	if tc == nil {
		return ""
	}
	var b strings.Builder
	if len(tc.Roads) > 0 {
		fmt.Fprintf(&b, " Major roads: %s.", strings.Join(tc.Roads, ", "))
	}
	if len(tc.Metro) > 0 {
		fmt.Fprintf(&b, " Metro: %s.", strings.Join(tc.Metro, ", "))
	}
	if len(tc.Distances) > 0 {
		parts := make([]string, 0, len(tc.Distances))
		for _, k := range sortedKeys(tc.Distances) {
			parts = append(parts, fmt.Sprintf("%s (%s)", k, tc.Distances[k]))
		}
		fmt.Fprintf(&b, " Travel times: %s.", strings.Join(parts, ", "))
	}
	return b.String()
}

// describeSpecifications lists every specification category in key order.
func describeSpecifications(p *model.Project) string {
	parts := make([]string, 0, len(p.Specifications))
	for _, k := range p.Specifications.Keys() {
		v := p.Specifications[k]
		if v.IsZero() {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", k, v.String()))
	}
	return fmt.Sprintf("%s specifications include %s.", p.Name, strings.Join(parts, "; "))
}
