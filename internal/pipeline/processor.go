package pipeline

import (
	"sort"
	"strings"

	"salesdesk/internal/catalog"
	"salesdesk/internal/model"
)

// Input is a query plus the snapshot it is resolved against. Processors
// only read it.
type Input struct {
	Query    string
	Project  *model.Project
	Projects []model.Project
	Units    []model.Unit
	FAQs     []model.FAQ
}

// NewInput pairs a query with a loaded snapshot.
func NewInput(query string, snap *catalog.Snapshot) *Input {
	if snap == nil {
		return &Input{Query: query}
	}
	return &Input{
		Query:    query,
		Project:  snap.Project,
		Projects: snap.Projects,
		Units:    snap.Units,
		FAQs:     snap.FAQs,
	}
}

// withQuery returns a shallow copy answering a different query.
func (in *Input) withQuery(q string) *Input {
	cp := *in
	cp.Query = q
	return &cp
}

func (in *Input) lower() string {
	return strings.ToLower(in.Query)
}

// scopeName is the project name, or fallback when no project is selected.
func (in *Input) scopeName(fallback string) string {
	if in.Project == nil {
		return fallback
	}
	return in.Project.Name
}

// scoped keeps the units of the current project; all units without one.
func (in *Input) scoped(units []model.Unit) []model.Unit {
	if in.Project == nil {
		return units
	}
	return catalog.FilterByProject(units, in.Project.ID)
}

// Processor answers one topic. Process returns nil when the query is not
// about that topic.
type Processor struct {
	Name    string
	Process func(in *Input) *model.QueryResult
}

// Processors returns the keyword processors in priority order. Earlier
// processors win when keywords overlap.
func Processors() []Processor {
	return []Processor{
		{Name: model.TopicLocation, Process: locationTopic.process},
		{Name: model.TopicDeveloper, Process: developerTopic.process},
		{Name: model.TopicEco, Process: ecoTopic.process},
		{Name: model.TopicLayout, Process: layoutTopic.process},
		{Name: model.TopicCommercial, Process: processCommercial},
		{Name: model.TopicPenthouse, Process: processPenthouse},
		{Name: "amenities", Process: processAmenities},
		{Name: model.TopicParking, Process: parkingTopic.process},
		{Name: model.TopicConstruction, Process: constructionTopic.process},
		{Name: model.TopicSpecifications, Process: specificationsTopic.process},
		{Name: model.TopicUtilities, Process: utilitiesTopic.process},
		{Name: model.TopicWorkFromHome, Process: processWorkFromHome},
		{Name: model.TopicFinancial, Process: processFinancial},
		{Name: "bedroom", Process: processBedroom},
		{Name: "feature", Process: processFeature},
		{Name: "availability", Process: processAvailability},
	}
}

// RunProcessors returns the first non-nil answer and the processor name.
func RunProcessors(in *Input) (*model.QueryResult, string) {
	for _, p := range Processors() {
		if r := p.Process(in); r != nil {
			return r, p.Name
		}
	}
	return nil, ""
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func general(text string) *model.QueryResult {
	return &model.QueryResult{Text: text, Type: model.ResultGeneral}
}

func projectResult(p *model.Project, text string) *model.QueryResult {
	return &model.QueryResult{
		Text:         text,
		Type:         model.ResultProject,
		RelatedItems: []model.RelatedItem{model.ProjectItem(p)},
	}
}

func unitResult(text string, units []model.Unit) *model.QueryResult {
	return &model.QueryResult{
		Text:         text,
		Type:         model.ResultUnit,
		RelatedItems: model.UnitItems(units),
	}
}

// renderNarrative fills the project placeholders in stored copy.
func renderNarrative(p *model.Project, text string) string {
	return strings.NewReplacer(
		"{name}", p.Name,
		"{location}", p.Location,
		"{developer}", p.Developer,
		"{parking}", p.Parking,
		"{certification}", p.Certification,
	).Replace(text)
}

// narrative returns the rendered copy for topic, or "".
func narrative(p *model.Project, topic string) string {
	text := p.Narrative(topic)
	if text == "" {
		return ""
	}
	return renderNarrative(p, text)
}

// groupByType buckets units by type, keeping first-appearance order.
func groupByType(units []model.Unit) ([]string, map[string][]model.Unit) {
	var order []string
	groups := make(map[string][]model.Unit)
	for _, u := range units {
		if _, ok := groups[u.Type]; !ok {
			order = append(order, u.Type)
		}
		groups[u.Type] = append(groups[u.Type], u)
	}
	return order, groups
}

func countAvailable(units []model.Unit) int {
	n := 0
	for _, u := range units {
		if u.IsAvailable() {
			n++
		}
	}
	return n
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
