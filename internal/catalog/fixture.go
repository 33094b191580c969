package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"salesdesk/internal/model"
)

//go:embed seed/catalog.yaml
var defaultFixture []byte

// Fixture is the on-disk catalogue format
type Fixture struct {
	Projects []model.Project `yaml:"projects"`
	Units    []model.Unit    `yaml:"units"`
	FAQs     []model.FAQ     `yaml:"faqs"`
}

// LoadFixture reads the catalogue from path, or the embedded default
// catalogue when path is empty.
func LoadFixture(path string) (*Fixture, error) {
	data := defaultFixture
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
		}
		data = b
	}
	return ParseFixture(data)
}

// ParseFixture decodes and validates a YAML catalogue.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks id uniqueness and that every unit and FAQ points at a
// known project.
func (f *Fixture) Validate() error {
	projects := make(map[string]bool, len(f.Projects))
	for _, p := range f.Projects {
		if p.ID == "" {
			return fmt.Errorf("project %q has no id", p.Name)
		}
		if projects[p.ID] {
			return fmt.Errorf("duplicate project id %s", p.ID)
		}
		projects[p.ID] = true
	}

	units := make(map[string]bool, len(f.Units))
	for _, u := range f.Units {
		if units[u.ID] {
			return fmt.Errorf("duplicate unit id %s", u.ID)
		}
		units[u.ID] = true
		if !projects[u.ProjectID] {
			return fmt.Errorf("unit %s references unknown project %s", u.ID, u.ProjectID)
		}
		if !u.Availability.Valid() {
			return fmt.Errorf("unit %s has invalid availability %q", u.ID, u.Availability)
		}
	}

	faqs := make(map[string]bool, len(f.FAQs))
	for _, q := range f.FAQs {
		if faqs[q.ID] {
			return fmt.Errorf("duplicate faq id %s", q.ID)
		}
		faqs[q.ID] = true
		if !projects[q.ProjectID] {
			return fmt.Errorf("faq %s references unknown project %s", q.ID, q.ProjectID)
		}
	}
	return nil
}
