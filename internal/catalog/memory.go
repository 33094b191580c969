package catalog

import (
	"context"
	"strings"

	"salesdesk/internal/model"
)

// MemoryStore serves a fixture from memory. It is never written to after
// construction, so concurrent reads need no locking.
type MemoryStore struct {
	projects []model.Project
	byID     map[string]int
	units    []model.Unit
	faqs     []model.FAQ
}

// NewMemoryStore builds a store over the fixture's records
func NewMemoryStore(f *Fixture) *MemoryStore {
	s := &MemoryStore{
		projects: append([]model.Project(nil), f.Projects...),
		byID:     make(map[string]int, len(f.Projects)),
		units:    append([]model.Unit(nil), f.Units...),
		faqs:     append([]model.FAQ(nil), f.FAQs...),
	}
	for i, p := range s.projects {
		s.byID[p.ID] = i
	}
	return s
}

func (s *MemoryStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	return append([]model.Project(nil), s.projects...), nil
}

func (s *MemoryStore) GetProject(ctx context.Context, id string) (*model.Project, error) {
	i, ok := s.byID[id]
	if !ok {
		return nil, ErrProjectNotFound
	}
	p := s.projects[i]
	return &p, nil
}

func (s *MemoryStore) ListUnits(ctx context.Context) ([]model.Unit, error) {
	return append([]model.Unit(nil), s.units...), nil
}

func (s *MemoryStore) ListUnitsByProject(ctx context.Context, projectID string) ([]model.Unit, error) {
	return FilterByProject(s.units, projectID), nil
}

func (s *MemoryStore) ListFaqs(ctx context.Context) ([]model.FAQ, error) {
	return append([]model.FAQ(nil), s.faqs...), nil
}

func (s *MemoryStore) ListFaqsByProject(ctx context.Context, projectID string) ([]model.FAQ, error) {
	var out []model.FAQ
	for _, f := range s.faqs {
		if f.ProjectID == projectID {
			out = append(out, f)
		}
	}
	return out, nil
}

// SearchUnits applies the filter the same way the SQL store's WHERE clause does.
func (s *MemoryStore) SearchUnits(ctx context.Context, filter model.UnitFilter) ([]model.Unit, error) {
	var out []model.Unit
	for _, u := range s.units {
		var project *model.Project
		if i, ok := s.byID[u.ProjectID]; ok {
			project = &s.projects[i]
		}
		if MatchUnit(u, project, filter) {
			out = append(out, u)
		}
	}
	return out, nil
}

// MatchUnit reports whether u (belonging to project) passes every set
// field of the filter.
func MatchUnit(u model.Unit, project *model.Project, f model.UnitFilter) bool {
	if f.ProjectID != "" && u.ProjectID != f.ProjectID {
		return false
	}
	if f.PriceMax != nil && u.Price > *f.PriceMax {
		return false
	}
	if f.Bedrooms != nil && u.Bedrooms != *f.Bedrooms {
		return false
	}
	if f.Feature != "" && !u.HasFeature(f.Feature) {
		return false
	}
	if f.TypeContains != "" && !strings.Contains(strings.ToLower(u.Type), strings.ToLower(f.TypeContains)) {
		return false
	}
	if f.ProjectStatus != "" {
		if project == nil || !strings.Contains(strings.ToLower(project.Status), strings.ToLower(f.ProjectStatus)) {
			return false
		}
	}
	if f.AvailableOnly && !u.IsAvailable() {
		return false
	}
	return true
}
