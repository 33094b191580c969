package catalog

import (
	"context"
	"errors"
	"fmt"

	"salesdesk/internal/model"
)

// ErrProjectNotFound is returned when a project id does not resolve
var ErrProjectNotFound = errors.New("project not found")

// Store is the read side of the domain store. Implementations return
// copies; callers may not mutate shared state through them.
type Store interface {
	ListProjects(ctx context.Context) ([]model.Project, error)
	GetProject(ctx context.Context, id string) (*model.Project, error)
	ListUnits(ctx context.Context) ([]model.Unit, error)
	ListUnitsByProject(ctx context.Context, projectID string) ([]model.Unit, error)
	ListFaqs(ctx context.Context) ([]model.FAQ, error)
	ListFaqsByProject(ctx context.Context, projectID string) ([]model.FAQ, error)
	SearchUnits(ctx context.Context, filter model.UnitFilter) ([]model.Unit, error)
}

// Snapshot is the read-only view one query is resolved against
type Snapshot struct {
	Project  *model.Project
	Projects []model.Project
	Units    []model.Unit
	FAQs     []model.FAQ
}

// ProjectUnits returns the units of the current project, or every unit
// when no project is selected.
func (s *Snapshot) ProjectUnits() []model.Unit {
	if s.Project == nil {
		return s.Units
	}
	return FilterByProject(s.Units, s.Project.ID)
}

// LoadSnapshot assembles the snapshot for projectID. An empty id means no
// project is selected: all FAQs are included. Units are never scoped here.
func LoadSnapshot(ctx context.Context, store Store, projectID string) (*Snapshot, error) {
	snap := &Snapshot{}

	projects, err := store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	snap.Projects = projects

	if projectID != "" {
		project, err := store.GetProject(ctx, projectID)
		if err != nil {
			return nil, err
		}
		snap.Project = project
	}

	units, err := store.ListUnits(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	snap.Units = units

	if snap.Project != nil {
		snap.FAQs, err = store.ListFaqsByProject(ctx, snap.Project.ID)
	} else {
		snap.FAQs, err = store.ListFaqs(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list faqs: %w", err)
	}

	return snap, nil
}

// FilterByProject keeps the units belonging to projectID, in order.
func FilterByProject(units []model.Unit, projectID string) []model.Unit {
	var out []model.Unit
	for _, u := range units {
		if u.ProjectID == projectID {
			out = append(out, u)
		}
	}
	return out
}
