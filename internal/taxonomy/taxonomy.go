// Package taxonomy defines the closed catalog of task types, personas, and
// permission grants, and the registry that binds them together.
//
// The registry is loaded once at startup and never mutated afterwards, so
// request-time reads require no locking.
package taxonomy

import (
	"errors"
	"fmt"
	"strings"
)

// TaskType identifies a closed category of user intent.
type TaskType string

// Task types recognized by the classifier.
const (
	TaskFeatureDevelopment        TaskType = "feature_development"
	TaskProductionSupport         TaskType = "production_support"
	TaskIncidentResolution        TaskType = "incident_resolution"
	TaskInfrastructureMaintenance TaskType = "infrastructure_maintenance"
	TaskLeadGeneration            TaskType = "lead_generation"
	TaskProposalDevelopment       TaskType = "proposal_development"
)

// Operation is an access operation against a resource class.
type Operation string

const (
	OpRead  Operation = "read"
	OpWrite Operation = "write"
)

// ResourceClass is a scoped target of access.
type ResourceClass string

const (
	ResourceGitHub           ResourceClass = "github"
	ResourceEngineeringFiles ResourceClass = "fs-engineering"
	ResourceITFiles          ResourceClass = "fs-it"
	ResourceSalesFiles       ResourceClass = "fs-sales"
)

// Grant pairs a resource class with the operations permitted on it.
type Grant struct {
	Resource   ResourceClass `yaml:"resource" json:"resource"`
	Operations []Operation   `yaml:"operations" json:"operations"`
}

// Permits reports whether the grant covers the given operation.
func (g Grant) Permits(op Operation) bool {
	for _, o := range g.Operations {
		if o == op {
			return true
		}
	}
	return false
}

// Persona is a named actor identity with a fixed, ordered set of grants.
type Persona struct {
	ID          string  `yaml:"id" json:"id"`
	DisplayName string  `yaml:"display_name" json:"display_name"`
	Department  string  `yaml:"department" json:"department"`
	Grants      []Grant `yaml:"grants" json:"grants"`
}

// Task binds a task type to exactly one persona.
type Task struct {
	ID          TaskType `yaml:"id" json:"id"`
	DisplayName string   `yaml:"display_name" json:"display_name"`
	Persona     string   `yaml:"persona" json:"persona"`
}

// ErrUnknownTaskType is returned when a task type has no persona binding in
// the registry. This indicates a configuration defect, not a deny outcome.
var ErrUnknownTaskType = errors.New("unknown task type")

// Registry is the single source of truth for task types, personas, and
// grants. Immutable after construction.
type Registry struct {
	tasks       []Task
	personas    []Persona
	taskByID    map[TaskType]Task
	personaByID map[string]Persona
	labels      map[string]TaskType
}

// NewRegistry validates the given taxonomy and builds a registry from it.
// Validation enforces the load-time invariants: every task binds to a known
// persona, no persona carries two grants for the same resource class, and
// every resource class and operation comes from the closed sets.
func NewRegistry(tasks []Task, personas []Persona) (*Registry, error) {
	r := &Registry{
		tasks:       tasks,
		personas:    personas,
		taskByID:    make(map[TaskType]Task, len(tasks)),
		personaByID: make(map[string]Persona, len(personas)),
		labels:      make(map[string]TaskType, len(tasks)*2),
	}

	for _, p := range personas {
		if p.ID == "" {
			return nil, fmt.Errorf("persona with empty id")
		}
		if _, dup := r.personaByID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate persona %q", p.ID)
		}
		seen := make(map[ResourceClass]bool, len(p.Grants))
		for _, g := range p.Grants {
			if !ValidResource(g.Resource) {
				return nil, fmt.Errorf("persona %q: unknown resource class %q", p.ID, g.Resource)
			}
			if seen[g.Resource] {
				return nil, fmt.Errorf("persona %q: duplicate grant for resource %q", p.ID, g.Resource)
			}
			seen[g.Resource] = true
			if len(g.Operations) == 0 {
				return nil, fmt.Errorf("persona %q: grant for %q has no operations", p.ID, g.Resource)
			}
			for _, op := range g.Operations {
				if !ValidOperation(op) {
					return nil, fmt.Errorf("persona %q: unknown operation %q", p.ID, op)
				}
			}
		}
		r.personaByID[p.ID] = p
	}

	for _, t := range tasks {
		if t.ID == "" {
			return nil, fmt.Errorf("task with empty id")
		}
		if _, dup := r.taskByID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate task %q", t.ID)
		}
		if _, ok := r.personaByID[t.Persona]; !ok {
			return nil, fmt.Errorf("task %q binds to unknown persona %q", t.ID, t.Persona)
		}
		r.taskByID[t.ID] = t
		r.labels[normalizeLabel(string(t.ID))] = t.ID
		if t.DisplayName != "" {
			r.labels[normalizeLabel(t.DisplayName)] = t.ID
		}
	}

	return r, nil
}

// ResolvePersona returns the persona bound to the given task type.
func (r *Registry) ResolvePersona(task TaskType) (Persona, error) {
	t, ok := r.taskByID[task]
	if !ok {
		return Persona{}, fmt.Errorf("%w: %q", ErrUnknownTaskType, task)
	}
	// NewRegistry guarantees the binding target exists.
	return r.personaByID[t.Persona], nil
}

// GrantsFor returns the ordered grant list for a persona. Unknown personas
// have no grants, which under default-deny means no access.
func (r *Registry) GrantsFor(personaID string) []Grant {
	return r.personaByID[personaID].Grants
}

// IsPermitted reports whether the persona holds a grant for the resource
// class that includes the operation. Absence of a matching grant is a deny.
func (r *Registry) IsPermitted(personaID string, resource ResourceClass, op Operation) bool {
	for _, g := range r.GrantsFor(personaID) {
		if g.Resource == resource {
			return g.Permits(op)
		}
	}
	return false
}

// HasPersona reports whether the persona exists in the registry.
func (r *Registry) HasPersona(personaID string) bool {
	_, ok := r.personaByID[personaID]
	return ok
}

// Tasks returns all registered tasks in load order.
func (r *Registry) Tasks() []Task { return r.tasks }

// Personas returns all registered personas in load order.
func (r *Registry) Personas() []Persona { return r.personas }

// MapLabel maps a raw label produced by the language-understanding capability
// onto the closed task type set. Labels are matched case-insensitively against
// task ids and display names; unmapped labels are treated as absent.
func (r *Registry) MapLabel(raw string) (TaskType, bool) {
	t, ok := r.labels[normalizeLabel(raw)]
	return t, ok
}

// ValidResource reports whether the resource class belongs to the closed set.
func ValidResource(rc ResourceClass) bool {
	switch rc {
	case ResourceGitHub, ResourceEngineeringFiles, ResourceITFiles, ResourceSalesFiles:
		return true
	}
	return false
}

// ValidOperation reports whether the operation belongs to the closed set.
func ValidOperation(op Operation) bool {
	return op == OpRead || op == OpWrite
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
