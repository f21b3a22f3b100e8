package taxonomy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileSchema is the YAML document shape for a taxonomy file.
type fileSchema struct {
	Personas []Persona `yaml:"personas"`
	Tasks    []Task    `yaml:"tasks"`
}

// Load reads a taxonomy YAML file and builds a validated registry.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy file %s: %w", path, err)
	}

	var doc fileSchema
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing taxonomy file %s: %w", path, err)
	}

	reg, err := NewRegistry(doc.Tasks, doc.Personas)
	if err != nil {
		return nil, fmt.Errorf("invalid taxonomy in %s: %w", path, err)
	}
	return reg, nil
}

// Default returns the built-in taxonomy: three department personas with
// their grant tables and the six task types bound to them.
func Default() *Registry {
	personas := []Persona{
		{
			ID:          "engineering",
			DisplayName: "Alex Chen",
			Department:  "Engineering",
			Grants: []Grant{
				{Resource: ResourceGitHub, Operations: []Operation{OpRead, OpWrite}},
				{Resource: ResourceEngineeringFiles, Operations: []Operation{OpRead, OpWrite}},
			},
		},
		{
			ID:          "it",
			DisplayName: "Priya Nair",
			Department:  "IT",
			Grants: []Grant{
				{Resource: ResourceGitHub, Operations: []Operation{OpRead}},
				{Resource: ResourceITFiles, Operations: []Operation{OpRead, OpWrite}},
			},
		},
		{
			ID:          "sales",
			DisplayName: "Marco Diaz",
			Department:  "Sales",
			Grants: []Grant{
				{Resource: ResourceSalesFiles, Operations: []Operation{OpRead, OpWrite}},
			},
		},
	}

	tasks := []Task{
		{ID: TaskFeatureDevelopment, DisplayName: "Feature Development", Persona: "engineering"},
		{ID: TaskProductionSupport, DisplayName: "Production Support", Persona: "engineering"},
		{ID: TaskIncidentResolution, DisplayName: "Incident Resolution", Persona: "it"},
		{ID: TaskInfrastructureMaintenance, DisplayName: "Infrastructure Maintenance", Persona: "it"},
		{ID: TaskLeadGeneration, DisplayName: "Lead Generation", Persona: "sales"},
		{ID: TaskProposalDevelopment, DisplayName: "Proposal Development", Persona: "sales"},
	}

	reg, err := NewRegistry(tasks, personas)
	if err != nil {
		// The built-in taxonomy is static; a validation failure here is a bug.
		panic(fmt.Sprintf("built-in taxonomy invalid: %v", err))
	}
	return reg
}
