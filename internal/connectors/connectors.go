// Package connectors is the resource access boundary invoked only after an
// ALLOW decision. The pipeline decides; connectors execute. A connector
// never re-evaluates permissions beyond its own scope containment checks.
package connectors

import (
	"context"
	"fmt"

	"github.com/taskgate/taskgate/internal/taxonomy"
)

// Call describes one operation against a resource class.
type Call struct {
	Resource  taxonomy.ResourceClass `json:"resource"`
	Path      string                 `json:"path"`
	Operation taxonomy.Operation     `json:"operation"`
	Payload   []byte                 `json:"payload,omitempty"`
}

// Result is the outcome of an executed call.
type Result struct {
	Path    string   `json:"path"`
	Content []byte   `json:"content,omitempty"`
	Entries []string `json:"entries,omitempty"`
	Commit  string   `json:"commit,omitempty"`
}

// Connector executes calls against one kind of resource.
type Connector interface {
	Execute(ctx context.Context, call Call) (Result, error)
}

// Manager routes calls to the connector registered for their resource class.
type Manager struct {
	connectors map[taxonomy.ResourceClass]Connector
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{connectors: make(map[taxonomy.ResourceClass]Connector)}
}

// Register binds a connector to a resource class, replacing any previous one.
func (m *Manager) Register(rc taxonomy.ResourceClass, c Connector) {
	m.connectors[rc] = c
}

// Execute routes the call to its connector.
func (m *Manager) Execute(ctx context.Context, call Call) (Result, error) {
	c, ok := m.connectors[call.Resource]
	if !ok {
		return Result{}, fmt.Errorf("no connector for resource class %q", call.Resource)
	}
	return c.Execute(ctx, call)
}
