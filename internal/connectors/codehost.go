package connectors

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/taskgate/taskgate/internal/taxonomy"
)

// Repository is an in-memory stand-in for a hosted repository.
type Repository struct {
	Files    []string
	Branches []string
}

// CodeHostConnector is the boundary to the code-hosting system. The real
// network client lives outside this module; this implementation keeps an
// in-memory fixture so the ALLOW execution path is exercised end to end.
type CodeHostConnector struct {
	mu    sync.RWMutex
	repos map[string]*Repository
}

// NewCodeHostConnector creates a connector seeded with the given repos.
func NewCodeHostConnector(repos map[string]*Repository) *CodeHostConnector {
	if repos == nil {
		repos = make(map[string]*Repository)
	}
	return &CodeHostConnector{repos: repos}
}

// Execute handles reads (repository listing or contents) and writes (a
// simulated commit, recorded as a new file entry).
func (c *CodeHostConnector) Execute(ctx context.Context, call Call) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if call.Resource != taxonomy.ResourceGitHub {
		return Result{}, fmt.Errorf("code host connector cannot serve resource class %q", call.Resource)
	}

	switch call.Operation {
	case taxonomy.OpRead:
		return c.read(call.Path)
	case taxonomy.OpWrite:
		return c.write(call.Path)
	default:
		return Result{}, fmt.Errorf("unsupported operation %q", call.Operation)
	}
}

func (c *CodeHostConnector) read(path string) (Result, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if path == "" {
		names := make([]string, 0, len(c.repos))
		for name := range c.repos {
			names = append(names, name)
		}
		sort.Strings(names)
		return Result{Entries: names}, nil
	}

	repo, ok := c.repos[path]
	if !ok {
		return Result{}, fmt.Errorf("repository not found: %s", path)
	}
	entries := append(append([]string{}, repo.Files...), repo.Branches...)
	return Result{Path: path, Entries: entries}, nil
}

func (c *CodeHostConnector) write(path string) (Result, error) {
	if path == "" {
		return Result{}, fmt.Errorf("write requires a repository path")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	repo, ok := c.repos[path]
	if !ok {
		repo = &Repository{Branches: []string{"main"}}
		c.repos[path] = repo
	}

	commit := uuid.New().String()[:8]
	return Result{Path: path, Commit: commit}, nil
}
