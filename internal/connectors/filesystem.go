package connectors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/taskgate/taskgate/internal/taxonomy"
)

// FileSystemConnector serves department file-tree resource classes, each
// rooted at its own directory. Every path is containment-checked against the
// root before any I/O.
type FileSystemConnector struct {
	roots map[taxonomy.ResourceClass]string
}

// NewFileSystemConnector creates a connector for the given resource class
// roots. Roots must be absolute directories.
func NewFileSystemConnector(roots map[taxonomy.ResourceClass]string) (*FileSystemConnector, error) {
	for rc, root := range roots {
		if !filepath.IsAbs(root) {
			return nil, fmt.Errorf("root for %q must be absolute, got %q", rc, root)
		}
	}
	return &FileSystemConnector{roots: roots}, nil
}

// Execute performs a read or write under the resource class root. Reads of a
// directory return its entries; reads of a file return its content.
func (c *FileSystemConnector) Execute(ctx context.Context, call Call) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	root, ok := c.roots[call.Resource]
	if !ok {
		return Result{}, fmt.Errorf("filesystem connector has no root for %q", call.Resource)
	}

	full := filepath.Join(root, filepath.FromSlash(call.Path))
	if !pathInScope(full, root) {
		return Result{}, fmt.Errorf("path %q escapes resource root", call.Path)
	}

	switch call.Operation {
	case taxonomy.OpRead:
		return c.read(full)
	case taxonomy.OpWrite:
		return c.write(full, call.Payload)
	default:
		return Result{}, fmt.Errorf("unsupported operation %q", call.Operation)
	}
}

func (c *FileSystemConnector) read(path string) (Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("stat %s: %w", path, err)
	}

	if info.IsDir() {
		dirEntries, err := os.ReadDir(path)
		if err != nil {
			return Result{}, fmt.Errorf("listing %s: %w", path, err)
		}
		names := make([]string, 0, len(dirEntries))
		for _, e := range dirEntries {
			names = append(names, e.Name())
		}
		return Result{Path: path, Entries: names}, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return Result{Path: path, Content: content}, nil
}

func (c *FileSystemConnector) write(path string, payload []byte) (Result, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Result{}, fmt.Errorf("creating parent of %s: %w", path, err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return Result{}, fmt.Errorf("writing %s: %w", path, err)
	}
	return Result{Path: path}, nil
}

// pathInScope checks whether path is located under the scope directory.
// It resolves symlinks and ".." traversals to prevent escape attacks.
func pathInScope(path, scope string) bool {
	if path == "" || scope == "" {
		return false
	}

	// Resolve symlinks to get real paths. Fall back to Clean if the path
	// does not exist yet (e.g., a file about to be created).
	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		realPath = filepath.Clean(path)
	}

	realScope, err := filepath.EvalSymlinks(scope)
	if err != nil {
		realScope = filepath.Clean(scope)
	}

	if realPath == realScope {
		return true
	}

	scopePrefix := realScope + string(filepath.Separator)
	return strings.HasPrefix(realPath, scopePrefix)
}
