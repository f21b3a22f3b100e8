package connectors

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/taskgate/taskgate/internal/taxonomy"
)

func TestFileSystemConnector_WriteThenRead(t *testing.T) {
	root := t.TempDir()
	fs, err := NewFileSystemConnector(map[taxonomy.ResourceClass]string{
		taxonomy.ResourceEngineeringFiles: root,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = fs.Execute(context.Background(), Call{
		Resource:  taxonomy.ResourceEngineeringFiles,
		Path:      "design_docs/auth_system.md",
		Operation: taxonomy.OpWrite,
		Payload:   []byte("# Auth system\n"),
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := fs.Execute(context.Background(), Call{
		Resource:  taxonomy.ResourceEngineeringFiles,
		Path:      "design_docs/auth_system.md",
		Operation: taxonomy.OpRead,
	})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(res.Content) != "# Auth system\n" {
		t.Fatalf("read content %q", res.Content)
	}
}

func TestFileSystemConnector_ReadDirectoryListsEntries(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	fs, err := NewFileSystemConnector(map[taxonomy.ResourceClass]string{
		taxonomy.ResourceITFiles: root,
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := fs.Execute(context.Background(), Call{
		Resource:  taxonomy.ResourceITFiles,
		Path:      ".",
		Operation: taxonomy.OpRead,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Entries) != 1 || res.Entries[0] != "a.txt" {
		t.Fatalf("entries %v", res.Entries)
	}
}

func TestFileSystemConnector_BlocksEscape(t *testing.T) {
	fs, err := NewFileSystemConnector(map[taxonomy.ResourceClass]string{
		taxonomy.ResourceSalesFiles: t.TempDir(),
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{"../outside.txt", "../../etc/passwd", "a/../../b"} {
		_, err := fs.Execute(context.Background(), Call{
			Resource:  taxonomy.ResourceSalesFiles,
			Path:      path,
			Operation: taxonomy.OpRead,
		})
		if err == nil {
			t.Errorf("path %q should be rejected", path)
		}
	}
}

func TestFileSystemConnector_UnknownResourceClass(t *testing.T) {
	fs, err := NewFileSystemConnector(map[taxonomy.ResourceClass]string{
		taxonomy.ResourceSalesFiles: t.TempDir(),
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = fs.Execute(context.Background(), Call{
		Resource:  taxonomy.ResourceITFiles,
		Path:      "x",
		Operation: taxonomy.OpRead,
	})
	if err == nil {
		t.Fatal("expected error for resource class without a root")
	}
}

func TestNewFileSystemConnector_RequiresAbsoluteRoots(t *testing.T) {
	_, err := NewFileSystemConnector(map[taxonomy.ResourceClass]string{
		taxonomy.ResourceITFiles: "relative/path",
	})
	if err == nil {
		t.Fatal("expected error for relative root")
	}
}

func TestCodeHostConnector_ReadAndWrite(t *testing.T) {
	c := NewCodeHostConnector(map[string]*Repository{
		"user/web-app": {
			Files:    []string{"src/auth.go", "README.md"},
			Branches: []string{"main", "develop"},
		},
	})

	res, err := c.Execute(context.Background(), Call{
		Resource:  taxonomy.ResourceGitHub,
		Operation: taxonomy.OpRead,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Entries) != 1 || res.Entries[0] != "user/web-app" {
		t.Fatalf("repo listing %v", res.Entries)
	}

	res, err = c.Execute(context.Background(), Call{
		Resource:  taxonomy.ResourceGitHub,
		Path:      "user/web-app",
		Operation: taxonomy.OpWrite,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Commit == "" {
		t.Fatal("write should return a commit id")
	}

	if _, err := c.Execute(context.Background(), Call{
		Resource:  taxonomy.ResourceGitHub,
		Path:      "user/missing",
		Operation: taxonomy.OpRead,
	}); err == nil {
		t.Fatal("reading a missing repository should fail")
	}
}

func TestManager_RoutesByResourceClass(t *testing.T) {
	m := NewManager()
	m.Register(taxonomy.ResourceGitHub, NewCodeHostConnector(nil))

	if _, err := m.Execute(context.Background(), Call{
		Resource:  taxonomy.ResourceGitHub,
		Operation: taxonomy.OpRead,
	}); err != nil {
		t.Fatalf("routed call failed: %v", err)
	}

	if _, err := m.Execute(context.Background(), Call{
		Resource:  taxonomy.ResourceSalesFiles,
		Operation: taxonomy.OpRead,
	}); err == nil {
		t.Fatal("expected error for unregistered resource class")
	}
}
