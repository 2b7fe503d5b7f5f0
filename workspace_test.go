package ragprep

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWorkspaceLifecycle(t *testing.T) {
	ws, err := newWorkspace(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if info, err := os.Stat(ws.MediaDir); err != nil || !info.IsDir() {
		t.Fatalf("media dir not created: %v", err)
	}

	ws.Remove()
	if _, err := os.Stat(ws.Root); !os.IsNotExist(err) {
		t.Error("workspace not removed")
	}
}

func TestFlattenMedia(t *testing.T) {
	ws, err := newWorkspace(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Remove()

	nested := filepath.Join(ws.MediaDir, "media")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(nested, "inner.png"), []byte("nested"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(ws.MediaDir, "top.png"), []byte("top"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := ws.FlattenMedia(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(ws.MediaDir, "inner.png")); err != nil {
		t.Errorf("nested file not lifted: %v", err)
	}
	if _, err := os.Stat(filepath.Join(ws.MediaDir, "top.png")); err != nil {
		t.Errorf("top-level file lost: %v", err)
	}
	if _, err := os.Stat(nested); !os.IsNotExist(err) {
		t.Error("nested media directory not removed")
	}
}

func TestFlattenMediaNoNesting(t *testing.T) {
	ws, err := newWorkspace(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Remove()

	if err := ws.FlattenMedia(); err != nil {
		t.Errorf("flatten on clean workspace: %v", err)
	}
}
