package shelf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forgevault/forgevault/internal/cas"
)

func writeStagedFiles(controlDir string, files []string) error {
	stageDir := filepath.Join(controlDir, "stage")
	if err := os.MkdirAll(stageDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(stageDir, "files"), []byte(strings.Join(files, "\n")+"\n"), 0o644)
}

func TestCreateAndGetAutoShelf(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	ws := cas.Sum([]byte("workspace root"))
	base := cas.Sum([]byte("base root"))

	created, err := m.CreateAutoShelf("main", ws, base)
	if err != nil {
		t.Fatalf("CreateAutoShelf: %v", err)
	}

	got, err := m.GetAutoShelf("main")
	if err != nil {
		t.Fatalf("GetAutoShelf: %v", err)
	}
	if got == nil {
		t.Fatal("expected an auto-shelf to be found")
	}
	if got.ID != created.ID || !got.WorkspaceRoot.Equal(ws) || !got.BaseRoot.Equal(base) {
		t.Fatalf("loaded shelf does not match created shelf: %+v vs %+v", got, created)
	}
}

func TestGetAutoShelfReturnsNilWhenNoneExists(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	got, err := m.GetAutoShelf("nonexistent")
	if err != nil {
		t.Fatalf("GetAutoShelf: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestRemoveAutoShelf(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	ws := cas.Sum([]byte("workspace root"))
	base := cas.Sum([]byte("base root"))
	if _, err := m.CreateAutoShelf("feature", ws, base); err != nil {
		t.Fatalf("CreateAutoShelf: %v", err)
	}

	if err := m.RemoveAutoShelf("feature"); err != nil {
		t.Fatalf("RemoveAutoShelf: %v", err)
	}

	got, err := m.GetAutoShelf("feature")
	if err != nil {
		t.Fatalf("GetAutoShelf: %v", err)
	}
	if got != nil {
		t.Fatalf("expected the shelf to be removed, got %+v", got)
	}
}

func TestStagedFilesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	ws := cas.Sum([]byte("workspace"))
	base := cas.Sum([]byte("base"))

	if err := writeStagedFiles(dir, []string{"a.txt", "b/c.go"}); err != nil {
		t.Fatalf("writeStagedFiles: %v", err)
	}

	shelf, err := m.CreateAutoShelf("main", ws, base)
	if err != nil {
		t.Fatalf("CreateAutoShelf: %v", err)
	}
	if len(shelf.StagedFiles) != 2 {
		t.Fatalf("expected 2 staged files, got %v", shelf.StagedFiles)
	}

	if err := m.RestoreStagedFiles(shelf); err != nil {
		t.Fatalf("RestoreStagedFiles: %v", err)
	}
}
