// Package shelf implements internal workspace shelving (stashing).
// This is used automatically during timeline switches to preserve
// uncommitted changes. Shelves are transparent to the user and
// managed automatically.
package shelf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/forgevault/forgevault/internal/cas"
)

// Shelf represents a stashed workspace state: the snapshot taken of
// the working tree before a timeline switch, and the base identifier the
// caller supplies (the CLI passes the HEAD commit being switched away from).
type Shelf struct {
	ID              string         `json:"id"`
	TimelineName    string         `json:"timeline_name"`
	Message         string         `json:"message"`
	CreatedAt       time.Time      `json:"created_at"`
	WorkspaceRoot   cas.Identifier `json:"-"`
	WorkspaceRootID string         `json:"workspace_root"`
	BaseRoot        cas.Identifier `json:"-"`
	BaseRootID      string         `json:"base_root"`
	AutoCreated     bool           `json:"auto_created"`
	StagedFiles     []string       `json:"staged_files,omitempty"`
}

// toDisk renders the cas.Identifier fields as their user-form strings
// for JSON, since Identifier itself carries unexported fields.
func (s Shelf) toDisk() diskShelf {
	return diskShelf{
		ID:            s.ID,
		TimelineName:  s.TimelineName,
		Message:       s.Message,
		CreatedAt:     s.CreatedAt,
		WorkspaceRoot: s.WorkspaceRoot.String(),
		BaseRoot:      s.BaseRoot.String(),
		AutoCreated:   s.AutoCreated,
		StagedFiles:   s.StagedFiles,
	}
}

func (d diskShelf) toShelf() (Shelf, error) {
	workspaceRoot, err := cas.Parse(d.WorkspaceRoot)
	if err != nil {
		return Shelf{}, fmt.Errorf("shelf: workspace_root: %w", err)
	}
	baseRoot, err := cas.Parse(d.BaseRoot)
	if err != nil {
		return Shelf{}, fmt.Errorf("shelf: base_root: %w", err)
	}
	return Shelf{
		ID:            d.ID,
		TimelineName:  d.TimelineName,
		Message:       d.Message,
		CreatedAt:     d.CreatedAt,
		WorkspaceRoot: workspaceRoot,
		BaseRoot:      baseRoot,
		AutoCreated:   d.AutoCreated,
		StagedFiles:   d.StagedFiles,
	}, nil
}

// diskShelf is Shelf's on-disk JSON shape: identifiers stored as their
// printable user form rather than their unexported struct fields.
type diskShelf struct {
	ID            string    `json:"id"`
	TimelineName  string    `json:"timeline_name"`
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"created_at"`
	WorkspaceRoot string    `json:"workspace_root"`
	BaseRoot      string    `json:"base_root"`
	AutoCreated   bool      `json:"auto_created"`
	StagedFiles   []string  `json:"staged_files,omitempty"`
}

// Manager manages workspace shelves under a repository's control
// directory.
type Manager struct {
	controlDir string
	shelfDir   string
}

// NewManager creates a shelf manager rooted at controlDir (the
// repository's ".forgevault" directory).
func NewManager(controlDir string) (*Manager, error) {
	shelfDir := filepath.Join(controlDir, "shelves")
	if err := os.MkdirAll(shelfDir, 0o755); err != nil {
		return nil, fmt.Errorf("shelf: create shelf directory: %w", err)
	}
	return &Manager{controlDir: controlDir, shelfDir: shelfDir}, nil
}

// CreateAutoShelf automatically shelves the current workspace state.
// Called when switching timelines to preserve uncommitted changes.
func (m *Manager) CreateAutoShelf(timelineName string, workspaceRoot, baseRoot cas.Identifier) (*Shelf, error) {
	shelfID := fmt.Sprintf("auto_%s_%d", timelineName, time.Now().Unix())
	message := fmt.Sprintf("auto-shelf for timeline %q (created during timeline switch)", timelineName)

	var stagedFiles []string
	stageFile := filepath.Join(m.controlDir, "stage", "files")
	if data, err := os.ReadFile(stageFile); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				stagedFiles = append(stagedFiles, line)
			}
		}
	}

	shelf := &Shelf{
		ID:            shelfID,
		TimelineName:  timelineName,
		Message:       message,
		CreatedAt:     time.Now(),
		WorkspaceRoot: workspaceRoot,
		BaseRoot:      baseRoot,
		AutoCreated:   true,
		StagedFiles:   stagedFiles,
	}

	if err := m.save(shelf); err != nil {
		return nil, fmt.Errorf("shelf: save auto-shelf: %w", err)
	}

	if len(stagedFiles) > 0 {
		os.Remove(stageFile)
	}
	return shelf, nil
}

// GetAutoShelf retrieves the most recent auto-shelf for a timeline, if
// one exists.
func (m *Manager) GetAutoShelf(timelineName string) (*Shelf, error) {
	shelves, err := m.list()
	if err != nil {
		return nil, err
	}

	var latest *Shelf
	for i := range shelves {
		s := &shelves[i]
		if s.TimelineName == timelineName && s.AutoCreated {
			if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
				latest = s
			}
		}
	}
	return latest, nil
}

// RestoreStagedFiles writes a shelf's recorded staged-file list back
// to the staging area.
func (m *Manager) RestoreStagedFiles(shelf *Shelf) error {
	if len(shelf.StagedFiles) == 0 {
		return nil
	}
	stageDir := filepath.Join(m.controlDir, "stage")
	if err := os.MkdirAll(stageDir, 0o755); err != nil {
		return fmt.Errorf("shelf: create staging directory: %w", err)
	}
	content := strings.Join(shelf.StagedFiles, "\n")
	if len(shelf.StagedFiles) > 0 {
		content += "\n"
	}
	stageFile := filepath.Join(stageDir, "files")
	if err := os.WriteFile(stageFile, []byte(content), 0o644); err != nil {
		return fmt.Errorf("shelf: restore staged files: %w", err)
	}
	return nil
}

// RemoveAutoShelf removes the auto-shelf for a specific timeline, if
// one exists.
func (m *Manager) RemoveAutoShelf(timelineName string) error {
	shelf, err := m.GetAutoShelf(timelineName)
	if err != nil {
		return err
	}
	if shelf == nil {
		return nil
	}
	return m.remove(shelf.ID)
}

func (m *Manager) list() ([]Shelf, error) {
	files, err := os.ReadDir(m.shelfDir)
	if err != nil {
		return nil, fmt.Errorf("shelf: read shelf directory: %w", err)
	}

	var shelves []Shelf
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}
		shelf, err := m.load(file.Name())
		if err != nil {
			continue // skip corrupted shelves
		}
		shelves = append(shelves, *shelf)
	}
	return shelves, nil
}

func (m *Manager) remove(shelfID string) error {
	path := filepath.Join(m.shelfDir, shelfID+".json")
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("shelf: %q does not exist", shelfID)
		}
		return fmt.Errorf("shelf: remove: %w", err)
	}
	return nil
}

func (m *Manager) save(shelf *Shelf) error {
	path := filepath.Join(m.shelfDir, shelf.ID+".json")
	data, err := json.MarshalIndent(shelf.toDisk(), "", "  ")
	if err != nil {
		return fmt.Errorf("shelf: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (m *Manager) load(filename string) (*Shelf, error) {
	path := filepath.Join(m.shelfDir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shelf: read: %w", err)
	}
	var d diskShelf
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("shelf: unmarshal: %w", err)
	}
	shelf, err := d.toShelf()
	if err != nil {
		return nil, err
	}
	return &shelf, nil
}
