// Package manifest records what a pipeline run read and wrote.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/profilestat-cli/internal/cleaning"
	"github.com/KaramelBytes/profilestat-cli/internal/utils"
)

// FileName is the manifest's name inside the export directory.
const FileName = "run.json"

// Artifact is one file produced by a run.
type Artifact struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// Manifest describes one run. Artifacts may be added concurrently.
type Manifest struct {
	ID         string               `json:"id"`
	Input      string               `json:"input"`
	Rows       int                  `json:"rows"`
	Cleaning   *cleaning.Summary    `json:"cleaning,omitempty"`
	Nulls      []cleaning.NullCount `json:"nulls,omitempty"`
	Artifacts  []Artifact           `json:"artifacts"`
	Warnings   []string             `json:"warnings,omitempty"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`

	mu  sync.Mutex
	dir string
}

// New starts a manifest for input that will be saved in dir.
func New(input, dir string) *Manifest {
	return &Manifest{
		ID:        uuid.NewString(),
		Input:     input,
		StartedAt: time.Now(),
		dir:       dir,
	}
}

// Load reads the manifest stored in dir.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("manifest not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	m.dir = dir
	return &m, nil
}

// Add records produced files of one kind.
func (m *Manifest) Add(kind string, paths ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range paths {
		m.Artifacts = append(m.Artifacts, Artifact{Kind: kind, Path: p})
	}
}

// Save stamps the finish time and writes run.json atomically. Artifacts are
// sorted so concurrent producers yield a stable file.
func (m *Manifest) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dir == "" {
		return errors.New("manifest directory not set")
	}
	if err := utils.EnsureDirs(m.dir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	sort.Slice(m.Artifacts, func(i, j int) bool {
		if m.Artifacts[i].Kind != m.Artifacts[j].Kind {
			return m.Artifacts[i].Kind < m.Artifacts[j].Kind
		}
		return m.Artifacts[i].Path < m.Artifacts[j].Path
	})
	m.FinishedAt = time.Now()
	data, err := utils.PrettyJSON(m)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(m.dir, FileName), data)
}
