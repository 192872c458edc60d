package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/chainweave/chainweave/internal/chain"
	chainerrors "github.com/chainweave/chainweave/pkg/errors"
)

// Manager stores chain definitions as one JSON document per chain under
// a directory. All methods are safe for concurrent use; writes are
// atomic so a crash never leaves a half-written document behind.
type Manager struct {
	dir string
	mu  sync.RWMutex
}

// NewManager creates a manager rooted at dir, creating it if needed.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create chain directory: %w", err)
	}
	return &Manager{dir: dir}, nil
}

// Create makes a new empty chain with a generated id and persists it.
func (m *Manager) Create(name, description string) (*chain.Definition, error) {
	if name == "" {
		return nil, chainerrors.NewValidationError("", "chain name cannot be empty", nil)
	}

	now := time.Now().UTC()
	def := &chain.Definition{
		ID:          newChainID(),
		Name:        name,
		Description: description,
		Version:     "1.0.0",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := m.Save(def); err != nil {
		return nil, err
	}
	return def, nil
}

// Save validates the definition, stamps UpdatedAt and writes it to disk.
func (m *Manager) Save(def *chain.Definition) error {
	if err := chain.ValidateDefinition(def); err != nil {
		return err
	}

	def.UpdatedAt = time.Now().UTC()
	if def.CreatedAt.IsZero() {
		def.CreatedAt = def.UpdatedAt
	}

	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal chain %s: %w", def.ID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	path := m.chainPath(def.ID)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// Load reads one chain by id.
func (m *Manager) Load(id string) (*chain.Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadLocked(id)
}

func (m *Manager) loadLocked(id string) (*chain.Definition, error) {
	data, err := os.ReadFile(m.chainPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, chainerrors.NewValidationError(id, "chain not found", err)
		}
		return nil, fmt.Errorf("failed to read chain %s: %w", id, err)
	}

	var def chain.Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, chainerrors.NewParseError(m.chainPath(id), 0, err)
	}
	return &def, nil
}

// List returns every stored chain sorted by id.
func (m *Manager) List() ([]*chain.Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain directory: %w", err)
	}

	var out []*chain.Definition
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		def, err := m.loadLocked(id)
		if err != nil {
			return nil, err
		}
		out = append(out, def)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Delete removes one chain document.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.Remove(m.chainPath(id)); err != nil {
		if os.IsNotExist(err) {
			return chainerrors.NewValidationError(id, "chain not found", err)
		}
		return fmt.Errorf("failed to delete chain %s: %w", id, err)
	}
	return nil
}

// Search filters stored chains by a case-insensitive name/description
// substring and a tag set. Every requested tag must be present; an empty
// query matches everything.
func (m *Manager) Search(query string, tags []string) ([]*chain.Definition, error) {
	all, err := m.List()
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var out []*chain.Definition
	for _, def := range all {
		if query != "" &&
			!strings.Contains(strings.ToLower(def.Name), query) &&
			!strings.Contains(strings.ToLower(def.Description), query) {
			continue
		}
		if !hasAllTags(def.Tags, tags) {
			continue
		}
		out = append(out, def)
	}
	return out, nil
}

// Duplicate copies an existing chain under a fresh id. An empty newName
// derives one from the source.
func (m *Manager) Duplicate(id, newName string) (*chain.Definition, error) {
	src, err := m.Load(id)
	if err != nil {
		return nil, err
	}

	copied := src.Clone()
	copied.ID = newChainID()
	if newName != "" {
		copied.Name = newName
	} else {
		copied.Name = fmt.Sprintf("%s (Copy)", src.Name)
	}
	copied.CreatedAt = time.Time{}
	copied.UpdatedAt = time.Time{}

	if err := m.Save(copied); err != nil {
		return nil, err
	}
	return copied, nil
}

func (m *Manager) chainPath(id string) string {
	return filepath.Join(m.dir, id+".json")
}

func hasAllTags(have, want []string) bool {
	if len(want) == 0 {
		return true
	}

	set := make(map[string]struct{}, len(have))
	for _, tag := range have {
		set[tag] = struct{}{}
	}
	for _, tag := range want {
		if _, ok := set[tag]; !ok {
			return false
		}
	}
	return true
}

func newChainID() string {
	return "chain-" + uuid.NewString()[:8]
}
