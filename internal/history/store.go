package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/chainweave/chainweave/internal/model"
)

// defaultLimit caps how many records a store retains; older records are
// dropped once the cap is reached.
const defaultLimit = 100

// Record is the flattened projection of one execution kept in history.
type Record struct {
	ExecutionID   string             `json:"execution_id"`
	ChainID       string             `json:"chain_id"`
	Success       bool               `json:"success"`
	Error         string             `json:"error,omitempty"`
	ExecutionTime float64            `json:"execution_time"`
	StartedAt     time.Time          `json:"started_at"`
	CompletedAt   time.Time          `json:"completed_at"`
	NodePlugins   map[string]string  `json:"node_plugins,omitempty"`
	NodeSuccess   map[string]bool    `json:"node_success,omitempty"`
	NodeDurations map[string]float64 `json:"node_durations,omitempty"`
}

type storeFile struct {
	Version string   `json:"version"`
	Records []Record `json:"records"`
}

// Store persists execution records to a single JSON file. It implements
// the engine's result sink so finished runs land here automatically.
type Store struct {
	path    string
	mu      sync.RWMutex
	records []Record
	limit   int
}

// NewStore creates a store backed by the given file, loading any
// existing records.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:  path,
		limit: defaultLimit,
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	if err := s.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		s.records = []Record{}
	}

	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	var file storeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse history: %w", err)
	}

	s.records = file.Records
	return nil
}

// save writes the record list to disk atomically. Callers hold the lock.
func (s *Store) save() error {
	file := storeFile{
		Version: "1.0",
		Records: s.records,
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// Record appends one execution to history and persists it, dropping the
// oldest records past the retention cap.
func (s *Store) Record(_ context.Context, result *model.ExecutionResult) error {
	if result == nil {
		return fmt.Errorf("cannot record nil result")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, flatten(result))
	if len(s.records) > s.limit {
		s.records = s.records[len(s.records)-s.limit:]
	}

	return s.save()
}

// Recent returns up to n records, most recent first. n <= 0 returns
// everything.
func (s *Store) Recent(n int) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || n > len(s.records) {
		n = len(s.records)
	}

	out := make([]Record, 0, n)
	for i := len(s.records) - 1; i >= len(s.records)-n; i-- {
		out = append(out, s.records[i])
	}
	return out
}

// ForChain returns every retained record for one chain, most recent
// first.
func (s *Store) ForChain(chainID string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].ChainID == chainID {
			out = append(out, s.records[i])
		}
	}
	return out
}

// Len reports how many records are retained.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func flatten(result *model.ExecutionResult) Record {
	record := Record{
		ExecutionID:   result.ExecutionID,
		ChainID:       result.ChainID,
		Success:       result.Success,
		Error:         result.Error,
		ExecutionTime: result.ExecutionTime,
		StartedAt:     result.StartedAt,
		CompletedAt:   result.CompletedAt,
	}

	if len(result.NodeStats) == 0 {
		return record
	}

	plugins := make(map[string]string)
	record.NodeSuccess = make(map[string]bool, len(result.NodeStats))
	record.NodeDurations = make(map[string]float64, len(result.NodeStats))
	for nodeID, stats := range result.NodeStats {
		if stats.PluginID != "" {
			plugins[nodeID] = stats.PluginID
		}
		record.NodeSuccess[nodeID] = stats.Success
		record.NodeDurations[nodeID] = stats.DurationSeconds
	}
	if len(plugins) > 0 {
		record.NodePlugins = plugins
	}

	return record
}
