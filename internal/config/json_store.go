package config

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/openbench/phasebridge/internal/models"
)

const (
	configFileName = "phasebridge.json"
	debounceDelay  = 500 * time.Millisecond
)

// JSONStore is an atomic JSON file store with debounced writes.
type JSONStore struct {
	mu      sync.Mutex
	path    string
	timer   *time.Timer
	pending *models.Config
}

// NewJSONStore creates a new JSON store in the given config directory.
func NewJSONStore(configDir string) *JSONStore {
	return &JSONStore{
		path: filepath.Join(configDir, configFileName),
	}
}

// Path returns the file path used by this store.
func (s *JSONStore) Path() string { return s.path }

// Load returns the configuration queued by Save if it has not been written
// yet, otherwise it reads the file. Returns DefaultConfig on ENOENT or parse
// errors.
func (s *JSONStore) Load() (*models.Config, error) {
	s.mu.Lock()
	if s.pending != nil {
		cp := *s.pending
		s.mu.Unlock()
		return &cp, nil
	}
	s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			def := models.DefaultConfig()
			return &def, nil
		}
		return nil, err
	}

	var cfg models.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		slog.Warn("config: corrupt JSON config, using defaults", "path", s.path, "err", err)
		def := models.DefaultConfig()
		return &def, nil
	}

	normalize(&cfg)
	return &cfg, nil
}

// Save schedules a debounced write of the configuration to disk.
// The actual write happens after 500ms of no further Save calls.
func (s *JSONStore) Save(cfg *models.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *cfg
	s.pending = &cp

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(debounceDelay, func() {
		s.mu.Lock()
		c := s.pending
		s.mu.Unlock()
		if c == nil {
			return
		}
		if err := s.writeAtomic(c); err != nil {
			slog.Error("config: failed to write config", "path", s.path, "err", err)
			return
		}
		// A Save that raced the write keeps its pending copy.
		s.mu.Lock()
		if s.pending == c {
			s.pending = nil
		}
		s.mu.Unlock()
	})
	return nil
}

// Flush forces an immediate write of any pending configuration.
func (s *JSONStore) Flush() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	c := s.pending
	s.pending = nil
	s.mu.Unlock()
	if c == nil {
		return nil
	}
	return s.writeAtomic(c)
}

func (s *JSONStore) writeAtomic(cfg *models.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	// Write to temp file, then rename (atomic on Linux)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.path)
}

var _ Store = (*JSONStore)(nil)
