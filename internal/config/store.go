// Package config handles loading, saving and watching the daemon configuration.
package config

import "github.com/openbench/phasebridge/internal/models"

// Store is the interface for persisting the runtime configuration.
type Store interface {
	// Load loads the configuration. Returns DefaultConfig if no file exists.
	Load() (*models.Config, error)

	// Save persists the configuration. Implementations may debounce rapid saves.
	Save(cfg *models.Config) error

	// Path returns the file path used by this store.
	Path() string

	// Flush forces an immediate write of any pending configuration.
	Flush() error
}
