package memory

import (
	"sync"

	"github.com/custodia-labs/athena/internal/core/domain"
	"github.com/custodia-labs/athena/internal/core/ports/driven"
)

// Ensure SettingsStore implements the interface.
var _ driven.SettingsStore = (*SettingsStore)(nil)

// SettingsStore is an in-memory implementation of driven.SettingsStore for testing.
type SettingsStore struct {
	mu       sync.RWMutex
	settings domain.AppSettings
	saves    int
}

// NewSettingsStore creates a store seeded with settings.
func NewSettingsStore(settings domain.AppSettings) *SettingsStore {
	return &SettingsStore{settings: settings}
}

// Load returns the current settings.
func (s *SettingsStore) Load() (domain.AppSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, nil
}

// Save replaces the current settings.
func (s *SettingsStore) Save(settings domain.AppSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	s.saves++
	return nil
}

// Saves returns how many times Save was called.
func (s *SettingsStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Path returns the configuration file path.
func (s *SettingsStore) Path() string {
	return ":memory:"
}
