package config

import (
	"context"
	"sync"
)

// Store holds the current configuration and reloads it from the same sources on demand.
type Store struct {
	files  []string
	getenv func(string) string

	// reloadMu serializes reloads so a slow read never replaces a newer one.
	reloadMu sync.Mutex

	mu   sync.RWMutex
	cfg  AppConfig
	flat map[string]string
}

// NewStore performs the initial load.
func NewStore(files []string, getenv func(string) string) (*Store, error) {
	cfg, flat, err := Load(files, getenv)
	if err != nil {
		return nil, err
	}
	return &Store{files: files, getenv: getenv, cfg: cfg, flat: flat}, nil
}

func (s *Store) Current() AppConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Env is the environment name used in the greeting; it follows reloads.
func (s *Store) Env() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Tanzu.Env
}

func (s *Store) Files() []string {
	return s.files
}

// Reload re-reads every source and returns the keys whose values changed. A failed reload
// keeps the previous configuration.
func (s *Store) Reload() ([]string, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	cfg, flat, err := Load(s.files, s.getenv)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	changed := changedKeys(s.flat, flat)
	s.cfg, s.flat = cfg, flat
	return changed, nil
}

// Refresh adapts Reload to the HTTP refresh endpoint.
func (s *Store) Refresh(_ context.Context) ([]string, error) {
	return s.Reload()
}
