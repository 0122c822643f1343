// Package store persists the feature flags between runs as a small
// JSON file under the user's home directory.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"

	"github.com/applypilot/applypilot-cli/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultFlagsPath = "~/.config/applypilot/flags.json"

// FlagStore reads and writes the persisted feature flags. Safe for
// concurrent use.
type FlagStore struct {
	mu   sync.Mutex
	path string
}

var _ schemas.FlagStore = (*FlagStore)(nil)

// NewFlagStore builds a store at path; an empty path selects the
// default location. The ~ prefix is expanded.
func NewFlagStore(path string) (*FlagStore, error) {
	if path == "" {
		path = defaultFlagsPath
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("store: resolve flags path: %w", err)
	}
	return &FlagStore{path: expanded}, nil
}

// Load returns the persisted flags. A missing file yields the
// defaults: smart fill on, auto submit off.
func (s *FlagStore) Load() (schemas.FeatureFlags, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	flags := schemas.FeatureFlags{SmartFill: true}
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return flags, nil
	}
	if err != nil {
		return flags, fmt.Errorf("store: read flags: %w", err)
	}
	if err := json.Unmarshal(raw, &flags); err != nil {
		return schemas.FeatureFlags{SmartFill: true}, fmt.Errorf("store: parse flags: %w", err)
	}
	return flags, nil
}

// Save writes the flags atomically: temp file in the same directory,
// then rename.
func (s *FlagStore) Save(flags schemas.FeatureFlags) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("store: create flags dir: %w", err)
	}
	raw, err := json.MarshalIndent(flags, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode flags: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".flags-*.json")
	if err != nil {
		return fmt.Errorf("store: write flags: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("store: write flags: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: write flags: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: write flags: %w", err)
	}
	return nil
}

// Path returns the resolved flags file location.
func (s *FlagStore) Path() string { return s.path }
