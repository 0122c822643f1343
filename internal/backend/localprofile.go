package backend

import (
	"context"
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"

	"github.com/applypilot/applypilot-cli/api/schemas"
)

// FileProfile serves a UserProfile from a local JSON file. It stands in
// for the platform API when no backend is configured.
type FileProfile struct {
	path string
}

var _ schemas.ProfileProvider = (*FileProfile)(nil)

// NewFileProfile resolves the profile path (~ expanded).
func NewFileProfile(path string) (*FileProfile, error) {
	if path == "" {
		return nil, fmt.Errorf("backend: no profile file configured")
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("backend: resolve profile path: %w", err)
	}
	return &FileProfile{path: expanded}, nil
}

// GetUserProfile reads and validates the profile file.
func (f *FileProfile) GetUserProfile(ctx context.Context) (*schemas.UserProfile, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("backend: read profile %s: %w", f.path, err)
	}
	var profile schemas.UserProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("backend: parse profile %s: %w", f.path, err)
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("backend: invalid profile %s: %w", f.path, err)
	}
	return &profile, nil
}
