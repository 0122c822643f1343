// internal/store/flags_test.go
package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/applypilot/applypilot-cli/api/schemas"
)

func newTempStore(t *testing.T) *FlagStore {
	t.Helper()
	s, err := NewFlagStore(filepath.Join(t.TempDir(), "nested", "flags.json"))
	require.NoError(t, err)
	return s
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	s := newTempStore(t)

	flags, err := s.Load()
	require.NoError(t, err)
	assert.True(t, flags.SmartFill)
	assert.False(t, flags.AutoSubmit)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTempStore(t)

	want := schemas.FeatureFlags{SmartFill: false, AutoSubmit: true}
	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveOverwritesPrevious(t *testing.T) {
	s := newTempStore(t)

	require.NoError(t, s.Save(schemas.FeatureFlags{SmartFill: true, AutoSubmit: true}))
	require.NoError(t, s.Save(schemas.FeatureFlags{SmartFill: true, AutoSubmit: false}))

	got, err := s.Load()
	require.NoError(t, err)
	assert.False(t, got.AutoSubmit)
}

func TestLoadCorruptFileFallsBackToDefaults(t *testing.T) {
	s := newTempStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o700))
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o600))

	flags, err := s.Load()
	assert.Error(t, err)
	assert.True(t, flags.SmartFill, "defaults survive a corrupt file")
}

func TestTildeExpansion(t *testing.T) {
	s, err := NewFlagStore("~/flags-test.json")
	require.NoError(t, err)
	assert.NotContains(t, s.Path(), "~")
}
