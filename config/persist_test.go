package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/pbts/errors"
)

func TestWriteDefault(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "project", ProjectFileName)

	require.NoError(t, WriteDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# pbts configuration.")
	assert.Contains(t, string(data), "naming")
	assert.Contains(t, string(data), "[watch]")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	defaults, err := Default()
	require.NoError(t, err)
	assert.Equal(t, defaults.Output, cfg.Output)
	assert.Equal(t, defaults.Naming, cfg.Naming)
	assert.Equal(t, defaults.EmitIndex, cfg.EmitIndex)
	assert.Equal(t, defaults.CoreModule, cfg.CoreModule)
	assert.Equal(t, defaults.Watch, cfg.Watch)
}

func TestWriteDefaultRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), ProjectFileName)
	require.NoError(t, os.WriteFile(path, []byte("naming = \"kebab\"\n"), 0o644))

	err := WriteDefault(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	assert.NotEmpty(t, errors.GetAllHints(err))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "naming = \"kebab\"\n", string(data))
}
