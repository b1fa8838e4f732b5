package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 4, cfg.PoolConfig().Workers)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[log]
level = "debug"

[scenes]
base_url = "https://cdn.example.com/scenes"
start = "harbor"

[loader]
workers = 8
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "https://cdn.example.com/scenes", cfg.Scenes.BaseURL)
	assert.Equal(t, "harbor", cfg.Scenes.Start)
	assert.Equal(t, 8, cfg.Loader.Workers)
	assert.Equal(t, 64, cfg.Loader.QueueSize)
	assert.Equal(t, "assets/bundles", cfg.Loader.BundleDir)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseRejectsInvalid(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown field":   "[loader]\nthreads = 2\n",
		"no workers":      "[loader]\nworkers = 0\n",
		"negative queue":  "[loader]\nqueue_size = -1\n",
		"no source":       "[scenes]\ndir = \"\"\n",
		"bad url":         "[scenes]\nbase_url = \"ftp://x\"\n",
		"watch needs dir": "[scenes]\ndir = \"\"\nbase_url = \"http://x\"\nwatch = true\n",
		"not toml":        "loader = [",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
