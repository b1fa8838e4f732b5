package assets

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSceneNameFromPath(t *testing.T) {
	name, ok := sceneNameFromPath("/data/scenes/town.xml")
	assert.True(t, ok)
	assert.Equal(t, "town", name)

	_, ok = sceneNameFromPath("/data/scenes/town.xml.swp")
	assert.False(t, ok)
}

func TestDescriptionWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	dw, err := NewDescriptionWatcher(dir)
	require.NoError(t, err)
	defer dw.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "town.xml"), []byte("<root/>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	var names []string
	deadline := time.Now().Add(2 * time.Second)
	for len(names) == 0 && time.Now().Before(deadline) {
		names = dw.Poll()
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, []string{"town"}, names)
}

func TestDescriptionWatcherClose(t *testing.T) {
	dw, err := NewDescriptionWatcher(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, dw.Close())
	assert.Error(t, dw.Close())
}

func TestDescriptionWatcherMissingDir(t *testing.T) {
	_, err := NewDescriptionWatcher(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
