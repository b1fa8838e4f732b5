package loaders

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileBundleLoaderLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "props"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "props", "tree.bundle"), []byte("plain bundle text"), 0o644))

	fl := NewFileBundleLoader(dir)
	b, err := fl.Load(context.Background(), "props/tree.bundle")
	require.NoError(t, err)
	assert.Equal(t, "props/tree.bundle", b.Source)
	assert.Equal(t, []byte("plain bundle text"), b.Data)
	assert.Contains(t, b.ContentType, "text/plain")

	require.NoError(t, fl.Unload(b))
	assert.Nil(t, b.Data)
}

func TestFileBundleLoaderMissing(t *testing.T) {
	fl := NewFileBundleLoader(t.TempDir())
	_, err := fl.Load(context.Background(), "missing.bundle")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileBundleLoaderRejectsEscape(t *testing.T) {
	fl := NewFileBundleLoader(t.TempDir())
	_, err := fl.Load(context.Background(), "../secret.bundle")
	assert.Error(t, err)
}

func TestFileBundleLoaderHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fl := NewFileBundleLoader(t.TempDir())
	_, err := fl.Load(ctx, "any.bundle")
	assert.ErrorIs(t, err, context.Canceled)
}
