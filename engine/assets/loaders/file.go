package loaders

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/spaghettifunk/anima-scene/engine/assets"
)

// FileBundleLoader reads bundles from a directory on disk. The bytes are kept
// as-is; only the content type is sniffed.
type FileBundleLoader struct {
	BaseDir string
}

func NewFileBundleLoader(baseDir string) *FileBundleLoader {
	return &FileBundleLoader{BaseDir: baseDir}
}

func (fl *FileBundleLoader) path(source string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(source))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("bundle source %q escapes the bundle directory", source)
	}
	return filepath.Join(fl.BaseDir, clean), nil
}

func (fl *FileBundleLoader) Load(ctx context.Context, source string) (*assets.Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := fl.path(source)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	return &assets.Bundle{
		Source:      source,
		ContentType: mimetype.Detect(buf).String(),
		Data:        buf,
	}, nil
}

func (fl *FileBundleLoader) Unload(b *assets.Bundle) error {
	if b == nil {
		return nil
	}
	b.Data = nil
	return nil
}
