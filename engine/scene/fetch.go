package scene

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Fetcher retrieves the raw description of a scene.
type Fetcher interface {
	Fetch(ctx context.Context, sceneName string) ([]byte, error)
}

const descriptionExt = ".xml"

// DescriptionURL builds <base>/<sceneName>.xml.
func DescriptionURL(base, sceneName string) string {
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(sceneName) + descriptionExt
}

// FileFetcher reads descriptions from a directory.
type FileFetcher struct {
	Dir string
}

func (ff *FileFetcher) Fetch(ctx context.Context, sceneName string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(ff.Dir, filepath.Base(sceneName)+descriptionExt))
}

// HTTPFetcher downloads descriptions from a base URL.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

func (hf *HTTPFetcher) Fetch(ctx context.Context, sceneName string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, DescriptionURL(hf.BaseURL, sceneName), nil)
	if err != nil {
		return nil, err
	}
	client := hf.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: %s", req.URL, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
