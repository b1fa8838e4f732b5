package assets

import "context"

// BundleLoader fetches and decodes the payload behind an asset source.
// Load is called from the pool's worker goroutines and must honour ctx.
type BundleLoader interface {
	Load(ctx context.Context, source string) (*Bundle, error)
	BundleReleaser
}
