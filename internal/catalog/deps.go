package catalog

import (
	"context"
	"io"

	"github.com/jwb-index/jwb-index/internal/api"
)

// Deps holds the network callbacks a crawl needs. They are injected so tests
// can serve fixture documents and manifests without a live mediator.
type Deps struct {
	// FetchCategory retrieves the raw category document for one
	// (language, key) pair.
	FetchCategory func(ctx context.Context, lang, key string) (string, error)

	// FetchManifest retrieves an HLS master manifest for adaptive-stream
	// quality resolution.
	FetchManifest func(ctx context.Context, url string) (io.ReadCloser, error)
}

// DefaultDeps wires the crawl to the live mediator client.
func DefaultDeps() *Deps {
	return &Deps{
		FetchCategory: api.GetCategory,
		FetchManifest: api.GetManifest,
	}
}
