package ports

import (
	"context"

	"github.com/vetroai/vetro/internal/core/domain"
)

// WebSearchPort defines the interface for the live search provider.
//
// Fetch issues exactly one search request for the query. Any failure
// (non-2xx status, network error, timeout, malformed payload) is returned
// as an error; callers are expected to degrade to "no live data" rather
// than surface it.
type WebSearchPort interface {
	Fetch(ctx context.Context, query string) (*domain.SearchResponse, error)
}
