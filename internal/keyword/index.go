// Package keyword provides full-text (BM25) indexing and search over
// processed tweets.
package keyword

import (
	"context"

	"github.com/yomogi/seiri/internal/models"
)

// Index defines keyword search operations over tweets.
type Index interface {
	Index(ctx context.Context, t *models.Tweet) error
	Search(ctx context.Context, query *models.SearchQuery) ([]*Result, error)
	Delete(ctx context.Context, id string) error
	// DocCount returns the total number of tweets in the index.
	DocCount() (uint64, error)
	Close() error
}

// Result is a single keyword search hit.
type Result struct {
	ID    string
	Score float64
}
