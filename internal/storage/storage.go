// Package storage defines the persistence interface for processed tweets.
package storage

import (
	"context"
	"time"

	"github.com/yomogi/seiri/internal/models"
)

// Storage defines tweet and run persistence operations.
type Storage interface {
	// Tweet operations
	UpsertTweet(ctx context.Context, t *models.Tweet) error
	GetTweet(ctx context.Context, id string) (*models.Tweet, error)
	DeleteTweet(ctx context.Context, id string) error
	ListTweets(ctx context.Context, offset, limit int) ([]*models.Tweet, error)

	// Batch operations
	BatchUpsertTweets(ctx context.Context, tweets []*models.Tweet) error

	// Run bookkeeping
	RecordRun(ctx context.Context, run *models.RunSummary) error
	LastRun(ctx context.Context) (*models.RunSummary, error)

	// Stats
	CountTweets(ctx context.Context) (int64, error)
	DateRange(ctx context.Context) (start, end time.Time, err error)

	Close() error
}
