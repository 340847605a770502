package database

import (
	"context"
	"time"
)

// FeedStore is the storage port consumed by the refresh orchestrator and the
// HTTP handlers.
type FeedStore interface {
	GetFeed(id string) (*Feed, error)
	// GetFeed and GetFeedBySourceURL return (nil, nil) for a missing row;
	// refreshing a URL that has no feed row yet is a normal path, not an
	// error. Bookmark and job lookups return ErrNotFound instead.
	GetFeedBySourceURL(sourceURL string) (*Feed, error)
	GetFeedCount() (int, error)

	CreateFeed(sourceURL string, refreshInterval int) (*Feed, error)
	UpsertFeed(ctx context.Context, upsert FeedUpsert) (string, error)
	SetFeedStatus(id string, status FeedStatus) error

	StreamFeedURLs(ctx context.Context) (<-chan string, <-chan error)
	GetEntryCount(feedID string) (int, error)
}

type BookmarkStore interface {
	GetBookmark(id string) (*Bookmark, error)
	GetBookmarkCount() (int, error)

	CreateBookmark(b Bookmark) (*Bookmark, error)
	UpdateArchivedPath(id string, archivedPath string) error
	DeleteBookmark(id string) error
}

type JobStore interface {
	SaveJob(job Job) error
	GetJob(id string) (*Job, error)
	CompleteJob(id string, completedAt time.Time) error
	FailJob(id string, message string, completedAt time.Time) error
	DeleteJob(id string) error
	GetJobCounts() (map[JobStatus]int, error)
}
