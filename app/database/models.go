package database

import (
	"time"
)

type FeedStatus string

const (
	FeedStatusPending    FeedStatus = "pending"
	FeedStatusHealthy    FeedStatus = "healthy"
	FeedStatusRefreshing FeedStatus = "refreshing"
	FeedStatusFailed     FeedStatus = "failed"
)

type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

type Feed struct {
	ID              string
	SourceURL       string // URL the feed is fetched from
	Link            string // Homepage URL from the feed's <link> element
	Title           string
	Description     string
	RefreshInterval int // seconds
	Status          FeedStatus
	LastRefreshedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type FeedEntry struct {
	ID           string
	FeedID       string
	Link         string
	Title        string
	PublishedAt  time.Time
	Description  string
	Author       string
	ThumbnailURL string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Bookmark struct {
	ID           string
	Link         string
	Title        string
	ThumbnailURL string
	PublishedAt  *time.Time
	Author       string
	ArchivedPath string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Job is a unit of asynchronous work. The data field is an opaque JSON blob
// whose shape only the matching handler understands. Completed and Failed are
// terminal; a failed job stays failed until an operator re-creates it.
type Job struct {
	ID          string
	JobType     string
	Data        []byte
	Status      JobStatus
	GroupID     string
	Message     string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// FeedUpsert carries one processed feed plus its entries into storage.
type FeedUpsert struct {
	SourceURL   string
	Link        string
	Title       string
	Description string
	Entries     []EntryUpsert
}

type EntryUpsert struct {
	Link         string
	Title        string
	PublishedAt  time.Time
	Description  string
	Author       string
	ThumbnailURL string
}
