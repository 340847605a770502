package scraper

import (
	"net/url"
	"time"
)

// Extracted types carry raw, untyped string fields straight out of parsing.
// Any field may be empty; validation happens in the postprocessor.

type ExtractedFeed struct {
	Link        string
	Title       string
	Description string
	Entries     []ExtractedFeedEntry
}

type ExtractedFeedEntry struct {
	Link        string
	Title       string
	Published   string
	Description string
	Author      string
	Thumbnail   string
}

type ExtractedBookmark struct {
	Title       string
	Thumbnail   string
	Published   string
	Author      string
	Description string
}

// Processed types are fully typed and validated, ready for persistence.

type ProcessedFeed struct {
	Link        *url.URL
	Title       string
	Description string
	Entries     []ProcessedFeedEntry
}

type ProcessedFeedEntry struct {
	Link        *url.URL
	Title       string
	Published   time.Time
	Description string
	Author      string
	Thumbnail   *url.URL
}

type ProcessedBookmark struct {
	Link        *url.URL
	Title       string
	Thumbnail   *url.URL
	Published   *time.Time
	Author      string
	Description string
}

// FeedCandidate is one feed reference discovered in an HTML page
type FeedCandidate struct {
	URL   string
	Title string
}
