package api

import (
	"context"
	"time"

	"github.com/leafmark/leafmark/app/database"
	"github.com/leafmark/leafmark/app/jobs"
	"github.com/leafmark/leafmark/app/refresh"
	"github.com/leafmark/leafmark/app/scraper"
)

// BookmarkScraperInterface is the scrape-on-demand entry point for bookmarks
type BookmarkScraperInterface interface {
	Scrape(ctx context.Context, url string) (*scraper.ProcessedBookmark, error)
}

type FeedDetectorInterface interface {
	Detect(ctx context.Context, url string) ([]scraper.FeedCandidate, error)
}

type Handler struct {
	feeds           database.FeedStore
	bookmarks       database.BookmarkStore
	jobStore        database.JobStore
	refresher       *refresh.Service
	detector        FeedDetectorInterface
	bookmarkScraper BookmarkScraperInterface
	enqueuer        *jobs.Enqueuer
}

type scrapeRequest struct {
	URL string `json:"url" binding:"required"`
}

type importRequest struct {
	Path string `json:"path" binding:"required"`
}

type feedResponse struct {
	Link        string          `json:"link"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Entries     []entryResponse `json:"entries"`
}

type entryResponse struct {
	Link        string    `json:"link"`
	Title       string    `json:"title"`
	Published   time.Time `json:"published"`
	Description string    `json:"description,omitempty"`
	Author      string    `json:"author,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
}

type bookmarkResponse struct {
	ID          string     `json:"id,omitempty"`
	Link        string     `json:"link"`
	Title       string     `json:"title"`
	Thumbnail   string     `json:"thumbnail,omitempty"`
	Published   *time.Time `json:"published,omitempty"`
	Author      string     `json:"author,omitempty"`
	Description string     `json:"description,omitempty"`
}

type detectResponse struct {
	Feeds []feedCandidateResponse `json:"feeds"`
}

type feedCandidateResponse struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

func newFeedResponse(processed *scraper.ProcessedFeed) feedResponse {
	resp := feedResponse{
		Link:        processed.Link.String(),
		Title:       processed.Title,
		Description: processed.Description,
		Entries:     make([]entryResponse, 0, len(processed.Entries)),
	}

	for _, entry := range processed.Entries {
		item := entryResponse{
			Link:        entry.Link.String(),
			Title:       entry.Title,
			Published:   entry.Published,
			Description: entry.Description,
			Author:      entry.Author,
		}
		if entry.Thumbnail != nil {
			item.Thumbnail = entry.Thumbnail.String()
		}
		resp.Entries = append(resp.Entries, item)
	}

	return resp
}
