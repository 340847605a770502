package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leafmark/leafmark/app/database"
	"github.com/leafmark/leafmark/app/scraper"
)

type ScrapeBookmarkPayload struct {
	URL string `json:"url"`
}

// ScrapeBookmarkHandler scrapes one webpage, stores the bookmark and fans
// out an archive_thumbnail job when the page carries a thumbnail.
type ScrapeBookmarkHandler struct {
	scraper   *scraper.BookmarkScraper
	bookmarks database.BookmarkStore
	enqueuer  *Enqueuer
}

func NewScrapeBookmarkHandler(bookmarkScraper *scraper.BookmarkScraper, bookmarks database.BookmarkStore, enqueuer *Enqueuer) *ScrapeBookmarkHandler {
	return &ScrapeBookmarkHandler{
		scraper:   bookmarkScraper,
		bookmarks: bookmarks,
		enqueuer:  enqueuer,
	}
}

func (h *ScrapeBookmarkHandler) Run(ctx context.Context, job *database.Job) error {
	var payload ScrapeBookmarkPayload
	if err := json.Unmarshal(job.Data, &payload); err != nil {
		return fmt.Errorf("invalid scrape_bookmark payload: %w", err)
	}
	if payload.URL == "" {
		return fmt.Errorf("scrape_bookmark payload is missing url")
	}

	processed, err := h.scraper.Scrape(ctx, payload.URL)
	if err != nil {
		return err
	}

	bookmark := database.Bookmark{
		Link:        processed.Link.String(),
		Title:       processed.Title,
		PublishedAt: processed.Published,
		Author:      processed.Author,
	}
	if processed.Thumbnail != nil {
		bookmark.ThumbnailURL = processed.Thumbnail.String()
	}

	created, err := h.bookmarks.CreateBookmark(bookmark)
	if err != nil {
		if errors.Is(err, database.ErrConflict) {
			slog.Info("Bookmark already exists, skipping", "url", payload.URL)
			return nil
		}
		return err
	}

	if created.ThumbnailURL != "" {
		_, err := h.enqueuer.Enqueue(JobTypeArchiveThumbnail, ArchiveThumbnailPayload{
			Operation:  ArchiveOperationUpload,
			BookmarkID: created.ID,
		}, job.GroupID)
		if err != nil {
			return fmt.Errorf("failed to enqueue thumbnail archival: %w", err)
		}
	}

	return nil
}
