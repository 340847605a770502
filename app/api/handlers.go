package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/leafmark/leafmark/app/database"
	"github.com/leafmark/leafmark/app/jobs"
	"github.com/leafmark/leafmark/app/refresh"
	"github.com/leafmark/leafmark/app/scraper"
)

func NewHandler(feeds database.FeedStore, bookmarks database.BookmarkStore,
	jobStore database.JobStore, refresher *refresh.Service,
	detector FeedDetectorInterface, bookmarkScraper BookmarkScraperInterface,
	enqueuer *jobs.Enqueuer) *Handler {
	return &Handler{
		feeds:           feeds,
		bookmarks:       bookmarks,
		jobStore:        jobStore,
		refresher:       refresher,
		detector:        detector,
		bookmarkScraper: bookmarkScraper,
		enqueuer:        enqueuer,
	}
}

// ScrapeFeed synchronously scrapes one feed URL, persists the result and
// returns the processed feed.
func (h *Handler) ScrapeFeed(c *gin.Context) {
	var req scrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid url"})
		return
	}

	processed, err := h.refresher.RefreshURL(c.Request.Context(), req.URL)
	if err != nil {
		h.renderScrapeError(c, req.URL, err)
		return
	}

	c.JSON(http.StatusOK, newFeedResponse(processed))
}

// DetectFeeds classifies a URL and returns candidate feeds without
// persisting anything.
func (h *Handler) DetectFeeds(c *gin.Context) {
	var req scrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid url"})
		return
	}

	candidates, err := h.detector.Detect(c.Request.Context(), req.URL)
	if err != nil {
		h.renderScrapeError(c, req.URL, err)
		return
	}

	resp := detectResponse{Feeds: make([]feedCandidateResponse, 0, len(candidates))}
	for _, candidate := range candidates {
		resp.Feeds = append(resp.Feeds, feedCandidateResponse{URL: candidate.URL, Title: candidate.Title})
	}

	c.JSON(http.StatusOK, resp)
}

// RefreshFeeds kicks off a refresh batch over all known feeds
func (h *Handler) RefreshFeeds(c *gin.Context) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		if err := h.refresher.RefreshAll(ctx); err != nil {
			slog.Error("Refresh batch failed", "error", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "refresh started"})
}

// ScrapeBookmark scrapes one webpage, stores the bookmark and schedules
// thumbnail archival.
func (h *Handler) ScrapeBookmark(c *gin.Context) {
	var req scrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid url"})
		return
	}

	processed, err := h.bookmarkScraper.Scrape(c.Request.Context(), req.URL)
	if err != nil {
		h.renderScrapeError(c, req.URL, err)
		return
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
			c.JSON(http.StatusConflict, gin.H{"error": "Bookmark already exists"})
			return
		}
		slog.Error("Failed to store bookmark", "url", req.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store bookmark"})
		return
	}

	if created.ThumbnailURL != "" {
		_, err := h.enqueuer.Enqueue(jobs.JobTypeArchiveThumbnail, jobs.ArchiveThumbnailPayload{
			Operation:  jobs.ArchiveOperationUpload,
			BookmarkID: created.ID,
		}, "")
		if err != nil {
			slog.Error("Failed to enqueue thumbnail archival", "bookmark_id", created.ID, "error", err)
		}
	}

	resp := bookmarkResponse{
		ID:          created.ID,
		Link:        created.Link,
		Title:       created.Title,
		Thumbnail:   created.ThumbnailURL,
		Published:   created.PublishedAt,
		Author:      created.Author,
		Description: processed.Description,
	}

	c.JSON(http.StatusCreated, resp)
}

// ImportFeeds creates an import_feeds job for a subscription file
func (h *Handler) ImportFeeds(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid path"})
		return
	}

	job, err := h.enqueuer.Enqueue(jobs.JobTypeImportFeeds, jobs.ImportFeedsPayload{Path: req.Path}, "")
	if err != nil {
		slog.Error("Failed to enqueue import", "path", req.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue import"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if feedCount, err := h.feeds.GetFeedCount(); err == nil {
		health["feeds"] = feedCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := gin.H{}

	if feedCount, err := h.feeds.GetFeedCount(); err == nil {
		stats["feeds"] = feedCount
	}
	if bookmarkCount, err := h.bookmarks.GetBookmarkCount(); err == nil {
		stats["bookmarks"] = bookmarkCount
	}
	if jobCounts, err := h.jobStore.GetJobCounts(); err == nil {
		stats["jobs"] = jobCounts
	}

	c.JSON(http.StatusOK, stats)
}

// renderScrapeError distinguishes remote-host failures (retryable for the
// caller, surfaced as bad gateway) from internal faults.
func (h *Handler) renderScrapeError(c *gin.Context, url string, err error) {
	if scraper.IsRemoteError(err) {
		slog.Warn("Scrape failed at remote", "url", url, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	slog.Error("Scrape failed", "url", url, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
