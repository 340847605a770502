package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/leafmark/leafmark/app/database"
	"github.com/leafmark/leafmark/app/scraper"
)

// FeedScraper is the scrape(url) entry point the orchestrator fans out over.
type FeedScraper interface {
	Scrape(ctx context.Context, url string) (*scraper.ProcessedFeed, error)
}

// Service refreshes known feeds. A batch streams every feed URL from storage
// and scrapes them under a counting semaphore, so outbound HTTP concurrency
// stays bounded no matter how many feeds exist. Feed status transitions are
// driven exclusively here.
type Service struct {
	scraper     FeedScraper
	feeds       database.FeedStore
	concurrency int64
}

func NewService(feedScraper FeedScraper, feeds database.FeedStore, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = 5
	}
	return &Service{
		scraper:     feedScraper,
		feeds:       feeds,
		concurrency: int64(concurrency),
	}
}

// RefreshAll runs one refresh batch over all known feed URLs. One bad feed
// never aborts the batch; its status is marked failed and the batch moves on.
// Completion order across feeds is not defined.
func (s *Service) RefreshAll(ctx context.Context) error {
	started := time.Now()
	sem := semaphore.NewWeighted(s.concurrency)

	urls, errc := s.feeds.StreamFeedURLs(ctx)

	var refreshed, failed atomic.Int64

	for url := range urls {
		if err := sem.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("refresh batch cancelled: %w", err)
		}

		go func(url string) {
			defer sem.Release(1)

			if _, err := s.RefreshURL(ctx, url); err != nil {
				slog.Error("Feed refresh failed", "url", url, "error", err)
				failed.Add(1)
				return
			}
			refreshed.Add(1)
		}(url)
	}

	// Drain the semaphore to wait for in-flight scrapes
	if err := sem.Acquire(ctx, s.concurrency); err != nil {
		return fmt.Errorf("refresh batch cancelled: %w", err)
	}
	sem.Release(s.concurrency)

	if err := <-errc; err != nil {
		return fmt.Errorf("failed to stream feed URLs: %w", err)
	}

	slog.Info("Refresh batch completed",
		"refreshed", refreshed.Load(),
		"failed", failed.Load(),
		"duration", time.Since(started))

	return nil
}

// RefreshURL scrapes a single feed URL and persists the result as one atomic
// upsert. On scrape failure the feed (when known) is marked failed.
func (s *Service) RefreshURL(ctx context.Context, url string) (*scraper.ProcessedFeed, error) {
	feed, err := s.feeds.GetFeedBySourceURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to load feed for %s: %w", url, err)
	}

	if feed != nil {
		if err := s.feeds.SetFeedStatus(feed.ID, database.FeedStatusRefreshing); err != nil {
			return nil, fmt.Errorf("failed to mark feed refreshing: %w", err)
		}
	}

	processed, err := s.scraper.Scrape(ctx, url)
	if err != nil {
		if feed != nil {
			if statusErr := s.feeds.SetFeedStatus(feed.ID, database.FeedStatusFailed); statusErr != nil {
				slog.Error("Failed to mark feed as failed", "url", url, "error", statusErr)
			}
		}
		return nil, err
	}

	if _, err := s.feeds.UpsertFeed(ctx, toUpsert(url, processed)); err != nil {
		return nil, fmt.Errorf("failed to persist feed %s: %w", url, err)
	}

	return processed, nil
}

func toUpsert(sourceURL string, processed *scraper.ProcessedFeed) database.FeedUpsert {
	upsert := database.FeedUpsert{
		SourceURL:   sourceURL,
		Link:        processed.Link.String(),
		Title:       processed.Title,
		Description: processed.Description,
	}

	for _, entry := range processed.Entries {
		item := database.EntryUpsert{
			Link:        entry.Link.String(),
			Title:       entry.Title,
			PublishedAt: entry.Published,
			Description: entry.Description,
			Author:      entry.Author,
		}
		if entry.Thumbnail != nil {
			item.ThumbnailURL = entry.Thumbnail.String()
		}
		upsert.Entries = append(upsert.Entries, item)
	}

	return upsert
}
