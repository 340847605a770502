package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/leafmark/leafmark/app/database"
)

type ImportFeedsPayload struct {
	Path string `json:"path"`
}

// SubscriptionFile is the YAML shape of an import file:
//
//	feeds:
//	  - url: https://example.com/feed.xml
//	    refresh_interval: 1800
type SubscriptionFile struct {
	Feeds []Subscription `yaml:"feeds"`
}

type Subscription struct {
	URL             string `yaml:"url"`
	RefreshInterval int    `yaml:"refresh_interval"`
}

// ImportFeedsHandler registers every feed from a subscription file and fans
// out one scrape_feed child job per feed. Children share the parent job's id
// as group id. The parent completes once the children are enqueued, not once
// they finish.
type ImportFeedsHandler struct {
	feeds                  database.FeedStore
	enqueuer               *Enqueuer
	defaultRefreshInterval int
}

func NewImportFeedsHandler(feeds database.FeedStore, enqueuer *Enqueuer, defaultRefreshInterval int) *ImportFeedsHandler {
	return &ImportFeedsHandler{
		feeds:                  feeds,
		enqueuer:               enqueuer,
		defaultRefreshInterval: defaultRefreshInterval,
	}
}

func (h *ImportFeedsHandler) Run(ctx context.Context, job *database.Job) error {
	var payload ImportFeedsPayload
	if err := json.Unmarshal(job.Data, &payload); err != nil {
		return fmt.Errorf("invalid import_feeds payload: %w", err)
	}
	if payload.Path == "" {
		return fmt.Errorf("import_feeds payload is missing path")
	}

	data, err := os.ReadFile(payload.Path)
	if err != nil {
		return fmt.Errorf("failed to read subscription file: %w", err)
	}

	var file SubscriptionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse subscription file: %w", err)
	}

	imported := 0
	for _, sub := range file.Feeds {
		if sub.URL == "" {
			slog.Warn("Skipping subscription without URL", "path", payload.Path)
			continue
		}

		interval := sub.RefreshInterval
		if interval <= 0 {
			interval = h.defaultRefreshInterval
		}

		if _, err := h.feeds.CreateFeed(sub.URL, interval); err != nil {
			if errors.Is(err, database.ErrConflict) {
				slog.Info("Feed already registered, skipping", "url", sub.URL)
				continue
			}
			return fmt.Errorf("failed to register feed %s: %w", sub.URL, err)
		}

		if _, err := h.enqueuer.Enqueue(JobTypeScrapeFeed, ScrapeFeedPayload{URL: sub.URL}, job.ID); err != nil {
			return fmt.Errorf("failed to enqueue scrape for %s: %w", sub.URL, err)
		}
		imported++
	}

	slog.Info("Subscription import enqueued", "path", payload.Path, "feeds", imported)
	return nil
}
