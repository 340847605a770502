package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/leafmark/leafmark/app/database"
	"github.com/leafmark/leafmark/app/refresh"
)

type ScrapeFeedPayload struct {
	URL string `json:"url"`
}

// ScrapeFeedHandler refreshes a single feed URL: scrape, postprocess and
// upsert through the refresh service so status transitions stay in one place.
type ScrapeFeedHandler struct {
	refresher *refresh.Service
}

func NewScrapeFeedHandler(refresher *refresh.Service) *ScrapeFeedHandler {
	return &ScrapeFeedHandler{refresher: refresher}
}

func (h *ScrapeFeedHandler) Run(ctx context.Context, job *database.Job) error {
	var payload ScrapeFeedPayload
	if err := json.Unmarshal(job.Data, &payload); err != nil {
		return fmt.Errorf("invalid scrape_feed payload: %w", err)
	}
	if payload.URL == "" {
		return fmt.Errorf("scrape_feed payload is missing url")
	}

	_, err := h.refresher.RefreshURL(ctx, payload.URL)
	return err
}
