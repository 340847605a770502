package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/leafmark/leafmark/app/archive"
	"github.com/leafmark/leafmark/app/database"
	"github.com/leafmark/leafmark/app/scraper"
)

const (
	ArchiveOperationUpload = "upload"
	ArchiveOperationDelete = "delete"
)

type ArchiveThumbnailPayload struct {
	Operation    string `json:"operation"`
	BookmarkID   string `json:"bookmark_id"`
	ArchivedPath string `json:"archived_path,omitempty"`
}

// ArchiveThumbnailHandler downloads a bookmark's thumbnail into local
// archive storage, or removes a previously archived copy.
type ArchiveThumbnailHandler struct {
	downloader scraper.Downloader
	storage    *archive.Storage
	bookmarks  database.BookmarkStore
}

func NewArchiveThumbnailHandler(downloader scraper.Downloader, storage *archive.Storage, bookmarks database.BookmarkStore) *ArchiveThumbnailHandler {
	return &ArchiveThumbnailHandler{
		downloader: downloader,
		storage:    storage,
		bookmarks:  bookmarks,
	}
}

func (h *ArchiveThumbnailHandler) Run(ctx context.Context, job *database.Job) error {
	var payload ArchiveThumbnailPayload
	if err := json.Unmarshal(job.Data, &payload); err != nil {
		return fmt.Errorf("invalid archive_thumbnail payload: %w", err)
	}

	switch payload.Operation {
	case ArchiveOperationUpload:
		return h.upload(ctx, payload.BookmarkID)
	case ArchiveOperationDelete:
		return h.delete(payload.BookmarkID, payload.ArchivedPath)
	default:
		return fmt.Errorf("unknown archive operation %q", payload.Operation)
	}
}

func (h *ArchiveThumbnailHandler) upload(ctx context.Context, bookmarkID string) error {
	bookmark, err := h.bookmarks.GetBookmark(bookmarkID)
	if err != nil {
		return fmt.Errorf("failed to load bookmark %s: %w", bookmarkID, err)
	}

	if bookmark.ThumbnailURL == "" {
		return nil
	}

	data, _, err := h.downloader.Download(ctx, bookmark.ThumbnailURL)
	if err != nil {
		return fmt.Errorf("failed to download thumbnail: %w", err)
	}

	archivedPath, err := h.storage.Store(bookmark.ID, bookmark.ThumbnailURL, data)
	if err != nil {
		return err
	}

	return h.bookmarks.UpdateArchivedPath(bookmark.ID, archivedPath)
}

func (h *ArchiveThumbnailHandler) delete(bookmarkID, archivedPath string) error {
	if archivedPath != "" {
		if err := h.storage.Remove(archivedPath); err != nil {
			return err
		}
	}

	if bookmarkID == "" {
		return nil
	}

	err := h.bookmarks.UpdateArchivedPath(bookmarkID, "")
	if errors.Is(err, database.ErrNotFound) {
		// Bookmark deletion races with archival cleanup; nothing to update
		return nil
	}
	return err
}
