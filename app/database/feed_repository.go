package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ FeedStore = (*FeedRepository)(nil)

// FeedRepository handles database operations for feeds and their entries
type FeedRepository struct {
	db *DB
}

func NewFeedRepository(db *DB) *FeedRepository {
	return &FeedRepository{db: db}
}

// CreateFeed registers a feed URL with status pending. The first successful
// refresh fills in the parsed metadata.
func (r *FeedRepository) CreateFeed(sourceURL string, refreshInterval int) (*Feed, error) {
	now := time.Now().UTC()
	feed := &Feed{
		ID:              uuid.NewString(),
		SourceURL:       sourceURL,
		RefreshInterval: refreshInterval,
		Status:          FeedStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	_, err := r.db.Exec(`
		INSERT INTO feeds (id, source_url, refresh_interval, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, feed.ID, feed.SourceURL, feed.RefreshInterval, feed.Status, feed.CreatedAt, feed.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed: %w", mapConstraintError(err))
	}

	return feed, nil
}

// UpsertFeed stores a processed feed and all of its entries in one
// transaction. The feed row is keyed by source_url, entries by (feed_id,
// link); re-running against unchanged input produces no duplicate rows.
func (r *FeedRepository) UpsertFeed(ctx context.Context, upsert FeedUpsert) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	var feedID string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO feeds (id, source_url, link, title, description, status, last_refreshed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source_url) DO UPDATE SET
			link = excluded.link,
			title = excluded.title,
			description = excluded.description,
			status = excluded.status,
			last_refreshed_at = excluded.last_refreshed_at,
			updated_at = excluded.updated_at
		RETURNING id
	`, uuid.NewString(), upsert.SourceURL, upsert.Link, upsert.Title, upsert.Description,
		FeedStatusHealthy, now, now, now).Scan(&feedID)
	if err != nil {
		return "", fmt.Errorf("failed to upsert feed: %w", mapConstraintError(err))
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO feed_entries (id, feed_id, link, title, published_at, description, author, thumbnail_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (feed_id, link) DO UPDATE SET
			title = excluded.title,
			published_at = excluded.published_at,
			description = excluded.description,
			author = excluded.author,
			thumbnail_url = excluded.thumbnail_url,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare entry upsert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range upsert.Entries {
		_, err := stmt.ExecContext(ctx, uuid.NewString(), feedID, entry.Link, entry.Title,
			entry.PublishedAt.UTC(), entry.Description, entry.Author, entry.ThumbnailURL, now, now)
		if err != nil {
			return "", fmt.Errorf("failed to upsert entry %s: %w", entry.Link, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit feed upsert: %w", err)
	}

	return feedID, nil
}

func (r *FeedRepository) SetFeedStatus(id string, status FeedStatus) error {
	_, err := r.db.Exec(`
		UPDATE feeds
		SET status = ?, updated_at = ?
		WHERE id = ?
	`, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set feed status: %w", err)
	}
	return nil
}

// StreamFeedURLs yields the source URL of every known feed without holding
// the full set in memory. The error channel carries at most one value and is
// closed together with the URL channel.
func (r *FeedRepository) StreamFeedURLs(ctx context.Context) (<-chan string, <-chan error) {
	urls := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(urls)
		defer close(errc)

		rows, err := r.db.QueryContext(ctx, `SELECT source_url FROM feeds ORDER BY created_at`)
		if err != nil {
			errc <- fmt.Errorf("failed to query feed URLs: %w", err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var url string
			if err := rows.Scan(&url); err != nil {
				errc <- fmt.Errorf("failed to scan feed URL: %w", err)
				return
			}
			select {
			case urls <- url:
			case <-ctx.Done():
				return
			}
		}

		if err := rows.Err(); err != nil {
			errc <- fmt.Errorf("error iterating feed URLs: %w", err)
		}
	}()

	return urls, errc
}

func (r *FeedRepository) GetFeed(id string) (*Feed, error) {
	return r.getFeed(`WHERE id = ?`, id)
}

func (r *FeedRepository) GetFeedBySourceURL(sourceURL string) (*Feed, error) {
	return r.getFeed(`WHERE source_url = ?`, sourceURL)
}

func (r *FeedRepository) getFeed(where string, arg any) (*Feed, error) {
	var feed Feed
	var link, title, description sql.NullString
	var lastRefreshedAt sql.NullTime

	err := r.db.QueryRow(`
		SELECT id, source_url, link, title, description, refresh_interval, status,
		       last_refreshed_at, created_at, updated_at
		FROM feeds `+where, arg).Scan(
		&feed.ID, &feed.SourceURL, &link, &title, &description, &feed.RefreshInterval,
		&feed.Status, &lastRefreshedAt, &feed.CreatedAt, &feed.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}

	feed.Link = link.String
	feed.Title = title.String
	feed.Description = description.String
	if lastRefreshedAt.Valid {
		t := lastRefreshedAt.Time
		feed.LastRefreshedAt = &t
	}

	return &feed, nil
}

func (r *FeedRepository) GetFeedCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM feeds").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}

func (r *FeedRepository) GetEntryCount(feedID string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM feed_entries WHERE feed_id = ?", feedID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get entry count: %w", err)
	}
	return count, nil
}
