package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ BookmarkStore = (*BookmarkRepository)(nil)

// BookmarkRepository handles database operations for bookmarks
type BookmarkRepository struct {
	db *DB
}

func NewBookmarkRepository(db *DB) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

func (r *BookmarkRepository) CreateBookmark(b Bookmark) (*Bookmark, error) {
	now := time.Now().UTC()
	b.ID = uuid.NewString()
	b.CreatedAt = now
	b.UpdatedAt = now

	var publishedAt any
	if b.PublishedAt != nil {
		publishedAt = b.PublishedAt.UTC()
	}

	_, err := r.db.Exec(`
		INSERT INTO bookmarks (id, link, title, thumbnail_url, published_at, author, archived_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.Link, b.Title, b.ThumbnailURL, publishedAt, b.Author, b.ArchivedPath, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create bookmark: %w", mapConstraintError(err))
	}

	return &b, nil
}

func (r *BookmarkRepository) GetBookmark(id string) (*Bookmark, error) {
	var b Bookmark
	var thumbnailURL, author, archivedPath sql.NullString
	var publishedAt sql.NullTime

	err := r.db.QueryRow(`
		SELECT id, link, title, thumbnail_url, published_at, author, archived_path, created_at, updated_at
		FROM bookmarks
		WHERE id = ?
	`, id).Scan(&b.ID, &b.Link, &b.Title, &thumbnailURL, &publishedAt, &author, &archivedPath,
		&b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmark: %w", err)
	}

	b.ThumbnailURL = thumbnailURL.String
	b.Author = author.String
	b.ArchivedPath = archivedPath.String
	if publishedAt.Valid {
		t := publishedAt.Time
		b.PublishedAt = &t
	}

	return &b, nil
}

// UpdateArchivedPath sets or clears the local path of the archived thumbnail.
func (r *BookmarkRepository) UpdateArchivedPath(id string, archivedPath string) error {
	res, err := r.db.Exec(`
		UPDATE bookmarks
		SET archived_path = ?, updated_at = ?
		WHERE id = ?
	`, archivedPath, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update archived path: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *BookmarkRepository) DeleteBookmark(id string) error {
	res, err := r.db.Exec(`DELETE FROM bookmarks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *BookmarkRepository) GetBookmarkCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM bookmarks").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get bookmark count: %w", err)
	}
	return count, nil
}
