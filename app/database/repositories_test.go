package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func testUpsert(sourceURL string) FeedUpsert {
	return FeedUpsert{
		SourceURL:   sourceURL,
		Link:        "https://example.com/",
		Title:       "Example Feed",
		Description: "Posts about things",
		Entries: []EntryUpsert{
			{
				Link:        "https://example.com/posts/1",
				Title:       "First Post",
				PublishedAt: time.Date(2023, 1, 15, 10, 0, 0, 0, time.UTC),
				Author:      "Alice",
			},
			{
				Link:        "https://example.com/posts/2",
				Title:       "Second Post",
				PublishedAt: time.Date(2023, 1, 16, 10, 0, 0, 0, time.UTC),
			},
		},
	}
}

func TestCreateFeed(t *testing.T) {
	repo := NewFeedRepository(setupTestDB(t))

	feed, err := repo.CreateFeed("https://example.com/feed.xml", 3600)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if feed.Status != FeedStatusPending {
		t.Errorf("Expected pending status, got: %s", feed.Status)
	}

	loaded, err := repo.GetFeed(feed.ID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if loaded == nil || loaded.SourceURL != "https://example.com/feed.xml" {
		t.Errorf("Expected stored feed back, got: %+v", loaded)
	}
}

func TestCreateFeedConflict(t *testing.T) {
	repo := NewFeedRepository(setupTestDB(t))

	if _, err := repo.CreateFeed("https://example.com/feed.xml", 3600); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	_, err := repo.CreateFeed("https://example.com/feed.xml", 3600)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict for duplicate source URL, got: %v", err)
	}
}

func TestUpsertFeedIdempotent(t *testing.T) {
	repo := NewFeedRepository(setupTestDB(t))
	ctx := context.Background()
	upsert := testUpsert("https://example.com/feed.xml")

	firstID, err := repo.UpsertFeed(ctx, upsert)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	secondID, err := repo.UpsertFeed(ctx, upsert)
	if err != nil {
		t.Fatalf("Expected no error on repeat upsert, got: %v", err)
	}
	if firstID != secondID {
		t.Errorf("Expected same feed id on repeat upsert, got: %s and %s", firstID, secondID)
	}

	feedCount, _ := repo.GetFeedCount()
	if feedCount != 1 {
		t.Errorf("Expected 1 feed row, got: %d", feedCount)
	}

	entryCount, _ := repo.GetEntryCount(firstID)
	if entryCount != 2 {
		t.Errorf("Expected 2 entry rows, got: %d", entryCount)
	}
}

func TestUpsertFeedUpdatesExistingEntries(t *testing.T) {
	repo := NewFeedRepository(setupTestDB(t))
	ctx := context.Background()

	upsert := testUpsert("https://example.com/feed.xml")
	feedID, err := repo.UpsertFeed(ctx, upsert)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	upsert.Entries[0].Title = "First Post (edited)"
	upsert.Entries = append(upsert.Entries, EntryUpsert{
		Link:        "https://example.com/posts/3",
		Title:       "Third Post",
		PublishedAt: time.Date(2023, 1, 17, 10, 0, 0, 0, time.UTC),
	})

	if _, err := repo.UpsertFeed(ctx, upsert); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	entryCount, _ := repo.GetEntryCount(feedID)
	if entryCount != 3 {
		t.Errorf("Expected 3 entry rows after new entry appeared, got: %d", entryCount)
	}
}

func TestUpsertFeedSetsHealthyStatus(t *testing.T) {
	repo := NewFeedRepository(setupTestDB(t))
	ctx := context.Background()

	feed, err := repo.CreateFeed("https://example.com/feed.xml", 3600)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if _, err := repo.UpsertFeed(ctx, testUpsert("https://example.com/feed.xml")); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	loaded, _ := repo.GetFeed(feed.ID)
	if loaded.Status != FeedStatusHealthy {
		t.Errorf("Expected healthy status after upsert, got: %s", loaded.Status)
	}
	if loaded.LastRefreshedAt == nil {
		t.Error("Expected last_refreshed_at set after upsert")
	}
	if loaded.Title != "Example Feed" {
		t.Errorf("Expected parsed title filled in, got: %q", loaded.Title)
	}
}

func TestSetFeedStatus(t *testing.T) {
	repo := NewFeedRepository(setupTestDB(t))

	feed, err := repo.CreateFeed("https://example.com/feed.xml", 3600)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if err := repo.SetFeedStatus(feed.ID, FeedStatusRefreshing); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	loaded, _ := repo.GetFeed(feed.ID)
	if loaded.Status != FeedStatusRefreshing {
		t.Errorf("Expected refreshing status, got: %s", loaded.Status)
	}
}

func TestGetFeedBySourceURLMissing(t *testing.T) {
	repo := NewFeedRepository(setupTestDB(t))

	feed, err := repo.GetFeedBySourceURL("https://example.com/unknown.xml")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if feed != nil {
		t.Errorf("Expected nil for unknown source URL, got: %+v", feed)
	}

	feed, err = repo.GetFeed(uuid.NewString())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if feed != nil {
		t.Errorf("Expected nil for unknown feed id, got: %+v", feed)
	}
}

func TestStreamFeedURLs(t *testing.T) {
	repo := NewFeedRepository(setupTestDB(t))

	want := []string{
		"https://example.com/a.xml",
		"https://example.com/b.xml",
		"https://example.com/c.xml",
	}
	for _, u := range want {
		if _, err := repo.CreateFeed(u, 3600); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
	}

	urls, errc := repo.StreamFeedURLs(context.Background())

	var got []string
	for u := range urls {
		got = append(got, u)
	}
	if err := <-errc; err != nil {
		t.Fatalf("Expected no stream error, got: %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("Expected %d URLs, got: %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected URL %q at position %d, got: %q", want[i], i, got[i])
		}
	}
}

func TestBookmarkLifecycle(t *testing.T) {
	repo := NewBookmarkRepository(setupTestDB(t))

	published := time.Date(2023, 1, 15, 10, 0, 0, 0, time.UTC)
	created, err := repo.CreateBookmark(Bookmark{
		Link:         "https://example.com/article",
		Title:        "An Article",
		ThumbnailURL: "https://example.com/cover.jpg",
		PublishedAt:  &published,
		Author:       "Alice",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if created.ID == "" {
		t.Fatal("Expected generated bookmark id")
	}

	loaded, err := repo.GetBookmark(created.ID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if loaded.Title != "An Article" || loaded.Author != "Alice" {
		t.Errorf("Expected stored fields back, got: %+v", loaded)
	}
	if loaded.PublishedAt == nil || !loaded.PublishedAt.Equal(published) {
		t.Errorf("Expected published date preserved, got: %v", loaded.PublishedAt)
	}

	if err := repo.UpdateArchivedPath(created.ID, created.ID+".jpg"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	loaded, _ = repo.GetBookmark(created.ID)
	if loaded.ArchivedPath != created.ID+".jpg" {
		t.Errorf("Expected archived path stored, got: %q", loaded.ArchivedPath)
	}

	if err := repo.DeleteBookmark(created.ID); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := repo.GetBookmark(created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got: %v", err)
	}
}

func TestCreateBookmarkConflict(t *testing.T) {
	repo := NewBookmarkRepository(setupTestDB(t))

	if _, err := repo.CreateBookmark(Bookmark{Link: "https://example.com/a", Title: "A"}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	_, err := repo.CreateBookmark(Bookmark{Link: "https://example.com/a", Title: "A again"})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict for duplicate link, got: %v", err)
	}
}

func TestUpdateArchivedPathMissingBookmark(t *testing.T) {
	repo := NewBookmarkRepository(setupTestDB(t))

	err := repo.UpdateArchivedPath(uuid.NewString(), "x.jpg")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got: %v", err)
	}
}

func TestJobLifecycle(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))

	job := Job{
		ID:        uuid.NewString(),
		JobType:   "scrape_feed",
		Data:      []byte(`{"url":"https://example.com/feed.xml"}`),
		Status:    JobStatusPending,
		GroupID:   "group-1",
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.SaveJob(job); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	loaded, err := repo.GetJob(job.ID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if loaded.JobType != "scrape_feed" || loaded.GroupID != "group-1" {
		t.Errorf("Expected stored job back, got: %+v", loaded)
	}
	if string(loaded.Data) != string(job.Data) {
		t.Errorf("Expected payload preserved, got: %s", loaded.Data)
	}

	completedAt := time.Now().UTC()
	if err := repo.CompleteJob(job.ID, completedAt); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	loaded, _ = repo.GetJob(job.ID)
	if loaded.Status != JobStatusCompleted {
		t.Errorf("Expected completed status, got: %s", loaded.Status)
	}
	if loaded.CompletedAt == nil {
		t.Error("Expected completed_at set")
	}
	if loaded.Message != "" {
		t.Errorf("Expected no message on completion, got: %q", loaded.Message)
	}
}

func TestFailJobStoresMessage(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))

	job := Job{
		ID:        uuid.NewString(),
		JobType:   "scrape_feed",
		Data:      []byte(`{}`),
		Status:    JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.SaveJob(job); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if err := repo.FailJob(job.ID, "download timed out", time.Now().UTC()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	loaded, _ := repo.GetJob(job.ID)
	if loaded.Status != JobStatusFailed {
		t.Errorf("Expected failed status, got: %s", loaded.Status)
	}
	if loaded.Message != "download timed out" {
		t.Errorf("Expected failure message stored verbatim, got: %q", loaded.Message)
	}
}

func TestGetJobCounts(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))

	for i := 0; i < 3; i++ {
		job := Job{
			ID:        uuid.NewString(),
			JobType:   "scrape_feed",
			Data:      []byte(`{}`),
			Status:    JobStatusPending,
			CreatedAt: time.Now().UTC(),
		}
		if err := repo.SaveJob(job); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if i == 0 {
			if err := repo.CompleteJob(job.ID, time.Now().UTC()); err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
		}
	}

	counts, err := repo.GetJobCounts()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if counts[JobStatusPending] != 2 {
		t.Errorf("Expected 2 pending jobs, got: %d", counts[JobStatusPending])
	}
	if counts[JobStatusCompleted] != 1 {
		t.Errorf("Expected 1 completed job, got: %d", counts[JobStatusCompleted])
	}
}

func TestDeleteJob(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))

	job := Job{
		ID:        uuid.NewString(),
		JobType:   "scrape_feed",
		Data:      []byte(`{}`),
		Status:    JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.SaveJob(job); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if err := repo.DeleteJob(job.ID); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := repo.GetJob(job.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got: %v", err)
	}
}
