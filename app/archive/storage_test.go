package archive

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStoreNamesFileByBookmarkID(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewStorage(dir)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	name, err := storage.Store("bm-1", "https://example.com/images/cover.PNG?size=large", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if name != "bm-1.png" {
		t.Errorf("Expected name 'bm-1.png', got: %q", name)
	}

	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("Expected file on disk, got: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("Expected stored bytes back, got: %q", data)
	}
}

func TestStoreUnknownExtension(t *testing.T) {
	storage, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	name, err := storage.Store("bm-1", "https://example.com/thumbnail.php", []byte("x"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if name != "bm-1.img" {
		t.Errorf("Expected generic .img extension, got: %q", name)
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewStorage(dir)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	name, err := storage.Store("bm-1", "https://example.com/cover.jpg", []byte("x"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if err := storage.Remove(name); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
		t.Error("Expected file removed")
	}
}

func TestRemoveMissingFile(t *testing.T) {
	storage, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if err := storage.Remove("never-stored.jpg"); err != nil {
		t.Errorf("Expected missing file to be tolerated, got: %v", err)
	}
}

func TestRemoveStripsDirectoryTraversal(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewStorage(filepath.Join(dir, "archive"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	outside := filepath.Join(dir, "outside.jpg")
	if err := os.WriteFile(outside, []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if err := storage.Remove("../outside.jpg"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := os.Stat(outside); err != nil {
		t.Error("Expected file outside the archive directory untouched")
	}
}
