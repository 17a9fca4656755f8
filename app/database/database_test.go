package database

import (
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func createTestFeed(t *testing.T, db *DB, url string, mailingList bool) *Feed {
	t.Helper()

	folders := NewFolderRepository(db)
	rootID, err := folders.GetOrCreateRootID()
	if err != nil {
		t.Fatalf("Failed to get root folder: %v", err)
	}

	feed := &Feed{
		URL:           url,
		Title:         "Test Feed",
		FolderID:      rootID,
		Added:         1_700_000_000,
		IsMailingList: mailingList,
	}
	if err := NewFeedRepository(db).Create(feed); err != nil {
		t.Fatalf("Failed to create feed: %v", err)
	}

	return feed
}
