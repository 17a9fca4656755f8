package database

import (
	"fmt"
	"testing"
)

func insertTestArticle(t *testing.T, articles ArticleRepository, feedID int64, guid string, unread, starred bool, lastModified int64) *Article {
	t.Helper()

	article := &Article{
		FeedID:       feedID,
		Title:        "Article " + guid,
		Content:      "<p>Content</p>",
		GUID:         guid,
		GUIDHash:     "hash-" + guid,
		LastModified: lastModified,
		Unread:       unread,
		Starred:      starred,
	}
	if err := articles.Insert(article); err != nil {
		t.Fatalf("Failed to insert article: %v", err)
	}
	return article
}

func TestInsertRejectsDuplicateGUIDHashPerFeed(t *testing.T) {
	db := newTestDB(t)
	feed := createTestFeed(t, db, "https://example.com/feed", false)
	other := createTestFeed(t, db, "https://example.com/other", false)
	articles := NewArticleRepository(db)

	insertTestArticle(t, articles, feed.ID, "a", true, false, 100)

	dup := &Article{FeedID: feed.ID, GUID: "a", GUIDHash: "hash-a", LastModified: 100}
	if err := articles.Insert(dup); err == nil {
		t.Error("Expected unique constraint error for duplicate guid hash in one feed")
	}

	// The same hash in a different feed is fine.
	insertTestArticle(t, articles, other.ID, "a", true, false, 100)
}

func TestListFilters(t *testing.T) {
	db := newTestDB(t)
	feed := createTestFeed(t, db, "https://example.com/feed", false)
	articles := NewArticleRepository(db)

	insertTestArticle(t, articles, feed.ID, "unread", true, false, 100)
	insertTestArticle(t, articles, feed.ID, "read", false, false, 200)
	insertTestArticle(t, articles, feed.ID, "starred", false, true, 300)

	unreadOnly, err := articles.List(ArticleFilter{FeedID: feed.ID})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(unreadOnly) != 1 || unreadOnly[0].GUID != "unread" {
		t.Errorf("Expected only the unread article, got: %v", unreadOnly)
	}

	all, err := articles.List(ArticleFilter{FeedID: feed.ID, GetRead: true})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 articles, got: %d", len(all))
	}
	// Newest first by default.
	if all[0].GUID != "starred" {
		t.Errorf("Expected newest article first, got: %s", all[0].GUID)
	}

	starred, err := articles.List(ArticleFilter{StarredOnly: true, GetRead: true})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(starred) != 1 || starred[0].GUID != "starred" {
		t.Errorf("Expected only the starred article, got: %v", starred)
	}

	updated, err := articles.List(ArticleFilter{GetRead: true, LastModified: 200})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(updated) != 2 {
		t.Errorf("Expected 2 articles modified since 200, got: %d", len(updated))
	}
}

func TestListByFolder(t *testing.T) {
	db := newTestDB(t)
	folders := NewFolderRepository(db)
	articles := NewArticleRepository(db)

	folder, err := folders.Create("Tech")
	if err != nil {
		t.Fatalf("Failed to create folder: %v", err)
	}

	feed := &Feed{URL: "https://example.com/feed", FolderID: folder.ID, Added: 1}
	if err := NewFeedRepository(db).Create(feed); err != nil {
		t.Fatalf("Failed to create feed: %v", err)
	}
	outside := createTestFeed(t, db, "https://example.com/other", false)

	insertTestArticle(t, articles, feed.ID, "inside", true, false, 100)
	insertTestArticle(t, articles, outside.ID, "outside", true, false, 100)

	result, err := articles.List(ArticleFilter{FolderID: folder.ID, GetRead: true})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(result) != 1 || result[0].GUID != "inside" {
		t.Errorf("Expected only the folder's article, got: %v", result)
	}
}

func TestMarkReadBumpsLastModified(t *testing.T) {
	db := newTestDB(t)
	feed := createTestFeed(t, db, "https://example.com/feed", false)
	articles := NewArticleRepository(db)

	article := insertTestArticle(t, articles, feed.ID, "a", true, false, 100)

	affected, err := articles.MarkRead([]int64{article.ID}, true, 999)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if affected != 1 {
		t.Errorf("Expected 1 affected row, got: %d", affected)
	}

	stored, err := articles.GetByGUIDHash(feed.ID, article.GUIDHash)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if stored.Unread {
		t.Error("Expected article to be read")
	}
	if stored.LastModified != 999 {
		t.Errorf("Expected last modified 999, got: %d", stored.LastModified)
	}
}

func TestMarkReadByFeedUpTo(t *testing.T) {
	db := newTestDB(t)
	feed := createTestFeed(t, db, "https://example.com/feed", false)
	articles := NewArticleRepository(db)

	first := insertTestArticle(t, articles, feed.ID, "a", true, false, 100)
	insertTestArticle(t, articles, feed.ID, "b", true, false, 100)

	affected, err := articles.MarkReadByFeedUpTo(feed.ID, first.ID, 500)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if affected != 1 {
		t.Errorf("Expected 1 affected row, got: %d", affected)
	}

	unread, err := articles.CountUnread(feed.ID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if unread != 1 {
		t.Errorf("Expected 1 unread article left, got: %d", unread)
	}
}

func TestDeleteStale(t *testing.T) {
	db := newTestDB(t)
	feed := createTestFeed(t, db, "https://example.com/feed", false)
	articles := NewArticleRepository(db)

	old := int64(100)
	recent := int64(1_700_000_000)

	// Only read, unstarred, old articles that dropped out of the upstream
	// document may be deleted.
	insertTestArticle(t, articles, feed.ID, "deletable", false, false, old)
	insertTestArticle(t, articles, feed.ID, "still-upstream", false, false, old)
	insertTestArticle(t, articles, feed.ID, "unread", true, false, old)
	insertTestArticle(t, articles, feed.ID, "starred", false, true, old)
	insertTestArticle(t, articles, feed.ID, "recent", false, false, recent)

	deleted, err := articles.DeleteStale(feed.ID, []string{"hash-still-upstream"}, 1_000_000)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted article, got: %d", deleted)
	}

	remaining, err := articles.List(ArticleFilter{FeedID: feed.ID, GetRead: true})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	for _, a := range remaining {
		if a.GUID == "deletable" {
			t.Error("Expected 'deletable' to be gone")
		}
	}
	if len(remaining) != 4 {
		t.Errorf("Expected 4 remaining articles, got: %d", len(remaining))
	}
}

func TestDeleteStaleMailingLists(t *testing.T) {
	db := newTestDB(t)
	list := createTestFeed(t, db, "news@example.com", true)
	rss := createTestFeed(t, db, "https://example.com/feed", false)
	articles := NewArticleRepository(db)

	insertTestArticle(t, articles, list.ID, "old-list", false, false, 100)
	insertTestArticle(t, articles, list.ID, "starred-list", false, true, 100)
	insertTestArticle(t, articles, rss.ID, "old-rss", false, false, 100)

	deleted, err := articles.DeleteStaleMailingLists(1_000_000)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted article, got: %d", deleted)
	}

	// RSS feed articles are untouched by the mailing list pruning.
	rssArticles, err := articles.List(ArticleFilter{FeedID: rss.ID, GetRead: true})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(rssArticles) != 1 {
		t.Errorf("Expected 1 rss article, got: %d", len(rssArticles))
	}
}

func TestNewestItemID(t *testing.T) {
	db := newTestDB(t)
	feed := createTestFeed(t, db, "https://example.com/feed", false)
	articles := NewArticleRepository(db)

	if id, err := articles.NewestItemID(); err != nil || id != 0 {
		t.Errorf("Expected 0 for empty database, got: %d (%v)", id, err)
	}

	var lastID int64
	for i := 0; i < 3; i++ {
		a := insertTestArticle(t, articles, feed.ID, fmt.Sprintf("a%d", i), true, false, 100)
		lastID = a.ID
	}

	id, err := articles.NewestItemID()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if id != lastID {
		t.Errorf("Expected newest item id %d, got: %d", lastID, id)
	}
}
