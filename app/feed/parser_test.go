package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func serveFeed(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestParserRunRSS(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <image>
      <url>https://example.com/icon.png</url>
      <title>Test Feed</title>
      <link>https://example.com</link>
    </image>
    <item>
      <title>First</title>
      <link>https://example.com/item1</link>
      <description>Body of the first item</description>
      <guid>item-1</guid>
      <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
      <enclosure url="https://example.com/ep1.mp3" type="audio/mpeg" length="1024"/>
    </item>
    <item>
      <title>Second</title>
      <link>https://example.com/item2</link>
      <description><![CDATA[<p>Text</p><img src="https://example.com/thumb.png">]]></description>
    </item>
  </channel>
</rss>`

	server := serveFeed(t, rssData)
	parser := NewParser("test-agent", true)

	start := time.Now().Unix()
	parsed, err := parser.Run(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if parsed.Title != "Test Feed" {
		t.Errorf("Expected title 'Test Feed', got: %s", parsed.Title)
	}
	if parsed.FaviconLink != "https://example.com/icon.png" {
		t.Errorf("Expected favicon link, got: %s", parsed.FaviconLink)
	}
	if len(parsed.Articles) != 2 {
		t.Fatalf("Expected 2 articles, got: %d", len(parsed.Articles))
	}

	first := parsed.Articles[0]
	if first.GUID != "item-1" {
		t.Errorf("Expected GUID 'item-1', got: %s", first.GUID)
	}
	if first.GUIDHash == "" {
		t.Error("Expected GUID hash to be set")
	}
	if first.EnclosureLink != "https://example.com/ep1.mp3" {
		t.Errorf("Expected enclosure link, got: %s", first.EnclosureLink)
	}
	if first.EnclosureMime != "audio/mpeg" {
		t.Errorf("Expected enclosure mime, got: %s", first.EnclosureMime)
	}
	if first.PubDate != 1688378400 {
		t.Errorf("Expected pub date 1688378400, got: %d", first.PubDate)
	}
	if first.UpdatedDate < start {
		t.Errorf("Expected updated date to default to the parse time for an item without one, got: %d",
			first.UpdatedDate)
	}
	if !first.Unread {
		t.Error("Expected new article to be unread")
	}

	second := parsed.Articles[1]
	if second.GUID != "https://example.com/item2" {
		t.Errorf("Expected GUID to fall back to link, got: %s", second.GUID)
	}
	if second.MediaThumbnail != "https://example.com/thumb.png" {
		t.Errorf("Expected thumbnail from content, got: %s", second.MediaThumbnail)
	}
	if second.PubDate == 0 {
		t.Error("Expected pub date fallback for dateless item")
	}
}

func TestParserRunAtom(t *testing.T) {
	atomData := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Feed</title>
  <link href="https://example.com/"/>
  <updated>2023-07-03T12:00:00Z</updated>
  <entry>
    <title>Entry</title>
    <link href="https://example.com/entry1"/>
    <id>urn:uuid:entry-1</id>
    <updated>2023-07-03T11:00:00Z</updated>
    <content type="html">&lt;p&gt;Entry content&lt;/p&gt;</content>
  </entry>
</feed>`

	server := serveFeed(t, atomData)
	parser := NewParser("test-agent", true)

	parsed, err := parser.Run(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(parsed.Articles) != 1 {
		t.Fatalf("Expected 1 article, got: %d", len(parsed.Articles))
	}

	article := parsed.Articles[0]
	if article.GUID != "urn:uuid:entry-1" {
		t.Errorf("Expected GUID 'urn:uuid:entry-1', got: %s", article.GUID)
	}
	if article.PubDate != article.UpdatedDate {
		t.Errorf("Expected pub date to fall back to updated date, got %d and %d",
			article.PubDate, article.UpdatedDate)
	}
}

func TestParserRunSkipsEntriesWithoutIdentifier(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <item>
      <description>No id, link or title</description>
    </item>
    <item>
      <title>Title only</title>
    </item>
  </channel>
</rss>`

	server := serveFeed(t, rssData)
	parser := NewParser("test-agent", true)

	parsed, err := parser.Run(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(parsed.Articles) != 1 {
		t.Fatalf("Expected 1 article, got: %d", len(parsed.Articles))
	}
	if parsed.Articles[0].GUID != "Title only" {
		t.Errorf("Expected GUID to fall back to title, got: %s", parsed.Articles[0].GUID)
	}
}

func TestParserRunRejectsInternalURLs(t *testing.T) {
	parser := NewParser("test-agent", false)

	if _, err := parser.Run(context.Background(), "http://127.0.0.1:8000/feed"); err == nil {
		t.Error("Expected error for internal URL")
	}
}

func TestParserRunInvalidContent(t *testing.T) {
	server := serveFeed(t, "this is not a feed")
	parser := NewParser("test-agent", true)

	_, err := parser.Run(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Expected parse error")
	}

	var parseErr *ParsingError
	if !errors.As(err, &parseErr) {
		t.Errorf("Expected ParsingError, got: %T", err)
	}
}
