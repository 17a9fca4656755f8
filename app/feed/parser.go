package feed

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/paulstaab/headless-rss/app/content"
	"github.com/paulstaab/headless-rss/app/database"
)

const fetchTimeout = 30 * time.Second

type Parser struct {
	httpClient   *http.Client
	gofeedParser *gofeed.Parser
	userAgent    string
	allowLocal   bool
}

// ParsedFeed is the normalized result of one fetch: feed metadata plus its
// entries converted to articles. Article FeedID is left unset until the
// caller knows which feed row the entries belong to.
type ParsedFeed struct {
	Title       string
	Link        string
	FaviconLink string
	Articles    []database.Article
}

func NewParser(userAgent string, allowLocal bool) *Parser {
	return &Parser{
		httpClient:   &http.Client{Timeout: fetchTimeout},
		gofeedParser: gofeed.NewParser(),
		userAgent:    userAgent,
		allowLocal:   allowLocal,
	}
}

// Run fetches and parses a feed URL. The URL is validated against internal
// address ranges before any network access happens.
func (p *Parser) Run(ctx context.Context, feedURL string) (*ParsedFeed, error) {
	if err := content.ValidateURL(feedURL, p.allowLocal); err != nil {
		return nil, err
	}

	data, err := p.fetch(ctx, feedURL)
	if err != nil {
		return nil, &ParsingError{URL: feedURL, Err: err}
	}

	parsed, err := p.gofeedParser.ParseString(string(data))
	if err != nil {
		return nil, &ParsingError{URL: feedURL, Err: err}
	}

	result := &ParsedFeed{
		Title: cmp.Or(parsed.Title, feedURL),
		Link:  parsed.Link,
	}

	if parsed.Image != nil {
		result.FaviconLink = parsed.Image.URL
	}

	now := time.Now().Unix()
	result.Articles = make([]database.Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		article, err := p.normalizeItem(item, now)
		if err != nil {
			slog.Warn("Skipping feed entry", "feed_url", feedURL, "error", err)
			continue
		}
		result.Articles = append(result.Articles, article)
	}

	return result, nil
}

func (p *Parser) fetch(ctx context.Context, feedURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item, now int64) (database.Article, error) {
	guid := cmp.Or(item.GUID, item.Link, item.Title)
	if guid == "" {
		return database.Article{}, errMissingIdentifier
	}

	body := cmp.Or(item.Content, item.Description)

	article := database.Article{
		Title:            item.Title,
		Author:           extractAuthor(item),
		Content:          body,
		GUID:             guid,
		GUIDHash:         content.GUIDHash(guid),
		URL:              item.Link,
		ContentHash:      content.ContentHash(body),
		Fingerprint:      content.Fingerprint(body, item.Title, item.Link),
		MediaThumbnail:   extractThumbnail(item, body),
		MediaDescription: extractMediaDescription(item),
		PubDate:          now,
		UpdatedDate:      now,
		LastModified:     now,
		Unread:           true,
	}

	if item.PublishedParsed != nil {
		article.PubDate = item.PublishedParsed.Unix()
	} else if item.UpdatedParsed != nil {
		article.PubDate = item.UpdatedParsed.Unix()
	}

	// updated_date stays at "now" when the source omits it; pub_date is the
	// one that falls back to the update timestamp.
	if item.UpdatedParsed != nil {
		article.UpdatedDate = item.UpdatedParsed.Unix()
	}

	// RSS 2.0 allows only one enclosure per item, so only the first is kept.
	if len(item.Enclosures) > 0 && item.Enclosures[0] != nil {
		article.EnclosureLink = item.Enclosures[0].URL
		article.EnclosureMime = item.Enclosures[0].Type
	}

	return article, nil
}

func extractAuthor(item *gofeed.Item) string {
	var names []string
	for _, author := range item.Authors {
		if author == nil {
			continue
		}
		name := strings.TrimSpace(cmp.Or(author.Name, author.Email))
		if name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

// extractThumbnail prefers explicit metadata (item image, media:thumbnail
// extension) and falls back to the first inline image in the content.
func extractThumbnail(item *gofeed.Item, body string) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}

	if media, ok := item.Extensions["media"]; ok {
		for _, ext := range media["thumbnail"] {
			if url := ext.Attrs["url"]; url != "" {
				return url
			}
		}
		for _, ext := range media["content"] {
			if url := ext.Attrs["url"]; url != "" && strings.HasPrefix(ext.Attrs["type"], "image/") {
				return url
			}
		}
	}

	return content.ExtractFirstImageURL(body)
}

func extractMediaDescription(item *gofeed.Item) string {
	if media, ok := item.Extensions["media"]; ok {
		for _, ext := range media["description"] {
			if ext.Value != "" {
				return ext.Value
			}
		}
	}
	return ""
}
