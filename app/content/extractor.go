package content

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
)

// Extractor downloads an article page and pulls its readable full text.
// Every fetch goes through the SSRF validator first.
type Extractor struct {
	httpClient *http.Client
	userAgent  string
	allowLocal bool
}

func NewExtractor(httpClient *http.Client, userAgent string, allowLocal bool) *Extractor {
	return &Extractor{
		httpClient: httpClient,
		userAgent:  userAgent,
		allowLocal: allowLocal,
	}
}

// Run fetches the given article URL and returns its extracted content as
// HTML, or as plain text when textOnly is set. Returns "" without error when
// nothing useful could be extracted.
func (e *Extractor) Run(ctx context.Context, articleURL string, textOnly bool) (string, error) {
	if articleURL == "" {
		return "", nil
	}

	if err := ValidateURL(articleURL, e.allowLocal); err != nil {
		return "", err
	}

	data, err := e.fetch(ctx, articleURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch article page: %w", err)
	}

	parsedURL, _ := url.Parse(articleURL)
	article, err := readability.FromReader(strings.NewReader(string(data)), parsedURL)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	extracted := article.Content
	if textOnly {
		extracted = article.TextContent
	}
	extracted = strings.TrimSpace(extracted)

	if extracted == "" {
		return "", nil
	}

	slog.Debug("Content extracted successfully",
		"url", articleURL,
		"content_length", len(extracted))

	return extracted, nil
}

func (e *Extractor) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
