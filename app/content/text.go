package content

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ShortSummaryLength is the length below which an article body is short
// enough to serve as its own summary.
const ShortSummaryLength = 160

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	imgSrcPattern     = regexp.MustCompile(`(?i)<img[^>]+src\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	htmlPattern       = regexp.MustCompile(`(?i)<\s*[a-z!/]`)
)

// StripHTML replaces all markup tags with spaces.
func StripHTML(text string) string {
	return tagPattern.ReplaceAllString(text, " ")
}

// NormalizeText strips markup, collapses whitespace and lowercases, producing
// the canonical form that content hashes are computed over.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}
	collapsed := whitespacePattern.ReplaceAllString(StripHTML(text), " ")
	return strings.ToLower(strings.TrimSpace(collapsed))
}

// ExtractFirstImageURL scans HTML content for the first <img> src attribute,
// single or double quoted. Returns "" when there is none.
func ExtractFirstImageURL(html string) string {
	if html == "" {
		return ""
	}
	match := imgSrcPattern.FindStringSubmatch(html)
	if match == nil {
		return ""
	}
	if match[1] != "" {
		return match[1]
	}
	return match[2]
}

// LooksLikeHTML reports whether a text body contains markup.
func LooksLikeHTML(text string) bool {
	return htmlPattern.MatchString(text)
}

// PlainText strips markup and collapses whitespace without lowercasing,
// yielding readable text suitable for summaries.
func PlainText(html string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(StripHTML(html), " "))
}

// FallbackSummary derives a short description from an article body when no
// better summary is available: short content is used verbatim, longer content
// is truncated.
func FallbackSummary(contentHTML string) string {
	text := PlainText(contentHTML)
	if utf8.RuneCountInString(text) < ShortSummaryLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:ShortSummaryLength]) + "…"
}
