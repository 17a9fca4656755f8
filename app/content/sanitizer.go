package content

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	metaTagPattern   = regexp.MustCompile(`(?i)<meta[^>]*>`)
	hiddenDivPattern = regexp.MustCompile(`(?is)<div[^>]*style\s*=\s*["'][^"']*display:\s*none[^"']*["'][^>]*>.*?</div>`)
	trackingPattern  = regexp.MustCompile(`(?i)tracking|pixel`)
)

// SanitizeNewsletterHTML cleans up the markup soup that newsletter emails
// ship: meta tags, hidden preview text, tracking pixels and deeply nested
// layout tables. Layout tables are flattened to plain <div> wrappers so the
// text and inline content survive. When the HTML cannot be parsed at all, a
// regex-only cleanup pass is applied instead of failing the whole email.
func SanitizeNewsletterHTML(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return sanitizeWithRegex(html)
	}

	doc.Find("meta").Remove()

	// Hidden subtrees carry tracking previews, not content.
	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		if isHiddenStyle(style) {
			s.Remove()
		}
	})

	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		if isTrackingPixel(img) {
			img.Remove()
		}
	})

	flattenLayoutTables(doc)

	cleaned, err := doc.Find("body").Html()
	if err != nil {
		return sanitizeWithRegex(html)
	}

	return strings.TrimSpace(whitespacePattern.ReplaceAllString(cleaned, " "))
}

func sanitizeWithRegex(html string) string {
	cleaned := metaTagPattern.ReplaceAllString(html, "")
	cleaned = hiddenDivPattern.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(cleaned, " "))
}

func isHiddenStyle(style string) bool {
	compact := strings.ReplaceAll(strings.ToLower(style), " ", "")
	return strings.Contains(compact, "display:none")
}

func isTrackingPixel(img *goquery.Selection) bool {
	width, _ := img.Attr("width")
	height, _ := img.Attr("height")
	if width == "1" && height == "1" {
		return true
	}

	if style, ok := img.Attr("style"); ok && isHiddenStyle(style) {
		return true
	}

	src, _ := img.Attr("src")
	return trackingPattern.MatchString(src)
}

// flattenLayoutTables replaces tables used purely for layout (zero border,
// cellpadding and cellspacing) with <div> wrappers around their cell content.
// Innermost tables are flattened first so nested structures unwind pass by
// pass.
func flattenLayoutTables(doc *goquery.Document) {
	for range 20 {
		changed := false
		doc.Find("table").Each(func(_ int, table *goquery.Selection) {
			if table.Find("table").Length() > 0 {
				return
			}
			if !isLayoutTable(table) {
				return
			}

			var parts []string
			table.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
				inner, err := cell.Html()
				if err == nil && strings.TrimSpace(inner) != "" {
					parts = append(parts, "<div>"+inner+"</div>")
				}
			})

			table.ReplaceWithHtml(strings.Join(parts, ""))
			changed = true
		})
		if !changed {
			return
		}
	}
}

func isLayoutTable(table *goquery.Selection) bool {
	for _, attr := range []string{"border", "cellpadding", "cellspacing"} {
		if value, ok := table.Attr(attr); ok && value != "0" && value != "" {
			return false
		}
	}
	return true
}
