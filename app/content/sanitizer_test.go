package content

import (
	"strings"
	"testing"
)

func TestSanitizeNewsletterHTMLRemovesMeta(t *testing.T) {
	html := `<meta charset="utf-8"><p>Newsletter content</p>`

	got := SanitizeNewsletterHTML(html)
	if strings.Contains(got, "<meta") {
		t.Errorf("Expected meta tags to be removed, got: %q", got)
	}
	if !strings.Contains(got, "Newsletter content") {
		t.Errorf("Expected content to survive, got: %q", got)
	}
}

func TestSanitizeNewsletterHTMLRemovesHiddenSubtrees(t *testing.T) {
	html := `<div style="display: none">Preview text for inboxes</div><p>Visible</p>`

	got := SanitizeNewsletterHTML(html)
	if strings.Contains(got, "Preview text") {
		t.Errorf("Expected hidden subtree to be removed, got: %q", got)
	}
	if !strings.Contains(got, "Visible") {
		t.Errorf("Expected visible content to survive, got: %q", got)
	}
}

func TestSanitizeNewsletterHTMLRemovesTrackingPixels(t *testing.T) {
	html := `<img width="1" height="1" src="https://example.com/open.gif">` +
		`<img src="https://cdn.example.com/tracking/open.png">` +
		`<img src="https://example.com/photo.jpg" alt="photo">` +
		`<p>Body</p>`

	got := SanitizeNewsletterHTML(html)
	if strings.Contains(got, "open.gif") {
		t.Errorf("Expected 1x1 pixel to be removed, got: %q", got)
	}
	if strings.Contains(got, "tracking") {
		t.Errorf("Expected tracking image to be removed, got: %q", got)
	}
	if !strings.Contains(got, "photo.jpg") {
		t.Errorf("Expected regular image to survive, got: %q", got)
	}
}

func TestSanitizeNewsletterHTMLFlattensLayoutTables(t *testing.T) {
	html := `<table border="0" cellpadding="0" cellspacing="0">
		<tr><td><table><tr><td><p>Story one</p></td></tr></table></td></tr>
		<tr><td><p>Story two</p></td></tr>
	</table>`

	got := SanitizeNewsletterHTML(html)
	if strings.Contains(got, "<table") {
		t.Errorf("Expected layout tables to be flattened, got: %q", got)
	}
	if !strings.Contains(got, "Story one") || !strings.Contains(got, "Story two") {
		t.Errorf("Expected cell content to survive, got: %q", got)
	}
	if !strings.Contains(got, "<div>") {
		t.Errorf("Expected div wrappers, got: %q", got)
	}
}

func TestSanitizeNewsletterHTMLKeepsDataTables(t *testing.T) {
	html := `<table border="1"><tr><th>Name</th></tr><tr><td>Value</td></tr></table>`

	got := SanitizeNewsletterHTML(html)
	if !strings.Contains(got, "<table") {
		t.Errorf("Expected bordered table to be kept, got: %q", got)
	}
}

func TestSanitizeNewsletterHTMLCollapsesWhitespace(t *testing.T) {
	got := SanitizeNewsletterHTML("<p>too     many\n\n\nspaces</p>")
	if strings.Contains(got, "  ") {
		t.Errorf("Expected whitespace runs to be collapsed, got: %q", got)
	}
}

func TestSanitizeNewsletterHTMLEmptyInput(t *testing.T) {
	if got := SanitizeNewsletterHTML("   "); got != "" {
		t.Errorf("Expected empty result, got: %q", got)
	}
}
