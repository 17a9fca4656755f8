package content

import (
	"testing"
)

func TestGUIDHashIsStable(t *testing.T) {
	a := GUIDHash("https://example.com/article-1")
	b := GUIDHash("https://example.com/article-1")

	if a != b {
		t.Errorf("Expected identical hashes, got %s and %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("Expected 64 hex characters, got: %d", len(a))
	}
}

func TestContentHashIgnoresMarkupAndCase(t *testing.T) {
	a := ContentHash("<p>Hello <b>World</b></p>")
	b := ContentHash("hello   world")

	if a != b {
		t.Error("Expected content hashes to match after normalization")
	}
}

func TestFingerprintChangesWithEachInput(t *testing.T) {
	base := Fingerprint("content", "title", "url")

	if Fingerprint("other", "title", "url") == base {
		t.Error("Expected fingerprint to change with content")
	}
	if Fingerprint("content", "other", "url") == base {
		t.Error("Expected fingerprint to change with title")
	}
	if Fingerprint("content", "title", "other") == base {
		t.Error("Expected fingerprint to change with url")
	}
}
