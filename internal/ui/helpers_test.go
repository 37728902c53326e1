package ui

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"thronemind/internal/models"
)

func TestGetAtPosition(t *testing.T) {
	tests := []struct {
		input  string
		cursor int
		prefix string
		start  int
		found  bool
	}{
		{"look at @pho", 12, "pho", 8, true},
		{"@", 1, "", 0, true},
		{"no mention here", 15, "", 0, false},
		{"@done and more", 14, "", 0, false},
		{"@a/b", 99, "a/b", 0, true},
	}
	for _, tt := range tests {
		prefix, start, found := GetAtPosition(tt.input, tt.cursor)
		if prefix != tt.prefix || start != tt.start || found != tt.found {
			t.Fatalf("GetAtPosition(%q, %d) = %q, %d, %v; want %q, %d, %v",
				tt.input, tt.cursor, prefix, start, found, tt.prefix, tt.start, tt.found)
		}
	}
}

func TestExtractImageMentions(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "receipt.png")
	if err := os.WriteFile(img, []byte("png"), 0o600); err != nil {
		t.Fatal(err)
	}
	doc := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(doc, []byte("txt"), 0o600); err != nil {
		t.Fatal(err)
	}

	clean, images := ExtractImageMentions("what is this @" + img + " please")
	if len(images) != 1 || images[0] != img {
		t.Fatalf("expected %s, got %v", img, images)
	}
	if clean != "what is this please" {
		t.Fatalf("unexpected clean text %q", clean)
	}

	// Non-images and missing files stay in the text.
	clean, images = ExtractImageMentions("@" + doc + " and @missing.png")
	if len(images) != 0 {
		t.Fatalf("expected no images, got %v", images)
	}
	if clean != "@"+doc+" and @missing.png" {
		t.Fatalf("unexpected clean text %q", clean)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("hello", 10); got != "hello" {
		t.Fatalf("got %q", got)
	}
	if got := TruncateRunes("merhaba dünya", 8); got != "merhaba…" {
		t.Fatalf("got %q", got)
	}
	if got := TruncateRunes("hello", 0); got != "" {
		t.Fatalf("got %q", got)
	}
	if got := TruncateRunes("hello", 1); got != "…" {
		t.Fatalf("got %q", got)
	}
}

func TestWrappedLineCount(t *testing.T) {
	if got := WrappedLineCount("", 10); got != 1 {
		t.Fatalf("empty: got %d", got)
	}
	if got := WrappedLineCount("abcdefghij", 10); got != 1 {
		t.Fatalf("exact width: got %d", got)
	}
	if got := WrappedLineCount("abcdefghijk\nx", 10); got != 3 {
		t.Fatalf("wrapped: got %d", got)
	}
}

func TestTextareaCursorFromIndex(t *testing.T) {
	value := "ab\nçde"
	row, col := TextareaCursorFromIndex(value, len("ab\nç"))
	if row != 1 || col != 1 {
		t.Fatalf("got row %d col %d", row, col)
	}
	if idx := cursorIndexFromRowCol(value, row, col); idx != len("ab\nç") {
		t.Fatalf("round trip index %d", idx)
	}
}

func TestDateSpan(t *testing.T) {
	tests := []struct {
		task models.TaskRef
		want string
	}{
		{models.TaskRef{StartDate: "2026-10-16", EndDate: "2026-10-20"}, "2026-10-16 → 2026-10-20"},
		{models.TaskRef{StartDate: "2026-10-16"}, "from 2026-10-16"},
		{models.TaskRef{EndDate: "2026-10-20"}, "until 2026-10-20"},
		{models.TaskRef{}, ""},
	}
	for _, tt := range tests {
		if got := dateSpan(tt.task); got != tt.want {
			t.Fatalf("dateSpan(%+v) = %q, want %q", tt.task, got, tt.want)
		}
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Now()
	if got := RelativeTime(now); got != "just now" {
		t.Fatalf("got %q", got)
	}
	if got := RelativeTime(now.Add(-3 * time.Hour)); got != "3 hrs ago" {
		t.Fatalf("got %q", got)
	}
	if got := RelativeTime(now.Add(-30 * 24 * time.Hour)); got != "4 weeks ago" {
		t.Fatalf("got %q", got)
	}
}
