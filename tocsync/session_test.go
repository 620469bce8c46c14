package tocsync

import (
	"strings"
	"testing"
)

func TestPageURL(t *testing.T) {
	got, err := PageURL(PageConfig{URL: "https://example.com/docs#intro"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "https://example.com/docs#intro" {
		t.Errorf("url: got %q", got)
	}

	got, err = PageURL(PageConfig{File: "/tmp/guide.html"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "file:///tmp/guide.html" {
		t.Errorf("file: got %q, want file:///tmp/guide.html", got)
	}

	if _, err := PageURL(PageConfig{URL: "example.com"}); err == nil {
		t.Error("relative url: got nil error")
	}
	if _, err := PageURL(PageConfig{}); err == nil || !strings.Contains(err.Error(), "no page") {
		t.Errorf("empty: got %v", err)
	}
}

func TestOrigin(t *testing.T) {
	tests := []struct{ in, want string }{
		{"https://example.com/a/b?c=1", "https://example.com"},
		{"http://localhost:8080/", "http://localhost:8080"},
		{"file:///tmp/guide.html", "file://"},
	}
	for _, tt := range tests {
		if got := Origin(tt.in); got != tt.want {
			t.Errorf("Origin(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}
