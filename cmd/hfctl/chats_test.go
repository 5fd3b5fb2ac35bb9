package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/heyfriend/heyfriend/internal/backend"
	"github.com/heyfriend/heyfriend/internal/overlay"
)

func TestUnlock(t *testing.T) {
	tests := []struct {
		pin  string
		want bool
	}{
		{overlay.DefaultPIN, true},
		{"0000", false},
		{"12", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := unlock(tt.pin); got != tt.want {
			t.Errorf("unlock(%q) = %v, want %v", tt.pin, got, tt.want)
		}
	}
}

func TestPrintThread(t *testing.T) {
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	msgs := []backend.Message{
		{ID: "m1", Sender: "bob123456", Content: "hello", MediaType: backend.MediaText, Timestamp: now.Add(-26 * time.Hour)},
		{ID: "m2", Sender: "me", Content: "cat.png", MediaType: backend.MediaImage, Timestamp: now.Add(-time.Minute)},
		{ID: "m3", Sender: "me", Content: "?", MediaType: "hologram", Timestamp: now},
	}

	var buf bytes.Buffer
	printThread(&buf, msgs, "me", now)
	out := buf.String()
	for _, want := range []string{
		"── Yesterday ──",
		"── Today ──",
		"User bob123",
		"hello  [m1]",
		"You",
		"[image cat.png] (unavailable)",
		"(unsupported message)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	printThread(&buf, nil, "me", now)
	if !strings.Contains(buf.String(), "No messages yet") {
		t.Errorf("empty thread = %q", buf.String())
	}
}
