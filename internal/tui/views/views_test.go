package views

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/heyfriend/heyfriend/internal/backend"
	"github.com/heyfriend/heyfriend/internal/overlay"
	hsync "github.com/heyfriend/heyfriend/internal/sync"
	"github.com/heyfriend/heyfriend/internal/tui/model"
	"github.com/heyfriend/heyfriend/internal/tui/ui"
)

func TestSanitizeForTerminal(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hello", "hello"},
		{"👍🏻", "👍"},
		{"❤️", "❤"},
		{"👨\u200d👩\u200d👧", "👨👩👧"},
	}
	for _, tt := range tests {
		if got := sanitizeForTerminal(tt.in); got != tt.want {
			t.Errorf("sanitizeForTerminal(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderThread(t *testing.T) {
	now := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)
	msgs := []backend.Message{
		{ID: "m1", Sender: "bob123456", Content: "hi [there]", MediaType: backend.MediaText, Timestamp: now.Add(-25 * time.Hour)},
		{ID: "m2", Sender: "me", Content: "photo.png", MediaType: backend.MediaImage, Status: backend.StatusRead, Timestamp: now.Add(-time.Hour),
			Media: backend.BlobFromURL("http://blobs.test/blobs/1")},
		{ID: "m3", Sender: "me", Content: "?", MediaType: "hologram", Timestamp: now},
	}
	groups := hsync.GroupByDay(msgs, now, hsync.LabelsFor(overlay.LangEnglish))
	reactions := map[string][]hsync.ReactionGroup{
		"m1": hsync.GroupReactions([]backend.Reaction{
			{MessageID: "m1", UserID: "me", Emoji: "👍"},
			{MessageID: "m1", UserID: "carol", Emoji: "👍"},
		}),
	}

	out := renderThread(groups, reactions, "me", true, "m2", ui.ThemeFor(overlay.ThemeLight))
	for _, want := range []string{
		"── Yesterday ──",
		"── Today ──",
		"User bob123",
		"hi [there[]",
		"👍 2*",
		"▶ ",
		"✓✓ read",
		"http://blobs.test/blobs/1",
		"unsupported message",
		`["m2"]`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("thread missing %q:\n%s", want, out)
		}
	}

	empty := renderThread(nil, nil, "me", false, "", ui.ThemeFor(overlay.ThemeDark))
	if !strings.Contains(empty, "No messages yet") {
		t.Errorf("empty thread = %q", empty)
	}
}

func TestMessageThreadSelection(t *testing.T) {
	mt := NewMessageThread(ui.ThemeFor(overlay.ThemeLight))
	mt.Open("c1", "Amina", false, "me")
	if mt.Selected() != nil {
		t.Fatal("selection before any messages")
	}

	now := time.Now()
	groups := hsync.GroupByDay([]backend.Message{
		{ID: "a", MediaType: backend.MediaText, Timestamp: now},
		{ID: "b", MediaType: backend.MediaText, Timestamp: now},
	}, now, hsync.LabelsFor(overlay.LangEnglish))
	mt.Update(groups, nil)

	mt.SelectPrev()
	if m := mt.Selected(); m == nil || m.ID != "b" {
		t.Fatalf("SelectPrev from none = %v, want b", m)
	}
	mt.SelectPrev()
	mt.SelectPrev()
	if m := mt.Selected(); m == nil || m.ID != "a" {
		t.Fatalf("SelectPrev at top = %v, want a", m)
	}

	mt.Update(groups, nil)
	if m := mt.Selected(); m == nil || m.ID != "a" {
		t.Errorf("selection lost on update: %v", m)
	}
	if got := strings.Join(mt.MessageIDs(), ","); got != "a,b" {
		t.Errorf("MessageIDs() = %s", got)
	}
}

func TestConversationListIndex(t *testing.T) {
	cl := NewConversationList(ui.ThemeFor(overlay.ThemeLight))
	cl.Update([]model.Row{{ID: "c1", Name: "Amina"}, {ID: "c2", Name: "Family", Group: true, Locked: true}},
		[]string{"All", "Unread", "Groups"}, 0, "")

	if got := cl.ChatByIndex(2); got != "c2" {
		t.Errorf("ChatByIndex(2) = %q, want c2", got)
	}
	if got := cl.ChatByIndex(3); got != "" {
		t.Errorf("ChatByIndex(3) = %q, want empty", got)
	}
	if got := cl.SelectedChat(); got != "c1" {
		t.Errorf("SelectedChat() = %q, want c1", got)
	}
}

func TestPinViewUnlocks(t *testing.T) {
	var opened, closed bool
	prompt := overlay.NewPinPrompt(func() { opened = true }, func() { closed = true })
	pv := NewPinView(ui.ThemeFor(overlay.ThemePink), "Family", prompt)

	for _, r := range "1299" {
		pv.HandleKey(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
	}
	if opened || !prompt.Failed() {
		t.Fatal("wrong PIN accepted")
	}
	if !strings.Contains(pv.GetText(true), "Wrong PIN") {
		t.Error("wrong PIN not reported")
	}

	for _, r := range overlay.DefaultPIN {
		pv.HandleKey(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
	}
	if !opened || !closed {
		t.Errorf("opened = %v, closed = %v; want both", opened, closed)
	}
}

func TestPinViewEscape(t *testing.T) {
	var opened, closed bool
	prompt := overlay.NewPinPrompt(func() { opened = true }, func() { closed = true })
	pv := NewPinView(ui.ThemeFor(overlay.ThemeLight), "Family", prompt)

	pv.HandleKey(tcell.NewEventKey(tcell.KeyRune, '1', tcell.ModNone))
	if !pv.HandleKey(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Fatal("Escape not consumed")
	}
	if opened || !closed {
		t.Errorf("opened = %v, closed = %v", opened, closed)
	}
	if pv.HandleKey(tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone)) {
		t.Error("Tab consumed")
	}
}

func TestReactionChips(t *testing.T) {
	groups := []hsync.ReactionGroup{
		{Emoji: "❤️", Count: 1, Users: []backend.Principal{"bob"}},
		{Emoji: "😂", Count: 2, Users: []backend.Principal{"bob", "me"}},
	}
	if got := reactionChips(groups, "me"); got != "❤ 1  😂 2*" {
		t.Errorf("reactionChips() = %q", got)
	}
}
