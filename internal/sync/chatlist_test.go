package sync

import (
	"strings"
	"testing"
	"time"

	"github.com/heyfriend/heyfriend/internal/backend"
)

func summary(id, name string, group bool, unread int) backend.ConversationSummary {
	return backend.ConversationSummary{
		Conversation: backend.Conversation{ID: id, Name: name, IsGroup: group},
		UnreadCount:  unread,
	}
}

func ids(ss []backend.ConversationSummary) string {
	var out []string
	for _, s := range ss {
		out = append(out, s.Conversation.ID)
	}
	return strings.Join(out, ",")
}

func TestFilterSummaries(t *testing.T) {
	all := []backend.ConversationSummary{
		summary("a", "Family", true, 3),
		summary("b", "Bob", false, 0),
		summary("c", "Work Friends", true, 0),
		summary("d", "Fatuma", false, 1),
	}
	tests := []struct {
		tab    Tab
		search string
		want   string
	}{
		{TabAll, "", "a,b,c,d"},
		{TabUnread, "", "a,d"},
		{TabGroups, "", "a,c"},
		{TabAll, "fa", "a,d"},
		{TabGroups, "FRIEND", "c"},
		{TabUnread, "bob", ""},
	}
	for _, tt := range tests {
		if got := ids(FilterSummaries(all, tt.tab, tt.search)); got != tt.want {
			t.Errorf("FilterSummaries(%s, %q) = %q, want %q", tt.tab, tt.search, got, tt.want)
		}
	}
	if n := CountUnreadConversations(all); n != 2 {
		t.Errorf("CountUnreadConversations() = %d, want 2", n)
	}
}

func TestUnreadBadge(t *testing.T) {
	tests := map[int]string{0: "", 1: "1", 99: "99", 100: "99+", 250: "99+"}
	for n, want := range tests {
		if got := UnreadBadge(n); got != want {
			t.Errorf("UnreadBadge(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	now := time.Date(2026, 5, 14, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		at   time.Time
		want string
	}{
		{now.Add(-2 * time.Hour), "07:30"},
		{now.Add(-23 * time.Hour), "10:30"},
		{now.Add(-3 * 24 * time.Hour), "Mon"},
		{now.Add(-10 * 24 * time.Hour), "May 4"},
	}
	for _, tt := range tests {
		if got := FormatTimestamp(tt.at, now); got != tt.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.at, got, tt.want)
		}
	}
}

func TestPreview(t *testing.T) {
	s := summary("a", "", false, 0)
	if got := Preview(s, false); got != "No messages yet" {
		t.Errorf("empty preview = %q", got)
	}
	s.LastMessage = &backend.Message{Content: strings.Repeat("x", 40)}
	if got := Preview(s, false); got != strings.Repeat("x", 35)+"…" {
		t.Errorf("long preview = %q", got)
	}
	if got := Preview(s, true); got != "🔒 Messages are locked" {
		t.Errorf("locked preview = %q", got)
	}
	if got := DisplayName(s.Conversation); got != "Unnamed" {
		t.Errorf("DisplayName() = %q, want Unnamed", got)
	}
}

func TestSenderLabel(t *testing.T) {
	if got := SenderLabel("hf-1234abcd", "hf-me"); got != "User hf-123" {
		t.Errorf("SenderLabel() = %q, want %q", got, "User hf-123")
	}
	if got := SenderLabel("hf-me", "hf-me"); got != "" {
		t.Errorf("own SenderLabel() = %q, want empty", got)
	}
}

func TestCandidates(t *testing.T) {
	results := []backend.UserProfile{
		{Principal: "p3", DisplayName: "zawadi"},
		{Principal: "me", DisplayName: "Me"},
		{Principal: "p1", DisplayName: "Amina"},
		{Principal: "p2", DisplayName: "baraka"},
	}
	got := Candidates(results, "me")
	var names []string
	for _, u := range got {
		names = append(names, u.DisplayName)
	}
	if strings.Join(names, ",") != "Amina,baraka,zawadi" {
		t.Errorf("Candidates() = %v", names)
	}
}
