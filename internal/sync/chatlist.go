package sync

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/heyfriend/heyfriend/internal/backend"
)

// Tab selects which conversations the list shows.
type Tab string

const (
	TabAll    Tab = "all"
	TabUnread Tab = "unread"
	TabGroups Tab = "groups"
)

var Tabs = []Tab{TabAll, TabUnread, TabGroups}

// FilterSummaries keeps summaries whose name contains search, ignoring
// case, and that belong to tab.
func FilterSummaries(summaries []backend.ConversationSummary, tab Tab, search string) []backend.ConversationSummary {
	search = strings.ToLower(search)
	out := make([]backend.ConversationSummary, 0, len(summaries))
	for _, s := range summaries {
		if !strings.Contains(strings.ToLower(s.Conversation.Name), search) {
			continue
		}
		switch tab {
		case TabUnread:
			if s.UnreadCount <= 0 {
				continue
			}
		case TabGroups:
			if !s.Conversation.IsGroup {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

// CountUnreadConversations returns how many summaries have unread messages.
func CountUnreadConversations(summaries []backend.ConversationSummary) int {
	n := 0
	for _, s := range summaries {
		if s.UnreadCount > 0 {
			n++
		}
	}
	return n
}

// UnreadBadge renders an unread count, capped at "99+". Zero renders empty.
func UnreadBadge(n int) string {
	switch {
	case n <= 0:
		return ""
	case n > 99:
		return "99+"
	}
	return strconv.Itoa(n)
}

// FormatTimestamp renders a list timestamp relative to now: clock time
// within a day, weekday within a week, month and day otherwise.
func FormatTimestamp(t, now time.Time) string {
	t = t.In(now.Location())
	age := now.Sub(t)
	switch {
	case age < 24*time.Hour:
		return t.Format("15:04")
	case age < 7*24*time.Hour:
		return t.Format("Mon")
	}
	return t.Format("Jan 2")
}

const previewLen = 35

// Preview is the second line of a list row.
func Preview(s backend.ConversationSummary, locked bool) string {
	switch {
	case locked:
		return "🔒 Messages are locked"
	case s.LastMessage == nil:
		return "No messages yet"
	}
	r := []rune(s.LastMessage.Content)
	if len(r) > previewLen {
		return string(r[:previewLen]) + "…"
	}
	return string(r)
}

// DisplayName is the conversation's name, or a placeholder when it has none.
func DisplayName(c backend.Conversation) string {
	if c.Name == "" {
		return "Unnamed"
	}
	return c.Name
}

// SenderLabel names the author of a group message by a short principal
// prefix. Messages from self carry no label.
func SenderLabel(sender, self backend.Principal) string {
	if sender == self {
		return ""
	}
	return "User " + sender.Short(6)
}

// Candidates prepares search results for the new-chat picker: the caller
// is removed and the rest sorted by display name, ignoring case.
func Candidates(results []backend.UserProfile, self backend.Principal) []backend.UserProfile {
	out := make([]backend.UserProfile, 0, len(results))
	for _, u := range results {
		if u.Principal != self {
			out = append(out, u)
		}
	}
	slices.SortStableFunc(out, func(a, b backend.UserProfile) int {
		return cmp.Compare(strings.ToLower(a.DisplayName), strings.ToLower(b.DisplayName))
	})
	return out
}
