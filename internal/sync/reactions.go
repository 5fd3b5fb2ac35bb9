package sync

import "github.com/heyfriend/heyfriend/internal/backend"

// QuickReactions are offered by the reaction picker, in this order.
var QuickReactions = []string{"👍", "❤️", "😂", "😮", "😢", "🙏"}

// ReactionGroup is every reaction on a message with one emoji.
type ReactionGroup struct {
	Emoji string
	Count int
	Users []backend.Principal
}

// By reports whether user is among the reactors.
func (g ReactionGroup) By(user backend.Principal) bool {
	for _, u := range g.Users {
		if u == user {
			return true
		}
	}
	return false
}

// GroupReactions groups reactions by emoji in first-seen order. A user
// reacting twice with the same emoji is counted twice.
func GroupReactions(rs []backend.Reaction) []ReactionGroup {
	var groups []ReactionGroup
	index := make(map[string]int)
	for _, r := range rs {
		i, ok := index[r.Emoji]
		if !ok {
			i = len(groups)
			index[r.Emoji] = i
			groups = append(groups, ReactionGroup{Emoji: r.Emoji})
		}
		groups[i].Count++
		groups[i].Users = append(groups[i].Users, r.UserID)
	}
	return groups
}

// OwnReaction returns the caller's reaction with emoji, for removal.
func OwnReaction(rs []backend.Reaction, self backend.Principal, emoji string) (backend.Reaction, bool) {
	for _, r := range rs {
		if r.UserID == self && r.Emoji == emoji {
			return r, true
		}
	}
	return backend.Reaction{}, false
}

// LastOwnReaction returns the caller's most recent reaction of any emoji.
func LastOwnReaction(rs []backend.Reaction, self backend.Principal) (backend.Reaction, bool) {
	for i := len(rs) - 1; i >= 0; i-- {
		if rs[i].UserID == self {
			return rs[i], true
		}
	}
	return backend.Reaction{}, false
}
