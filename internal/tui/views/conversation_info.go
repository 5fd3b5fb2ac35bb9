package views

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/heyfriend/heyfriend/internal/backend"
	hsync "github.com/heyfriend/heyfriend/internal/sync"
	"github.com/heyfriend/heyfriend/internal/tui/ui"
	"github.com/rivo/tview"
)

// ConversationInfo displays detailed information about a conversation.
type ConversationInfo struct {
	*tview.TextView
	theme  *ui.Theme
	conv   *backend.Conversation
	self   backend.Principal
	locked bool
}

// NewConversationInfo creates a new conversation info view.
func NewConversationInfo(theme *ui.Theme) *ConversationInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetTitle(" Conversation Details ")

	ci := &ConversationInfo{TextView: tv}
	ci.ApplyTheme(theme)
	return ci
}

// Name implements Component.
func (ci *ConversationInfo) Name() string { return "Details" }

// ApplyTheme implements Themed.
func (ci *ConversationInfo) ApplyTheme(t *ui.Theme) {
	ci.theme = t
	ci.SetBorderColor(t.BorderColor)
	ci.SetBackgroundColor(t.BgColor)
	ci.SetTextColor(t.FgColor)
	ci.SetTitleColor(t.TitleColor)
	ci.render()
}

// Update renders conversation details.
func (ci *ConversationInfo) Update(conv *backend.Conversation, self backend.Principal, locked bool) {
	ci.conv = conv
	ci.self = self
	ci.locked = locked
	ci.render()
}

func (ci *ConversationInfo) render() {
	ci.Clear()
	c := ci.conv
	if c == nil {
		return
	}
	fg := ui.Tag(ci.theme.FgColor)
	ct := ui.Tag(ci.theme.CounterColor)

	kind := "Direct Message"
	if c.IsGroup {
		kind = "Group"
	}
	lock := "No"
	if ci.locked {
		lock = "Yes (PIN required)"
	}
	members := make([]string, len(c.Members))
	for i, m := range c.Members {
		if m == ci.self {
			members[i] = "You"
		} else {
			members[i] = m.Short(12)
		}
	}

	name := hsync.DisplayName(*c)
	_, _ = fmt.Fprintf(ci,
		"\n [%s::b]Name:[-:-:-]        [%s]%s[-]\n"+
			" [%s::b]Description:[-:-:-] [%s]%s[-]\n"+
			" [%s::b]Type:[-:-:-]        [%s]%s[-]\n"+
			" [%s::b]Created:[-:-:-]     [%s]%s[-]\n"+
			" [%s::b]Locked:[-:-:-]      [%s]%s[-]\n"+
			" [%s::b]Members:[-:-:-]     [%s]%s[-]\n"+
			" [%s::b]ID:[-:-:-]          [%s]%s[-]",
		fg, ct, clean(name),
		fg, ct, clean(orDash(c.Description)),
		fg, ct, kind,
		fg, ct, humanize.Time(c.CreatedAt),
		fg, ct, lock,
		fg, ct, tview.Escape(strings.Join(members, ", ")),
		fg, ct, tview.Escape(c.ID),
	)
	ci.SetTitle(fmt.Sprintf(" %s Details ", clean(name)))
}
