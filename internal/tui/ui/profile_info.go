package ui

import (
	"fmt"

	"github.com/heyfriend/heyfriend/internal/status"
	"github.com/rivo/tview"
)

// ProfileData is the header summary of the signed-in profile.
type ProfileData struct {
	Profile       string
	DisplayName   string
	Phone         string
	State         status.State
	Conversations int
	Unread        int
}

// ProfileInfo displays profile metadata in the header.
type ProfileInfo struct {
	*tview.TextView
	theme *Theme
	data  *ProfileData
}

// NewProfileInfo creates a new profile info panel.
func NewProfileInfo(theme *Theme) *ProfileInfo {
	pi := &ProfileInfo{TextView: tview.NewTextView().SetDynamicColors(true)}
	pi.SetBorderPadding(0, 0, 1, 1)
	pi.ApplyTheme(theme)
	return pi
}

// ApplyTheme implements Themed.
func (pi *ProfileInfo) ApplyTheme(t *Theme) {
	pi.theme = t
	pi.SetBackgroundColor(t.BgColor)
	pi.Update(pi.data)
}

// Update renders the profile info.
func (pi *ProfileInfo) Update(data *ProfileData) {
	pi.data = data
	pi.Clear()
	if data == nil {
		return
	}

	fg := Tag(pi.theme.FgColor)
	counter := Tag(pi.theme.CounterColor)

	name := orDash(data.DisplayName)
	phone := orDash(data.Phone)

	_, _ = fmt.Fprintf(pi,
		"[%s::b]Profile:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]Name:[-:-:-]    [%s]%s[-]\n"+
			"[%s::b]Phone:[-:-:-]   [%s]%s[-]\n"+
			"[%s::b]Chats:[-:-:-]   [%s]%d[-] [%s::b]Unread:[-:-:-] [%s]%d[-]",
		fg, counter, tview.Escape(data.Profile),
		fg, counter, tview.Escape(name),
		fg, counter, tview.Escape(phone),
		fg, counter, data.Conversations, fg, counter, data.Unread,
	)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
