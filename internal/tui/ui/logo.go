package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// Logo displays a compact ASCII art logo.
type Logo struct {
	*tview.TextView
	theme *Theme
}

// NewLogo creates a new logo component.
func NewLogo(theme *Theme) *Logo {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBorderPadding(0, 0, 1, 0)

	l := &Logo{TextView: tv}
	l.ApplyTheme(theme)
	return l
}

// ApplyTheme implements Themed.
func (l *Logo) ApplyTheme(t *Theme) {
	l.theme = t
	l.SetBackgroundColor(t.BgColor)
	l.render()
}

func (l *Logo) render() {
	l.Clear()
	title := Tag(l.theme.TitleColor)
	muted := Tag(l.theme.MutedColor)
	_, _ = fmt.Fprintf(l,
		"[%s::b]╻ ╻┏━╸╻ ╻[-:-:-]\n"+
			"[%s::b]┣━┫┣╸ ┗┳┛[-:-:-]\n"+
			"[%s::b]╹ ╹┗━╸ ╹ [-:-:-][%s]friend[-]",
		title, title, title, muted,
	)
}
