package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

// Menu displays keyboard shortcut hints on one line.
type Menu struct {
	*tview.TextView
	theme *Theme
	hints []MenuHint
}

// NewMenu creates a new menu hint bar.
func NewMenu(theme *Theme) *Menu {
	m := &Menu{TextView: tview.NewTextView().SetDynamicColors(true).SetWrap(false)}
	m.SetBorderPadding(0, 0, 1, 0)
	m.ApplyTheme(theme)
	return m
}

// ApplyTheme implements Themed.
func (m *Menu) ApplyTheme(t *Theme) {
	m.theme = t
	m.SetBackgroundColor(t.BgColor)
	m.SetTextColor(t.MutedColor)
	m.Update(m.hints)
}

// Update renders the hints.
func (m *Menu) Update(hints []MenuHint) {
	m.hints = hints
	m.Clear()

	keyColor := Tag(m.theme.MenuKeyColor)
	numColor := Tag(m.theme.NumericKeyColor)

	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		kc := keyColor
		if h.Numeric {
			kc = numColor
		}
		parts = append(parts, fmt.Sprintf("[%s::b]<%s>[-:-:-] %s", kc, tview.Escape(h.Key), h.Description))
	}
	_, _ = fmt.Fprint(m, strings.Join(parts, "  "))
}
