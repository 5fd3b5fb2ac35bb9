package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/heyfriend/heyfriend/internal/status"
	"github.com/rivo/tview"
)

// Crumbs is a breadcrumb bar showing the navigation path and the session
// state.
type Crumbs struct {
	*tview.TextView
	theme *Theme
	stack []string
	state status.State
}

// NewCrumbs creates a new breadcrumb bar.
func NewCrumbs(theme *Theme) *Crumbs {
	c := &Crumbs{TextView: tview.NewTextView().SetDynamicColors(true)}
	c.ApplyTheme(theme)
	return c
}

// ApplyTheme implements Themed.
func (c *Crumbs) ApplyTheme(t *Theme) {
	c.theme = t
	c.SetBackgroundColor(t.BgColor)
	c.render()
}

// Update renders the breadcrumb trail from the page stack.
func (c *Crumbs) Update(stack []string) {
	c.stack = stack
	c.render()
}

// SetState shows the session state after the trail.
func (c *Crumbs) SetState(s status.State) {
	c.state = s
	c.render()
}

func (c *Crumbs) render() {
	c.Clear()
	var parts []string
	for i, name := range c.stack {
		fg, bg := c.theme.CrumbInactiveFg, c.theme.CrumbInactiveBg
		attr := ""
		if i == len(c.stack)-1 {
			fg, bg, attr = c.theme.CrumbActiveFg, c.theme.CrumbActiveBg, "b"
		}
		parts = append(parts, fmt.Sprintf("[%s:%s:%s] %s [-:-:-]", Tag(fg), Tag(bg), attr, tview.Escape(name)))
	}
	line := strings.Join(parts, " > ")
	if c.state != "" {
		line += fmt.Sprintf("  [%s]%s[-]", Tag(stateColor(c.theme, c.state)), c.state)
	}
	_, _ = fmt.Fprint(c, line)
}

func stateColor(t *Theme, s status.State) tcell.Color {
	switch s {
	case status.Ready:
		return t.BadgeColor
	case status.Degraded, status.AuthRequired:
		return t.FlashWarnColor
	case status.Error:
		return t.FlashErrColor
	}
	return t.MutedColor
}

// Tag returns a tview-compatible color name string.
func Tag(c tcell.Color) string {
	for name, val := range tcell.ColorNames {
		if val == c {
			return name
		}
	}
	return fmt.Sprintf("#%06x", c.Hex())
}
