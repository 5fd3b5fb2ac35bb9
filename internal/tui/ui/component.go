package ui

import "github.com/rivo/tview"

// MenuHint describes a keyboard shortcut for display in the menu bar.
type MenuHint struct {
	Key         string
	Description string
	Numeric     bool // true for 0-9 shortcuts (displayed in a different color)
}

// Component is a page the app can push. Name labels its breadcrumb.
type Component interface {
	tview.Primitive
	Name() string
}

// Themed is implemented by components that can repaint in a new palette.
type Themed interface {
	ApplyTheme(t *Theme)
}
