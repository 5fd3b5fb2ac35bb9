package views

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/heyfriend/heyfriend/internal/tui/model"
	"github.com/heyfriend/heyfriend/internal/tui/ui"
	"github.com/rivo/tview"
)

// ConversationList is the main chat list view.
type ConversationList struct {
	*tview.Table
	theme  *ui.Theme
	rows   []model.Row
	tabs   []string
	active int
	search string
}

// NewConversationList creates a new conversation list table.
func NewConversationList(theme *ui.Theme) *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)

	cl := &ConversationList{Table: table}
	cl.ApplyTheme(theme)
	return cl
}

// Name implements Component.
func (cl *ConversationList) Name() string { return "Conversations" }

// ApplyTheme implements Themed.
func (cl *ConversationList) ApplyTheme(t *ui.Theme) {
	cl.theme = t
	cl.SetBorderColor(t.BorderColor)
	cl.SetBackgroundColor(t.BgColor)
	cl.SetTitleColor(t.TitleColor)
	cl.SetSelectedStyle(tcell.StyleDefault.
		Foreground(t.TableCursorFg).
		Background(t.TableCursorBg))
	cl.render()
}

// Update replaces the rows. tabs are the tab labels and active the index
// of the selected one.
func (cl *ConversationList) Update(rows []model.Row, tabs []string, active int, search string) {
	cl.rows = rows
	cl.tabs = tabs
	cl.active = active
	cl.search = search
	cl.render()
}

func (cl *ConversationList) render() {
	cl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" #", 0},
		{" NAME", 1},
		{" LAST MESSAGE", 2},
		{" TIME", 0},
		{" ", 0},
	}
	for col, h := range headers {
		cl.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetBackgroundColor(cl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	for i, r := range cl.rows {
		row := i + 1
		name := clean(r.Name)
		if r.Group {
			name += " [::d](group)[::-]"
		}
		previewColor := cl.theme.FgColor
		if r.Locked {
			previewColor = cl.theme.LockColor
		}
		cl.SetCell(row, 0, tview.NewTableCell(fmt.Sprintf(" %d", row)).SetTextColor(cl.theme.MutedColor))
		cl.SetCell(row, 1, tview.NewTableCell(" "+name).SetExpansion(1).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 2, tview.NewTableCell(" "+clean(r.Preview)).SetExpansion(2).SetTextColor(previewColor))
		cl.SetCell(row, 3, tview.NewTableCell(" "+r.Time).SetTextColor(cl.theme.MutedColor).SetAlign(tview.AlignRight))
		cl.SetCell(row, 4, tview.NewTableCell(badge(r.Badge)).SetTextColor(cl.theme.BadgeColor).SetAttributes(tcell.AttrBold))
	}

	cl.SetTitle(cl.title())
	if n := len(cl.rows); n > 0 {
		if sel, _ := cl.GetSelection(); sel < 1 || sel > n {
			cl.Select(1, 0)
		}
	}
}

func (cl *ConversationList) title() string {
	parts := make([]string, len(cl.tabs))
	for i, t := range cl.tabs {
		if i == cl.active {
			parts[i] = "[::bu]" + tview.Escape(t) + "[::-]"
		} else {
			parts[i] = tview.Escape(t)
		}
	}
	title := " " + strings.Join(parts, " | ") + " "
	if cl.search != "" {
		title += fmt.Sprintf("/%s ", tview.Escape(cl.search))
	}
	return title
}

func badge(b string) string {
	if b == "" {
		return ""
	}
	return " (" + b + ") "
}

// SelectedChat returns the ID of the selected conversation.
func (cl *ConversationList) SelectedChat() string {
	row, _ := cl.GetSelection()
	return cl.ChatByIndex(row)
}

// ChatByIndex returns the ID of the Nth visible conversation (1-based).
func (cl *ConversationList) ChatByIndex(n int) string {
	if n < 1 || n > len(cl.rows) {
		return ""
	}
	return cl.rows[n-1].ID
}
