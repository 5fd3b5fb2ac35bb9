package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/heyfriend/heyfriend/internal/tui/model"
	"github.com/heyfriend/heyfriend/internal/tui/ui"
	"github.com/rivo/tview"
)

// ContactsView lists the caller's contacts and whether each may see status
// updates.
type ContactsView struct {
	*tview.Table
	theme *ui.Theme
	rows  []model.ContactRow
}

// NewContactsView creates a new contacts table.
func NewContactsView(theme *ui.Theme) *ContactsView {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)

	cv := &ContactsView{Table: table}
	cv.ApplyTheme(theme)
	return cv
}

// Name implements Component.
func (cv *ContactsView) Name() string { return "Contacts" }

// ApplyTheme implements Themed.
func (cv *ContactsView) ApplyTheme(t *ui.Theme) {
	cv.theme = t
	cv.SetBorderColor(t.BorderColor)
	cv.SetBackgroundColor(t.BgColor)
	cv.SetTitleColor(t.TitleColor)
	cv.SetSelectedStyle(tcell.StyleDefault.
		Foreground(t.TableCursorFg).
		Background(t.TableCursorBg))
	cv.render()
}

// Update replaces the contact rows.
func (cv *ContactsView) Update(rows []model.ContactRow) {
	cv.rows = rows
	cv.render()
}

func (cv *ContactsView) render() {
	cv.Clear()
	headers := []string{" NAME", " LABEL", " PHONE", " STATUS"}
	for col, h := range headers {
		cv.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetExpansion(1).
			SetTextColor(cv.theme.TableHeaderFg).
			SetBackgroundColor(cv.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold))
	}
	hidden := 0
	for i, c := range cv.rows {
		visibility, color := "visible", cv.theme.BadgeColor
		if c.Hidden {
			visibility, color = "hidden", cv.theme.MutedColor
			hidden++
		}
		cv.SetCell(i+1, 0, tview.NewTableCell(" "+clean(orDash(c.DisplayName))).SetExpansion(1).SetTextColor(cv.theme.FgColor))
		cv.SetCell(i+1, 1, tview.NewTableCell(" "+clean(orDash(c.ContactLabel))).SetExpansion(1).SetTextColor(cv.theme.FgColor))
		cv.SetCell(i+1, 2, tview.NewTableCell(" "+tview.Escape(c.PhoneNumber)).SetExpansion(1).SetTextColor(cv.theme.MutedColor))
		cv.SetCell(i+1, 3, tview.NewTableCell(" "+visibility).SetExpansion(1).SetTextColor(color))
	}
	cv.SetTitle(fmt.Sprintf(" Contacts (%d, %d hidden from status) ", len(cv.rows), hidden))
}

// SelectedPhone returns the phone number of the highlighted contact.
func (cv *ContactsView) SelectedPhone() string {
	row, _ := cv.GetSelection()
	idx := row - 1
	if idx < 0 || idx >= len(cv.rows) {
		return ""
	}
	return cv.rows[idx].PhoneNumber
}
