package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/heyfriend/heyfriend/internal/backend"
	"github.com/heyfriend/heyfriend/internal/tui/ui"
	"github.com/rivo/tview"
)

// SearchView finds people by name or phone number to start a chat with.
type SearchView struct {
	*tview.Flex
	theme   *ui.Theme
	input   *tview.InputField
	results *tview.Table
	onQuery func(query string)
	data    []backend.UserProfile
	term    string
}

// NewSearchView creates a new search view.
func NewSearchView(theme *ui.Theme) *SearchView {
	input := tview.NewInputField().
		SetLabel(" Find: ").
		SetFieldWidth(0).
		SetPlaceholder("name or phone number")

	results := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	results.SetBorder(true)
	results.SetTitle(" People ")

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(input, 1, 0, true).
		AddItem(results, 0, 1, false)

	sv := &SearchView{
		Flex:    flex,
		input:   input,
		results: results,
	}
	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && sv.onQuery != nil {
			sv.onQuery(sv.input.GetText())
		}
	})
	sv.ApplyTheme(theme)
	return sv
}

// Name implements Component.
func (sv *SearchView) Name() string { return "Find people" }

// ApplyTheme implements Themed.
func (sv *SearchView) ApplyTheme(t *ui.Theme) {
	sv.theme = t
	sv.input.SetBackgroundColor(t.BgColor)
	sv.input.SetFieldBackgroundColor(t.BgColor)
	sv.input.SetFieldTextColor(t.FgColor)
	sv.input.SetLabelColor(t.MenuKeyColor)
	sv.input.SetPlaceholderTextColor(t.MutedColor)
	sv.results.SetBorderColor(t.BorderColor)
	sv.results.SetBackgroundColor(t.BgColor)
	sv.results.SetTitleColor(t.TitleColor)
	sv.results.SetSelectedStyle(tcell.StyleDefault.
		Foreground(t.TableCursorFg).
		Background(t.TableCursorBg))
	sv.render()
}

// SetOnQuery sets the callback when a search term is submitted.
func (sv *SearchView) SetOnQuery(fn func(query string)) {
	sv.onQuery = fn
}

// SetTerm fills the input, as when the search was started from the prompt.
func (sv *SearchView) SetTerm(term string) {
	sv.input.SetText(term)
}

// Update shows the people matching term.
func (sv *SearchView) Update(term string, users []backend.UserProfile) {
	sv.term = term
	sv.data = users
	sv.render()
}

func (sv *SearchView) render() {
	sv.results.Clear()
	headers := []string{" NAME", " PHONE"}
	for col, h := range headers {
		sv.results.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetExpansion(1).
			SetTextColor(sv.theme.TableHeaderFg).
			SetBackgroundColor(sv.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold))
	}
	for i, u := range sv.data {
		sv.results.SetCell(i+1, 0, tview.NewTableCell(" "+clean(u.DisplayName)).SetExpansion(1).SetTextColor(sv.theme.FgColor))
		sv.results.SetCell(i+1, 1, tview.NewTableCell(" "+tview.Escape(u.PhoneNumber)).SetExpansion(1).SetTextColor(sv.theme.MutedColor))
	}
	switch {
	case sv.term == "":
		sv.results.SetTitle(" People ")
	case len(sv.data) == 0:
		sv.results.SetTitle(fmt.Sprintf(" Nobody matches %q ", sv.term))
	default:
		sv.results.SetTitle(fmt.Sprintf(" People (%d) ", len(sv.data)))
	}
}

// SelectedUser returns the highlighted person, or nil.
func (sv *SearchView) SelectedUser() *backend.UserProfile {
	row, _ := sv.results.GetSelection()
	idx := row - 1
	if idx < 0 || idx >= len(sv.data) {
		return nil
	}
	u := sv.data[idx]
	return &u
}

// Input returns the search input field.
func (sv *SearchView) Input() *tview.InputField {
	return sv.input
}

// Results returns the results table.
func (sv *SearchView) Results() *tview.Table {
	return sv.results
}
