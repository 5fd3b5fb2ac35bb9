package views

import (
	"github.com/heyfriend/heyfriend/internal/backend"
	"github.com/heyfriend/heyfriend/internal/tui/ui"
	"github.com/rivo/tview"
)

var genderOptions = []string{string(backend.GenderOther), string(backend.GenderFemale), string(backend.GenderMale)}

// RegisterView collects a new profile while the session needs one.
type RegisterView struct {
	*tview.Form
	theme    *ui.Theme
	onSubmit func(backend.Registration, error)
}

// NewRegisterView creates the registration form.
func NewRegisterView(theme *ui.Theme) *RegisterView {
	form := tview.NewForm().
		AddInputField("Phone number", "", 24, nil, nil).
		AddInputField("Display name", "", 24, nil, nil).
		AddDropDown("Gender", genderOptions, 0, nil).
		AddInputField("Address", "", 32, nil, nil).
		AddInputField("Date of birth", "", 12, nil, nil)
	form.SetBorder(true)
	form.SetTitle(" Create your profile ")

	rv := &RegisterView{Form: form}
	form.AddButton("Register", rv.submit)
	rv.ApplyTheme(theme)
	return rv
}

// Name implements Component.
func (rv *RegisterView) Name() string { return "Register" }

// ApplyTheme implements Themed.
func (rv *RegisterView) ApplyTheme(t *ui.Theme) {
	rv.theme = t
	rv.SetBorderColor(t.BorderColor)
	rv.SetBackgroundColor(t.BgColor)
	rv.SetTitleColor(t.TitleColor)
	rv.SetLabelColor(t.MenuKeyColor)
	rv.SetFieldBackgroundColor(t.BgColor)
	rv.SetFieldTextColor(t.FgColor)
	rv.SetButtonBackgroundColor(t.TableCursorBg)
	rv.SetButtonTextColor(t.TableCursorFg)
}

// SetOnSubmit sets the callback run with the parsed form, or the reason
// it could not be parsed.
func (rv *RegisterView) SetOnSubmit(fn func(backend.Registration, error)) {
	rv.onSubmit = fn
}

func (rv *RegisterView) submit() {
	if rv.onSubmit == nil {
		return
	}
	_, gender := rv.GetFormItemByLabel("Gender").(*tview.DropDown).GetCurrentOption()
	rv.onSubmit(backend.ParseRegistration(
		rv.text("Phone number"),
		rv.text("Display name"),
		gender,
		rv.text("Address"),
		rv.text("Date of birth"),
	))
}

func (rv *RegisterView) text(label string) string {
	return rv.GetFormItemByLabel(label).(*tview.InputField).GetText()
}
