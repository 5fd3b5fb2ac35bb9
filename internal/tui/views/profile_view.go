package views

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/heyfriend/heyfriend/internal/backend"
	"github.com/heyfriend/heyfriend/internal/tui/ui"
	"github.com/rivo/tview"
)

// ProfileView shows the signed-in profile with a scannable share code.
type ProfileView struct {
	*tview.TextView
	theme   *ui.Theme
	profile *backend.UserProfile
	role    backend.UserRole
}

// NewProfileView creates a new profile view.
func NewProfileView(theme *ui.Theme) *ProfileView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetTitle(" Profile ")

	pv := &ProfileView{TextView: tv}
	pv.ApplyTheme(theme)
	return pv
}

// Name implements Component.
func (pv *ProfileView) Name() string { return "Profile" }

// ApplyTheme implements Themed.
func (pv *ProfileView) ApplyTheme(t *ui.Theme) {
	pv.theme = t
	pv.SetBorderColor(t.BorderColor)
	pv.SetBackgroundColor(t.BgColor)
	pv.SetTextColor(t.FgColor)
	pv.SetTitleColor(t.TitleColor)
	pv.render()
}

// Update renders a profile and the caller's role.
func (pv *ProfileView) Update(p *backend.UserProfile, role backend.UserRole) {
	pv.profile = p
	pv.role = role
	pv.render()
}

func (pv *ProfileView) render() {
	pv.Clear()
	p := pv.profile
	if p == nil {
		_, _ = fmt.Fprintf(pv, "\n  [%s]No profile yet[-]", ui.Tag(pv.theme.MutedColor))
		return
	}
	fg := ui.Tag(pv.theme.FgColor)
	ct := ui.Tag(pv.theme.CounterColor)
	field := func(label, value string) {
		_, _ = fmt.Fprintf(pv, " [%s::b]%-14s[-:-:-] [%s]%s[-]\n", fg, label+":", ct, clean(orDash(value)))
	}

	_, _ = fmt.Fprint(pv, "\n")
	field("Name", p.DisplayName)
	field("Phone", p.PhoneNumber)
	field("Gender", string(p.Gender))
	field("Address", p.Address)
	if !p.DateOfBirth.IsZero() {
		field("Born", p.DateOfBirth.Format(backend.DateLayout))
	}
	field("Role", string(pv.role))
	field("Joined", humanize.Time(p.CreatedAt))
	field("Principal", string(p.Principal))
	if u := p.ProfilePicture.DirectURL(); u != "" {
		field("Picture", u)
	}

	qr, err := ui.RenderQR(ui.ProfileLink(string(p.Principal), p.PhoneNumber))
	if err != nil {
		_, _ = fmt.Fprintf(pv, "\n [%s]share code unavailable: %s[-]", ui.Tag(pv.theme.FlashErrColor), tview.Escape(err.Error()))
		return
	}
	_, _ = fmt.Fprintf(pv, "\n [%s]Scan to start a chat:[-]\n\n%s", ui.Tag(pv.theme.MutedColor), qr)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
