package views

import (
	"fmt"
	"strings"

	"github.com/heyfriend/heyfriend/internal/tui/ui"
	"github.com/rivo/tview"
)

type helpSection struct {
	title string
	keys  [][2]string
}

var helpSections = []helpSection{
	{"Global Keys", [][2]string{
		{":", "Command mode"},
		{"/", "Filter conversations"},
		{"@", "Find people"},
		{"?", "Help"},
		{"Esc", "Cancel / Go back"},
		{"q", "Quit / Back"},
		{"Ctrl-C", "Quit immediately"},
	}},
	{"Conversation List", [][2]string{
		{"Enter", "Open conversation"},
		{"1-9", "Open Nth conversation"},
		{"Tab", "Next tab (All, Unread, Groups)"},
		{"l", "Lock or unlock the selected conversation"},
		{"c", "Contacts"},
		{"p", "Profile"},
	}},
	{"Message Thread", [][2]string{
		{"i", "Focus composer"},
		{"j/k", "Select next / previous message"},
		{"1-6", "Add a quick reaction to the selection"},
		{"u", "Remove your latest reaction from the selection"},
		{"x", "Delete your selected message"},
		{"d", "Conversation details"},
		{"Enter", "Send (in composer)"},
	}},
	{"Contacts", [][2]string{
		{"h", "Hide or show your status to the selected contact"},
	}},
}

var helpCommands = [][2]string{
	{":search <term>", "Find people by name or phone"},
	{":new <name> <principal>...", "Create a group conversation"},
	{":attach <path>", "Attach a file to the composer"},
	{":emoji <emoji>", "Send an emoji"},
	{":lock / :unlock", "Lock or unlock the current conversation"},
	{":leave", "Leave the current conversation"},
	{":theme light|dark|pink", "Switch theme"},
	{":lang en|sw|ar|zh", "Switch language"},
	{":tab all|unread|groups", "Switch conversation tab"},
	{":contacts / :profile", "Open contacts or profile"},
	{":help / :h", "Show this help"},
	{":quit / :q", "Quit application"},
}

// HelpView displays key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetTitle(" Help ")

	hv := &HelpView{TextView: tv}
	hv.ApplyTheme(theme)
	return hv
}

// Name implements Component.
func (hv *HelpView) Name() string { return "Help" }

// ApplyTheme implements Themed.
func (hv *HelpView) ApplyTheme(t *ui.Theme) {
	hv.theme = t
	hv.SetBorderColor(t.BorderColor)
	hv.SetBackgroundColor(t.BgColor)
	hv.SetTextColor(t.FgColor)
	hv.SetTitleColor(t.TitleColor)
	hv.render()
}

func (hv *HelpView) render() {
	hv.Clear()
	kc := ui.Tag(hv.theme.MenuKeyColor)
	var b strings.Builder
	row := func(key, desc string, width int) {
		fmt.Fprintf(&b, "  [%s]%-*s[-:-:-] %s\n", kc, width, tview.Escape(key), desc)
	}
	for _, s := range helpSections {
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", s.title)
		for _, k := range s.keys {
			row(k[0], k[1], 8)
		}
	}
	b.WriteString("\n  [::b]Commands (: mode)[-:-:-]\n\n")
	for _, c := range helpCommands {
		row(c[0], c[1], 28)
	}
	_, _ = fmt.Fprint(hv, b.String())
}
