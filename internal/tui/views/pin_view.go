package views

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/heyfriend/heyfriend/internal/overlay"
	"github.com/heyfriend/heyfriend/internal/tui/ui"
	"github.com/rivo/tview"
)

// PinView asks for the PIN of a locked conversation.
type PinView struct {
	*tview.TextView
	theme  *ui.Theme
	prompt *overlay.PinPrompt
	chat   string
}

// NewPinView creates a PIN entry view for the named conversation.
func NewPinView(theme *ui.Theme, chat string, prompt *overlay.PinPrompt) *PinView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	tv.SetBorder(true)
	tv.SetTitle(" Locked ")

	pv := &PinView{TextView: tv, prompt: prompt, chat: chat}
	pv.ApplyTheme(theme)
	return pv
}

// Name implements Component.
func (pv *PinView) Name() string { return "PIN" }

// ApplyTheme implements Themed.
func (pv *PinView) ApplyTheme(t *ui.Theme) {
	pv.theme = t
	pv.SetBorderColor(t.LockColor)
	pv.SetBackgroundColor(t.BgColor)
	pv.SetTextColor(t.FgColor)
	pv.SetTitleColor(t.LockColor)
	pv.Refresh()
}

// HandleKey feeds a key press to the prompt. It reports whether the key
// was consumed.
func (pv *PinView) HandleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyRune:
		pv.prompt.Type(ev.Rune())
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		pv.prompt.Backspace()
	case tcell.KeyEscape:
		pv.prompt.Cancel()
		return true
	default:
		return false
	}
	pv.Refresh()
	return true
}

// Refresh redraws the slots from the prompt.
func (pv *PinView) Refresh() {
	pv.Clear()
	digits := pv.prompt.Digits()
	focus := pv.prompt.Focus()
	slots := make([]string, len(digits))
	for i, d := range digits {
		mark := "_"
		if d != "" {
			mark = "•"
		}
		color := pv.theme.FgColor
		if i == focus {
			color = pv.theme.BorderFocusColor
		}
		slots[i] = fmt.Sprintf("[%s::b][ %s ][-:-:-]", ui.Tag(color), mark)
	}
	_, _ = fmt.Fprintf(pv, "\n\n🔒 [::b]%s[::-] is locked\n\nEnter the %d-digit PIN to open it\n\n%s\n\n",
		clean(pv.chat), overlay.PINLength, strings.Join(slots, " "))
	if pv.prompt.Failed() {
		_, _ = fmt.Fprintf(pv, "[%s]Wrong PIN, try again[-]\n", ui.Tag(pv.theme.FlashErrColor))
	}
	_, _ = fmt.Fprintf(pv, "\n[%s]Esc to cancel[-]", ui.Tag(pv.theme.MutedColor))
}
