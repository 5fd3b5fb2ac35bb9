package views

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/heyfriend/heyfriend/internal/backend"
	hsync "github.com/heyfriend/heyfriend/internal/sync"
	"github.com/heyfriend/heyfriend/internal/tui/ui"
	"github.com/rivo/tview"
)

// MessageThread displays messages and a composer for a single conversation.
type MessageThread struct {
	*tview.Flex
	theme    *ui.Theme
	messages *tview.TextView
	composer *tview.InputField

	chatName string
	chatID   string
	isGroup  bool
	self     backend.Principal

	groups    []hsync.DayGroup
	reactions map[string][]hsync.ReactionGroup
	flat      []backend.Message
	selected  int

	attachment string
	progress   int
	onSend     func(text string)
}

// NewMessageThread creates a new message thread view.
func NewMessageThread(theme *ui.Theme) *MessageThread {
	messages := tview.NewTextView().
		SetDynamicColors(true).
		SetRegions(true).
		SetScrollable(true).
		SetWordWrap(true)
	messages.SetBorder(true)

	composer := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	composer.SetBorder(true)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(messages, 0, 1, true).
		AddItem(composer, 3, 0, false)

	mt := &MessageThread{
		Flex:     flex,
		messages: messages,
		composer: composer,
		selected: -1,
		progress: -1,
	}

	composer.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && mt.onSend != nil {
			mt.onSend(composer.GetText())
		}
	})

	mt.ApplyTheme(theme)
	return mt
}

// Name implements Component.
func (mt *MessageThread) Name() string {
	if mt.chatName != "" {
		return mt.chatName
	}
	return "Messages"
}

// ApplyTheme implements Themed.
func (mt *MessageThread) ApplyTheme(t *ui.Theme) {
	mt.theme = t
	mt.messages.SetBorderColor(t.BorderColor)
	mt.messages.SetBackgroundColor(t.BgColor)
	mt.messages.SetTextColor(t.FgColor)
	mt.messages.SetTitleColor(t.TitleColor)
	mt.composer.SetBorderColor(t.BorderColor)
	mt.composer.SetBackgroundColor(t.BgColor)
	mt.composer.SetFieldBackgroundColor(t.BgColor)
	mt.composer.SetFieldTextColor(t.FgColor)
	mt.composer.SetLabelColor(t.MenuKeyColor)
	mt.composer.SetTitleColor(t.TitleColor)
	mt.render()
}

// Open resets the view for a conversation.
func (mt *MessageThread) Open(id, name string, isGroup bool, self backend.Principal) {
	mt.chatID = id
	mt.chatName = name
	mt.isGroup = isGroup
	mt.self = self
	mt.groups = nil
	mt.reactions = nil
	mt.flat = nil
	mt.selected = -1
	mt.attachment = ""
	mt.progress = -1
	mt.composer.SetText("")
	mt.messages.SetTitle(fmt.Sprintf(" %s ", clean(name)))
	mt.render()
}

// ChatID returns the open conversation's ID.
func (mt *MessageThread) ChatID() string {
	return mt.chatID
}

// SetOnSend sets the callback run with the composer text on Enter.
func (mt *MessageThread) SetOnSend(fn func(text string)) {
	mt.onSend = fn
}

// ClearComposer empties the composer and drops any attachment.
func (mt *MessageThread) ClearComposer() {
	mt.composer.SetText("")
	mt.attachment = ""
	mt.progress = -1
	mt.renderComposer()
}

// SetAttachment shows the name of the file queued for sending.
func (mt *MessageThread) SetAttachment(name string) {
	mt.attachment = name
	mt.renderComposer()
}

// SetProgress shows an upload percentage. A negative value hides it.
func (mt *MessageThread) SetProgress(pct int) {
	mt.progress = pct
	mt.renderComposer()
}

// Update replaces the messages and their reactions, keyed by message ID.
// The selection follows the selected message when it is still present.
func (mt *MessageThread) Update(groups []hsync.DayGroup, reactions map[string][]hsync.ReactionGroup) {
	var selectedID string
	if m := mt.Selected(); m != nil {
		selectedID = m.ID
	}
	mt.groups = groups
	mt.reactions = reactions
	mt.flat = mt.flat[:0]
	for _, g := range groups {
		mt.flat = append(mt.flat, g.Messages...)
	}
	mt.selected = -1
	for i, m := range mt.flat {
		if m.ID == selectedID {
			mt.selected = i
		}
	}
	mt.render()
	if mt.selected < 0 {
		mt.messages.ScrollToEnd()
	}
}

// MessageIDs lists the displayed messages, oldest first.
func (mt *MessageThread) MessageIDs() []string {
	ids := make([]string, len(mt.flat))
	for i, m := range mt.flat {
		ids[i] = m.ID
	}
	return ids
}

// SelectNext moves the selection one message down, starting from the top.
func (mt *MessageThread) SelectNext() {
	if len(mt.flat) == 0 {
		return
	}
	if mt.selected < len(mt.flat)-1 {
		mt.selected++
	}
	mt.render()
}

// SelectPrev moves the selection one message up, starting from the newest.
func (mt *MessageThread) SelectPrev() {
	if len(mt.flat) == 0 {
		return
	}
	switch {
	case mt.selected < 0:
		mt.selected = len(mt.flat) - 1
	case mt.selected > 0:
		mt.selected--
	}
	mt.render()
}

// Selected returns the selected message, or nil.
func (mt *MessageThread) Selected() *backend.Message {
	if mt.selected < 0 || mt.selected >= len(mt.flat) {
		return nil
	}
	m := mt.flat[mt.selected]
	return &m
}

func (mt *MessageThread) render() {
	if mt.theme == nil {
		return
	}
	mt.messages.Clear()
	var selectedID string
	if m := mt.Selected(); m != nil {
		selectedID = m.ID
	}
	_, _ = fmt.Fprint(mt.messages, renderThread(mt.groups, mt.reactions, mt.self, mt.isGroup, selectedID, mt.theme))
	if selectedID != "" {
		mt.messages.Highlight(selectedID)
		mt.messages.ScrollToHighlight()
	} else {
		mt.messages.Highlight()
	}
	mt.renderComposer()
}

func (mt *MessageThread) renderComposer() {
	title := " Compose (i to focus) "
	switch {
	case mt.progress >= 0:
		title = fmt.Sprintf(" Uploading %s %d%% ", clean(mt.attachment), mt.progress)
	case mt.attachment != "":
		title = fmt.Sprintf(" Attached %s (Enter to send) ", clean(mt.attachment))
	}
	mt.composer.SetTitle(title)
}

// Messages returns the messages text view (for focus management).
func (mt *MessageThread) Messages() *tview.TextView {
	return mt.messages
}

// Composer returns the composer input field (for focus management).
func (mt *MessageThread) Composer() *tview.InputField {
	return mt.composer
}

// renderThread lays out day headers, messages and reaction chips. Each
// message is a region named by its ID so the selection can be highlighted.
func renderThread(groups []hsync.DayGroup, reactions map[string][]hsync.ReactionGroup, self backend.Principal, isGroup bool, selectedID string, t *ui.Theme) string {
	if len(groups) == 0 {
		return fmt.Sprintf("\n  [%s]No messages yet. Say hi![-]", ui.Tag(t.MutedColor))
	}
	var b strings.Builder
	r := &bodyRenderer{b: &b, theme: t}
	for _, g := range groups {
		fmt.Fprintf(&b, "[%s::b]── %s ──[-:-:-]\n\n", ui.Tag(t.MutedColor), tview.Escape(g.Label))
		for _, m := range g.Messages {
			own := m.Sender == self
			color := t.FgColor
			author := ""
			if own {
				color = t.OwnMessageColor
				author = "You"
			} else if isGroup {
				author = hsync.SenderLabel(m.Sender, self)
			}

			marker := "  "
			if m.ID == selectedID {
				marker = "▶ "
			}
			fmt.Fprintf(&b, "[\"%s\"]%s", m.ID, marker)
			if author != "" {
				fmt.Fprintf(&b, "[%s::b]%s[-:-:-] ", ui.Tag(color), tview.Escape(author))
			}
			fmt.Fprintf(&b, "[%s::d]%s[-:-:-]", ui.Tag(t.MutedColor), m.Timestamp.Format("15:04"))
			if own {
				fmt.Fprintf(&b, " [%s]%s[-]", ui.Tag(t.MutedColor), deliveryTicks(m.Status))
			}
			b.WriteString("\n    ")
			fmt.Fprintf(&b, "[%s]", ui.Tag(color))
			if !hsync.RenderMedia(m, r) {
				fmt.Fprintf(&b, "[::i]unsupported message[::-]")
			}
			b.WriteString("[-]")
			if chips := reactionChips(reactions[m.ID], self); chips != "" {
				fmt.Fprintf(&b, "\n    [%s]%s[-]", ui.Tag(t.CounterColor), chips)
			}
			b.WriteString("[\"\"]\n\n")
		}
	}
	return b.String()
}

func deliveryTicks(s backend.MessageStatus) string {
	switch s {
	case backend.StatusRead:
		return "✓✓ read"
	case backend.StatusReceived:
		return "✓✓"
	case backend.StatusSent:
		return "✓"
	}
	return ""
}

// reactionChips renders grouped reactions as "👍 2  ❤ 1*", starring the
// ones the caller added.
func reactionChips(groups []hsync.ReactionGroup, self backend.Principal) string {
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		chip := fmt.Sprintf("%s %d", sanitizeForTerminal(g.Emoji), g.Count)
		if g.By(self) {
			chip += "*"
		}
		parts = append(parts, chip)
	}
	return strings.Join(parts, "  ")
}

// bodyRenderer writes one message body per media type.
type bodyRenderer struct {
	b     *strings.Builder
	theme *ui.Theme
}

func (r *bodyRenderer) Text(m backend.Message) {
	r.b.WriteString(clean(m.Content))
}

func (r *bodyRenderer) Emoji(m backend.Message) {
	r.b.WriteString(clean(m.Content))
}

func (r *bodyRenderer) Sticker(m backend.Message) {
	fmt.Fprintf(r.b, "[sticker] %s", clean(m.Content))
}

func (r *bodyRenderer) Image(m backend.Message) {
	r.attachment("🖼 image", m)
}

func (r *bodyRenderer) Video(m backend.Message) {
	r.attachment("🎬 video", m)
}

func (r *bodyRenderer) Audio(m backend.Message) {
	r.attachment("🎵 audio", m)
}

func (r *bodyRenderer) Voice(m backend.Message) {
	r.attachment("🎤 voice note", m)
}

func (r *bodyRenderer) GIF(m backend.Message) {
	url := m.Content
	if u := m.Media.DirectURL(); u != "" {
		url = u
	}
	fmt.Fprintf(r.b, "GIF %s", clean(url))
}

func (r *bodyRenderer) attachment(kind string, m backend.Message) {
	r.b.WriteString(tview.Escape(kind))
	if m.Content != "" {
		fmt.Fprintf(r.b, " %s", clean(m.Content))
	}
	if u := m.Media.DirectURL(); u != "" {
		fmt.Fprintf(r.b, "\n    [%s::u]%s[-:-:-]", ui.Tag(r.theme.MutedColor), tview.Escape(u))
	} else {
		r.b.WriteString(" (unavailable)")
	}
}
