package tui

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/heyfriend/heyfriend/internal/backend"
	"github.com/heyfriend/heyfriend/internal/outbox"
	"github.com/heyfriend/heyfriend/internal/overlay"
	hsync "github.com/heyfriend/heyfriend/internal/sync"
	"github.com/heyfriend/heyfriend/internal/tui/keys"
	"github.com/heyfriend/heyfriend/internal/tui/ui"
)

// maxAttachment caps files picked with :attach.
const maxAttachment = 16 << 20

func (a *App) setupBindings() {
	r := a.registry

	r.AddGlobal(keys.Rune('?', "Help", a.showHelp))
	r.AddGlobal(keys.Rune(':', "Command", func() { a.activatePrompt(ui.PromptCommand, "") }))
	r.AddGlobal(keys.Rune('q', "Quit/Back", a.back))
	r.AddGlobal(&keys.Action{Key: tcell.KeyEscape, Label: "Esc", Description: "Back", Handler: a.back, Visible: true})

	r.AddView(pageConversations, &keys.Action{Key: tcell.KeyEnter, Label: "Enter", Description: "Open", Visible: true,
		Handler: func() { a.openChat(a.list.SelectedChat()) }})
	r.AddView(pageConversations, keys.Rune('/', "Filter", func() { a.activatePrompt(ui.PromptFilter, "") }))
	r.AddView(pageConversations, keys.Rune('@', "Find people", func() { a.activatePrompt(ui.PromptSearch, "") }))
	r.AddView(pageConversations, &keys.Action{Key: tcell.KeyTab, Label: "Tab", Description: "Next tab", Visible: true,
		Handler: func() {
			a.vm.CycleTab()
			a.scheduleList()
		}})
	r.AddView(pageConversations, keys.Rune('l', "Lock", func() { a.toggleLock(a.list.SelectedChat()) }))
	r.AddView(pageConversations, keys.Rune('c', "Contacts", a.showContacts))
	r.AddView(pageConversations, keys.Rune('p', "Profile", a.showProfile))
	for n := 1; n <= 9; n++ {
		n := n
		r.AddView(pageConversations, &keys.Action{
			Key: tcell.KeyRune, Rune: rune('0' + n), Label: "1-9", Description: "Open Nth",
			Visible: n == 1, Numeric: true,
			Handler: func() { a.openChat(a.list.ChatByIndex(n)) },
		})
	}

	r.AddView(pageThread, keys.Rune('i', "Compose", func() { a.app.SetFocus(a.thread.Composer()) }))
	r.AddView(pageThread, keys.Rune('j', "Next", a.thread.SelectNext))
	r.AddView(pageThread, keys.Rune('k', "Previous", a.thread.SelectPrev))
	r.AddView(pageThread, &keys.Action{Key: tcell.KeyDown, Handler: a.thread.SelectNext})
	r.AddView(pageThread, &keys.Action{Key: tcell.KeyUp, Handler: a.thread.SelectPrev})
	for i := range hsync.QuickReactions {
		i := i
		r.AddView(pageThread, &keys.Action{
			Key: tcell.KeyRune, Rune: rune('1' + i), Label: fmt.Sprintf("1-%d", len(hsync.QuickReactions)), Description: "React",
			Visible: i == 0, Numeric: true,
			Handler: func() { a.react(i) },
		})
	}
	r.AddView(pageThread, keys.Rune('u', "Unreact", a.unreact))
	r.AddView(pageThread, keys.Rune('x', "Delete", a.deleteSelected))
	r.AddView(pageThread, keys.Rune('d', "Details", a.showDetails))

	r.AddView(pageContacts, keys.Rune('h', "Hide/show status", a.toggleHidden))
	r.AddView(pageContacts, keys.Rune('r', "Refresh", a.showContacts))
}

func (a *App) showHelp() {
	if a.pages.Current() == pageHelp {
		return
	}
	a.pages.Push(pageHelp, a.help)
	a.app.SetFocus(a.help)
}

// runCommand executes a ':' command. It runs on the UI goroutine.
func (a *App) runCommand(cmd Command) {
	args := cmd.Fields()
	switch cmd.Name {
	case "":
	case "quit":
		a.Stop()
	case "help":
		a.showHelp()
	case "status":
		a.flash.Info(a.describeState())
	case "search":
		a.openSearch(cmd.Args)
	case "contacts":
		a.showContacts()
	case "profile":
		a.showProfile()
	case "refresh":
		a.engine.Cache().Invalidate(nil)
		a.flash.Info("Refreshing")
	case "tab":
		a.setTab(cmd.Args)
	case "theme":
		a.setTheme(cmd.Args)
	case "language":
		a.setLanguage(cmd.Args)
	case "lock", "unlock":
		a.setLock(cmd.Name == "lock")
	case "new":
		a.createGroup(args)
	case "leave":
		a.leave()
	case "attach":
		a.attach(cmd.Args)
	case "emoji", "sticker", "gif":
		a.sendSpecial(cmd.Name, cmd.Args)
	case "add-contact":
		a.addContact(args)
	case "remove-contact":
		a.removeContact(args)
	default:
		a.flash.Warn(fmt.Sprintf("Unknown command %q, try :help", cmd.Name))
	}
}

func (a *App) setTab(name string) {
	for _, t := range hsync.Tabs {
		if string(t) == strings.ToLower(name) {
			a.vm.SetTab(t)
			a.scheduleList()
			return
		}
	}
	a.flash.Warn("Tabs are all, unread and groups")
}

func (a *App) setTheme(name string) {
	t, err := overlay.ParseTheme(name)
	if err == nil {
		err = a.vm.Overlay.SetTheme(t)
	}
	if err != nil {
		a.flash.Err(err)
		return
	}
	a.applyTheme(ui.ThemeFor(t))
	a.flash.Info("Theme set to " + string(t))
}

func (a *App) setLanguage(name string) {
	lang, err := overlay.ParseLanguage(name)
	if err == nil {
		err = a.vm.Overlay.SetLanguage(lang)
	}
	if err != nil {
		a.flash.Err(err)
		return
	}
	a.applyLanguage(lang)
	a.flash.Info("Language set to " + string(lang))
}

// setLock locks or unlocks the open conversation, or the selected one on
// the list.
func (a *App) setLock(locked bool) {
	id := a.list.SelectedChat()
	if a.pages.Current() == pageThread {
		id = a.thread.ChatID()
	}
	if id == "" {
		return
	}
	if err := a.vm.Overlay.Locks().Set(id, locked); err != nil {
		a.flash.Err(err)
		return
	}
	if locked {
		a.flash.Info("Conversation locked, the PIN is needed next time")
	} else {
		a.flash.Info("Conversation unlocked")
	}
	a.scheduleList()
}

func (a *App) createGroup(args []string) {
	if len(args) < 2 {
		a.flash.Warn("Usage: :new <name> <principal>...")
		return
	}
	name := args[0]
	members := make([]backend.Principal, 0, len(args)-1)
	for _, m := range args[1:] {
		members = append(members, backend.Principal(m))
	}
	a.do(func(ctx context.Context) {
		id, err := a.engine.CreateConversation(ctx, name, "", true, members)
		if err != nil {
			a.flash.Err(err)
			return
		}
		a.flash.Info("Created " + name)
		a.app.QueueUpdateDraw(func() { a.openChat(id) })
	})
}

func (a *App) leave() {
	id := a.thread.ChatID()
	if a.pages.Current() != pageThread || id == "" {
		a.flash.Warn("Open a conversation to leave it")
		return
	}
	a.do(func(ctx context.Context) {
		if err := a.engine.LeaveConversation(ctx, id); err != nil {
			a.flash.Err(err)
			return
		}
		a.flash.Info("You left the conversation")
		a.app.QueueUpdateDraw(a.back)
	})
}

// attach reads a file into the composer. The next send carries it.
func (a *App) attach(path string) {
	if a.currentSender() == nil {
		a.flash.Warn("Open a conversation first")
		return
	}
	if path == "" {
		a.flash.Warn("Usage: :attach <path>")
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		a.flash.Err(err)
		return
	}
	if info.Size() > maxAttachment {
		a.flash.Warn(fmt.Sprintf("%s is %s, the limit is %s", info.Name(),
			humanize.IBytes(uint64(info.Size())), humanize.IBytes(maxAttachment)))
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		a.flash.Err(err)
		return
	}
	att := &outbox.Attachment{
		Name:        filepath.Base(path),
		ContentType: http.DetectContentType(data),
		Data:        data,
	}
	a.mu.Lock()
	a.attachment = att
	a.mu.Unlock()
	a.thread.SetAttachment(att.Name)
	a.flash.Info(fmt.Sprintf("Attached %s (%s)", att.Name, humanize.IBytes(uint64(len(data)))))
}

func (a *App) sendSpecial(kind, content string) {
	sender := a.currentSender()
	if sender == nil || content == "" {
		a.flash.Warn(fmt.Sprintf("Usage: :%s <value> in a conversation", kind))
		return
	}
	a.do(func(ctx context.Context) {
		var err error
		switch kind {
		case "emoji":
			err = sender.SendEmoji(ctx, content)
		case "sticker":
			err = sender.SendSticker(ctx, content)
		case "gif":
			err = sender.SendGIF(ctx, content)
		}
		if err != nil {
			a.flash.Err(err)
		}
	})
}

func (a *App) addContact(args []string) {
	if len(args) == 0 {
		a.flash.Warn("Usage: :add-contact <phone> [label]")
		return
	}
	phone, label := args[0], strings.Join(args[1:], " ")
	a.do(func(ctx context.Context) {
		if err := a.engine.AddContact(ctx, phone, label); err != nil {
			a.flash.Err(err)
			return
		}
		a.flash.Info("Added " + phone)
	})
}

func (a *App) removeContact(args []string) {
	if len(args) != 1 {
		a.flash.Warn("Usage: :remove-contact <phone>")
		return
	}
	phone := args[0]
	a.do(func(ctx context.Context) {
		if err := a.engine.RemoveContact(ctx, phone); err != nil {
			a.flash.Err(err)
			return
		}
		a.flash.Info("Removed " + phone)
	})
}
