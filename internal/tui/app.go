// Package tui is the terminal client: a stack of views over the sync
// engine, driven by key bindings and ':' commands.
package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/heyfriend/heyfriend/internal/backend"
	"github.com/heyfriend/heyfriend/internal/bus"
	"github.com/heyfriend/heyfriend/internal/outbox"
	"github.com/heyfriend/heyfriend/internal/overlay"
	"github.com/heyfriend/heyfriend/internal/query"
	"github.com/heyfriend/heyfriend/internal/status"
	hsync "github.com/heyfriend/heyfriend/internal/sync"
	"github.com/heyfriend/heyfriend/internal/tui/keys"
	"github.com/heyfriend/heyfriend/internal/tui/model"
	"github.com/heyfriend/heyfriend/internal/tui/ui"
	"github.com/heyfriend/heyfriend/internal/tui/views"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

const (
	pageConversations = "conversations"
	pageThread        = "thread"
	pagePin           = "pin"
	pageRegister      = "register"
	pageProfile       = "profile"
	pageContacts      = "contacts"
	pageSearch        = "search"
	pageHelp          = "help"
	pageDetails       = "details"
)

// Options wires the app to a session.
type Options struct {
	Engine  *hsync.Engine
	Overlay *overlay.Store
	Profile string
	Self    backend.Principal
	Logger  *zap.Logger
}

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	vm       *model.ViewModel
	engine   *hsync.Engine
	bus      *bus.Bus
	logger   *zap.Logger
	theme    *ui.Theme
	registry *keys.Registry

	root     *tview.Flex
	pages    *ui.Pages
	logo     *ui.Logo
	info     *ui.ProfileInfo
	crumbs   *ui.Crumbs
	menu     *ui.Menu
	prompt   *ui.Prompt
	flash    *ui.FlashModel
	flashBar *ui.FlashBar

	list     *views.ConversationList
	thread   *views.MessageThread
	details  *views.ConversationInfo
	contacts *views.ContactsView
	search   *views.SearchView
	profile  *views.ProfileView
	register *views.RegisterView
	help     *views.HelpView
	pin      *views.PinView

	mu         sync.Mutex
	open       *hsync.Thread
	sender     *outbox.Sender
	attachment *outbox.Attachment

	listPending   atomic.Bool
	threadPending atomic.Bool

	intents chan func(ctx context.Context)
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.ThemeFor(opts.Overlay.Theme())

	a := &App{
		app:      tview.NewApplication(),
		vm:       model.New(opts.Engine, opts.Overlay, opts.Profile, opts.Self),
		engine:   opts.Engine,
		bus:      opts.Engine.Cache().Bus(),
		logger:   logger,
		theme:    theme,
		registry: keys.NewRegistry(),
		pages:    ui.NewPages(),
		logo:     ui.NewLogo(theme),
		info:     ui.NewProfileInfo(theme),
		crumbs:   ui.NewCrumbs(theme),
		menu:     ui.NewMenu(theme),
		prompt:   ui.NewPrompt(theme),
		flash:    ui.NewFlashModel(),
		flashBar: ui.NewFlashBar(theme),
		list:     views.NewConversationList(theme),
		thread:   views.NewMessageThread(theme),
		details:  views.NewConversationInfo(theme),
		contacts: views.NewContactsView(theme),
		search:   views.NewSearchView(theme),
		profile:  views.NewProfileView(theme),
		register: views.NewRegisterView(theme),
		help:     views.NewHelpView(theme),
		intents:  make(chan func(context.Context), 64),
		ctx:      ctx,
		cancel:   cancel,
	}

	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	a.applyLanguage(opts.Overlay.Language())
	return a
}

func (a *App) setupLayout() {
	header := tview.NewFlex().
		AddItem(a.logo, 26, 0, false).
		AddItem(a.info, 0, 1, false)

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 4, 0, false).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.flashBar, 1, 0, false).
		AddItem(a.menu, 1, 0, false)
	a.root.SetBackgroundColor(a.theme.BgColor)

	a.pages.SetOnChange(func(stack []string) {
		a.crumbs.Update(stack)
		a.menu.Update(a.registry.Hints(a.pages.Current()))
	})

	a.app.SetRoot(a.root, true)
	a.app.SetInputCapture(a.handleKey)
}

func (a *App) setupCallbacks() {
	a.list.SetSelectedFunc(func(row, _ int) {
		if id := a.list.ChatByIndex(row); id != "" {
			a.openChat(id)
		}
	})

	a.thread.SetOnSend(a.send)

	a.search.SetOnQuery(a.runSearch)
	a.search.Results().SetSelectedFunc(func(row, _ int) {
		if u := a.search.SelectedUser(); u != nil {
			a.startDirect(*u)
		}
	})

	a.register.SetOnSubmit(func(reg backend.Registration, err error) {
		if err != nil {
			a.flash.Err(err)
			return
		}
		a.do(func(ctx context.Context) {
			profile, err := a.engine.RegisterUser(ctx, reg)
			switch {
			case err != nil:
				a.flash.Err(err)
			case profile == nil:
				a.flash.Warn("Registered, your profile will appear shortly")
			default:
				a.flash.Info("Welcome, " + profile.DisplayName)
			}
		})
	})

	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.hidePrompt()
		switch mode {
		case ui.PromptCommand:
			a.runCommand(ParseCommand(text))
		case ui.PromptFilter:
			a.vm.SetSearch(text)
			a.scheduleList()
		case ui.PromptSearch:
			a.openSearch(text)
		}
	})
	a.prompt.SetOnChange(func(mode ui.PromptMode, text string) {
		if mode == ui.PromptFilter {
			a.vm.SetSearch(text)
			a.scheduleList()
		}
	})
	a.prompt.SetOnCancel(func() {
		if a.prompt.Mode() == ui.PromptFilter {
			a.vm.SetSearch("")
			a.scheduleList()
		}
		a.hidePrompt()
	})
}

// Run starts the TUI application and blocks until it quits.
func (a *App) Run() error {
	go a.work()
	go a.watch()
	a.syncState(a.engine.Status().Current())
	err := a.app.Run()
	a.cancel()
	a.closeThread()
	return err
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.closeThread()
	a.app.Stop()
}

// do queues an intent for the worker. Intents run one at a time, in order,
// off the UI goroutine.
func (a *App) do(fn func(ctx context.Context)) {
	select {
	case a.intents <- fn:
	default:
		a.logger.Warn("intent queue full, dropping")
		a.flash.Warn("Still busy with earlier actions, try again")
	}
}

func (a *App) work() {
	for {
		select {
		case fn := <-a.intents:
			fn(a.ctx)
		case <-a.ctx.Done():
			return
		}
	}
}

// watch turns bus events and query notifications into redraws.
func (a *App) watch() {
	statusCh, unsubStatus := a.bus.Subscribe(status.KindChanged, 16)
	defer unsubStatus()
	messageCh, unsubMessages := a.bus.Subscribe("message.", 64)
	defer unsubMessages()
	reactionCh, unsubReactions := a.bus.Subscribe("query:"+hsync.ReactionsKey("").String(), 64)
	defer unsubReactions()
	conversations, stopConversations := query.Watch(a.engine.Cache(), a.engine.ConversationsQuery())
	defer stopConversations()
	unread, stopUnread := query.Watch(a.engine.Cache(), a.engine.TotalUnreadQuery())
	defer stopUnread()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt, ok := <-statusCh:
			if !ok {
				return
			}
			if change, ok := evt.Payload.(status.StatusChange); ok {
				a.app.QueueUpdateDraw(func() { a.syncState(change.To) })
			}
		case evt, ok := <-messageCh:
			if !ok {
				return
			}
			a.handleMessageEvent(evt)
		case _, ok := <-reactionCh:
			if !ok {
				return
			}
			a.scheduleThread()
		case <-conversations:
			a.scheduleList()
		case <-unread:
			a.scheduleList()
		case <-a.flash.Watch():
			a.app.QueueUpdateDraw(func() { a.flashBar.Update(a.flash.GetMessage()) })
		case <-ticker.C:
			a.app.QueueUpdateDraw(func() { a.flashBar.Update(a.flash.GetMessage()) })
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) handleMessageEvent(evt bus.Event) {
	switch p := evt.Payload.(type) {
	case outbox.ProgressEvent:
		a.app.QueueUpdateDraw(func() {
			if a.thread.ChatID() == p.ConversationID {
				a.thread.SetProgress(p.Percent)
			}
		})
	case outbox.SendEvent:
		if p.Err == nil && p.MessageID != "" {
			a.scheduleList()
		}
	}
}

// syncState follows the session status. It runs on the UI goroutine.
func (a *App) syncState(s status.State) {
	a.crumbs.SetState(s)
	switch {
	case s == status.AuthRequired:
		if a.pages.Current() != pageRegister {
			a.closeThread()
			a.pages.Reset(pageRegister, a.register)
			a.app.SetFocus(a.register)
		}
	case a.pages.Depth() == 0 || a.pages.Current() == pageRegister:
		a.pages.Reset(pageConversations, a.list)
		a.app.SetFocus(a.list)
	}
	if s == status.Ready || s == status.Degraded {
		a.scheduleList()
	}
}

func (a *App) scheduleList() {
	if a.listPending.CompareAndSwap(false, true) {
		a.do(a.refreshList)
	}
}

func (a *App) scheduleThread() {
	if a.threadPending.CompareAndSwap(false, true) {
		a.do(a.refreshThread)
	}
}

func (a *App) refreshList(ctx context.Context) {
	a.listPending.Store(false)
	if !a.engine.Status().IsReady() {
		return
	}
	res := a.vm.Summaries(ctx)
	rows, err := a.vm.Rows(ctx)
	tab := a.vm.Tab()
	labels := make([]string, len(hsync.Tabs))
	active := 0
	for i, t := range hsync.Tabs {
		labels[i] = model.TabLabel(t, res.Data)
		if t == tab {
			active = i
		}
	}
	data := &ui.ProfileData{
		Profile:       a.vm.Profile,
		State:         a.engine.Status().Current(),
		Conversations: len(res.Data),
		Unread:        a.engine.TotalUnread(ctx).Data,
	}
	if p := a.engine.CallerProfile(ctx); p != nil {
		data.DisplayName = p.DisplayName
		data.Phone = p.PhoneNumber
	}
	search := a.vm.Search()
	a.app.QueueUpdateDraw(func() {
		a.list.Update(rows, labels, active, search)
		a.info.Update(data)
	})
	if err != nil && !res.Loaded {
		a.flash.Err(err)
	}
}

func (a *App) refreshThread(ctx context.Context) {
	a.threadPending.Store(false)
	th := a.currentThread()
	if th == nil {
		return
	}
	groups := th.Groups(ctx, a.vm.Now(), a.vm.Labels())
	reactions := make(map[string][]hsync.ReactionGroup)
	for _, g := range groups {
		for _, m := range g.Messages {
			if rs := a.engine.Reactions(ctx, m.ID).Data; len(rs) > 0 {
				reactions[m.ID] = hsync.GroupReactions(rs)
			}
		}
	}
	a.app.QueueUpdateDraw(func() {
		if a.thread.ChatID() == th.ID {
			a.thread.Update(groups, reactions)
		}
	})
}

func (a *App) currentThread() *hsync.Thread {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.open
}

func (a *App) currentSender() *outbox.Sender {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sender
}

// openChat opens a conversation, asking for the PIN first when it is locked.
func (a *App) openChat(id string) {
	summary, _ := a.vm.Summary(id)
	name := hsync.DisplayName(summary.Conversation)
	isGroup := summary.Conversation.IsGroup
	a.do(func(ctx context.Context) {
		th, err := a.engine.OpenGuarded(ctx, id, a.vm.Overlay.Locks())
		if errors.Is(err, hsync.ErrLocked) {
			prompt := a.engine.PromptOpen(id, a.do, a.threadOpened(name, isGroup), func() {
				a.app.QueueUpdateDraw(func() {
					if a.pages.Current() == pagePin {
						a.pages.Pop()
						a.focusTop()
					}
				})
			})
			a.app.QueueUpdateDraw(func() {
				a.pin = views.NewPinView(a.theme, name, prompt)
				a.pages.Push(pagePin, a.pin)
				a.app.SetFocus(a.pin)
			})
			return
		}
		a.threadOpened(name, isGroup)(th, err)
	})
}

// threadOpened returns the callback that shows a thread once it is open.
func (a *App) threadOpened(name string, isGroup bool) func(*hsync.Thread, error) {
	return func(th *hsync.Thread, err error) {
		if err != nil {
			a.flash.Err(err)
			return
		}
		a.closeThread()
		a.mu.Lock()
		a.open = th
		a.sender = outbox.NewSender(th.ID, a.engine, a.bus, a.logger)
		a.attachment = nil
		a.mu.Unlock()

		go func() {
			for range th.Updates() {
				a.scheduleThread()
			}
		}()

		a.app.QueueUpdateDraw(func() {
			if a.pages.Current() == pagePin {
				a.pages.Pop()
			}
			a.thread.Open(th.ID, name, isGroup, a.vm.Self)
			a.pages.Push(pageThread, a.thread)
			a.app.SetFocus(a.thread.Messages())
		})
		a.scheduleThread()
		a.scheduleList()
	}
}

func (a *App) closeThread() {
	a.mu.Lock()
	th := a.open
	a.open = nil
	a.sender = nil
	a.attachment = nil
	a.mu.Unlock()
	if th != nil {
		th.Close()
	}
}

// send submits the composer through the conversation's outbox.
func (a *App) send(text string) {
	a.mu.Lock()
	sender, att := a.sender, a.attachment
	a.mu.Unlock()
	if sender == nil {
		return
	}
	if sender.Busy() {
		a.flash.Warn("Still sending the previous message")
		return
	}
	a.do(func(ctx context.Context) {
		sent, err := sender.Submit(ctx, outbox.Draft{Text: text, Attachment: att})
		switch {
		case errors.Is(err, outbox.ErrBusy):
			a.flash.Warn("Still sending the previous message")
		case err != nil:
			a.flash.Err(err)
			a.app.QueueUpdateDraw(func() { a.thread.SetProgress(-1) })
		case sent:
			a.mu.Lock()
			a.attachment = nil
			a.mu.Unlock()
			a.app.QueueUpdateDraw(a.thread.ClearComposer)
		}
	})
}

func (a *App) react(i int) {
	m := a.thread.Selected()
	if m == nil || i >= len(hsync.QuickReactions) {
		a.flash.Info("Select a message with j/k first")
		return
	}
	emoji := hsync.QuickReactions[i]
	id := m.ID
	a.do(func(ctx context.Context) {
		if err := a.vm.React(ctx, id, emoji); err != nil {
			a.flash.Err(err)
		} else {
			a.flash.Info("Reacted " + emoji)
		}
		a.scheduleThread()
	})
}

func (a *App) unreact() {
	m := a.thread.Selected()
	if m == nil {
		a.flash.Info("Select a message with j/k first")
		return
	}
	id := m.ID
	a.do(func(ctx context.Context) {
		emoji, removed, err := a.vm.Unreact(ctx, id)
		switch {
		case err != nil:
			a.flash.Err(err)
		case removed:
			a.flash.Info("Removed " + emoji)
		default:
			a.flash.Info("You have not reacted to this message")
		}
		a.scheduleThread()
	})
}

func (a *App) deleteSelected() {
	m := a.thread.Selected()
	if m == nil {
		return
	}
	if m.Sender != a.vm.Self {
		a.flash.Warn("You can only delete your own messages")
		return
	}
	conv, id := a.thread.ChatID(), m.ID
	a.do(func(ctx context.Context) {
		if err := a.engine.DeleteMessage(ctx, conv, id); err != nil {
			a.flash.Err(err)
			return
		}
		a.flash.Info("Message deleted")
	})
}

func (a *App) toggleLock(id string) {
	if id == "" {
		return
	}
	locked, err := a.vm.ToggleLock(id)
	if err != nil {
		a.flash.Err(err)
		return
	}
	if locked {
		a.flash.Info("Conversation locked")
	} else {
		a.flash.Info("Conversation unlocked")
	}
	a.scheduleList()
}

func (a *App) showDetails() {
	id := a.thread.ChatID()
	if id == "" {
		return
	}
	a.do(func(ctx context.Context) {
		res := a.engine.Conversation(ctx, id)
		if res.Data == nil {
			a.flash.Err(res.Err)
			return
		}
		locked := a.vm.Overlay.Locks().Contains(id)
		a.app.QueueUpdateDraw(func() {
			a.details.Update(res.Data, a.vm.Self, locked)
			a.pages.Push(pageDetails, a.details)
			a.app.SetFocus(a.details)
		})
	})
}

func (a *App) showContacts() {
	a.do(func(ctx context.Context) {
		rows, err := a.vm.Contacts(ctx)
		if err != nil {
			a.flash.Err(err)
		}
		a.app.QueueUpdateDraw(func() {
			a.contacts.Update(rows)
			if a.pages.Current() != pageContacts {
				a.pages.Push(pageContacts, a.contacts)
				a.app.SetFocus(a.contacts)
			}
		})
	})
}

func (a *App) toggleHidden() {
	phone := a.contacts.SelectedPhone()
	if phone == "" {
		return
	}
	hidden, err := a.vm.ToggleHidden(phone)
	if err != nil {
		a.flash.Err(err)
		return
	}
	if hidden {
		a.flash.Info(phone + " will not see your status")
	} else {
		a.flash.Info(phone + " can see your status")
	}
	a.showContacts()
}

func (a *App) showProfile() {
	a.do(func(ctx context.Context) {
		p := a.engine.CallerProfile(ctx)
		role := a.engine.CallerRole(ctx).Data
		a.app.QueueUpdateDraw(func() {
			a.profile.Update(p, role)
			a.pages.Push(pageProfile, a.profile)
			a.app.SetFocus(a.profile)
		})
	})
}

func (a *App) openSearch(term string) {
	if a.pages.Current() != pageSearch {
		a.search.Update("", nil)
		a.pages.Push(pageSearch, a.search)
	}
	a.search.SetTerm(term)
	a.app.SetFocus(a.search.Input())
	if term != "" {
		a.runSearch(term)
	}
}

func (a *App) runSearch(term string) {
	a.do(func(ctx context.Context) {
		res := a.engine.SearchUsers(ctx, term)
		if res.Err != nil {
			a.flash.Err(res.Err)
			return
		}
		users := hsync.Candidates(res.Data, a.vm.Self)
		a.app.QueueUpdateDraw(func() {
			a.search.Update(term, users)
			if len(users) > 0 {
				a.app.SetFocus(a.search.Results())
			}
		})
	})
}

func (a *App) startDirect(u backend.UserProfile) {
	a.do(func(ctx context.Context) {
		id, err := a.vm.StartDirect(ctx, u)
		if err != nil {
			a.flash.Err(err)
			return
		}
		a.app.QueueUpdateDraw(func() {
			for a.pages.Depth() > 1 {
				a.pages.Pop()
			}
		})
		a.threadOpenedByID(ctx, id, u.DisplayName)
	})
}

// threadOpenedByID opens a conversation from the worker, skipping the
// list lookup openChat does.
func (a *App) threadOpenedByID(ctx context.Context, id, name string) {
	th, err := a.engine.OpenGuarded(ctx, id, a.vm.Overlay.Locks())
	if errors.Is(err, hsync.ErrLocked) {
		a.app.QueueUpdateDraw(func() { a.openChat(id) })
		return
	}
	a.threadOpened(name, false)(th, err)
}

func (a *App) activatePrompt(mode ui.PromptMode, text string) {
	if mode == ui.PromptFilter && text == "" {
		text = a.vm.Search()
	}
	a.prompt.Activate(mode, text)
	a.root.ResizeItem(a.prompt, 3, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.root.ResizeItem(a.prompt, 0, 0)
	a.focusTop()
}

func (a *App) focusTop() {
	switch a.pages.Current() {
	case pageThread:
		a.app.SetFocus(a.thread.Messages())
	case pageSearch:
		a.app.SetFocus(a.search.Input())
	default:
		if top := a.pages.Top(); top != nil {
			a.app.SetFocus(top)
		}
	}
}

// back pops the current page, quitting from the root.
func (a *App) back() {
	if a.pages.Depth() <= 1 {
		a.Stop()
		return
	}
	if a.pages.Current() == pageThread {
		a.closeThread()
		a.scheduleList()
	}
	a.pages.Pop()
	a.focusTop()
}

func (a *App) handleKey(ev *tcell.EventKey) *tcell.EventKey {
	if ev.Key() == tcell.KeyCtrlC || a.prompt.HasFocus() {
		return ev
	}
	if a.pages.Current() == pagePin && a.pin != nil {
		pin := a.pin
		a.do(func(context.Context) {
			if pin.HandleKey(ev) {
				a.app.QueueUpdateDraw(func() {})
			}
		})
		return nil
	}
	if ev.Key() == tcell.KeyEscape {
		if a.thread.Composer().HasFocus() {
			a.app.SetFocus(a.thread.Messages())
			return nil
		}
		if a.pages.Depth() > 1 {
			a.back()
		}
		return nil
	}
	if a.pages.Current() == pageRegister || a.thread.Composer().HasFocus() || a.search.Input().HasFocus() {
		return ev
	}
	if ev.Key() == tcell.KeyRune {
		switch ev.Rune() {
		case ':':
			a.activatePrompt(ui.PromptCommand, "")
			return nil
		case '/':
			a.activatePrompt(ui.PromptFilter, "")
			return nil
		case '@':
			a.activatePrompt(ui.PromptSearch, "")
			return nil
		}
	}
	if a.registry.HandleEvent(a.pages.Current(), ev) {
		return nil
	}
	return ev
}

// applyTheme repaints every component in t.
func (a *App) applyTheme(t *ui.Theme) {
	a.theme = t
	a.root.SetBackgroundColor(t.BgColor)
	themed := []ui.Themed{
		a.logo, a.info, a.crumbs, a.menu, a.prompt, a.flashBar,
		a.list, a.thread, a.details, a.contacts, a.search, a.profile, a.register, a.help,
	}
	if a.pin != nil {
		themed = append(themed, a.pin)
	}
	for _, c := range themed {
		c.ApplyTheme(t)
	}
}

// applyLanguage aligns thread text for the language's direction.
func (a *App) applyLanguage(lang overlay.Language) {
	align := tview.AlignLeft
	if lang.RTL() {
		align = tview.AlignRight
	}
	a.thread.Messages().SetTextAlign(align)
	a.scheduleThread()
}

func (a *App) describeState() string {
	return fmt.Sprintf("%s as %s", a.engine.Status().Current(), a.vm.Self.Short(8))
}
