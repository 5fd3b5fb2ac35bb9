package model

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/heyfriend/heyfriend/internal/backend"
	"github.com/heyfriend/heyfriend/internal/overlay"
	"github.com/heyfriend/heyfriend/internal/query"
	hsync "github.com/heyfriend/heyfriend/internal/sync"
)

// Row is one line of the conversation list.
type Row struct {
	ID      string
	Name    string
	Preview string
	Time    string
	Badge   string
	Locked  bool
	Group   bool
}

// BuildRows filters summaries for tab and search and renders each as a
// row. Locked conversations hide their preview.
func BuildRows(summaries []backend.ConversationSummary, tab hsync.Tab, search string, locks hsync.LockSet, now time.Time) []Row {
	visible := hsync.FilterSummaries(summaries, tab, search)
	rows := make([]Row, 0, len(visible))
	for _, s := range visible {
		locked := locks != nil && locks.Contains(s.Conversation.ID)
		r := Row{
			ID:      s.Conversation.ID,
			Name:    hsync.DisplayName(s.Conversation),
			Preview: hsync.Preview(s, locked),
			Badge:   hsync.UnreadBadge(s.UnreadCount),
			Locked:  locked,
			Group:   s.Conversation.IsGroup,
		}
		if s.LastMessage != nil {
			r.Time = hsync.FormatTimestamp(s.LastMessage.Timestamp, now)
		}
		rows = append(rows, r)
	}
	return rows
}

// TabLabel names a tab, with the unread conversation count on the unread
// tab.
func TabLabel(tab hsync.Tab, summaries []backend.ConversationSummary) string {
	switch tab {
	case hsync.TabUnread:
		if n := hsync.CountUnreadConversations(summaries); n > 0 {
			return fmt.Sprintf("Unread (%d)", n)
		}
		return "Unread"
	case hsync.TabGroups:
		return "Groups"
	}
	return "All"
}

// ContactRow is a contact with its status visibility.
type ContactRow struct {
	backend.Contact
	Hidden bool
}

// ViewModel holds the list state the screens share and turns user intents
// into engine and overlay calls.
type ViewModel struct {
	Engine  *hsync.Engine
	Overlay *overlay.Store
	Profile string
	Self    backend.Principal

	now func() time.Time

	mu     sync.Mutex
	tab    hsync.Tab
	search string
}

// New creates a view model for the signed-in principal.
func New(engine *hsync.Engine, store *overlay.Store, profile string, self backend.Principal) *ViewModel {
	return &ViewModel{
		Engine:  engine,
		Overlay: store,
		Profile: profile,
		Self:    self,
		now:     time.Now,
		tab:     hsync.TabAll,
	}
}

func (vm *ViewModel) Tab() hsync.Tab {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.tab
}

func (vm *ViewModel) SetTab(t hsync.Tab) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.tab = t
}

// CycleTab moves to the next tab and returns it.
func (vm *ViewModel) CycleTab() hsync.Tab {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	i := slices.Index(hsync.Tabs, vm.tab)
	vm.tab = hsync.Tabs[(i+1)%len(hsync.Tabs)]
	return vm.tab
}

func (vm *ViewModel) Search() string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.search
}

func (vm *ViewModel) SetSearch(s string) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.search = s
}

// Summaries returns the conversation list, cached when fresh.
func (vm *ViewModel) Summaries(ctx context.Context) query.Result[[]backend.ConversationSummary] {
	return vm.Engine.Conversations(ctx)
}

// Rows returns the list rows for the current tab and search. The error is
// the last fetch failure; rows may still hold stale data alongside it.
func (vm *ViewModel) Rows(ctx context.Context) ([]Row, error) {
	res := vm.Summaries(ctx)
	return BuildRows(res.Data, vm.Tab(), vm.Search(), vm.Overlay.Locks(), vm.now()), res.Err
}

// Summary finds a cached summary by conversation ID without fetching.
func (vm *ViewModel) Summary(id string) (backend.ConversationSummary, bool) {
	res := query.Peek[[]backend.ConversationSummary](vm.Engine.Cache(), hsync.KeyConversations)
	for _, s := range res.Data {
		if s.Conversation.ID == id {
			return s, true
		}
	}
	return backend.ConversationSummary{}, false
}

// ToggleLock flips id in the lock set and reports whether it is now locked.
func (vm *ViewModel) ToggleLock(id string) (bool, error) {
	return vm.Overlay.Locks().Toggle(id)
}

// React adds the caller's emoji reaction to a message. Repeats accumulate.
func (vm *ViewModel) React(ctx context.Context, messageID, emoji string) error {
	_, err := vm.Engine.AddReaction(ctx, messageID, emoji)
	return err
}

// Unreact removes the caller's most recent reaction from a message and
// returns its emoji. It reports false when there is none.
func (vm *ViewModel) Unreact(ctx context.Context, messageID string) (string, bool, error) {
	res := query.Refetch(ctx, vm.Engine.Cache(), vm.Engine.ReactionsQuery(messageID))
	if res.Err != nil {
		return "", false, res.Err
	}
	own, ok := hsync.LastOwnReaction(res.Data, vm.Self)
	if !ok {
		return "", false, nil
	}
	return own.Emoji, true, vm.Engine.RemoveReaction(ctx, messageID, own.ID)
}

// StartDirect returns the direct conversation with user, creating it when
// none exists yet.
func (vm *ViewModel) StartDirect(ctx context.Context, user backend.UserProfile) (string, error) {
	res := vm.Summaries(ctx)
	for _, s := range res.Data {
		c := s.Conversation
		if !c.IsGroup && c.HasMember(user.Principal) {
			return c.ID, nil
		}
	}
	return vm.Engine.CreateConversation(ctx, user.DisplayName, "", false, []backend.Principal{user.Principal})
}

// Contacts lists contacts with whether each is hidden from status.
func (vm *ViewModel) Contacts(ctx context.Context) ([]ContactRow, error) {
	res := vm.Engine.Contacts(ctx)
	hidden := vm.Overlay.StatusExclusions()
	rows := make([]ContactRow, len(res.Data))
	for i, c := range res.Data {
		rows[i] = ContactRow{Contact: c, Hidden: hidden.Contains(c.PhoneNumber)}
	}
	return rows, res.Err
}

// ToggleHidden flips a contact's status visibility and reports whether it
// is now hidden.
func (vm *ViewModel) ToggleHidden(phone string) (bool, error) {
	return vm.Overlay.StatusExclusions().Toggle(phone)
}

// Labels returns the day labels for the stored language.
func (vm *ViewModel) Labels() hsync.DayLabels {
	return hsync.LabelsFor(vm.Overlay.Language())
}

// Now is the clock the view model renders against.
func (vm *ViewModel) Now() time.Time {
	return vm.now()
}
