package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"testing"
	"time"

	"github.com/heyfriend/heyfriend/internal/backend"
	"github.com/heyfriend/heyfriend/internal/bus"
	"github.com/heyfriend/heyfriend/internal/overlay"
	"github.com/heyfriend/heyfriend/internal/query"
	"github.com/heyfriend/heyfriend/internal/status"
)

// fakeBackend records calls; methods it does not override panic.
type fakeBackend struct {
	backend.Backend

	mu        stdsync.Mutex
	calls     map[string]int
	profile   *backend.UserProfile
	profileAt int // GetCallerUserProfile call that first returns profile
	failWith  error
	lastTerm  string
}

func newFake() *fakeBackend {
	return &fakeBackend{
		calls:   make(map[string]int),
		profile: &backend.UserProfile{Principal: "hf-alice", DisplayName: "Alice"},
	}
}

func (f *fakeBackend) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.failWith
}

func (f *fakeBackend) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) fail(err error) {
	f.mu.Lock()
	f.failWith = err
	f.mu.Unlock()
}

func (f *fakeBackend) GetCallerUserProfile(ctx context.Context) (*backend.UserProfile, error) {
	if err := f.record("getCallerUserProfile"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls["getCallerUserProfile"] < f.profileAt {
		return nil, nil
	}
	return f.profile, nil
}

func (f *fakeBackend) RegisterUser(ctx context.Context, reg backend.Registration) error {
	return f.record("registerUser")
}

func (f *fakeBackend) SearchUsersByDisplayName(ctx context.Context, name string) ([]backend.UserProfile, error) {
	f.mu.Lock()
	f.lastTerm = name
	f.mu.Unlock()
	return nil, f.record("searchByName")
}

func (f *fakeBackend) SearchUsersByPhoneNumber(ctx context.Context, phone string) ([]backend.UserProfile, error) {
	f.mu.Lock()
	f.lastTerm = phone
	f.mu.Unlock()
	return nil, f.record("searchByPhone")
}

func (f *fakeBackend) GetConversations(ctx context.Context) ([]backend.ConversationSummary, error) {
	if err := f.record("getConversations"); err != nil {
		return nil, err
	}
	return []backend.ConversationSummary{{Conversation: backend.Conversation{ID: "c1", Name: "Team"}}}, nil
}

func (f *fakeBackend) GetConversation(ctx context.Context, id string) (*backend.Conversation, error) {
	if err := f.record("getConversation"); err != nil {
		return nil, err
	}
	return &backend.Conversation{ID: id}, nil
}

func (f *fakeBackend) GetMessages(ctx context.Context, id string, limit, offset int) ([]backend.Message, error) {
	if err := f.record("getMessages"); err != nil {
		return nil, err
	}
	return []backend.Message{{ID: "m1", ConversationID: id, Timestamp: time.Now()}}, nil
}

func (f *fakeBackend) GetReactions(ctx context.Context, messageID string) ([]backend.Reaction, error) {
	return nil, f.record("getReactions")
}

func (f *fakeBackend) GetTotalUnread(ctx context.Context) (int, error) {
	return 0, f.record("getTotalUnread")
}

func (f *fakeBackend) SendMessage(ctx context.Context, id, content string, mt backend.MediaType, media *backend.Blob) (string, error) {
	if err := f.record("sendMessage"); err != nil {
		return "", err
	}
	return "m2", nil
}

func (f *fakeBackend) MarkConversationAsRead(ctx context.Context, id string) error {
	return f.record("markRead")
}

func (f *fakeBackend) AddReaction(ctx context.Context, messageID, emoji string) (string, error) {
	return "r1", f.record("addReaction")
}

func newEngine(t *testing.T, fake *fakeBackend) *Engine {
	t.Helper()
	b := bus.New()
	m := status.NewMachine(b)
	cache := query.New(query.WithBus(b), query.WithEnabled(m.IsReady))
	t.Cleanup(cache.Close)
	e := NewEngine(fake, cache, m, nil)
	e.RegisterDelay = time.Millisecond
	return e
}

func readyEngine(t *testing.T, fake *fakeBackend) *Engine {
	t.Helper()
	e := newEngine(t, fake)
	if err := e.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if got := e.Status().Current(); got != status.Ready {
		t.Fatalf("status = %s, want READY", got)
	}
	return e
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestConnect(t *testing.T) {
	t.Run("registered", func(t *testing.T) {
		e := readyEngine(t, newFake())
		if p := query.Peek[*backend.UserProfile](e.Cache(), KeyCallerProfile).Data; p == nil || p.DisplayName != "Alice" {
			t.Errorf("cached profile = %+v, want Alice", p)
		}
	})
	t.Run("unregistered", func(t *testing.T) {
		fake := newFake()
		fake.profile = nil
		e := newEngine(t, fake)
		if err := e.Connect(context.Background()); err != nil {
			t.Fatalf("Connect() error = %v", err)
		}
		if got := e.Status().Current(); got != status.AuthRequired {
			t.Errorf("status = %s, want AUTH_REQUIRED", got)
		}
	})
	t.Run("backend down", func(t *testing.T) {
		fake := newFake()
		fake.fail(backend.ErrUnavailable)
		e := newEngine(t, fake)
		if err := e.Connect(context.Background()); !errors.Is(err, backend.ErrUnavailable) {
			t.Fatalf("Connect() error = %v, want ErrUnavailable", err)
		}
		if got := e.Status().Current(); got != status.Degraded {
			t.Errorf("status = %s, want DEGRADED", got)
		}
	})
}

func TestMutationBeforeReady(t *testing.T) {
	fake := newFake()
	e := newEngine(t, fake)

	_, err := e.SendMessage(context.Background(), "c1", "hi", backend.MediaText, nil)
	if !errors.Is(err, backend.ErrNotReady) {
		t.Fatalf("SendMessage() error = %v, want ErrNotReady", err)
	}
	if n := fake.count("sendMessage"); n != 0 {
		t.Errorf("backend called %d times, want 0", n)
	}
	if r := e.Conversations(context.Background()); r.Loaded {
		t.Error("read before ready should return an empty result")
	}
}

func TestSendMessageInvalidatesThreadAndList(t *testing.T) {
	fake := newFake()
	e := readyEngine(t, fake)
	ctx := context.Background()

	e.Messages(ctx, "c1")
	e.Conversations(ctx)
	e.Conversation(ctx, "c1")
	e.Reactions(ctx, "m1")

	if _, err := e.SendMessage(ctx, "c1", "hi", backend.MediaText, nil); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	e.Messages(ctx, "c1")
	e.Conversations(ctx)
	e.Conversation(ctx, "c1")
	e.Reactions(ctx, "m1")

	waitFor(t, "messages refetch", func() bool { return fake.count("getMessages") == 2 })
	waitFor(t, "conversations refetch", func() bool { return fake.count("getConversations") == 2 })
	if n := fake.count("getConversation"); n != 1 {
		t.Errorf("conversation fetched %d times, want 1", n)
	}
	if n := fake.count("getReactions"); n != 1 {
		t.Errorf("reactions fetched %d times, want 1", n)
	}
}

func TestReactionInvalidatesOnlyItsMessage(t *testing.T) {
	fake := newFake()
	e := readyEngine(t, fake)
	ctx := context.Background()

	e.Reactions(ctx, "m1")
	e.Reactions(ctx, "m2")
	e.Messages(ctx, "c1")

	if _, err := e.AddReaction(ctx, "m1", "👍"); err != nil {
		t.Fatalf("AddReaction() error = %v", err)
	}
	e.Reactions(ctx, "m1")
	e.Reactions(ctx, "m2")
	e.Messages(ctx, "c1")

	waitFor(t, "m1 reactions refetch", func() bool { return fake.count("getReactions") == 3 })
	time.Sleep(20 * time.Millisecond)
	if n := fake.count("getReactions"); n != 3 {
		t.Errorf("reactions fetched %d times, want 3", n)
	}
	if n := fake.count("getMessages"); n != 1 {
		t.Errorf("messages fetched %d times, want 1", n)
	}
}

func TestFailedMutationInvalidatesNothing(t *testing.T) {
	fake := newFake()
	e := readyEngine(t, fake)
	ctx := context.Background()
	e.Messages(ctx, "c1")

	fake.fail(backend.ErrPermissionDenied)
	if _, err := e.SendMessage(ctx, "c1", "hi", backend.MediaText, nil); !errors.Is(err, backend.ErrPermissionDenied) {
		t.Fatalf("SendMessage() error = %v, want ErrPermissionDenied", err)
	}
	fake.fail(nil)

	e.Messages(ctx, "c1")
	time.Sleep(20 * time.Millisecond)
	if n := fake.count("getMessages"); n != 1 {
		t.Errorf("messages fetched %d times, want 1", n)
	}
}

func TestSearchUsersRouting(t *testing.T) {
	tests := []struct {
		term   string
		op     string
		passed string
	}{
		{"  ", "", ""},
		{"+1 (555) 010-2000", "searchByPhone", "+1 (555) 010-2000"},
		{" 0712345678 ", "searchByPhone", "0712345678"},
		{"alice", "searchByName", "alice"},
		{"Room 101", "searchByName", "Room 101"},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			fake := newFake()
			e := readyEngine(t, fake)
			r := e.SearchUsers(context.Background(), tt.term)
			if tt.op == "" {
				if !r.Loaded || len(r.Data) != 0 {
					t.Errorf("empty term result = %+v, want loaded and empty", r)
				}
				if fake.count("searchByName")+fake.count("searchByPhone") != 0 {
					t.Error("empty term reached the backend")
				}
				return
			}
			if n := fake.count(tt.op); n != 1 {
				t.Errorf("%s called %d times, want 1", tt.op, n)
			}
			if fake.lastTerm != tt.passed {
				t.Errorf("term = %q, want %q", fake.lastTerm, tt.passed)
			}
		})
	}
}

func TestRegisterUserPollsForProfile(t *testing.T) {
	fake := newFake()
	fake.profileAt = 4 // Connect uses the first call
	e := newEngine(t, fake)
	if err := e.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if got := e.Status().Current(); got != status.AuthRequired {
		t.Fatalf("status = %s, want AUTH_REQUIRED", got)
	}

	p, err := e.RegisterUser(context.Background(), backend.Registration{PhoneNumber: "0712", DisplayName: "Alice"})
	if err != nil {
		t.Fatalf("RegisterUser() error = %v", err)
	}
	if p == nil || p.DisplayName != "Alice" {
		t.Fatalf("profile = %+v, want Alice", p)
	}
	if n := fake.count("getCallerUserProfile"); n != 4 {
		t.Errorf("profile polled %d times in total, want 4", n)
	}
	if got := e.Status().Current(); got != status.Ready {
		t.Errorf("status = %s, want READY", got)
	}
	if cached := query.Peek[*backend.UserProfile](e.Cache(), KeyCallerProfile).Data; cached == nil {
		t.Error("profile not seeded into the cache")
	}
}

func TestRegisterUserGivesUpQuietly(t *testing.T) {
	fake := newFake()
	fake.profileAt = 100
	e := newEngine(t, fake)
	_ = e.Connect(context.Background())

	p, err := e.RegisterUser(context.Background(), backend.Registration{PhoneNumber: "0712"})
	if err != nil || p != nil {
		t.Fatalf("RegisterUser() = %+v, %v, want nil, nil", p, err)
	}
	if n := fake.count("getCallerUserProfile"); n != 1+8 {
		t.Errorf("profile polled %d times, want 9", n)
	}
	if got := e.Status().Current(); got != status.AuthRequired {
		t.Errorf("status = %s, want AUTH_REQUIRED", got)
	}
}

func TestHealthMonitor(t *testing.T) {
	fake := newFake()
	e := readyEngine(t, fake)
	ctx := context.Background()

	e.handleEvent(ctx, bus.Event{Kind: "query:conversations:failed", Payload: backend.ErrUnavailable})
	if got := e.Status().Current(); got != status.Degraded {
		t.Fatalf("status = %s, want DEGRADED", got)
	}
	e.handleEvent(ctx, bus.Event{Kind: "query:conversations:updated"})
	if got := e.Status().Current(); got != status.Ready {
		t.Errorf("status = %s, want READY", got)
	}
}

func TestStartWatchesListAndUnread(t *testing.T) {
	fake := newFake()
	e := readyEngine(t, fake)
	e.Start(context.Background())

	waitFor(t, "conversations poller", func() bool { return e.Cache().Polling(KeyConversations) })
	waitFor(t, "unread poller", func() bool { return e.Cache().Polling(KeyTotalUnread) })
	e.Stop()
	waitFor(t, "pollers stopped", func() bool {
		return !e.Cache().Polling(KeyConversations) && !e.Cache().Polling(KeyTotalUnread)
	})
}

func TestOpenThreadMarksReadOnce(t *testing.T) {
	fake := newFake()
	e := readyEngine(t, fake)
	ctx := context.Background()

	th, err := e.OpenThread(ctx, "c1")
	if err != nil {
		t.Fatalf("OpenThread() error = %v", err)
	}
	if !e.Cache().Polling(MessagesKey("c1")) {
		t.Error("messages not polling while open")
	}
	th.Messages(ctx)
	th.Messages(ctx)
	if n := fake.count("markRead"); n != 1 {
		t.Errorf("markRead called %d times, want 1", n)
	}
	th.Close()
	th.Close()
	if e.Cache().Polling(MessagesKey("c1")) {
		t.Error("messages still polling after close")
	}

	th, err = e.OpenThread(ctx, "c1")
	if err != nil {
		t.Fatalf("OpenThread() error = %v", err)
	}
	defer th.Close()
	if n := fake.count("markRead"); n != 2 {
		t.Errorf("markRead called %d times after reopening, want 2", n)
	}
}

func TestLockedConversationNeedsPIN(t *testing.T) {
	fake := newFake()
	e := readyEngine(t, fake)
	ctx := context.Background()
	store := overlay.NewMemory()
	if err := store.Locks().Set("c1", true); err != nil {
		t.Fatal(err)
	}

	if _, err := e.OpenGuarded(ctx, "c1", store.Locks()); !errors.Is(err, ErrLocked) {
		t.Fatalf("OpenGuarded() error = %v, want ErrLocked", err)
	}
	if n := fake.count("markRead"); n != 0 {
		t.Fatalf("locked open marked read %d times", n)
	}

	var (
		opened  *Thread
		pending []func(context.Context)
	)
	closed := false
	schedule := func(fn func(context.Context)) { pending = append(pending, fn) }
	prompt := e.PromptOpen("c1", schedule, func(th *Thread, err error) {
		if err != nil {
			t.Errorf("open after PIN error = %v", err)
		}
		opened = th
	}, func() { closed = true })

	for _, r := range "0000" {
		prompt.Type(r)
	}
	if opened != nil || !prompt.Failed() {
		t.Fatal("wrong PIN opened the conversation")
	}
	for _, r := range overlay.DefaultPIN {
		prompt.Type(r)
	}
	if !closed || len(pending) != 1 {
		t.Fatalf("correct PIN: closed = %v, scheduled %d opens, want 1", closed, len(pending))
	}
	if opened != nil || fake.count("markRead") != 0 {
		t.Fatal("correct PIN called the backend before the scheduled open ran")
	}
	pending[0](ctx)
	if opened == nil {
		t.Fatal("scheduled open did not open the conversation")
	}
	if n := fake.count("markRead"); n != 1 {
		t.Errorf("markRead called %d times after the scheduled open, want 1", n)
	}
	opened.Close()

	if !store.Locks().Contains("c1") {
		t.Error("unlocking for one open removed the lock")
	}
	if _, err := e.OpenGuarded(ctx, "c1", store.Locks()); !errors.Is(err, ErrLocked) {
		t.Errorf("second OpenGuarded() error = %v, want ErrLocked", err)
	}
	th, err := e.OpenGuarded(ctx, "c2", store.Locks())
	if err != nil {
		t.Fatalf("unlocked OpenGuarded() error = %v", err)
	}
	th.Close()
}
