package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"time"

	"github.com/heyfriend/heyfriend/internal/backend"
	"github.com/heyfriend/heyfriend/internal/overlay"
	"github.com/heyfriend/heyfriend/internal/query"
	"go.uber.org/zap"
)

// ErrLocked is returned when opening a conversation that is in the lock set.
var ErrLocked = errors.New("conversation is locked")

// LockSet reports which conversations need a PIN to open.
type LockSet interface {
	Contains(id string) bool
}

// Thread is one open conversation. While open its messages poll, and its
// Updates channel fires whenever they change.
type Thread struct {
	ID string

	engine *Engine
	notify <-chan struct{}
	stop   func()
	once   stdsync.Once
}

// OpenThread opens a conversation: it marks it read once for this open
// and starts polling its messages. A failed read mark is logged and does
// not prevent the open.
func (e *Engine) OpenThread(ctx context.Context, conversationID string) (*Thread, error) {
	if !e.status.IsReady() {
		return nil, backend.ErrNotReady
	}
	if err := e.MarkConversationAsRead(ctx, conversationID); err != nil {
		e.logger.Warn("mark as read failed", zap.String("conversation", conversationID), zap.Error(err))
	}
	notify, stop := query.Watch(e.cache, e.MessagesQuery(conversationID))
	e.bus.Emit("sync.thread_opened", conversationID)
	return &Thread{ID: conversationID, engine: e, notify: notify, stop: stop}, nil
}

// OpenGuarded opens a conversation unless locks holds it, in which case it
// returns ErrLocked and the caller must go through PromptOpen.
func (e *Engine) OpenGuarded(ctx context.Context, conversationID string, locks LockSet) (*Thread, error) {
	if locks != nil && locks.Contains(conversationID) {
		return nil, ErrLocked
	}
	return e.OpenThread(ctx, conversationID)
}

// PromptOpen returns a PIN prompt that opens the conversation on success.
// The prompt runs on the input goroutine, so the open itself is handed to
// schedule. The lock itself is untouched, so the next open prompts again.
func (e *Engine) PromptOpen(conversationID string, schedule func(func(context.Context)), onOpen func(*Thread, error), onClose func()) *overlay.PinPrompt {
	return overlay.NewPinPrompt(func() {
		schedule(func(ctx context.Context) {
			onOpen(e.OpenThread(ctx, conversationID))
		})
	}, onClose)
}

// Updates fires when the thread's messages are refetched, fail or are
// invalidated. It is closed by Close.
func (t *Thread) Updates() <-chan struct{} { return t.notify }

// Messages returns the cached messages, oldest first.
func (t *Thread) Messages(ctx context.Context) query.Result[[]backend.Message] {
	return t.engine.Messages(ctx, t.ID)
}

// Groups returns the messages bucketed by local calendar day.
func (t *Thread) Groups(ctx context.Context, now time.Time, labels DayLabels) []DayGroup {
	return GroupByDay(t.Messages(ctx).Data, now, labels)
}

// Close stops polling. It is safe to call more than once.
func (t *Thread) Close() {
	t.once.Do(func() {
		t.stop()
		t.engine.bus.Emit("sync.thread_closed", t.ID)
	})
}
