// Package sync keeps the client's view of the backend current. It defines
// every cached read, runs mutations and invalidates the reads they affect,
// and drives the session status from the outcome of backend calls.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/heyfriend/heyfriend/internal/backend"
	"github.com/heyfriend/heyfriend/internal/bus"
	"github.com/heyfriend/heyfriend/internal/query"
	"github.com/heyfriend/heyfriend/internal/status"
	"go.uber.org/zap"
)

// Engine owns the query definitions and mutations of one session.
type Engine struct {
	be     backend.Backend
	cache  *query.Client
	status *status.Machine
	bus    *bus.Bus
	logger *zap.Logger
	cancel context.CancelFunc

	// RegisterAttempts and RegisterDelay bound the wait for a freshly
	// registered profile to become readable.
	RegisterAttempts int
	RegisterDelay    time.Duration
}

// NewEngine creates a sync engine. The cache should be built with
// query.WithEnabled(m.IsReady) so reads wait for the session.
func NewEngine(be backend.Backend, cache *query.Client, m *status.Machine, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		be:               be,
		cache:            cache,
		status:           m,
		bus:              cache.Bus(),
		logger:           logger,
		RegisterAttempts: 8,
		RegisterDelay:    800 * time.Millisecond,
	}
}

// Cache returns the engine's query cache.
func (e *Engine) Cache() *query.Client { return e.cache }

// Status returns the session state machine.
func (e *Engine) Status() *status.Machine { return e.status }

// Backend returns the backend the engine calls.
func (e *Engine) Backend() backend.Backend { return e.be }

// Connect establishes the session. A caller without a profile ends in
// AuthRequired; a backend failure ends in Degraded and is retried by the
// health monitor once a poll succeeds.
func (e *Engine) Connect(ctx context.Context) error {
	if e.status.Current() == status.Ready {
		return nil
	}
	if err := e.status.Ensure(status.Connecting); err != nil {
		return err
	}
	profile, err := e.be.GetCallerUserProfile(ctx)
	if err != nil {
		_ = e.status.Transition(status.Degraded)
		return fmt.Errorf("fetch caller profile: %w", err)
	}
	if profile == nil {
		e.logger.Info("caller has no profile, registration required")
		return e.status.Transition(status.AuthRequired)
	}
	query.SetData(e.cache, KeyCallerProfile, profile)
	e.logger.Info("session ready", zap.String("principal", string(profile.Principal)))
	return e.status.Transition(status.Ready)
}

// Start watches the conversation list and unread total so they poll for
// the life of the session, and follows query outcomes to move between
// Ready and Degraded.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	events, unsub := e.bus.Subscribe("query:", 256)
	_, stopConversations := query.Watch(e.cache, e.ConversationsQuery())
	_, stopUnread := query.Watch(e.cache, e.TotalUnreadQuery())

	go func() {
		defer unsub()
		defer stopConversations()
		defer stopUnread()
		for {
			select {
			case evt, ok := <-events:
				if !ok {
					return
				}
				e.handleEvent(ctx, evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the engine.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

func (e *Engine) handleEvent(ctx context.Context, evt bus.Event) {
	switch evt.Outcome() {
	case query.EventFailed:
		if e.status.Current() != status.Ready {
			return
		}
		err, _ := evt.Payload.(error)
		e.logger.Warn("backend degraded", zap.String("event", evt.Kind), zap.Error(err))
		_ = e.status.Transition(status.Degraded)
	case query.EventUpdated:
		if e.status.Current() != status.Degraded {
			return
		}
		if err := e.Connect(ctx); err != nil {
			e.logger.Warn("reconnect failed", zap.Error(err))
		}
	}
}

// sessionOpen reports whether an identity is attached to the backend, with
// or without a registered profile.
func (e *Engine) sessionOpen() bool {
	switch e.status.Current() {
	case status.AuthRequired, status.Ready, status.Degraded:
		return true
	}
	return false
}
