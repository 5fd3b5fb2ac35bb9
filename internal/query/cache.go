// Package query is a keyed request cache. It answers reads from memory
// while data is fresh, refetches stale keys in the background, polls keys
// that are being watched, retries failed fetches and coalesces concurrent
// fetches of one key into a single call.
package query

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/heyfriend/heyfriend/internal/bus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	ErrClosed    = errors.New("query cache closed")
	ErrNoFetcher = errors.New("query has no fetch function")
)

// Rounds a fetch may repeat when its key is invalidated mid-flight.
const maxRounds = 3

// Query describes how to fetch one key.
type Query[T any] struct {
	Key    Key
	Policy Policy
	Fetch  func(ctx context.Context) (T, error)
}

// Result is a snapshot of a cached key. Err holds the latest fetch error
// and is cleared by the next success; Data keeps the last good value.
type Result[T any] struct {
	Data      T
	Err       error
	UpdatedAt time.Time
	Loaded    bool
	Fetching  bool
}

type entry struct {
	id        string
	key       Key
	policy    Policy
	fetch     func(context.Context) (any, error)
	data      any
	loaded    bool
	err       error
	updatedAt time.Time
	invalid   bool
	fetching  bool
	gen       uint64
	watchers  int
	stopPoll  context.CancelFunc
}

// Client is the cache. It is safe for concurrent use and outlives any
// single reader: fetches run on the client's own context.
type Client struct {
	mu      sync.Mutex
	entries map[string]*entry
	closed  bool

	group   singleflight.Group
	bus     *bus.Bus
	enabled func() bool
	logger  *zap.Logger
	metrics *Metrics
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Client.
type Option func(*Client)

// WithBus publishes cache events on b instead of a private bus.
func WithBus(b *bus.Bus) Option { return func(c *Client) { c.bus = b } }

func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.logger = l } }

func WithMetrics(m *Metrics) Option { return func(c *Client) { c.metrics = m } }

// WithEnabled gates every fetch. While it reports false, reads return an
// empty result and pollers skip their ticks.
func WithEnabled(fn func() bool) Option { return func(c *Client) { c.enabled = fn } }

// WithClock replaces time.Now for staleness checks.
func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

// New creates a cache.
func New(opts ...Option) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		entries: make(map[string]*entry),
		logger:  zap.NewNop(),
		now:     time.Now,
		enabled: func() bool { return true },
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.bus == nil {
		c.bus = bus.New()
	}
	return c
}

// Bus returns the bus cache events are published on.
func (c *Client) Bus() *bus.Bus {
	return c.bus
}

// Close stops every poller, cancels in-flight fetches and waits for
// background work to finish.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	stopped := 0
	for _, e := range c.entries {
		if e.stopPoll != nil {
			e.stopPoll()
			e.stopPoll = nil
			stopped++
		}
	}
	c.mu.Unlock()

	c.metrics.pollerDelta(float64(-stopped))
	c.cancel()
	c.wg.Wait()
}

// Read returns the cached value for q. Fresh data is returned as is. Stale
// data is returned immediately while a background refetch starts. Missing
// data is fetched before returning; if ctx ends first the fetch carries on
// and the partial result reports ctx's error.
func Read[T any](ctx context.Context, c *Client, q Query[T]) Result[T] {
	if !c.enabled() {
		return Result[T]{}
	}
	e := register(c, q)

	c.mu.Lock()
	loaded, fresh := e.loaded, c.freshLocked(e)
	c.mu.Unlock()

	if loaded {
		c.metrics.hit(q.Key.Name(), fresh)
		if !fresh {
			c.refresh(e)
		}
		return snapshot[T](c, e)
	}
	return wait[T](ctx, c, e)
}

// Refetch fetches q now, joining any fetch of the key already in flight.
func Refetch[T any](ctx context.Context, c *Client, q Query[T]) Result[T] {
	if !c.enabled() {
		return Result[T]{}
	}
	return wait[T](ctx, c, register(c, q))
}

// Peek returns the cached value for k without fetching.
func Peek[T any](c *Client, k Key) Result[T] {
	c.mu.Lock()
	e, ok := c.entries[k.String()]
	c.mu.Unlock()
	if !ok {
		return Result[T]{}
	}
	return snapshot[T](c, e)
}

// SetData replaces the cached value for k, as if it had just been fetched.
func SetData[T any](c *Client, k Key, v T) {
	c.mu.Lock()
	e := c.entryLocked(k)
	e.data = v
	e.loaded = true
	e.err = nil
	e.invalid = false
	e.updatedAt = c.now()
	e.gen++
	c.mu.Unlock()

	c.bus.Emit(eventKind(k, EventUpdated), k)
}

// Invalidate marks every key starting with prefix as stale. Watched keys
// refetch immediately; the rest refetch on their next read.
func (c *Client) Invalidate(prefix Key) {
	var keys []Key
	var active []*entry

	c.mu.Lock()
	for _, e := range c.entries {
		if !e.key.HasPrefix(prefix) {
			continue
		}
		e.gen++
		e.invalid = true
		keys = append(keys, e.key)
		if e.watchers > 0 {
			active = append(active, e)
		}
	}
	c.mu.Unlock()

	for _, k := range keys {
		c.bus.Emit(eventKind(k, EventInvalidated), k)
	}
	if !c.enabled() {
		return
	}
	for _, e := range active {
		c.refresh(e)
	}
}

// Watch subscribes to changes of q's key. The returned channel receives a
// value whenever the key is updated, fails or is invalidated, and is closed
// by the cancel function. The first watcher starts the key's poller and the
// last one to cancel stops it.
func Watch[T any](c *Client, q Query[T]) (<-chan struct{}, func()) {
	e := register(c, q)

	notify := make(chan struct{}, 1)
	events, unsub := c.bus.Subscribe(Namespace(q.Key), 16)
	go func() {
		defer close(notify)
		for range events {
			select {
			case notify <- struct{}{}:
			default:
			}
		}
	}()

	c.mu.Lock()
	e.watchers++
	startPoll := e.watchers == 1 && e.policy.PollInterval > 0 && !c.closed
	if startPoll {
		ctx, cancel := context.WithCancel(c.ctx)
		e.stopPoll = cancel
		c.wg.Add(1)
		go c.poll(ctx, e, e.policy.PollInterval)
	}
	needsFetch := !c.freshLocked(e)
	c.mu.Unlock()

	if startPoll {
		c.metrics.pollerDelta(1)
	}
	if needsFetch && c.enabled() {
		c.refresh(e)
	}

	var once sync.Once
	return notify, func() {
		once.Do(func() {
			unsub()
			c.mu.Lock()
			e.watchers--
			stopped := false
			if e.watchers == 0 && e.stopPoll != nil {
				e.stopPoll()
				e.stopPoll = nil
				stopped = true
			}
			c.mu.Unlock()
			if stopped {
				c.metrics.pollerDelta(-1)
			}
		})
	}
}

// Polling reports whether k currently has a running poller.
func (c *Client) Polling(k Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k.String()]
	return ok && e.stopPoll != nil
}

func register[T any](c *Client, q Query[T]) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entryLocked(q.Key)
	e.policy = q.Policy
	if q.Fetch != nil {
		fetch := q.Fetch
		e.fetch = func(ctx context.Context) (any, error) { return fetch(ctx) }
	}
	return e
}

func (c *Client) entryLocked(k Key) *entry {
	id := k.String()
	e, ok := c.entries[id]
	if !ok {
		e = &entry{id: id, key: append(Key(nil), k...)}
		c.entries[id] = e
	}
	return e
}

func snapshot[T any](c *Client, e *entry) Result[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := Result[T]{Err: e.err, UpdatedAt: e.updatedAt, Loaded: e.loaded, Fetching: e.fetching}
	if v, ok := e.data.(T); ok {
		r.Data = v
	}
	return r
}

func wait[T any](ctx context.Context, c *Client, e *entry) Result[T] {
	select {
	case <-c.load(e):
		return snapshot[T](c, e)
	case <-ctx.Done():
		r := snapshot[T](c, e)
		if r.Err == nil {
			r.Err = ctx.Err()
		}
		return r
	}
}

func (c *Client) freshLocked(e *entry) bool {
	return e.loaded && !e.invalid && c.now().Sub(e.updatedAt) < e.policy.StaleTime
}

// load starts or joins the key's single in-flight fetch.
func (c *Client) load(e *entry) <-chan singleflight.Result {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		ch := make(chan singleflight.Result, 1)
		ch <- singleflight.Result{Err: ErrClosed}
		return ch
	}
	if e.fetching {
		c.metrics.joined(e.key.Name())
	}
	c.mu.Unlock()

	return c.group.DoChan(e.id, func() (any, error) { return c.run(e) })
}

// refresh loads e in the background.
func (c *Client) refresh(e *entry) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		select {
		case <-c.load(e):
		case <-c.ctx.Done():
		}
	}()
}

func (c *Client) run(e *entry) (any, error) {
	var data any
	var err error
	for round := 0; round < maxRounds; round++ {
		c.mu.Lock()
		e.fetching = true
		gen := e.gen
		fetch, policy := e.fetch, e.policy
		c.mu.Unlock()

		if fetch == nil {
			data, err = nil, ErrNoFetcher
		} else {
			data, err = c.attempt(e.key, policy, fetch)
		}
		c.metrics.fetched(e.key.Name(), err)

		c.mu.Lock()
		stale := e.gen != gen
		if stale && err == nil && round < maxRounds-1 {
			c.mu.Unlock()
			continue
		}
		e.fetching = false
		if err == nil {
			e.data = data
			e.loaded = true
			e.err = nil
			e.invalid = stale
			e.updatedAt = c.now()
		} else {
			e.err = err
		}
		c.mu.Unlock()
		break
	}

	if err != nil {
		c.logger.Warn("query fetch failed", zap.String("key", e.id), zap.Error(err))
		c.bus.Emit(eventKind(e.key, EventFailed), err)
	} else {
		c.bus.Emit(eventKind(e.key, EventUpdated), e.key)
	}
	return data, err
}

// attempt calls fetch up to 1+policy.Retry times.
func (c *Client) attempt(k Key, policy Policy, fetch func(context.Context) (any, error)) (any, error) {
	var lastErr error
	for i := 0; i <= policy.Retry; i++ {
		if i > 0 {
			c.logger.Debug("query retry", zap.String("key", k.String()), zap.Int("attempt", i+1), zap.Error(lastErr))
			select {
			case <-time.After(policy.RetryDelay):
			case <-c.ctx.Done():
				return nil, c.ctx.Err()
			}
		}
		data, err := fetch(c.ctx)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if c.ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) poll(ctx context.Context, e *entry, every time.Duration) {
	defer c.wg.Done()
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if !c.enabled() {
				continue
			}
			select {
			case <-c.load(e):
			case <-ctx.Done():
				return
			}
		}
	}
}
