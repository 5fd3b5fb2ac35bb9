package overlay

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"
)

// kv is the durable byte store behind the overlay.
type kv interface {
	get(key string) ([]byte, bool, error)
	set(key string, value []byte) error
	close() error
}

type pebbleKV struct {
	db *pebble.DB
}

func openPebble(dir string, logger *zap.Logger) (*pebbleKV, error) {
	db, err := pebble.Open(dir, &pebble.Options{Logger: pebbleLogger{logger.Sugar()}})
	if err != nil {
		return nil, fmt.Errorf("open overlay store: %w", err)
	}
	return &pebbleKV{db: db}, nil
}

func (p *pebbleKV) get(key string) ([]byte, bool, error) {
	v, closer, err := p.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = closer.Close() }()
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (p *pebbleKV) set(key string, value []byte) error {
	return p.db.Set([]byte(key), value, pebble.Sync)
}

func (p *pebbleKV) close() error {
	return p.db.Close()
}

// pebbleLogger keeps pebble's own chatter out of the terminal.
type pebbleLogger struct {
	s *zap.SugaredLogger
}

func (l pebbleLogger) Infof(format string, args ...interface{})  { l.s.Debugf(format, args...) }
func (l pebbleLogger) Errorf(format string, args ...interface{}) { l.s.Errorf(format, args...) }
func (l pebbleLogger) Fatalf(format string, args ...interface{}) { l.s.Fatalf(format, args...) }

type memoryKV struct {
	mu sync.Mutex
	m  map[string][]byte
}

func (m *memoryKV) get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.m[key]
	return v, ok, nil
}

func (m *memoryKV) set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[key] = append([]byte(nil), value...)
	return nil
}

func (m *memoryKV) close() error { return nil }
