// Package overlay holds client-only state that the backend never sees:
// locked conversations, contacts hidden from the status row, theme and
// language. Missing or corrupt values read as defaults.
package overlay

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// Fixed storage keys.
const (
	KeyLockedChats    = "heyfriend_locked_chats"
	KeyStatusExcluded = "heyfriend_status_excluded"
	KeyTheme          = "hey-friend-theme"
	KeyLanguage       = "hey-friend-language"
)

// Store is the overlay store. Methods are safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	kv     kv
	logger *zap.Logger
}

// Open opens the Pebble-backed store in dir.
func Open(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := openPebble(dir, logger)
	if err != nil {
		return nil, err
	}
	return &Store{kv: db, logger: logger}, nil
}

// NewMemory returns a store that forgets everything on exit.
func NewMemory() *Store {
	return &Store{kv: &memoryKV{m: make(map[string][]byte)}, logger: zap.NewNop()}
}

// Close flushes and closes the underlying store.
func (s *Store) Close() error {
	return s.kv.close()
}

// Locks is the set of conversation IDs that require a PIN to open.
func (s *Store) Locks() *IDSet {
	return &IDSet{store: s, key: KeyLockedChats}
}

// StatusExclusions is the set of contact IDs hidden from the status row.
func (s *Store) StatusExclusions() *IDSet {
	return &IDSet{store: s, key: KeyStatusExcluded}
}

// readList decodes a JSON string array. Absent, unreadable or malformed
// values all yield an empty list.
func (s *Store) readList(key string) []string {
	raw, ok, err := s.kv.get(key)
	if err != nil {
		s.logger.Warn("overlay read failed", zap.String("key", key), zap.Error(err))
		return []string{}
	}
	if !ok {
		return []string{}
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil || ids == nil {
		s.logger.Debug("discarding malformed overlay value", zap.String("key", key))
		return []string{}
	}
	return ids
}

func (s *Store) writeList(key string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	if err := s.kv.set(key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *Store) readString(key string) string {
	raw, ok, err := s.kv.get(key)
	if err != nil || !ok {
		return ""
	}
	return string(raw)
}

// IDSet is a persisted set of string IDs kept in insertion order.
type IDSet struct {
	store *Store
	key   string
}

// List returns the IDs in the order they were added.
func (set *IDSet) List() []string {
	set.store.mu.Lock()
	defer set.store.mu.Unlock()
	return set.store.readList(set.key)
}

func (set *IDSet) Contains(id string) bool {
	return slices.Contains(set.List(), id)
}

// Set adds or removes id.
func (set *IDSet) Set(id string, member bool) error {
	set.store.mu.Lock()
	defer set.store.mu.Unlock()
	ids := set.store.readList(set.key)
	has := slices.Contains(ids, id)
	switch {
	case member && !has:
		ids = append(ids, id)
	case !member && has:
		ids = slices.DeleteFunc(ids, func(x string) bool { return x == id })
	default:
		return nil
	}
	return set.store.writeList(set.key, ids)
}

// Toggle flips membership of id and reports whether it is now a member.
func (set *IDSet) Toggle(id string) (bool, error) {
	set.store.mu.Lock()
	defer set.store.mu.Unlock()
	ids := set.store.readList(set.key)
	if slices.Contains(ids, id) {
		ids = slices.DeleteFunc(ids, func(x string) bool { return x == id })
		return false, set.store.writeList(set.key, ids)
	}
	return true, set.store.writeList(set.key, append(ids, id))
}
