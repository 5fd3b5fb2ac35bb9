package lock

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// FileName is the lock file created inside a guarded directory.
const FileName = "LOCK"

// Owner describes the process holding a lock.
type Owner struct {
	PID     int       `json:"pid"`
	Program string    `json:"program"`
	Since   time.Time `json:"since"`
}

// LockHeldError is returned when another process holds the directory lock.
type LockHeldError struct {
	Owner Owner
	Path  string
}

func (e *LockHeldError) Error() string {
	if e.Owner.Program != "" {
		return fmt.Sprintf("%s is locked by %s (pid %d)", e.Path, e.Owner.Program, e.Owner.PID)
	}
	return fmt.Sprintf("%s is locked by pid %d", e.Path, e.Owner.PID)
}

// Lock is an acquired exclusive lock on a data directory.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes an exclusive, non-blocking flock on dir/LOCK and records
// the caller as owner. program names the holder in diagnostics.
func Acquire(dir, program string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(dir, FileName)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		held := &LockHeldError{Owner: ReadOwner(dir), Path: path}
		_ = f.Close()
		return nil, held
	}

	owner := Owner{PID: os.Getpid(), Program: program, Since: time.Now().UTC()}
	if err := writeOwner(f, owner); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Lock{file: f, path: path}, nil
}

// ReadOwner returns whatever owner record dir/LOCK holds. A missing or
// unreadable record yields the zero Owner.
func ReadOwner(dir string) Owner {
	var o Owner
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return o
	}
	_ = json.Unmarshal(data, &o)
	return o
}

func writeOwner(f *os.File, o Owner) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	return json.NewEncoder(f).Encode(o)
}

// Release releases the lock. Safe to call on nil receiver and more than once.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	_ = os.Remove(l.path)
	err := l.file.Close()
	l.file = nil
	return err
}
