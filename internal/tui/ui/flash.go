package ui

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/heyfriend/heyfriend/internal/backend"
	"github.com/rivo/tview"
)

// FlashLevel represents the severity of a flash message.
type FlashLevel int

const (
	FlashInfo FlashLevel = iota
	FlashWarn
	FlashErr
)

// FlashMessage is a flash notification with a level and expiry.
type FlashMessage struct {
	Text    string
	Level   FlashLevel
	Expires time.Time
}

// FlashModel holds the current toast. Watch fires whenever it changes.
type FlashModel struct {
	mu      sync.RWMutex
	current FlashMessage
	watchCh chan FlashMessage
	now     func() time.Time
}

// NewFlashModel creates a new flash model.
func NewFlashModel() *FlashModel {
	return &FlashModel{
		watchCh: make(chan FlashMessage, 8),
		now:     time.Now,
	}
}

// Info sets an info-level flash message.
func (f *FlashModel) Info(msg string) {
	f.set(msg, FlashInfo, 4*time.Second)
}

// Warn sets a warn-level flash message.
func (f *FlashModel) Warn(msg string) {
	f.set(msg, FlashWarn, 6*time.Second)
}

// Err sets an error-level flash message worded for the backend failure
// behind err.
func (f *FlashModel) Err(err error) {
	f.set(Describe(err), FlashErr, 8*time.Second)
}

func (f *FlashModel) set(msg string, level FlashLevel, d time.Duration) {
	fm := FlashMessage{
		Text:    msg,
		Level:   level,
		Expires: f.now().Add(d),
	}
	f.mu.Lock()
	f.current = fm
	f.mu.Unlock()
	select {
	case f.watchCh <- fm:
	default:
	}
}

// Get returns the current flash message text, or empty if expired.
func (f *FlashModel) Get() string {
	if m := f.GetMessage(); m != nil {
		return m.Text
	}
	return ""
}

// GetMessage returns the current flash message, or nil if expired.
func (f *FlashModel) GetMessage() *FlashMessage {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.current.Text == "" || f.now().After(f.current.Expires) {
		return nil
	}
	m := f.current
	return &m
}

// Watch returns a channel that receives flash messages.
func (f *FlashModel) Watch() <-chan FlashMessage {
	return f.watchCh
}

// Describe turns a backend error into a short user-facing sentence.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, backend.ErrNotReady):
		return "Not connected yet"
	case errors.Is(err, backend.ErrPermissionDenied):
		return "You are not allowed to do that"
	case errors.Is(err, backend.ErrNotFound):
		return "It no longer exists"
	case errors.Is(err, backend.ErrAlreadyExists):
		return "That already exists"
	case errors.Is(err, backend.ErrInvalidArgument):
		return fmt.Sprintf("Invalid input: %v", err)
	case errors.Is(err, backend.ErrUnavailable):
		return "Backend unavailable, try again"
	}
	return err.Error()
}

// FlashBar is the UI component that displays flash notifications.
type FlashBar struct {
	*tview.TextView
	theme *Theme
	last  *FlashMessage
}

// NewFlashBar creates a new flash notification bar.
func NewFlashBar(theme *Theme) *FlashBar {
	fb := &FlashBar{TextView: tview.NewTextView().SetDynamicColors(true)}
	fb.ApplyTheme(theme)
	return fb
}

// ApplyTheme implements Themed.
func (fb *FlashBar) ApplyTheme(t *Theme) {
	fb.theme = t
	fb.SetBackgroundColor(t.BgColor)
	fb.Update(fb.last)
}

// Update renders a flash message on the bar.
func (fb *FlashBar) Update(msg *FlashMessage) {
	fb.last = msg
	fb.Clear()
	if msg == nil {
		return
	}

	var color string
	switch msg.Level {
	case FlashInfo:
		color = Tag(fb.theme.FlashInfoColor)
	case FlashWarn:
		color = Tag(fb.theme.FlashWarnColor)
	case FlashErr:
		color = Tag(fb.theme.FlashErrColor)
	}
	_, _ = fmt.Fprintf(fb, " [%s]%s[-]", color, tview.Escape(msg.Text))
}
