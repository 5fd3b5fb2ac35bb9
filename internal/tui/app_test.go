package tui

import (
	"context"
	"testing"

	"github.com/heyfriend/heyfriend/internal/tui/ui"
	"go.uber.org/zap"
)

func TestDoWarnsWhenQueueFull(t *testing.T) {
	a := &App{
		intents: make(chan func(context.Context), 1),
		flash:   ui.NewFlashModel(),
		logger:  zap.NewNop(),
	}

	a.do(func(context.Context) {})
	if m := a.flash.GetMessage(); m != nil {
		t.Fatalf("queued intent flashed %q", m.Text)
	}

	a.do(func(context.Context) {})
	m := a.flash.GetMessage()
	if m == nil || m.Level != ui.FlashWarn {
		t.Fatalf("dropped intent flash = %+v, want a warning", m)
	}
	if len(a.intents) != 1 {
		t.Errorf("queue holds %d intents, want 1", len(a.intents))
	}
}
