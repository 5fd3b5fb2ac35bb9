package keys

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestHandleEventPrefersView(t *testing.T) {
	r := NewRegistry()
	var hit string
	r.AddGlobal(Rune('q', "Quit", func() { hit = "global" }))
	r.AddView("thread", Rune('q', "Back", func() { hit = "view" }))

	if !r.HandleEvent("thread", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) || hit != "view" {
		t.Errorf("thread q hit %q, want view", hit)
	}
	if !r.HandleEvent("list", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) || hit != "global" {
		t.Errorf("list q hit %q, want global", hit)
	}
	if r.HandleEvent("list", tcell.NewEventKey(tcell.KeyRune, 'z', tcell.ModNone)) {
		t.Error("unbound key handled")
	}
}

func TestSpecialKeys(t *testing.T) {
	r := NewRegistry()
	called := false
	r.AddView("list", &Action{Key: tcell.KeyEnter, Label: "Enter", Description: "Open", Handler: func() { called = true }, Visible: true})
	r.HandleEvent("list", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone))
	if !called {
		t.Error("Enter binding not called")
	}
}

func TestHintsOrder(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(Rune('?', "Help", func() {}))
	r.AddView("list", Rune('l', "Lock", func() {}))
	r.AddView("list", &Action{Key: tcell.KeyRune, Rune: 'x', Handler: func() {}})
	r.AddView("list", Rune('u', "Unread", func() {}))

	hints := r.Hints("list")
	want := []string{"Lock", "Unread", "Help"}
	if len(hints) != len(want) {
		t.Fatalf("Hints() = %+v", hints)
	}
	for i, h := range hints {
		if h.Description != want[i] {
			t.Errorf("hint %d = %q, want %q", i, h.Description, want[i])
		}
	}
}
