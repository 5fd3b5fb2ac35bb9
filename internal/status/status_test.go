package status

import (
	"testing"

	"github.com/heyfriend/heyfriend/internal/bus"
)

func TestInitialState(t *testing.T) {
	m := NewMachine(nil)
	if m.Current() != Booting {
		t.Errorf("initial state = %s, want BOOTING", m.Current())
	}
	if m.IsReady() {
		t.Error("IsReady() true while booting")
	}
}

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		from State
		to   State
	}{
		{Booting, AuthRequired},
		{Booting, Connecting},
		{Booting, Error},
		{AuthRequired, Connecting},
		{Connecting, Ready},
		{Ready, Degraded},
		{Degraded, Ready},
		{Error, Booting},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			m := NewMachine(nil)
			walkTo(t, m, tt.from)
			if err := m.Transition(tt.to); err != nil {
				t.Errorf("Transition(%s -> %s) error = %v", tt.from, tt.to, err)
			}
			if m.Current() != tt.to {
				t.Errorf("state = %s, want %s", m.Current(), tt.to)
			}
		})
	}
}

func TestInvalidTransition(t *testing.T) {
	m := NewMachine(nil)
	if err := m.Transition(Ready); err == nil {
		t.Error("Transition(BOOTING -> READY) should fail")
	}
	_ = m.Transition(AuthRequired)
	if err := m.Transition(Ready); err == nil {
		t.Error("Transition(AUTH_REQUIRED -> READY) should fail; registration must reconnect first")
	}
}

func TestReadyIncludesDegraded(t *testing.T) {
	m := NewMachine(nil)
	walkTo(t, m, Degraded)
	if !m.IsReady() {
		t.Error("IsReady() false while degraded")
	}
}

func TestEnsure(t *testing.T) {
	m := NewMachine(nil)
	walkTo(t, m, Ready)
	if err := m.Ensure(Ready); err != nil {
		t.Errorf("Ensure(READY) while ready error = %v", err)
	}
	if err := m.Ensure(Degraded); err != nil {
		t.Errorf("Ensure(DEGRADED) error = %v", err)
	}
}

func TestTransitionEmitsEvent(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("session.", 10)
	defer unsub()

	m := NewMachine(b)
	if err := m.Transition(AuthRequired); err != nil {
		t.Fatal(err)
	}

	evt := <-ch
	if evt.Kind != KindChanged {
		t.Errorf("event kind = %q, want %s", evt.Kind, KindChanged)
	}
	change, ok := evt.Payload.(StatusChange)
	if !ok {
		t.Fatalf("payload type = %T, want StatusChange", evt.Payload)
	}
	if change.From != Booting || change.To != AuthRequired {
		t.Errorf("change = %v -> %v, want BOOTING -> AUTH_REQUIRED", change.From, change.To)
	}
}

// TestRegistrationLifecycle walks a first run: no profile yet, register,
// reconnect, ready.
func TestRegistrationLifecycle(t *testing.T) {
	m := NewMachine(nil)
	for _, s := range []State{Connecting, AuthRequired, Connecting, Ready} {
		if err := m.Transition(s); err != nil {
			t.Fatalf("Transition to %s: %v (current: %s)", s, err, m.Current())
		}
	}
}

func walkTo(t *testing.T, m *Machine, target State) {
	t.Helper()
	paths := map[State][]State{
		Booting:      {},
		AuthRequired: {AuthRequired},
		Connecting:   {Connecting},
		Ready:        {Connecting, Ready},
		Degraded:     {Connecting, Ready, Degraded},
		Error:        {Error},
	}
	for _, s := range paths[target] {
		if err := m.Transition(s); err != nil {
			t.Fatalf("walkTo(%s): %v", target, err)
		}
	}
}
