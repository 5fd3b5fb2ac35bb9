package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/heyfriend/heyfriend/internal/bus"
)

// State is the client's session state with respect to the backend.
type State string

const (
	Booting      State = "BOOTING"
	AuthRequired State = "AUTH_REQUIRED"
	Connecting   State = "CONNECTING"
	Ready        State = "READY"
	Degraded     State = "DEGRADED"
	Error        State = "ERROR"
)

// KindChanged is the bus event kind published on every transition.
const KindChanged = "session.status_changed"

// AuthRequired means the identity exists but has no registered profile yet.
var validTransitions = map[State][]State{
	Booting:      {AuthRequired, Connecting, Error},
	AuthRequired: {Connecting, Error},
	Connecting:   {Ready, AuthRequired, Degraded, Error},
	Ready:        {Degraded, AuthRequired, Error},
	Degraded:     {Connecting, Ready, Error},
	Error:        {Booting},
}

// Machine tracks and enforces session state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a new state machine starting in Booting state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Booting,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// IsReady reports whether backend calls may be issued. Degraded still
// counts: the session exists, the backend is just failing.
func (m *Machine) IsReady() bool {
	s := m.Current()
	return s == Ready || s == Degraded
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Emit(KindChanged, StatusChange{From: from, To: to})
	}
	return nil
}

// Ensure transitions to the state unless the machine is already there.
func (m *Machine) Ensure(to State) error {
	if m.Current() == to {
		return nil
	}
	return m.Transition(to)
}

// StatusChange is the payload for status change events.
type StatusChange struct {
	From State
	To   State
}
