package overlay

import (
	"strings"
	"sync"
	"unicode"
)

const (
	PINLength = 4
	// DefaultPIN opens every locked conversation. It is a convenience
	// gate, not an access control: there is no lockout.
	DefaultPIN = "1234"
)

// PinPrompt collects a PIN digit by digit. When the last slot is filled
// the code is checked: a match calls onSuccess then onClose, a mismatch
// flags an error and clears every slot.
type PinPrompt struct {
	mu        sync.Mutex
	code      string
	digits    [PINLength]string
	focus     int
	failed    bool
	onSuccess func()
	onClose   func()
}

// NewPinPrompt creates a prompt for DefaultPIN. Either callback may be nil.
func NewPinPrompt(onSuccess, onClose func()) *PinPrompt {
	return &PinPrompt{code: DefaultPIN, onSuccess: onSuccess, onClose: onClose}
}

// Enter sets slot index from value, keeping only its last digit. Focus
// moves to the next slot after a digit.
func (p *PinPrompt) Enter(index int, value string) {
	if index < 0 || index >= PINLength {
		return
	}
	digit := lastDigit(value)

	p.mu.Lock()
	p.digits[index] = digit
	p.failed = false
	if digit != "" && index < PINLength-1 {
		p.focus = index + 1
	}
	complete := true
	for _, d := range p.digits {
		if d == "" {
			complete = false
			break
		}
	}
	if !complete {
		p.mu.Unlock()
		return
	}
	ok := strings.Join(p.digits[:], "") == p.code
	if !ok {
		p.failed = true
	}
	p.digits = [PINLength]string{}
	p.focus = 0
	p.mu.Unlock()

	if ok {
		if p.onSuccess != nil {
			p.onSuccess()
		}
		if p.onClose != nil {
			p.onClose()
		}
	}
}

// Type enters r into the focused slot.
func (p *PinPrompt) Type(r rune) {
	p.mu.Lock()
	idx := p.focus
	p.mu.Unlock()
	p.Enter(idx, string(r))
}

// Backspace clears the focused slot, or steps back and clears the
// previous one when the focused slot is already empty.
func (p *PinPrompt) Backspace() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.digits[p.focus] == "" && p.focus > 0 {
		p.focus--
	}
	p.digits[p.focus] = ""
}

// Cancel closes the prompt without unlocking.
func (p *PinPrompt) Cancel() {
	p.Reset()
	if p.onClose != nil {
		p.onClose()
	}
}

// Reset empties every slot and clears the error.
func (p *PinPrompt) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.digits = [PINLength]string{}
	p.focus = 0
	p.failed = false
}

// Check compares a whole PIN without touching the prompt's slots.
func Check(pin string) bool {
	return pin == DefaultPIN
}

func (p *PinPrompt) Digits() [PINLength]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.digits
}

// Failed reports whether the last complete entry was wrong.
func (p *PinPrompt) Failed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failed
}

func (p *PinPrompt) Focus() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.focus
}

// Masked renders filled slots as dots and empty ones as underscores.
func (p *PinPrompt) Masked() string {
	d := p.Digits()
	var b strings.Builder
	for i, s := range d {
		if i > 0 {
			b.WriteByte(' ')
		}
		if s == "" {
			b.WriteString("_")
		} else {
			b.WriteString("•")
		}
	}
	return b.String()
}

func lastDigit(value string) string {
	var last rune = -1
	for _, r := range value {
		if unicode.IsDigit(r) && r < 128 {
			last = r
		}
	}
	if last < 0 {
		return ""
	}
	return string(last)
}
