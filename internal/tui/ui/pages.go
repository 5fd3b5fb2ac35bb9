package ui

import "github.com/rivo/tview"

type page struct {
	key   string
	comp  Component
	modal bool
}

// Pages is a stack-based page manager wrapping tview.Pages.
// It provides push/pop semantics and notifies on stack changes.
type Pages struct {
	*tview.Pages
	stack    []page
	onChange func(stack []string)
}

// NewPages creates a new stack-based page manager.
func NewPages() *Pages {
	return &Pages{
		Pages: tview.NewPages(),
	}
}

// SetOnChange sets a callback that fires when the stack changes. It
// receives the component names, bottom first.
func (p *Pages) SetOnChange(fn func(stack []string)) {
	p.onChange = fn
}

// Push shows comp under key on top of the stack, hiding the page below.
// A page already registered under key is replaced.
func (p *Pages) Push(key string, comp Component) {
	p.push(page{key: key, comp: comp})
}

// PushModal shows comp over the current page without hiding it.
func (p *Pages) PushModal(key string, comp Component) {
	p.push(page{key: key, comp: comp, modal: true})
}

func (p *Pages) push(pg page) {
	if len(p.stack) > 0 && !pg.modal {
		p.HidePage(p.stack[len(p.stack)-1].key)
	}
	p.AddPage(pg.key, pg.comp, true, true)
	p.SendToFront(pg.key)
	p.stack = append(p.stack, pg)
	p.notify()
}

// Pop removes the top page and shows the previous one.
// Returns the key of the popped page, or empty if only the root remains.
func (p *Pages) Pop() string {
	if len(p.stack) <= 1 {
		return ""
	}
	top := p.stack[len(p.stack)-1]
	p.RemovePage(top.key)
	p.stack = p.stack[:len(p.stack)-1]
	current := p.stack[len(p.stack)-1]
	p.ShowPage(current.key)
	p.SendToFront(current.key)
	p.notify()
	return top.key
}

// Current returns the key of the top page.
func (p *Pages) Current() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1].key
}

// Top returns the component on top of the stack.
func (p *Pages) Top() Component {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1].comp
}

// Components returns every stacked component, bottom first.
func (p *Pages) Components() []Component {
	out := make([]Component, len(p.stack))
	for i, pg := range p.stack {
		out[i] = pg.comp
	}
	return out
}

// Stack returns the names of the stacked components.
func (p *Pages) Stack() []string {
	s := make([]string, len(p.stack))
	for i, pg := range p.stack {
		s[i] = pg.comp.Name()
	}
	return s
}

// Depth returns the current stack depth.
func (p *Pages) Depth() int {
	return len(p.stack)
}

// Reset clears the stack down to the given root.
func (p *Pages) Reset(key string, comp Component) {
	for _, pg := range p.stack {
		p.RemovePage(pg.key)
	}
	p.stack = nil
	p.Push(key, comp)
}

// Refresh re-announces the stack, for when a component's name changed.
func (p *Pages) Refresh() {
	p.notify()
}

func (p *Pages) notify() {
	if p.onChange != nil {
		p.onChange(p.Stack())
	}
}
