// Package keymap holds mode-scoped key bindings and the matcher that turns a
// stream of key-down and key-up events into binding hits.
package keymap

import (
	"strings"
	"sync"

	"cardboard/internal/api"
)

// Key tokens for non-printable keys and modifiers.
const (
	KeyShift     = "Shift"
	KeyControl   = "Control"
	KeyAlt       = "Alt"
	KeyMeta      = "Meta"
	KeyEnter     = "Enter"
	KeyEscape    = "Escape"
	KeyTab       = "Tab"
	KeyBackspace = "Backspace"
	KeyDelete    = "Delete"
	KeySpace     = " "
	KeyUp        = "ArrowUp"
	KeyDown      = "ArrowDown"
	KeyLeft      = "ArrowLeft"
	KeyRight     = "ArrowRight"
	KeyHome      = "Home"
	KeyEnd       = "End"
	KeyPageUp    = "PageUp"
	KeyPageDown  = "PageDown"
)

// IsModifier reports whether token is a modifier key.
func IsModifier(token string) bool {
	switch token {
	case KeyShift, KeyControl, KeyAlt, KeyMeta:
		return true
	}
	return false
}

// Combo is an ordered sequence of key tokens, e.g. {"Shift", "j"}.
type Combo []string

// Keys builds a combo from tokens.
func Keys(tokens ...string) Combo { return Combo(tokens) }

func (c Combo) String() string {
	if len(c) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, tok := range c {
		if i > 0 {
			if IsModifier(c[i-1]) {
				sb.WriteString("+")
			} else {
				sb.WriteString(" ")
			}
		}
		sb.WriteString(displayToken(tok))
	}
	return sb.String()
}

func displayToken(tok string) string {
	switch tok {
	case KeyControl:
		return "Ctrl"
	case KeyEscape:
		return "Esc"
	case KeySpace:
		return "Space"
	case KeyUp:
		return "↑"
	case KeyDown:
		return "↓"
	case KeyLeft:
		return "←"
	case KeyRight:
		return "→"
	}
	return tok
}

func (c Combo) key() string { return strings.Join(c, "\x00") }

// Equal reports token-wise equality.
func (c Combo) Equal(o Combo) bool {
	if len(c) != len(o) {
		return false
	}
	for i := range c {
		if c[i] != o[i] {
			return false
		}
	}
	return true
}

// Context is handed to a handler when its binding fires. It carries the
// snapshot and mode at dispatch time plus the capabilities a handler may use.
type Context struct {
	State *api.AppState
	Mode  Mode
	// Input is the text of the focused text field, empty when none has focus.
	Input string

	prevented bool
	next      *Mode
	signals   []string
}

// PreventDefault stops the key from reaching the focused text input.
func (c *Context) PreventDefault() { c.prevented = true }

// SetMode requests a mode change, applied once the handler returns.
func (c *Context) SetMode(m Mode) { c.next = &m }

// Signal asks the UI to run a local command such as "quit" or "copy".
func (c *Context) Signal(name string) { c.signals = append(c.signals, name) }

// DefaultPrevented reports whether the handler called PreventDefault.
func (c *Context) DefaultPrevented() bool { return c.prevented }

// NextMode returns the mode requested by the handler, if any.
func (c *Context) NextMode() (Mode, bool) {
	if c.next == nil {
		return c.Mode, false
	}
	return *c.next, true
}

// Signals returns the signals raised by the handler, in order.
func (c *Context) Signals() []string { return c.signals }

// Handler runs when a binding fires. A nil action means the handler only
// touched local UI state.
type Handler func(ctx *Context) api.Action

// Binding is one registered entry.
type Binding struct {
	ID          string
	Modes       []Mode
	Combo       Combo
	Handler     Handler
	Description string
	Repeat      bool
}

// Active reports whether the binding is live in mode.
func (b *Binding) Active(mode Mode) bool {
	for _, m := range b.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

type Option func(*Binding)

// WithDescription sets the help text shown for the binding.
func WithDescription(desc string) Option {
	return func(b *Binding) { b.Description = desc }
}

// WithRepeat lets the binding fire on auto-repeat while its key is held.
func WithRepeat() Option {
	return func(b *Binding) { b.Repeat = true }
}

// Registry stores bindings in registration order and indexes them by combo.
type Registry struct {
	mu       sync.RWMutex
	bindings []Binding
	byCombo  map[string][]int
	maxLen   int
}

func NewRegistry() *Registry {
	return &Registry{byCombo: make(map[string][]int)}
}

// Register adds a binding. Registering the same id, modes and combo again is a
// no-op and returns false.
func (r *Registry) Register(id string, modes []Mode, combo Combo, h Handler, opts ...Option) bool {
	if len(combo) == 0 || h == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	k := combo.key()
	for _, idx := range r.byCombo[k] {
		if b := &r.bindings[idx]; b.ID == id && sameModes(b.Modes, modes) {
			return false
		}
	}

	b := Binding{
		ID:      id,
		Modes:   append([]Mode(nil), modes...),
		Combo:   append(Combo(nil), combo...),
		Handler: h,
	}
	for _, opt := range opts {
		opt(&b)
	}

	r.bindings = append(r.bindings, b)
	r.byCombo[k] = append(r.byCombo[k], len(r.bindings)-1)
	if len(combo) > r.maxLen {
		r.maxLen = len(combo)
	}
	return true
}

// Remove drops every entry registered under id and returns how many went.
func (r *Registry) Remove(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.bindings[:0]
	removed := 0
	for _, b := range r.bindings {
		if b.ID == id {
			removed++
			continue
		}
		kept = append(kept, b)
	}
	if removed == 0 {
		return 0
	}
	r.bindings = kept
	r.reindex()
	return removed
}

func (r *Registry) reindex() {
	r.byCombo = make(map[string][]int, len(r.byCombo))
	r.maxLen = 0
	for i, b := range r.bindings {
		k := b.Combo.key()
		r.byCombo[k] = append(r.byCombo[k], i)
		if len(b.Combo) > r.maxLen {
			r.maxLen = len(b.Combo)
		}
	}
}

// Resolve returns the first registered binding whose combo equals combo and
// which is active in mode.
func (r *Registry) Resolve(combo Combo, mode Mode) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, idx := range r.byCombo[combo.key()] {
		if b := r.bindings[idx]; b.Active(mode) {
			return b, true
		}
	}
	return Binding{}, false
}

// IsStrictPrefix reports whether seq is a proper prefix of some combo active
// in mode.
func (r *Registry) IsStrictPrefix(seq Combo, mode Mode) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.bindings {
		b := &r.bindings[i]
		if len(b.Combo) <= len(seq) || !b.Active(mode) {
			continue
		}
		if b.Combo[:len(seq)].Equal(seq) {
			return true
		}
	}
	return false
}

// MaxComboLen is the length of the longest registered combo.
func (r *Registry) MaxComboLen() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.maxLen
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}

// Bindings returns the entries active in mode, in registration order.
func (r *Registry) Bindings(mode Mode) []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Binding
	for _, b := range r.bindings {
		if b.Active(mode) {
			out = append(out, b)
		}
	}
	return out
}

func sameModes(a, b []Mode) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[Mode]int, len(a))
	for _, m := range a {
		seen[m]++
	}
	for _, m := range b {
		if seen[m] == 0 {
			return false
		}
		seen[m]--
	}
	return true
}
