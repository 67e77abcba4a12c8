package keymap

import "time"

// DefaultSequenceTimeout is how long a partial sequence waits for its next key.
const DefaultSequenceTimeout = 500 * time.Millisecond

type seqEntry struct {
	key  string
	held bool
	// consumed entries took part in a match and only linger while held, so a
	// held modifier can drive several chords in a row.
	consumed bool
}

// Matcher tracks held keys and the recent key-down sequence and resolves each
// key-down against a Registry.
//
// A window of the last N key-downs matches a combo of length N only if the
// key-down just before the window is no longer held; a held key extends the
// chord, so {"Shift","j"} never also fires {"j"}. Longer windows are tried
// first.
type Matcher struct {
	reg     *Registry
	timeout time.Duration
	now     func() time.Time

	seq     []seqEntry
	held    map[string]bool
	last    time.Time
	pending bool
}

func NewMatcher(reg *Registry, timeout time.Duration) *Matcher {
	if timeout <= 0 {
		timeout = DefaultSequenceTimeout
	}
	return &Matcher{
		reg:     reg,
		timeout: timeout,
		now:     time.Now,
		held:    make(map[string]bool),
	}
}

// SetClock replaces the time source.
func (m *Matcher) SetClock(now func() time.Time) { m.now = now }

// Down records a key-down and returns the binding it fires, if any. A
// key-down for a key that is already held, or one flagged repeat by the
// source, is an auto-repeat: it fires only bindings registered WithRepeat.
func (m *Matcher) Down(key string, repeat bool, mode Mode) (Binding, bool) {
	if repeat || m.held[key] {
		window := append(append([]seqEntry(nil), m.seq...), seqEntry{key: key, held: true})
		b, _, _, ok := m.scan(window, mode)
		if ok && b.Repeat {
			return b, true
		}
		return Binding{}, false
	}

	now := m.now()
	if !m.last.IsZero() && now.Sub(m.last) > m.timeout {
		m.dropReleased()
	}
	m.last = now
	m.held[key] = true
	m.seq = append(m.seq, seqEntry{key: key, held: true})
	m.trim()

	b, start, pending, ok := m.scan(m.seq, mode)
	m.pending = pending
	if !ok {
		return Binding{}, false
	}

	// Keep what is still held from the matched window, minus the key that
	// fired it.
	kept := make([]seqEntry, 0, len(m.seq)-start)
	for _, e := range m.seq[start : len(m.seq)-1] {
		if e.held {
			e.consumed = true
			kept = append(kept, e)
		}
	}
	m.seq = kept
	return b, true
}

// Up records a key release.
func (m *Matcher) Up(key string) {
	delete(m.held, key)

	kept := m.seq[:0]
	for _, e := range m.seq {
		if e.key == key {
			if e.consumed || IsModifier(key) {
				continue
			}
			e.held = false
		}
		kept = append(kept, e)
	}
	m.seq = kept
}

// Reset forgets all held keys and pending sequence state.
func (m *Matcher) Reset() {
	m.seq = nil
	m.held = make(map[string]bool)
	m.last = time.Time{}
	m.pending = false
}

// Pending reports whether the last key-down started a longer sequence.
func (m *Matcher) Pending() bool { return m.pending }

// Sequence returns the tokens currently buffered.
func (m *Matcher) Sequence() Combo { return tokens(m.seq) }

// Held reports whether key is down.
func (m *Matcher) Held(key string) bool { return m.held[key] }

func tokens(seq []seqEntry) Combo {
	out := make(Combo, len(seq))
	for i, e := range seq {
		out[i] = e.key
	}
	return out
}

func (m *Matcher) dropReleased() {
	kept := m.seq[:0]
	for _, e := range m.seq {
		if e.held {
			kept = append(kept, e)
		}
	}
	m.seq = kept
}

// trim keeps one entry more than the longest combo so the window boundary
// check still sees its predecessor.
func (m *Matcher) trim() {
	limit := m.reg.MaxComboLen() + 1
	if limit < 2 {
		limit = 2
	}
	if len(m.seq) > limit {
		m.seq = append([]seqEntry(nil), m.seq[len(m.seq)-limit:]...)
	}
}

// live reports whether the window starting at start may match: the entry
// before it, if any, must have been released.
func live(seq []seqEntry, start int) bool {
	return start == 0 || !seq[start-1].held
}

// scan walks the live windows from longest to shortest. The first window that
// is a strict prefix of a longer combo makes the sequence pending; otherwise
// the first window that resolves fires.
func (m *Matcher) scan(seq []seqEntry, mode Mode) (b Binding, start int, pending, ok bool) {
	for start = 0; start < len(seq); start++ {
		if !live(seq, start) {
			continue
		}
		window := tokens(seq[start:])
		if m.reg.IsStrictPrefix(window, mode) {
			return Binding{}, 0, true, false
		}
		if b, ok = m.reg.Resolve(window, mode); ok {
			return b, start, false, true
		}
	}
	return Binding{}, 0, false, false
}
