// Package controller owns the interaction mode, turns key events into binding
// hits and runs the resulting actions against the backend.
package controller

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"cardboard/internal/api"
	"cardboard/internal/errors"
	"cardboard/internal/keymap"
	"cardboard/internal/logger"
)

// Backend is the REST collaborator.
type Backend interface {
	FetchState(ctx context.Context) (*api.AppState, error)
	PerformAction(ctx context.Context, a api.Action) error
}

// KeyEvent is a single key-down. Input carries the focused text field's
// contents so handlers can read it.
type KeyEvent struct {
	Key    string
	Repeat bool
	Input  string
}

// Outcome reports what a key event did.
type Outcome struct {
	Matched        bool
	BindingID      string
	Action         api.Action
	PreventDefault bool
	Signals        []string
	Mode           keymap.Mode
}

// Request is an action bound to the lock key it was dispatched under.
type Request struct {
	Seq    uint64
	Action api.Action
	Target string
}

// Completion is the result of running a Request or a plain refresh.
// FetchSeq orders the GETs by the moment they were sent; zero means unordered.
type Completion struct {
	Seq       uint64
	Action    api.Action // nil for a plain refresh
	ActionErr error
	State     *api.AppState
	FetchErr  error
	FetchSeq  uint64
}

const boardTarget = "board"

// Controller is used from a single event loop, except Execute and Refresh
// which block on the network and run off-loop.
type Controller struct {
	reg     *keymap.Registry
	matcher *keymap.Matcher
	backend Backend
	locks   *keyedLocks
	seq     atomic.Uint64
	fetches atomic.Uint64
	timeout time.Duration
	now     func() time.Time

	mu      sync.Mutex
	mode    keymap.Mode
	state    *api.AppState
	stateSeq uint64 // FetchSeq of the installed state
	lastErr  error
	closed   bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithSequenceTimeout sets how long a partial key sequence stays live.
func WithSequenceTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// WithClock replaces the matcher's time source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func New(reg *keymap.Registry, backend Backend, opts ...Option) *Controller {
	if reg == nil {
		reg = keymap.NewRegistry()
	}
	c := &Controller{
		reg:     reg,
		backend: backend,
		locks:   newKeyedLocks(),
		mode:    keymap.ViewBoard,
		timeout: keymap.DefaultSequenceTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.matcher = keymap.NewMatcher(reg, c.timeout)
	if c.now != nil {
		c.matcher.SetClock(c.now)
	}
	return c
}

func (c *Controller) Registry() *keymap.Registry { return c.reg }

func (c *Controller) Mode() keymap.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// State returns the current snapshot, nil until the first successful fetch.
func (c *Controller) State() *api.AppState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the most recent action or fetch failure, cleared by the
// next successful fetch.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Matcher exposes the sequence state for rendering a pending indicator.
func (c *Controller) Matcher() *keymap.Matcher { return c.matcher }

// KeyDown resolves a key-down against the bindings live in the current mode
// and runs the matched handler.
func (c *Controller) KeyDown(ev KeyEvent) Outcome {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Outcome{}
	}
	mode, state := c.mode, c.state
	c.mu.Unlock()

	b, ok := c.matcher.Down(ev.Key, ev.Repeat, mode)
	if !ok {
		return Outcome{Mode: mode}
	}

	ctx := &keymap.Context{State: state, Mode: mode, Input: ev.Input}
	action := b.Handler(ctx)

	out := Outcome{
		Matched:        true,
		BindingID:      b.ID,
		Action:         action,
		PreventDefault: ctx.DefaultPrevented(),
		Signals:        ctx.Signals(),
		Mode:           mode,
	}
	if next, changed := ctx.NextMode(); changed {
		c.setMode(next)
		out.Mode = next
	}
	logger.Keys("%s in %s -> %s (action=%v)", b.Combo, mode, b.ID, actionType(action))
	return out
}

// KeyUp releases a key.
func (c *Controller) KeyUp(key string) {
	c.matcher.Up(key)
}

// Tap presses tokens in order and releases them in reverse, returning the
// outcome of the key-down that fired, if any.
func (c *Controller) Tap(tokens []string, input string) Outcome {
	var out Outcome
	out.Mode = c.Mode()
	for _, tok := range tokens {
		if o := c.KeyDown(KeyEvent{Key: tok, Input: input}); o.Matched {
			out = o
		}
	}
	for i := len(tokens) - 1; i >= 0; i-- {
		c.KeyUp(tokens[i])
	}
	return out
}

func (c *Controller) setMode(m keymap.Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != m {
		logger.TUI("mode %s -> %s", c.mode, m)
	}
	c.mode = m
}

// Prepare binds an action to its lock key using the selection as it is now.
// Card-scoped actions lock on the selected card; everything else on the board.
func (c *Controller) Prepare(a api.Action) Request {
	c.mu.Lock()
	st := c.state
	c.mu.Unlock()

	target := boardTarget
	if a != nil && a.Scope() == api.ScopeCard {
		if id := st.SelectedCardID(); id != nil {
			target = fmt.Sprintf("card:%d", *id)
		}
	}
	return Request{Seq: c.seq.Add(1), Action: a, Target: target}
}

// Execute posts the action and then refetches the state, whatever the
// action's outcome. Requests sharing a target run one at a time, refetch
// included, so a refetch never overtakes its own mutation.
func (c *Controller) Execute(ctx context.Context, req Request) Completion {
	comp := Completion{Seq: req.Seq, Action: req.Action}

	release, err := c.locks.acquire(ctx, req.Target)
	if err != nil {
		comp.ActionErr = err
		comp.FetchErr = err
		return comp
	}
	defer release()

	if err := c.backend.PerformAction(ctx, req.Action); err != nil {
		comp.ActionErr = err
	}
	comp.State, comp.FetchErr = c.fetch(ctx, &comp.FetchSeq)
	return comp
}

// Perform is Prepare followed by Execute.
func (c *Controller) Perform(ctx context.Context, a api.Action) Completion {
	return c.Execute(ctx, c.Prepare(a))
}

// Refresh fetches the state without posting anything.
func (c *Controller) Refresh(ctx context.Context) Completion {
	comp := Completion{Seq: c.seq.Add(1)}
	comp.State, comp.FetchErr = c.fetch(ctx, &comp.FetchSeq)
	return comp
}

// fetch numbers the GET before it is sent.
func (c *Controller) fetch(ctx context.Context, seq *uint64) (*api.AppState, error) {
	*seq = c.fetches.Add(1)
	return c.backend.FetchState(ctx)
}

// Apply installs a completion's refetched state. A fetch sent before the one
// already installed is dropped, so a refresh that was in flight during a
// mutation cannot undo it on screen. A failed fetch keeps the last good
// snapshot and only reports the error. Apply reports false once the
// controller is closed.
func (c *Controller) Apply(comp Completion) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}

	if comp.FetchSeq != 0 && comp.FetchSeq < c.stateSeq {
		logger.Debug("dropping fetch %d, fetch %d is newer", comp.FetchSeq, c.stateSeq)
		if comp.ActionErr != nil {
			logger.Warn("action %s failed: %v", actionType(comp.Action), comp.ActionErr)
			c.lastErr = comp.ActionErr
		}
		return true
	}

	c.lastErr = nil
	if comp.ActionErr != nil {
		logger.Warn("action %s failed: %v", actionType(comp.Action), comp.ActionErr)
		c.lastErr = comp.ActionErr
	}
	if comp.FetchErr != nil {
		logger.Warn("state fetch failed: %v", comp.FetchErr)
		c.lastErr = errors.WrapWithContext(comp.FetchErr, "fetch_state")
		return true
	}

	c.state = comp.State
	if comp.FetchSeq > c.stateSeq {
		c.stateSeq = comp.FetchSeq
	}
	for _, w := range comp.State.Validate() {
		logger.Warn("integrity: %s", w)
	}
	return true
}

// Close stops key dispatch; completions that land afterwards are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.matcher.Reset()
}

func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func actionType(a api.Action) string {
	if a == nil {
		return "none"
	}
	return a.Type()
}
