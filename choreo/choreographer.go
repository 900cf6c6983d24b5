// Package choreo sequences token movements and side-effect callbacks into a
// single script with relative timing. One Choreographer owns one logical
// flow; independent panels get independent instances with fully isolated
// token sets and pending steps.
package choreo

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/milk9111/stagehand/motion"
)

var ErrInvalidStep = errors.New("choreo: invalid step")

// DefaultMaxVisibleTokens caps how many tokens a renderer is handed at
// once. Suppressed tokens keep ticking and still fire their completion
// callbacks on schedule; only the drawing is truncated.
const DefaultMaxVisibleTokens = 8

// Move describes a token movement step.
type Move struct {
	Token      motion.Token
	OnComplete func()
}

// Step is one scheduled entry in a sequence: either a token movement or a
// side-effect callback, fired at scheduleStart + OffsetMs. Exactly one of
// Move and Effect must be set.
type Step struct {
	OffsetMs float64
	Move     *Move
	Effect   func()
}

// TokenState is a live token as handed to a renderer.
type TokenState struct {
	Token    motion.Token
	Position motion.Point
	Opacity  float64
}

type pendingStep struct {
	fireAt float64
	order  int
	step   Step
}

type activeToken struct {
	mover *motion.Mover
	reap  bool
}

// Choreographer schedules Steps against a wall-clock supplied by the host's
// render loop via Advance. Under a reduced-motion Gate every offset
// collapses to zero and steps execute synchronously in their sorted order:
// sequencing survives the motion mode even though timing does not.
type Choreographer struct {
	gate       motion.Gate
	maxVisible int
	fadeStart  float64

	now     float64
	order   int
	pending []pendingStep
	active  []*activeToken
}

// Option configures a Choreographer.
type Option func(*Choreographer)

// WithMaxVisibleTokens sets the visual cap on simultaneously drawn tokens.
// Values below 1 keep the default.
func WithMaxVisibleTokens(n int) Option {
	return func(c *Choreographer) {
		if n >= 1 {
			c.maxVisible = n
		}
	}
}

// WithTokenFadeStart sets the fade-out start progress for every token this
// instance schedules.
func WithTokenFadeStart(p float64) Option {
	return func(c *Choreographer) {
		if p > 0 && p < 1 {
			c.fadeStart = p
		}
	}
}

func New(gate motion.Gate, opts ...Option) *Choreographer {
	c := &Choreographer{
		gate:       gate,
		maxVisible: DefaultMaxVisibleTokens,
		fadeStart:  motion.DefaultFadeStart,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Schedule appends steps to this instance's sequence. An empty steps slice
// is a no-op. Scheduling while earlier steps are still pending appends
// rather than replaces; use Replace to supersede the running sequence.
// Validation is all-or-nothing: on error nothing is scheduled.
func (c *Choreographer) Schedule(steps []Step) error {
	if c == nil || len(steps) == 0 {
		return nil
	}
	if err := c.validate(steps); err != nil {
		return err
	}

	if c.gate != nil && c.gate.IsReduced() {
		return c.runReduced(steps)
	}

	base := c.now
	for _, s := range steps {
		c.pending = append(c.pending, pendingStep{
			fireAt: base + s.OffsetMs,
			order:  c.nextOrder(),
			step:   s,
		})
	}
	sort.SliceStable(c.pending, func(i, j int) bool {
		if c.pending[i].fireAt != c.pending[j].fireAt {
			return c.pending[i].fireAt < c.pending[j].fireAt
		}
		return c.pending[i].order < c.pending[j].order
	})
	return nil
}

// Replace cancels every pending step and in-flight token belonging to this
// instance (never another instance's), then schedules steps. Cancelled
// tokens do not fire their completion callbacks. This is what lets a
// component re-trigger its animation on every state change without
// accumulating orphaned timers or duplicate visual tokens.
func (c *Choreographer) Replace(steps []Step) error {
	if c == nil {
		return nil
	}
	c.pending = c.pending[:0]
	for _, at := range c.active {
		at.mover.Cancel()
	}
	c.active = c.active[:0]
	return c.Schedule(steps)
}

// ScheduleBurst schedules count steps with staggered starts: step i fires
// at i*perItemDelayMs. Convenience for "replay N queued items" flows.
func (c *Choreographer) ScheduleBurst(count int, perItemDelayMs float64, makeStep func(i int) Step) error {
	if c == nil || count <= 0 {
		return nil
	}
	steps := make([]Step, 0, count)
	for i := 0; i < count; i++ {
		s := makeStep(i)
		s.OffsetMs = float64(i) * perItemDelayMs
		steps = append(steps, s)
	}
	return c.Schedule(steps)
}

// Advance moves the sequence to time now (ms): fires due steps in order,
// ticks in-flight tokens, and fires completion callbacks. A token that
// reported done on the previous Advance leaves the active set here, so a
// renderer gets to draw its final frame exactly once.
func (c *Choreographer) Advance(now float64) {
	if c == nil {
		return
	}
	c.now = now

	kept := c.active[:0]
	for _, at := range c.active {
		if at.reap || at.mover.Phase() == motion.TokenCancelled {
			continue
		}
		kept = append(kept, at)
	}
	c.active = kept

	for len(c.pending) > 0 && c.pending[0].fireAt <= now {
		ps := c.pending[0]
		c.pending = c.pending[1:]
		c.fireStep(ps)
	}

	for _, at := range c.active {
		if frame := at.mover.Tick(now); frame.Done {
			at.reap = true
		}
	}
}

// ActiveTokens returns the live set for the calling frame to draw, oldest
// first. When more than maxVisible tokens are in flight the oldest are
// truncated from the result; their callbacks are unaffected.
func (c *Choreographer) ActiveTokens() []TokenState {
	if c == nil || len(c.active) == 0 {
		return nil
	}
	visible := c.active
	if len(visible) > c.maxVisible {
		visible = visible[len(visible)-c.maxVisible:]
	}
	out := make([]TokenState, 0, len(visible))
	for _, at := range visible {
		frame := at.mover.Frame()
		out = append(out, TokenState{
			Token:    at.mover.Token(),
			Position: frame.Position,
			Opacity:  frame.Opacity,
		})
	}
	return out
}

// Cancel synchronously removes the in-flight token with the given id. The
// token's completion callback never fires. Unknown ids are a no-op.
func (c *Choreographer) Cancel(tokenID string) {
	if c == nil {
		return
	}
	kept := c.active[:0]
	for _, at := range c.active {
		if at.mover.Token().ID == tokenID {
			at.mover.Cancel()
			continue
		}
		kept = append(kept, at)
	}
	c.active = kept
}

// Pending reports how many scheduled steps have not fired yet.
func (c *Choreographer) Pending() int {
	if c == nil {
		return 0
	}
	return len(c.pending)
}

// Idle reports whether nothing is pending or in flight.
func (c *Choreographer) Idle() bool {
	return c == nil || (len(c.pending) == 0 && len(c.active) == 0)
}

func (c *Choreographer) validate(steps []Step) error {
	ids := make(map[string]struct{})
	for _, at := range c.active {
		ids[at.mover.Token().ID] = struct{}{}
	}
	for _, ps := range c.pending {
		if ps.step.Move != nil {
			ids[ps.step.Move.Token.ID] = struct{}{}
		}
	}

	for i, s := range steps {
		if s.OffsetMs < 0 || math.IsNaN(s.OffsetMs) || math.IsInf(s.OffsetMs, 0) {
			return fmt.Errorf("%w: step %d has offset %v", ErrInvalidStep, i, s.OffsetMs)
		}
		if (s.Move == nil) == (s.Effect == nil) {
			return fmt.Errorf("%w: step %d must set exactly one of Move and Effect", ErrInvalidStep, i)
		}
		if s.Move == nil {
			continue
		}
		tok := s.Move.Token
		if tok.Duration < 0 {
			return fmt.Errorf("%w: %q has negative duration %v", motion.ErrInvalidToken, tok.ID, tok.Duration)
		}
		if !tok.From.Finite() || !tok.To.Finite() {
			return fmt.Errorf("%w: %q has non-finite endpoint", motion.ErrInvalidToken, tok.ID)
		}
		if _, ok := ids[tok.ID]; ok {
			return fmt.Errorf("%w: duplicate active id %q", motion.ErrInvalidToken, tok.ID)
		}
		ids[tok.ID] = struct{}{}
	}
	return nil
}

// runReduced executes steps synchronously in sorted order. Movers started
// under a reduced gate complete inside Start, so every onComplete and
// Effect has fired, in the same order as real-time playback, before
// Schedule returns.
func (c *Choreographer) runReduced(steps []Step) error {
	ordered := make([]pendingStep, 0, len(steps))
	for _, s := range steps {
		ordered = append(ordered, pendingStep{fireAt: s.OffsetMs, order: c.nextOrder(), step: s})
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].fireAt != ordered[j].fireAt {
			return ordered[i].fireAt < ordered[j].fireAt
		}
		return ordered[i].order < ordered[j].order
	})
	for _, ps := range ordered {
		ps.fireAt = c.now
		c.fireStep(ps)
	}
	return nil
}

func (c *Choreographer) fireStep(ps pendingStep) {
	if ps.step.Effect != nil {
		ps.step.Effect()
		return
	}

	mv := ps.step.Move
	tok := mv.Token
	// The scheduled fire time, not the frame that happened to observe it,
	// anchors the travel so staggered bursts keep their exact spacing.
	tok.StartTime = ps.fireAt

	mover := motion.NewMover(c.gate, motion.WithFadeStart(c.fadeStart))
	if err := mover.Start(tok, mv.OnComplete); err != nil {
		// Steps are validated at Schedule time; this is unreachable with a
		// well-formed sequence.
		return
	}
	if mover.Phase() == motion.TokenCompleted {
		return
	}
	c.active = append(c.active, &activeToken{mover: mover})
}

func (c *Choreographer) nextOrder() int {
	c.order++
	return c.order
}
