package motion

import (
	"errors"
	"fmt"

	"github.com/milk9111/stagehand/common"
)

var ErrInvalidToken = errors.New("motion: invalid token")

// DefaultFadeStart is the progress at which a token begins fading out.
// Tuned for readability rather than derived from anything; override with
// WithFadeStart.
const DefaultFadeStart = 0.8

// TokenPhase is the lifecycle state of a token inside its Mover.
type TokenPhase int

const (
	TokenPending TokenPhase = iota
	TokenRunning
	TokenCompleted
	TokenCancelled
)

// Token is one in-flight animated unit: a request, message or event moving
// between two points. Label and Tag are optional display metadata; renderers
// ignore what they don't use.
type Token struct {
	ID        string
	From      Point
	To        Point
	StartTime float64 // ms, assigned when the token's step fires
	Duration  float64 // ms
	Label     string
	Tag       string
}

// Frame is the drawing state of a token at one tick.
type Frame struct {
	Position Point
	Opacity  float64
	Done     bool
}

// Mover drives a single token's position between two points over a duration,
// fading it out over the tail of the travel. Position is a pure function of
// elapsed time, so a stalled animation is impossible by construction.
//
// Under a reduced-motion Gate, Start computes the terminal state and fires
// onComplete synchronously before returning; Tick is never needed in that
// mode. Callers must not assume asynchronous completion.
type Mover struct {
	gate       Gate
	fadeStart  float64
	token      Token
	onComplete func()
	phase      TokenPhase
	frame      Frame
}

// MoverOption configures a Mover.
type MoverOption func(*Mover)

// WithFadeStart sets the progress (0..1) at which the fade-out begins.
// Values outside (0, 1) fall back to DefaultFadeStart.
func WithFadeStart(p float64) MoverOption {
	return func(m *Mover) {
		if p > 0 && p < 1 {
			m.fadeStart = p
		}
	}
}

func NewMover(gate Gate, opts ...MoverOption) *Mover {
	m := &Mover{
		gate:      gate,
		fadeStart: DefaultFadeStart,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins driving the token. It validates eagerly: a negative duration
// or non-finite endpoint fails here, never as a NaN-positioned token later.
// onComplete fires exactly once per token regardless of motion mode; a
// cancelled token never fires it.
func (m *Mover) Start(token Token, onComplete func()) error {
	if m == nil {
		return fmt.Errorf("%w: nil mover", ErrInvalidToken)
	}
	if m.phase != TokenPending {
		return fmt.Errorf("%w: mover already started for %q", ErrInvalidToken, m.token.ID)
	}
	if token.Duration < 0 {
		return fmt.Errorf("%w: %q has negative duration %v", ErrInvalidToken, token.ID, token.Duration)
	}
	if !token.From.Finite() || !token.To.Finite() {
		return fmt.Errorf("%w: %q has non-finite endpoint", ErrInvalidToken, token.ID)
	}

	m.token = token
	m.onComplete = onComplete

	if m.gate != nil && m.gate.IsReduced() {
		m.frame = Frame{Position: token.To, Opacity: 1, Done: true}
		m.phase = TokenCompleted
		m.fireComplete()
		return nil
	}

	m.phase = TokenRunning
	m.frame = Frame{Position: token.From, Opacity: 1}
	return nil
}

// Tick advances the token to time now (ms) and returns its drawing state.
// A completed or cancelled token returns its last frame unchanged.
func (m *Mover) Tick(now float64) Frame {
	if m == nil {
		return Frame{}
	}
	if m.phase != TokenRunning {
		return m.frame
	}

	progress := 1.0
	if m.token.Duration > 0 {
		progress = common.Clamp((now-m.token.StartTime)/m.token.Duration, 0, 1)
	} else if now < m.token.StartTime {
		progress = 0
	}

	opacity := 1.0
	if progress > m.fadeStart {
		opacity = 1 - (progress-m.fadeStart)/(1-m.fadeStart)
	}

	m.frame = Frame{
		Position: LerpPoint(m.token.From, m.token.To, progress),
		Opacity:  opacity,
		Done:     progress >= 1,
	}

	if m.frame.Done {
		m.phase = TokenCompleted
		m.fireComplete()
	}
	return m.frame
}

// Cancel stops further ticking without firing onComplete. Cancelling an
// already-completed or already-cancelled token is a no-op.
func (m *Mover) Cancel() {
	if m == nil || m.phase == TokenCompleted || m.phase == TokenCancelled {
		return
	}
	m.phase = TokenCancelled
}

// Token returns the token this Mover drives.
func (m *Mover) Token() Token {
	if m == nil {
		return Token{}
	}
	return m.token
}

// Phase returns the token's lifecycle state.
func (m *Mover) Phase() TokenPhase {
	if m == nil {
		return TokenPending
	}
	return m.phase
}

// Frame returns the last computed drawing state.
func (m *Mover) Frame() Frame {
	if m == nil {
		return Frame{}
	}
	return m.frame
}

func (m *Mover) fireComplete() {
	if m.onComplete == nil {
		return
	}
	cb := m.onComplete
	m.onComplete = nil
	cb()
}
