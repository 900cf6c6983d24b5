// Package timeline lays out a sequence of named, durationed phases along a
// one-dimensional track, proportionally to their durations. All functions
// are pure: safe to call from a render loop, trivially unit-testable, and
// callers memoize on stable phase lists only for performance.
package timeline

import (
	"errors"
	"fmt"

	"github.com/milk9111/stagehand/common"
)

var (
	ErrInvalidPhase = errors.New("timeline: invalid phase")
	ErrInvalidTrack = errors.New("timeline: invalid track length")
)

// Phase is one named interval in a scripted sequence, e.g. a render
// pipeline stage. Immutable once constructed.
type Phase struct {
	ID       string
	Label    string
	Duration float64 // ms, non-negative
}

// Position is the derived placement of a phase on a track.
type Position struct {
	ID              string
	Label           string
	Position        float64 // 0..trackLength
	Duration        float64
	CumulativeStart float64 // sum of durations of all earlier phases
}

// ComputePositions maps phases to cumulative start times and track
// positions. Positions are monotonically non-decreasing in input order.
// When the total duration is zero the phases are spaced evenly instead of
// dividing by zero, and every cumulative start is zero.
func ComputePositions(phases []Phase, trackLength float64) ([]Position, error) {
	if trackLength <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTrack, trackLength)
	}
	if len(phases) == 0 {
		return []Position{}, nil
	}

	total := 0.0
	seen := make(map[string]struct{}, len(phases))
	for _, p := range phases {
		if p.Duration < 0 {
			return nil, fmt.Errorf("%w: %q has negative duration %v", ErrInvalidPhase, p.ID, p.Duration)
		}
		if _, ok := seen[p.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidPhase, p.ID)
		}
		seen[p.ID] = struct{}{}
		total += p.Duration
	}

	out := make([]Position, 0, len(phases))
	cumulative := 0.0
	for i, p := range phases {
		pos := Position{
			ID:              p.ID,
			Label:           p.Label,
			Duration:        p.Duration,
			CumulativeStart: cumulative,
		}
		if total > 0 {
			pos.Position = cumulative / total * trackLength
		} else {
			pos.Position = float64(i) / float64(len(phases)) * trackLength
		}
		out = append(out, pos)
		cumulative += p.Duration
	}
	return out, nil
}

// TotalDuration returns the summed duration of the laid-out phases.
func TotalDuration(positions []Position) float64 {
	if len(positions) == 0 {
		return 0
	}
	last := positions[len(positions)-1]
	return last.CumulativeStart + last.Duration
}

// CurrentPhaseAt returns the id of the phase whose half-open interval
// [CumulativeStart, CumulativeStart+Duration) contains t. The second return
// is false when t is negative, at or past the total duration, or positions
// is empty.
func CurrentPhaseAt(t float64, positions []Position) (string, bool) {
	if len(positions) == 0 || t < 0 {
		return "", false
	}
	for _, p := range positions {
		if t >= p.CumulativeStart && t < p.CumulativeStart+p.Duration {
			return p.ID, true
		}
	}
	return "", false
}

// MarkerPositionAt returns the track position of a marker travelling the
// whole timeline: clamp(t/total, 0, 1) * trackLength, or 0 when the total
// duration is zero.
func MarkerPositionAt(t float64, positions []Position, trackLength float64) float64 {
	total := TotalDuration(positions)
	if total <= 0 {
		return 0
	}
	return common.Clamp(t/total, 0, 1) * trackLength
}

// NamedPosition looks up the track position of the phase with the given id.
// Used to place fixed markers at a named phase without re-deriving layout.
func NamedPosition(id string, positions []Position) (float64, bool) {
	for _, p := range positions {
		if p.ID == id {
			return p.Position, true
		}
	}
	return 0, false
}
