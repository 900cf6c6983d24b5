package timeline

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestComputePositions(t *testing.T) {
	cases := []struct {
		name        string
		phases      []Phase
		trackLength float64
		want        []float64
		wantStarts  []float64
		wantErr     error
	}{
		{
			name: "proportional",
			phases: []Phase{
				{ID: "html", Duration: 100},
				{ID: "js", Duration: 200},
				{ID: "hydrate", Duration: 50},
			},
			trackLength: 20,
			want:        []float64{0, 100.0 / 350 * 20, 300.0 / 350 * 20},
			wantStarts:  []float64{0, 100, 300},
		},
		{
			name: "zero_total_spaced_evenly",
			phases: []Phase{
				{ID: "a", Duration: 0},
				{ID: "b", Duration: 0},
			},
			trackLength: 10,
			want:        []float64{0, 5},
			wantStarts:  []float64{0, 0},
		},
		{
			name:        "empty",
			phases:      nil,
			trackLength: 10,
			want:        []float64{},
			wantStarts:  []float64{},
		},
		{
			name:        "negative_duration",
			phases:      []Phase{{ID: "a", Duration: -1}},
			trackLength: 10,
			wantErr:     ErrInvalidPhase,
		},
		{
			name:        "duplicate_id",
			phases:      []Phase{{ID: "a", Duration: 1}, {ID: "a", Duration: 2}},
			trackLength: 10,
			wantErr:     ErrInvalidPhase,
		},
		{
			name:        "bad_track",
			phases:      []Phase{{ID: "a", Duration: 1}},
			trackLength: 0,
			wantErr:     ErrInvalidTrack,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := ComputePositions(c.phases, c.trackLength)
			if c.wantErr != nil {
				if !errors.Is(err, c.wantErr) {
					t.Fatalf("expected %v, got %v", c.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(c.want) {
				t.Fatalf("expected %d positions, got %d", len(c.want), len(got))
			}
			for i := range got {
				if !almostEqual(got[i].Position, c.want[i]) {
					t.Fatalf("position[%d]: expected %v, got %v", i, c.want[i], got[i].Position)
				}
				if !almostEqual(got[i].CumulativeStart, c.wantStarts[i]) {
					t.Fatalf("cumulativeStart[%d]: expected %v, got %v", i, c.wantStarts[i], got[i].CumulativeStart)
				}
			}
		})
	}
}

func TestPositionsMonotonicAndTotal(t *testing.T) {
	phases := []Phase{
		{ID: "a", Duration: 30},
		{ID: "b", Duration: 0},
		{ID: "c", Duration: 170},
		{ID: "d", Duration: 800},
	}
	positions, err := ComputePositions(phases, 640)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 1; i < len(positions); i++ {
		if positions[i].Position < positions[i-1].Position {
			t.Fatalf("positions not monotonic at %d: %v < %v", i, positions[i].Position, positions[i-1].Position)
		}
	}

	last := positions[len(positions)-1]
	if !almostEqual(last.CumulativeStart+last.Duration, 1000) {
		t.Fatalf("expected total 1000, got %v", last.CumulativeStart+last.Duration)
	}
	if !almostEqual(TotalDuration(positions), 1000) {
		t.Fatalf("TotalDuration: expected 1000, got %v", TotalDuration(positions))
	}
}

func TestCurrentPhaseAt(t *testing.T) {
	phases := []Phase{
		{ID: "html", Duration: 100},
		{ID: "js", Duration: 200},
		{ID: "hydrate", Duration: 50},
	}
	positions, err := ComputePositions(phases, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		name   string
		t      float64
		want   string
		wantOK bool
	}{
		{"start_of_first", 0, "html", true},
		{"mid_second", 150, "js", true},
		{"boundary_belongs_to_next", 100, "js", true},
		{"last_ms_of_phase", 299, "js", true},
		{"last_phase", 300, "hydrate", true},
		{"negative", -1, "", false},
		{"past_end", 350, "", false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := CurrentPhaseAt(c.t, positions)
			if ok != c.wantOK || got != c.want {
				t.Fatalf("CurrentPhaseAt(%v): expected (%q, %v), got (%q, %v)", c.t, c.want, c.wantOK, got, ok)
			}
		})
	}

	if _, ok := CurrentPhaseAt(10, nil); ok {
		t.Fatalf("expected no phase for empty positions")
	}
}

func TestPhaseRoundTrip(t *testing.T) {
	phases := []Phase{
		{ID: "a", Duration: 120},
		{ID: "b", Duration: 40},
		{ID: "c", Duration: 600},
	}
	positions, err := ComputePositions(phases, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, p := range positions {
		if got, ok := CurrentPhaseAt(p.CumulativeStart, positions); !ok || got != p.ID {
			t.Fatalf("start of %q resolved to %q (ok=%v)", p.ID, got, ok)
		}
		if got, ok := CurrentPhaseAt(p.CumulativeStart+p.Duration-1, positions); !ok || got != p.ID {
			t.Fatalf("end of %q resolved to %q (ok=%v)", p.ID, got, ok)
		}
	}
}

func TestMarkerPositionAt(t *testing.T) {
	phases := []Phase{{ID: "a", Duration: 100}, {ID: "b", Duration: 100}}
	positions, err := ComputePositions(phases, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		name string
		t    float64
		want float64
	}{
		{"at_zero", 0, 0},
		{"halfway", 100, 25},
		{"clamped_low", -50, 0},
		{"clamped_high", 500, 50},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := MarkerPositionAt(c.t, positions, 50); !almostEqual(got, c.want) {
				t.Fatalf("expected %v, got %v", c.want, got)
			}
		})
	}

	zero, err := ComputePositions([]Phase{{ID: "a"}, {ID: "b"}}, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := MarkerPositionAt(10, zero, 50); got != 0 {
		t.Fatalf("zero-duration timeline: expected 0, got %v", got)
	}
}

func TestNamedPosition(t *testing.T) {
	phases := []Phase{
		{ID: "html", Duration: 100},
		{ID: "js", Duration: 200},
		{ID: "hydrate", Duration: 50},
	}
	positions, err := ComputePositions(phases, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := NamedPosition("hydrate", positions)
	if !ok || !almostEqual(got, 300.0/350*20) {
		t.Fatalf("expected %v, got %v (ok=%v)", 300.0/350*20, got, ok)
	}
	if _, ok := NamedPosition("missing", positions); ok {
		t.Fatalf("expected miss for unknown id")
	}
}
