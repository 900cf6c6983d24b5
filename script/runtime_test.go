package script

import (
	"strings"
	"testing"

	"github.com/milk9111/stagehand/choreo"
	"github.com/milk9111/stagehand/motion"
	"github.com/milk9111/stagehand/scene"
)

func testSpec() *scene.Spec {
	return &scene.Spec{
		Name:  "test",
		Track: scene.TrackSpec{Length: 640},
		Stations: map[string]scene.PointSpec{
			"client": {X: 100, Y: 400},
			"server": {X: 500, Y: 400},
		},
		Tokens:  scene.TokenTuning{DefaultDuration: 500},
		Effects: []string{"ack"},
	}
}

func TestBuildFromScript(t *testing.T) {
	src := []byte(`
build := func(seq) {
	seq.move(0, "req", "client", "server", 300)
	seq.move(350, "resp", "server", "client")
	seq.effect(900, "ack")
}
`)
	rt, err := New("inline.tengo", src)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	spec := testSpec()
	effects := scene.Effects{"ack": func() {}}
	steps, err := rt.Build(spec, effects, nil)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(steps))
	}

	if steps[0].Move == nil || steps[0].Move.Token.Duration != 300 {
		t.Fatalf("explicit duration lost: %+v", steps[0])
	}
	if steps[1].Move == nil || steps[1].Move.Token.Duration != 500 {
		t.Fatalf("omitted duration should take the scene default: %+v", steps[1])
	}
	if steps[1].Move.Token.From.X != 500 || steps[1].Move.Token.To.X != 100 {
		t.Fatalf("stations not resolved: %+v", steps[1].Move.Token)
	}
	if steps[2].Effect == nil || steps[2].OffsetMs != 900 {
		t.Fatalf("effect step wrong: %+v", steps[2])
	}
}

func TestBuildErrors(t *testing.T) {
	cases := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "unknown_station",
			src:     `build := func(seq) { seq.move(0, "t", "client", "nowhere") }`,
			wantErr: "unknown station",
		},
		{
			name:    "unknown_effect",
			src:     `build := func(seq) { seq.effect(0, "boom") }`,
			wantErr: "unknown effect",
		},
		{
			name:    "negative_offset",
			src:     `build := func(seq) { seq.move(-10, "t", "client", "server") }`,
			wantErr: "negative offset",
		},
		{
			name:    "missing_build",
			src:     `x := 1`,
			wantErr: "build",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rt, err := New(c.name+".tengo", []byte(c.src))
			if err != nil {
				// Scripts without a build function fail at compile time.
				if strings.Contains(err.Error(), c.wantErr) {
					return
				}
				t.Fatalf("compile failed unexpectedly: %v", err)
			}
			_, err = rt.Build(testSpec(), scene.Effects{"ack": func() {}}, nil)
			if err == nil || !strings.Contains(err.Error(), c.wantErr) {
				t.Fatalf("expected error containing %q, got %v", c.wantErr, err)
			}
		})
	}
}

func TestBuildSequenceWithEmbeddedScript(t *testing.T) {
	spec, err := scene.LoadScene("cache_burst.yaml")
	if err != nil {
		t.Fatalf("load scene: %v", err)
	}

	effects := make(scene.Effects, len(spec.Effects))
	fired := map[string]int{}
	for _, name := range spec.Effects {
		effects[name] = func() { fired[name]++ }
	}

	seq, ok := spec.Sequence("replay")
	if !ok {
		t.Fatalf("replay sequence missing")
	}

	var landed []string
	steps, err := BuildSequence(spec, seq, effects, func(id string) { landed = append(landed, id) })
	if err != nil {
		t.Fatalf("build sequence: %v", err)
	}
	// 5 moves, 5 per-item badges, 1 final badge.
	if len(steps) != 11 {
		t.Fatalf("expected 11 steps, got %d", len(steps))
	}

	// Running the whole thing under a reduced gate executes synchronously
	// and exercises stagger offsets end to end.
	chor := choreo.New(motion.FixedGate(true))
	if err := chor.Schedule(steps); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(landed) != 5 {
		t.Fatalf("expected 5 tokens landed, got %v", landed)
	}
	if fired["cache-hit"] != 5 || fired["drain-done"] != 1 {
		t.Fatalf("effect counts wrong: %v", fired)
	}
}

func TestRuntimeRebuilds(t *testing.T) {
	src := []byte(`build := func(seq) { seq.move(0, "req", "client", "server", 300) }`)
	rt, err := New("inline.tengo", src)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	spec := testSpec()
	for i := 0; i < 3; i++ {
		steps, err := rt.Build(spec, scene.Effects{}, nil)
		if err != nil {
			t.Fatalf("build %d failed: %v", i, err)
		}
		if len(steps) != 1 {
			t.Fatalf("build %d: expected 1 step, got %d", i, len(steps))
		}
	}
}
