// Package script runs tengo sequence scripts: small programs that describe
// which tokens move where, with what stagger, instead of hand-writing step
// lists in YAML. Scripts only build data; the engine decides how (and
// whether) the motion plays out.
package script

import (
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/milk9111/stagehand/choreo"
	"github.com/milk9111/stagehand/scene"
)

// A script must define build(seq); the dispatch line invokes it with the
// builder handle after the script body has run.
const buildDispatchScript = `
build(__seq)
`

// Runtime compiles one sequence script and builds step lists from it.
// Compiled scripts are cheap to re-run, so hosts cache a Runtime per
// sequence and rebuild on hot reload.
type Runtime struct {
	name     string
	compiled *tengo.Compiled
}

// New compiles a sequence script. name is used in error messages only.
func New(name string, src []byte) (*Runtime, error) {
	s := tengo.NewScript(append(append([]byte{}, src...), []byte(buildDispatchScript)...))
	_ = s.Add("__seq", map[string]any{})
	s.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("script: compile %s: %w", name, err)
	}
	return &Runtime{name: name, compiled: compiled}, nil
}

// Build runs the script against the scene's stations and the host's effect
// registry and returns the resulting steps. Unknown stations or effect
// names fail here, before anything is scheduled.
func (r *Runtime) Build(spec *scene.Spec, effects scene.Effects, onComplete func(tokenID string)) ([]choreo.Step, error) {
	if r == nil || r.compiled == nil {
		return nil, fmt.Errorf("script: nil runtime")
	}

	var collected []scene.StepSpec
	builder := seqBuilder(&collected, spec, effects)
	if err := r.compiled.Set("__seq", builder); err != nil {
		return nil, fmt.Errorf("script: %s: %w", r.name, err)
	}
	if err := r.compiled.Run(); err != nil {
		return nil, fmt.Errorf("script: run %s: %w", r.name, err)
	}

	steps, err := spec.BuildSteps(scene.SequenceSpec{Name: r.name, Steps: collected}, effects, onComplete)
	if err != nil {
		return nil, fmt.Errorf("script: %s: %w", r.name, err)
	}
	return steps, nil
}

// BuildSequence resolves a whole sequence document entry: inline steps
// first, then the referenced script's steps appended after them.
func BuildSequence(spec *scene.Spec, seq scene.SequenceSpec, effects scene.Effects, onComplete func(tokenID string)) ([]choreo.Step, error) {
	steps, err := spec.BuildSteps(seq, effects, onComplete)
	if err != nil {
		return nil, err
	}
	if seq.Script == "" {
		return steps, nil
	}

	src, err := scene.LoadScript(seq.Script)
	if err != nil {
		return nil, fmt.Errorf("script: load %s: %w", seq.Script, err)
	}
	rt, err := New(seq.Script, src)
	if err != nil {
		return nil, err
	}
	scripted, err := rt.Build(spec, effects, onComplete)
	if err != nil {
		return nil, err
	}
	return append(steps, scripted...), nil
}

func seqBuilder(collected *[]scene.StepSpec, spec *scene.Spec, effects scene.Effects) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["move"] = &tengo.UserFunction{Name: "move", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 4 {
			return nil, fmt.Errorf("move wants (offset, id, from, to[, duration])")
		}
		offset, err := floatArg(args[0], "offset")
		if err != nil {
			return nil, err
		}
		if offset < 0 {
			return nil, fmt.Errorf("move: negative offset %v", offset)
		}
		id := stringArg(args[1])
		from := stringArg(args[2])
		to := stringArg(args[3])
		if id == "" || from == "" || to == "" {
			return nil, fmt.Errorf("move: id, from and to must be non-empty")
		}
		if _, ok := spec.Station(from); !ok {
			return nil, fmt.Errorf("move: unknown station %q", from)
		}
		if _, ok := spec.Station(to); !ok {
			return nil, fmt.Errorf("move: unknown station %q", to)
		}

		duration := 0.0
		if len(args) > 4 {
			duration, err = floatArg(args[4], "duration")
			if err != nil {
				return nil, err
			}
			if duration < 0 {
				return nil, fmt.Errorf("move: negative duration %v", duration)
			}
		}

		*collected = append(*collected, scene.StepSpec{
			Offset: offset,
			Move:   &scene.MoveSpec{ID: id, From: from, To: to, Duration: duration},
		})
		return tengo.TrueValue, nil
	}}

	values["effect"] = &tengo.UserFunction{Name: "effect", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return nil, fmt.Errorf("effect wants (offset, name)")
		}
		offset, err := floatArg(args[0], "offset")
		if err != nil {
			return nil, err
		}
		if offset < 0 {
			return nil, fmt.Errorf("effect: negative offset %v", offset)
		}
		name := stringArg(args[1])
		if _, ok := effects[name]; !ok {
			return nil, fmt.Errorf("effect: unknown effect %q", name)
		}

		*collected = append(*collected, scene.StepSpec{Offset: offset, Effect: name})
		return tengo.TrueValue, nil
	}}

	values["station"] = &tengo.UserFunction{Name: "station", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.UndefinedValue, nil
		}
		p, ok := spec.Station(stringArg(args[0]))
		if !ok {
			return tengo.UndefinedValue, nil
		}
		return &tengo.Array{Value: []tengo.Object{&tengo.Float{Value: p.X}, &tengo.Float{Value: p.Y}}}, nil
	}}

	values["default_duration"] = &tengo.UserFunction{Name: "default_duration", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Float{Value: spec.TokenDuration(0)}, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func stringArg(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}

func floatArg(obj tengo.Object, name string) (float64, error) {
	switch v := obj.(type) {
	case *tengo.Int:
		return float64(v.Value), nil
	case *tengo.Float:
		return v.Value, nil
	default:
		return 0, fmt.Errorf("%s must be a number", name)
	}
}
