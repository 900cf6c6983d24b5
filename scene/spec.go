package scene

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/stagehand/motion"
	"github.com/milk9111/stagehand/timeline"
)

// Spec is a YAML scene document: the stations, phases and named sequences
// one visualization panel needs. Everything here is plain data; the engine
// packages do the validation and the moving.
type Spec struct {
	Name      string               `yaml:"name"`
	Track     TrackSpec            `yaml:"track"`
	Stations  map[string]PointSpec `yaml:"stations"`
	Phases    []PhaseSpec          `yaml:"phases"`
	Tokens    TokenTuning          `yaml:"tokens"`
	Effects   []string             `yaml:"effects"`
	Sequences []SequenceSpec       `yaml:"sequences"`
}

// TrackSpec places the phase track on screen.
type TrackSpec struct {
	Length float64 `yaml:"length"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
}

type PointSpec struct {
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Label string  `yaml:"label"`
}

type PhaseSpec struct {
	ID       string  `yaml:"id"`
	Label    string  `yaml:"label"`
	Duration float64 `yaml:"duration"`
}

// TokenTuning carries per-scene animation defaults. The durations and fade
// window are tuned for readability; scenes override them freely.
type TokenTuning struct {
	DefaultDuration float64 `yaml:"default_duration"`
	FadeStart       float64 `yaml:"fade_start"`
	MaxVisible      int     `yaml:"max_visible"`
}

// SequenceSpec is a named, triggerable script of steps. Steps may be listed
// inline, come from a tengo script file, or both (script steps append after
// the inline ones).
type SequenceSpec struct {
	Name   string     `yaml:"name"`
	Script string     `yaml:"script"`
	Steps  []StepSpec `yaml:"steps"`
}

// StepSpec is one inline sequence entry. Exactly one of Move and Effect
// must be set.
type StepSpec struct {
	Offset float64   `yaml:"offset"`
	Move   *MoveSpec `yaml:"move"`
	Effect string    `yaml:"effect"`
}

// MoveSpec moves a token between two named stations.
type MoveSpec struct {
	ID       string  `yaml:"id"`
	From     string  `yaml:"from"`
	To       string  `yaml:"to"`
	Duration float64 `yaml:"duration"`
	Label    string  `yaml:"label"`
	Tag      string  `yaml:"tag"`
}

// DefaultTokenDuration is the travel time used when a move omits one.
const DefaultTokenDuration = 600

// LoadSpec loads and parses a YAML document into T.
func LoadSpec[T any](name string) (T, error) {
	var zero T
	data, err := Load(name)
	if err != nil {
		return zero, fmt.Errorf("scene: load %s: %w", name, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("scene: unmarshal %s: %w", name, err)
	}
	return spec, nil
}

// LoadScene loads, parses and validates a scene document.
func LoadScene(name string) (*Spec, error) {
	spec, err := LoadSpec[Spec](name)
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("scene: %s: %w", name, err)
	}
	return &spec, nil
}

// Validate checks the document against the engine's rules so malformed
// content fails at load time, never as a frozen token mid-animation.
func (s *Spec) Validate() error {
	if s == nil {
		return fmt.Errorf("scene: nil spec")
	}
	if s.Track.Length <= 0 {
		return fmt.Errorf("%w: %v", timeline.ErrInvalidTrack, s.Track.Length)
	}

	phases := s.TimelinePhases()
	if _, err := timeline.ComputePositions(phases, s.Track.Length); err != nil {
		return err
	}

	for name, p := range s.Stations {
		if !(motion.Point{X: p.X, Y: p.Y}).Finite() {
			return fmt.Errorf("%w: station %q has non-finite coordinates", motion.ErrInvalidToken, name)
		}
	}

	if s.Tokens.DefaultDuration < 0 {
		return fmt.Errorf("%w: default duration %v", motion.ErrInvalidToken, s.Tokens.DefaultDuration)
	}

	declared := make(map[string]struct{}, len(s.Effects))
	for _, name := range s.Effects {
		if name == "" {
			return fmt.Errorf("scene: empty effect name")
		}
		declared[name] = struct{}{}
	}

	seen := make(map[string]struct{}, len(s.Sequences))
	for _, seq := range s.Sequences {
		if seq.Name == "" {
			return fmt.Errorf("scene: sequence without a name")
		}
		if _, ok := seen[seq.Name]; ok {
			return fmt.Errorf("scene: duplicate sequence %q", seq.Name)
		}
		seen[seq.Name] = struct{}{}
		for i, st := range seq.Steps {
			if err := s.validateStep(seq.Name, i, st); err != nil {
				return err
			}
			if st.Effect != "" {
				if _, ok := declared[st.Effect]; !ok {
					return fmt.Errorf("scene: sequence %q step %d: undeclared effect %q", seq.Name, i, st.Effect)
				}
			}
		}
	}
	return nil
}

func (s *Spec) validateStep(seq string, i int, st StepSpec) error {
	if st.Offset < 0 {
		return fmt.Errorf("scene: sequence %q step %d: negative offset %v", seq, i, st.Offset)
	}
	if (st.Move == nil) == (st.Effect == "") {
		return fmt.Errorf("scene: sequence %q step %d: exactly one of move and effect", seq, i)
	}
	if st.Move == nil {
		return nil
	}
	if st.Move.ID == "" {
		return fmt.Errorf("scene: sequence %q step %d: move without token id", seq, i)
	}
	if _, ok := s.Station(st.Move.From); !ok {
		return fmt.Errorf("scene: sequence %q step %d: unknown station %q", seq, i, st.Move.From)
	}
	if _, ok := s.Station(st.Move.To); !ok {
		return fmt.Errorf("scene: sequence %q step %d: unknown station %q", seq, i, st.Move.To)
	}
	if st.Move.Duration < 0 {
		return fmt.Errorf("scene: sequence %q step %d: negative duration %v", seq, i, st.Move.Duration)
	}
	return nil
}

// TimelinePhases converts the document's phase list for the timeline package.
func (s *Spec) TimelinePhases() []timeline.Phase {
	phases := make([]timeline.Phase, 0, len(s.Phases))
	for _, p := range s.Phases {
		phases = append(phases, timeline.Phase{ID: p.ID, Label: p.Label, Duration: p.Duration})
	}
	return phases
}

// Station resolves a named station into coordinates.
func (s *Spec) Station(name string) (motion.Point, bool) {
	p, ok := s.Stations[name]
	if !ok {
		return motion.Point{}, false
	}
	return motion.Point{X: p.X, Y: p.Y}, true
}

// TokenDuration returns d, or the scene default (or the package default)
// when d is zero.
func (s *Spec) TokenDuration(d float64) float64 {
	if d > 0 {
		return d
	}
	if s.Tokens.DefaultDuration > 0 {
		return s.Tokens.DefaultDuration
	}
	return DefaultTokenDuration
}

// Sequence looks up a named sequence.
func (s *Spec) Sequence(name string) (SequenceSpec, bool) {
	for _, seq := range s.Sequences {
		if seq.Name == name {
			return seq, true
		}
	}
	return SequenceSpec{}, false
}
