package scene

import (
	"fmt"

	"github.com/milk9111/stagehand/choreo"
	"github.com/milk9111/stagehand/motion"
)

// Effects maps effect names used in scene documents and scripts to host
// callbacks (flip a badge, bump a counter). Resolution happens at build
// time so a typo fails before anything is scheduled.
type Effects map[string]func()

// BuildSteps resolves a sequence's inline steps into engine steps. Station
// names become coordinates, omitted durations take the scene default, and
// onComplete (if non-nil) is bound per token id.
func (s *Spec) BuildSteps(seq SequenceSpec, effects Effects, onComplete func(tokenID string)) ([]choreo.Step, error) {
	steps := make([]choreo.Step, 0, len(seq.Steps))
	for i, st := range seq.Steps {
		if st.Effect != "" {
			run, ok := effects[st.Effect]
			if !ok {
				return nil, fmt.Errorf("scene: sequence %q step %d: unknown effect %q", seq.Name, i, st.Effect)
			}
			steps = append(steps, choreo.Step{OffsetMs: st.Offset, Effect: run})
			continue
		}
		if st.Move == nil {
			return nil, fmt.Errorf("scene: sequence %q step %d: empty step", seq.Name, i)
		}

		from, ok := s.Station(st.Move.From)
		if !ok {
			return nil, fmt.Errorf("scene: sequence %q step %d: unknown station %q", seq.Name, i, st.Move.From)
		}
		to, ok := s.Station(st.Move.To)
		if !ok {
			return nil, fmt.Errorf("scene: sequence %q step %d: unknown station %q", seq.Name, i, st.Move.To)
		}

		mv := &choreo.Move{
			Token: motion.Token{
				ID:       st.Move.ID,
				From:     from,
				To:       to,
				Duration: s.TokenDuration(st.Move.Duration),
				Label:    st.Move.Label,
				Tag:      st.Move.Tag,
			},
		}
		if onComplete != nil {
			id := st.Move.ID
			mv.OnComplete = func() { onComplete(id) }
		}
		steps = append(steps, choreo.Step{OffsetMs: st.Offset, Move: mv})
	}
	return steps, nil
}
