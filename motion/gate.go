package motion

// Gate reports whether time-based animation should be skipped. The value is
// decided once when a scene is set up and injected into every Mover and
// Choreographer; nothing in this package ever queries global or display
// state, so the same engine runs deterministically under either setting.
type Gate interface {
	IsReduced() bool
}

// FixedGate is a Gate with a constant value.
type FixedGate bool

func (g FixedGate) IsReduced() bool { return bool(g) }

// GateFunc adapts a function to the Gate interface.
type GateFunc func() bool

func (f GateFunc) IsReduced() bool { return f() }
