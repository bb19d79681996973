package param

import (
	"fmt"
	"io"
	"math"

	"github.com/bytedance/sonic"
)

// PriorState is the persisted form of a Prior. Infinite bounds are stored as
// nil since JSON has no infinity.
type PriorState struct {
	Kind  string   `json:"kind"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Loc   float64  `json:"loc,omitempty"`
	Scale float64  `json:"scale,omitempty"`
}

// State is the persisted form of a Param.
type State struct {
	Name  string     `json:"name"`
	Value float64    `json:"value"`
	Fixed bool       `json:"fixed"`
	Latex string     `json:"latex"`
	Prior PriorState `json:"prior"`
	Ref   PriorState `json:"ref"`
}

func finite(x float64) *float64 {
	if math.IsInf(x, 0) {
		return nil
	}
	return &x
}

func bound(x *float64, inf int) float64 {
	if x == nil {
		return math.Inf(inf)
	}
	return *x
}

func priorState(p Prior) (PriorState, error) {
	l := p.Limits()
	s := PriorState{Min: finite(l.Min), Max: finite(l.Max)}
	switch x := p.(type) {
	case Uniform:
		s.Kind = "uniform"
	case Normal:
		s.Kind, s.Loc, s.Scale = "normal", x.Loc, x.Scale
	default:
		return PriorState{}, fmt.Errorf("%w: cannot persist prior of type %T", ErrPrior, p)
	}
	return s, nil
}

func priorFromState(s PriorState) (Prior, error) {
	l := Limit{Min: bound(s.Min, -1), Max: bound(s.Max, 1)}
	switch s.Kind {
	case "uniform":
		return Uniform{Limit: l}, nil
	case "normal":
		return Normal{Loc: s.Loc, Scale: s.Scale, Limit: l}, nil
	}
	return nil, fmt.Errorf("%w: unknown prior kind %q", ErrPrior, s.Kind)
}

// State exports the parameters in order.
func (b *Block) State() ([]State, error) {
	out := make([]State, 0, len(b.params))
	for _, p := range b.params {
		prior, err := priorState(p.Prior)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		ref, err := priorState(p.Ref)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		out = append(out, State{Name: p.Name, Value: p.Value, Fixed: p.Fixed, Latex: p.Latex, Prior: prior, Ref: ref})
	}
	return out, nil
}

// FromState rebuilds a block exported with State.
func FromState(states []State) (*Block, error) {
	b := NewBlock()
	for _, s := range states {
		prior, err := priorFromState(s.Prior)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", s.Name, err)
		}
		ref, err := priorFromState(s.Ref)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", s.Name, err)
		}
		b.Set(&Param{Name: s.Name, Value: s.Value, Fixed: s.Fixed, Latex: s.Latex, Prior: prior, Ref: ref})
	}
	return b, nil
}

// Save writes the block as JSON.
func (b *Block) Save(w io.Writer) error {
	states, err := b.State()
	if err != nil {
		return err
	}
	return sonic.ConfigDefault.NewEncoder(w).Encode(states)
}

// Read reads a block written by Save.
func Read(r io.Reader) (*Block, error) {
	var states []State
	if err := sonic.ConfigDefault.NewDecoder(r).Decode(&states); err != nil {
		return nil, fmt.Errorf("decode parameters: %w", err)
	}
	return FromState(states)
}
