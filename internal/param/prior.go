package param

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

// Prior is a log-density over a bounded (possibly infinite) support.
type Prior interface {
	// LogProb returns the log-density at x, or -Inf outside the support.
	LogProb(x float64) float64
	// Sample draws one value from the prior.
	Sample(src rand.Source) (float64, error)
	// Proper reports whether the prior integrates to one.
	Proper() bool
	// Limits returns the support.
	Limits() Limit
	String() string
}

// Limit is an open interval (Min, Max).
type Limit struct {
	Min float64
	Max float64
}

// Unbounded is the whole real line.
var Unbounded = Limit{Min: math.Inf(-1), Max: math.Inf(1)}

// NewLimit validates min < max.
func NewLimit(min, max float64) (Limit, error) {
	if !(max > min) {
		return Limit{}, fmt.Errorf("%w: range [%g, %g] has min greater than max", ErrPrior, min, max)
	}
	return Limit{Min: min, Max: max}, nil
}

// ParseLimit parses "min max".
func ParseLimit(s string) (Limit, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Limit{}, fmt.Errorf("%w: limit %q must have the form \"min max\"", ErrPrior, s)
	}
	bounds, err := parseFloats(fields)
	if err != nil {
		return Limit{}, fmt.Errorf("%w: limit %q: %v", ErrPrior, s, err)
	}
	return NewLimit(bounds[0], bounds[1])
}

// Contains reports whether x lies strictly inside the limit.
func (l Limit) Contains(x float64) bool {
	return l.Min < x && x < l.Max
}

// Bounded reports whether both ends are finite.
func (l Limit) Bounded() bool {
	return !math.IsInf(l.Min, 0) && !math.IsInf(l.Max, 0)
}

// Mid returns the midpoint.
func (l Limit) Mid() float64 {
	return (l.Min + l.Max) / 2
}

// Uniform is flat over its limit. It is improper when the limit is infinite;
// an improper uniform prior has log-density 0 everywhere and cannot be sampled.
type Uniform struct {
	Limit Limit
}

func (u Uniform) LogProb(x float64) float64 {
	if !u.Limit.Contains(x) {
		return math.Inf(-1)
	}
	if !u.Proper() {
		return 0
	}
	return distuv.Uniform{Min: u.Limit.Min, Max: u.Limit.Max}.LogProb(x)
}

func (u Uniform) Sample(src rand.Source) (float64, error) {
	if !u.Proper() {
		return 0, fmt.Errorf("%w: cannot sample from improper prior %s", ErrPrior, u)
	}
	return distuv.Uniform{Min: u.Limit.Min, Max: u.Limit.Max, Src: src}.Rand(), nil
}

func (u Uniform) Proper() bool  { return u.Limit.Bounded() }
func (u Uniform) Limits() Limit { return u.Limit }

func (u Uniform) String() string {
	return fmt.Sprintf("uniform %g %g", u.Limit.Min, u.Limit.Max)
}

// Normal is a Gaussian truncated to its limit and renormalised.
type Normal struct {
	Loc   float64
	Scale float64
	Limit Limit
}

func (n Normal) dist(src rand.Source) distuv.Normal {
	return distuv.Normal{Mu: n.Loc, Sigma: n.Scale, Src: src}
}

func (n Normal) LogProb(x float64) float64 {
	if !n.Limit.Contains(x) {
		return math.Inf(-1)
	}
	d := n.dist(nil)
	return d.LogProb(x) - math.Log(d.CDF(n.Limit.Max)-d.CDF(n.Limit.Min))
}

// Sample draws by rejection when the limit is finite.
func (n Normal) Sample(src rand.Source) (float64, error) {
	d := n.dist(src)
	for {
		x := d.Rand()
		if n.Limit.Contains(x) {
			return x, nil
		}
	}
}

func (n Normal) Proper() bool  { return true }
func (n Normal) Limits() Limit { return n.Limit }

func (n Normal) String() string {
	return fmt.Sprintf("normal %g %g", n.Loc, n.Scale)
}

// ParsePrior builds a prior from a description such as "uniform 0 1" or
// "normal 0 0.1". An empty description is a uniform prior over limit. A
// uniform prior with explicit bounds ignores limit. A nil limit means
// Unbounded.
func ParsePrior(desc string, limit *Limit) (Prior, error) {
	l := Unbounded
	if limit != nil {
		l = *limit
	}
	fields := strings.Fields(desc)
	if len(fields) == 0 {
		return Uniform{Limit: l}, nil
	}
	args, err := parseFloats(fields[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrPrior, desc, err)
	}

	switch strings.ToLower(fields[0]) {
	case "uniform":
		switch len(args) {
		case 0:
			return Uniform{Limit: l}, nil
		case 2:
			bounds, err := NewLimit(args[0], args[1])
			if err != nil {
				return nil, err
			}
			return Uniform{Limit: bounds}, nil
		default:
			return nil, fmt.Errorf("%w: uniform prior takes 0 or 2 arguments, got %q", ErrPrior, desc)
		}
	case "normal":
		n := Normal{Loc: 0, Scale: 1, Limit: l}
		switch len(args) {
		case 0:
		case 2:
			n.Loc, n.Scale = args[0], args[1]
		default:
			return nil, fmt.Errorf("%w: normal prior takes 0 or 2 arguments, got %q", ErrPrior, desc)
		}
		if !(n.Scale > 0) {
			return nil, fmt.Errorf("%w: normal prior scale must be positive in %q", ErrPrior, desc)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("%w: unable to understand prior %q; it should be one of [uniform normal]", ErrPrior, fields[0])
	}
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
