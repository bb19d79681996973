// Package param describes the parameters a pipeline is evaluated at: their
// current values, whether they vary, and their priors.
package param

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrParam wraps every invalid parameter definition.
	ErrParam = errors.New("invalid parameter")
	// ErrPrior wraps every invalid prior or limit.
	ErrPrior = errors.New("invalid prior")
)

// Param is one named parameter.
type Param struct {
	Name  string
	Value float64
	Fixed bool
	Prior Prior
	// Ref is the reference distribution used to draw starting points. It
	// defaults to Prior.
	Ref   Prior
	Latex string
}

type definition struct {
	value    *float64
	fixed    *bool
	limit    *Limit
	prior    Prior
	priorStr *string
	ref      Prior
	refStr   *string
	latex    string
}

// Option configures New.
type Option func(*definition)

func WithValue(v float64) Option { return func(d *definition) { d.value = &v } }
func WithFixed(fixed bool) Option { return func(d *definition) { d.fixed = &fixed } }
func WithLimit(l Limit) Option    { return func(d *definition) { d.limit = &l } }
func WithLatex(s string) Option   { return func(d *definition) { d.latex = s } }

// WithPrior sets the prior directly; it takes precedence over WithPriorString.
func WithPrior(p Prior) Option { return func(d *definition) { d.prior = p } }

// WithPriorString sets the prior from a description parsed by ParsePrior.
func WithPriorString(s string) Option { return func(d *definition) { d.priorStr = &s } }

// WithRef sets the reference distribution directly.
func WithRef(p Prior) Option { return func(d *definition) { d.ref = p } }

// WithRefString sets the reference distribution from a description.
func WithRefString(s string) Option { return func(d *definition) { d.refStr = &s } }

// New builds a parameter. Without an explicit value the prior must be proper
// with a finite support, and the value is the midpoint of that support. The
// parameter is fixed unless a prior or limit is given.
func New(name string, opts ...Option) (*Param, error) {
	d := &definition{}
	for _, opt := range opts {
		opt(d)
	}
	p := &Param{Name: name, Latex: d.latex}
	if p.Latex == "" {
		p.Latex = name
	}

	var err error
	switch {
	case d.prior != nil:
		p.Prior = d.prior
	case d.priorStr != nil:
		p.Prior, err = ParsePrior(*d.priorStr, d.limit)
	default:
		p.Prior, err = ParsePrior("", d.limit)
	}
	if err != nil {
		return nil, fmt.Errorf("parameter %s: %w", name, err)
	}

	switch {
	case d.ref != nil:
		p.Ref = d.ref
	case d.refStr != nil:
		if p.Ref, err = ParsePrior(*d.refStr, d.limit); err != nil {
			return nil, fmt.Errorf("parameter %s reference: %w", name, err)
		}
	default:
		p.Ref = p.Prior
	}

	if d.value != nil {
		p.Value = *d.value
	} else {
		limits := p.Prior.Limits()
		if !p.Prior.Proper() || !limits.Bounded() {
			return nil, fmt.Errorf("%w: an initial value must be provided for parameter %s", ErrParam, name)
		}
		p.Value = limits.Mid()
	}

	if d.fixed != nil {
		p.Fixed = *d.fixed
	} else {
		hasPrior := d.prior != nil || d.priorStr != nil
		p.Fixed = d.limit == nil && !hasPrior
	}
	return p, nil
}

var fixedStrings = map[string]bool{
	"true": true, "false": false,
	"t": true, "f": false,
	"yes": true, "no": false,
	"y": true, "n": false,
}

// ParseFixed converts the accepted spellings of a boolean.
func ParseFixed(s string) (bool, error) {
	v, ok := fixedStrings[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return false, fmt.Errorf("%w: cannot convert fixed = %q into a boolean; it should be one of [true false t f yes no y n]", ErrParam, s)
	}
	return v, nil
}

// FromSpec builds a parameter from a decoded configuration mapping with the
// keys value, fixed, limit, prior, ref and latex.
func FromSpec(name string, spec map[string]any) (*Param, error) {
	var opts []Option
	for key, raw := range spec {
		switch key {
		case "value":
			v, err := toFloat(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %s.value: %v", ErrParam, name, err)
			}
			opts = append(opts, WithValue(v))
		case "fixed":
			switch f := raw.(type) {
			case bool:
				opts = append(opts, WithFixed(f))
			case string:
				b, err := ParseFixed(f)
				if err != nil {
					return nil, fmt.Errorf("parameter %s: %w", name, err)
				}
				opts = append(opts, WithFixed(b))
			default:
				return nil, fmt.Errorf("%w: %s.fixed must be a boolean, got %T", ErrParam, name, raw)
			}
		case "limit":
			l, err := toLimit(raw)
			if err != nil {
				return nil, fmt.Errorf("parameter %s: %w", name, err)
			}
			opts = append(opts, WithLimit(l))
		case "prior":
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s.prior must be a string, got %T", ErrParam, name, raw)
			}
			opts = append(opts, WithPriorString(s))
		case "ref":
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s.ref must be a string, got %T", ErrParam, name, raw)
			}
			opts = append(opts, WithRefString(s))
		case "latex":
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s.latex must be a string, got %T", ErrParam, name, raw)
			}
			opts = append(opts, WithLatex(s))
		default:
			return nil, fmt.Errorf("%w: unknown field %q for parameter %s", ErrParam, key, name)
		}
	}
	return New(name, opts...)
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	}
	return 0, fmt.Errorf("cannot convert %T to a number", v)
}

func toLimit(v any) (Limit, error) {
	switch x := v.(type) {
	case string:
		return ParseLimit(x)
	case []any:
		if len(x) != 2 {
			return Limit{}, fmt.Errorf("%w: limit must have two bounds, got %d", ErrPrior, len(x))
		}
		lo, err := toFloat(x[0])
		if err != nil {
			return Limit{}, fmt.Errorf("%w: %v", ErrPrior, err)
		}
		hi, err := toFloat(x[1])
		if err != nil {
			return Limit{}, fmt.Errorf("%w: %v", ErrPrior, err)
		}
		return NewLimit(lo, hi)
	}
	return Limit{}, fmt.Errorf("%w: unsupported limit %T", ErrPrior, v)
}

var (
	latexSingleSubscript = regexp.MustCompile(`^(.*)_(.)$`)
	latexBraceSubscript  = regexp.MustCompile(`^(.*)_\{(.*)\}$`)
)

// AddSuffix renames the parameter to name_suffix and extends its LaTeX label
// with a roman subscript, merging with an existing subscript.
func (p *Param) AddSuffix(suffix string) {
	p.Name = p.Name + "_" + suffix
	if m := latexSingleSubscript.FindStringSubmatch(p.Latex); m != nil {
		p.Latex = fmt.Sprintf(`%s_{%s,\mathrm{%s}}`, m[1], m[2], suffix)
	} else if m := latexBraceSubscript.FindStringSubmatch(p.Latex); m != nil {
		p.Latex = fmt.Sprintf(`%s_{%s,\mathrm{%s}}`, m[1], m[2], suffix)
	} else {
		p.Latex = fmt.Sprintf(`%s_{\mathrm{%s}}`, p.Latex, suffix)
	}
}

// Clone returns a copy; priors are immutable values and are shared.
func (p *Param) Clone() *Param {
	c := *p
	return &c
}

// LogPrior is the prior log-density at the current value.
func (p *Param) LogPrior() float64 {
	return p.Prior.LogProb(p.Value)
}

func (p *Param) String() string {
	state := "varied"
	if p.Fixed {
		state = "fixed"
	}
	return fmt.Sprintf("%s=%g (%s, %s)", p.Name, p.Value, state, p.Prior)
}
