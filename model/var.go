package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/gomo-dev/gomo/expr"
)

// Domain restricts the values a variable may take.
type Domain uint8

const (
	Reals Domain = iota
	NonNegativeReals
	NonPositiveReals
	Binary
	Integers
)

func (d Domain) String() string {
	switch d {
	case NonNegativeReals:
		return "NonNegativeReals"
	case NonPositiveReals:
		return "NonPositiveReals"
	case Binary:
		return "Binary"
	case Integers:
		return "Integers"
	default:
		return "Reals"
	}
}

// binaryTol is the tolerance within which a binary assignment is accepted
// and rounded.
const binaryTol = 1e-5

func (d Domain) check(v float64) (float64, error) {
	switch d {
	case NonNegativeReals:
		if v < 0 {
			return 0, fmt.Errorf("value %g outside %s", v, d)
		}
	case NonPositiveReals:
		if v > 0 {
			return 0, fmt.Errorf("value %g outside %s", v, d)
		}
	case Binary:
		// round near-integral assignments to exactly 0 or 1
		if math.Abs(v) <= binaryTol {
			return 0, nil
		}
		if math.Abs(v-1) <= binaryTol {
			return 1, nil
		}
		return 0, fmt.Errorf("value %g is not within tolerance %g of 0 or 1", v, binaryTol)
	case Integers:
		r := math.Round(v)
		if math.Abs(v-r) > binaryTol {
			return 0, fmt.Errorf("value %g outside %s", v, d)
		}
		return r, nil
	}
	return v, nil
}

// Handle is a settable value reference. Scalar variables and indexed
// variable views implement it; ports in the network package are built on it.
type Handle interface {
	expr.Value
	SetValue(float64) error
}

// Var is a scalar decision variable.
type Var struct {
	name string
	m    *Model

	domain Domain
	lb, ub *float64
	init   *float64

	has   bool
	val   float64
	fixed bool
}

// VarOption configures a Var or indexed Var at declaration.
type VarOption func(*varConfig)

type varConfig struct {
	domain Domain
	lb, ub *float64
	init   *float64
}

// InDomain restricts the variable to a domain.
func InDomain(d Domain) VarOption {
	return func(c *varConfig) { c.domain = d }
}

// WithBounds sets lower and upper bounds.
func WithBounds(lb, ub float64) VarOption {
	return func(c *varConfig) { c.lb, c.ub = &lb, &ub }
}

// WithInitial sets the starting value.
func WithInitial(v float64) VarOption {
	return func(c *varConfig) { c.init = &v }
}

// AddVar declares a scalar variable.
func AddVar(m *Model, name string, opts ...VarOption) (*Var, error) {
	var cfg varConfig
	for _, o := range opts {
		o(&cfg)
	}
	v := &Var{name: name, m: m, domain: cfg.domain, lb: cfg.lb, ub: cfg.ub, init: cfg.init}
	if err := m.attach(v); err != nil {
		return nil, err
	}
	if cfg.init != nil {
		if err := v.SetValue(*cfg.init); err != nil {
			return nil, fmt.Errorf("var %s: initial value: %w", name, err)
		}
	}
	return v, nil
}

func (v *Var) Name() string   { return v.name }
func (v *Var) CType() string  { return "Var" }
func (v *Var) Domain() Domain { return v.domain }

// Label implements expr.Value.
func (v *Var) Label() string { return v.name }

// IsDecision implements expr.Value.
func (v *Var) IsDecision() bool { return true }

// Value returns the current value, or ErrNoValue if none has been assigned.
func (v *Var) Value() (float64, error) {
	if !v.has {
		return 0, fmt.Errorf("var %s: %w", v.name, ErrNoValue)
	}
	return v.val, nil
}

// SetValue assigns a value, validating domain and bounds. Fixed variables
// reject assignment.
func (v *Var) SetValue(val float64) error {
	if v.fixed {
		return fmt.Errorf("var %s: %w", v.name, ErrFixed)
	}
	checked, err := v.domain.check(val)
	if err != nil {
		return fmt.Errorf("var %s: %w", v.name, err)
	}
	if err := checkBounds(checked, v.lb, v.ub); err != nil {
		return fmt.Errorf("var %s: %w", v.name, err)
	}
	v.val, v.has = checked, true
	return nil
}

// boundTol is the slack allowed when validating an assignment against
// declared bounds.
const boundTol = 1e-8

func checkBounds(v float64, lb, ub *float64) error {
	if lb != nil && v < *lb-boundTol {
		return fmt.Errorf("value %g below lower bound %g", v, *lb)
	}
	if ub != nil && v > *ub+boundTol {
		return fmt.Errorf("value %g above upper bound %g", v, *ub)
	}
	return nil
}

// Fix assigns a value and pins it against further assignment.
func (v *Var) Fix(val float64) error {
	if err := v.SetValue(val); err != nil {
		return err
	}
	v.fixed = true
	return nil
}

// Unfix releases a fixed variable.
func (v *Var) Unfix() { v.fixed = false }

// IsFixed reports whether the variable is pinned.
func (v *Var) IsFixed() bool { return v.fixed }

// Bounds returns the declared bounds; nil means unbounded on that side.
func (v *Var) Bounds() (lb, ub *float64) { return v.lb, v.ub }

// Expr returns the symbolic reference to the variable.
func (v *Var) Expr() expr.Node { return expr.Ref(v) }

func (v *Var) write(sbb *strings.Builder) {
	fmt.Fprintf(sbb, "%s : domain=%s", v.name, v.domain)
	if v.lb != nil {
		fmt.Fprintf(sbb, ", bounds=[%g, %g]", *v.lb, *v.ub)
	}
	if v.has {
		fmt.Fprintf(sbb, ", value=%g", v.val)
	}
	if v.fixed {
		sbb.WriteString(", fixed")
	}
}

// VarOver is a variable family indexed by a set.
type VarOver[E Element] struct {
	name string
	m    *Model
	over *Set[E]

	domain Domain
	lb, ub *float64
	init   *float64
	seeded bool

	vals  map[E]float64
	fixed map[E]bool
}

// AddVarOver declares a variable indexed by the elements of `over`.
func AddVarOver[E Element](m *Model, name string, over *Set[E], opts ...VarOption) (*VarOver[E], error) {
	var cfg varConfig
	for _, o := range opts {
		o(&cfg)
	}
	v := &VarOver[E]{
		name: name, m: m, over: over,
		domain: cfg.domain, lb: cfg.lb, ub: cfg.ub, init: cfg.init,
		vals:  make(map[E]float64),
		fixed: make(map[E]bool),
	}
	if err := m.attach(v); err != nil {
		return nil, err
	}
	if m.Mode() == Concrete {
		if err := v.BindData(nil); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (v *VarOver[E]) Name() string   { return v.name }
func (v *VarOver[E]) CType() string  { return "Var" }
func (v *VarOver[E]) Domain() Domain { return v.domain }

// Over returns the index set.
func (v *VarOver[E]) Over() *Set[E] { return v.over }

// Bound reports whether the declared initial value has been applied.
func (v *VarOver[E]) Bound() bool { return v.seeded || v.init == nil }

// BindData seeds every index with the declared initial value once the index
// set is bound. The store is not consulted: variables carry no data.
func (v *VarOver[E]) BindData(Store) error {
	if v.init == nil || v.seeded {
		return nil
	}
	if !v.over.Bound() {
		return fmt.Errorf("var %s: index set %s: %w", v.name, v.over.Name(), ErrUnboundSet)
	}
	for _, k := range v.over.elems {
		if err := v.At(k).SetValue(*v.init); err != nil {
			return err
		}
	}
	v.seeded = true
	return nil
}

// At returns the settable view of the variable at index k.
func (v *VarOver[E]) At(k E) VarElem[E] { return VarElem[E]{v, k} }

// VarElem is the view of one index of a VarOver. It implements Handle.
type VarElem[E Element] struct {
	v *VarOver[E]
	k E
}

func (e VarElem[E]) Label() string    { return fmt.Sprintf("%s[%v]", e.v.name, e.k) }
func (e VarElem[E]) IsDecision() bool { return true }

// Expr returns the symbolic reference to this index.
func (e VarElem[E]) Expr() expr.Node { return expr.Ref(e) }

func (e VarElem[E]) Value() (float64, error) {
	val, ok := e.v.vals[e.k]
	if !ok {
		return 0, fmt.Errorf("var %s[%v]: %w", e.v.name, e.k, ErrNoValue)
	}
	return val, nil
}

func (e VarElem[E]) SetValue(val float64) error {
	if e.v.fixed[e.k] {
		return fmt.Errorf("var %s[%v]: %w", e.v.name, e.k, ErrFixed)
	}
	if e.v.over.Bound() && !e.v.over.Contains(e.k) {
		return fmt.Errorf("var %s: index %v not in %s", e.v.name, e.k, e.v.over.Name())
	}
	checked, err := e.v.domain.check(val)
	if err != nil {
		return fmt.Errorf("var %s[%v]: %w", e.v.name, e.k, err)
	}
	if err := checkBounds(checked, e.v.lb, e.v.ub); err != nil {
		return fmt.Errorf("var %s[%v]: %w", e.v.name, e.k, err)
	}
	e.v.vals[e.k] = checked
	return nil
}

// Fix assigns a value at this index and pins it.
func (e VarElem[E]) Fix(val float64) error {
	if err := e.SetValue(val); err != nil {
		return err
	}
	e.v.fixed[e.k] = true
	return nil
}

// Unfix releases the index.
func (e VarElem[E]) Unfix() { delete(e.v.fixed, e.k) }

// IsFixed reports whether the index is pinned.
func (e VarElem[E]) IsFixed() bool { return e.v.fixed[e.k] }

func (v *VarOver[E]) write(sbb *strings.Builder) {
	fmt.Fprintf(sbb, "%s : domain=%s, indexed by %s", v.name, v.domain, v.over.Name())
	if v.over.Bound() {
		for _, k := range v.over.elems {
			if val, ok := v.vals[k]; ok {
				fmt.Fprintf(sbb, "\n        [%v] = %g", k, val)
				if v.fixed[k] {
					sbb.WriteString(" (fixed)")
				}
			}
		}
	}
}
