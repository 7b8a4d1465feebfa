package model

import (
	"fmt"
	"strings"

	"github.com/gomo-dev/gomo/expr"
)

// Param is a scalar parameter. On an abstract model its value is unavailable
// until instantiation: Value returns ErrUnboundParam, so declaration-time
// code cannot branch on it. Reference it symbolically with Expr instead.
type Param struct {
	name string
	m    *Model

	def     *float64
	initVal *float64
	mutable bool

	bound bool
	val   float64
}

// ParamOption configures a Param or indexed Param at declaration.
type ParamOption func(*paramConfig)

type paramConfig struct {
	def     *float64
	initVal *float64
	mutable bool
}

// WithDefault sets the value used when the data store has no entry.
func WithDefault(v float64) ParamOption {
	return func(c *paramConfig) { c.def = &v }
}

// WithValue sets the declared value. A concrete model binds it immediately;
// an abstract model treats it like a default.
func WithValue(v float64) ParamOption {
	return func(c *paramConfig) { c.initVal = &v }
}

// Mutable allows SetValue after the parameter is bound.
func Mutable() ParamOption {
	return func(c *paramConfig) { c.mutable = true }
}

// AddParam declares a scalar parameter.
func AddParam(m *Model, name string, opts ...ParamOption) (*Param, error) {
	var cfg paramConfig
	for _, o := range opts {
		o(&cfg)
	}
	p := &Param{name: name, m: m, def: cfg.def, initVal: cfg.initVal, mutable: cfg.mutable}
	if err := m.attach(p); err != nil {
		return nil, err
	}
	if m.Mode() == Concrete {
		switch {
		case cfg.initVal != nil:
			p.val, p.bound = *cfg.initVal, true
		case cfg.def != nil:
			p.val, p.bound = *cfg.def, true
		default:
			return nil, fmt.Errorf("param %s: concrete model requires a value or default", name)
		}
	}
	return p, nil
}

func (p *Param) Name() string  { return p.name }
func (p *Param) CType() string { return "Param" }
func (p *Param) Bound() bool   { return p.bound }

// Label implements expr.Value.
func (p *Param) Label() string { return p.name }

// IsDecision implements expr.Value; parameters are data, not decisions.
func (p *Param) IsDecision() bool { return false }

// Value returns the bound value. Before instantiation it fails with
// ErrUnboundParam.
func (p *Param) Value() (float64, error) {
	if !p.bound {
		return 0, fmt.Errorf("param %s: %w", p.name, ErrUnboundParam)
	}
	return p.val, nil
}

// SetValue assigns a new value to a mutable parameter.
func (p *Param) SetValue(v float64) error {
	if !p.mutable && p.bound {
		return fmt.Errorf("param %s: immutable", p.name)
	}
	p.val, p.bound = v, true
	return nil
}

// Expr returns the symbolic reference to the parameter.
func (p *Param) Expr() expr.Node { return expr.Ref(p) }

// BindData binds the value from the store, falling back to the declared
// value then the default.
func (p *Param) BindData(st Store) error {
	if p.bound {
		return nil
	}
	if st != nil {
		if v, ok := st.ParamValue(p.name); ok {
			p.val, p.bound = v, true
			return nil
		}
	}
	switch {
	case p.initVal != nil:
		p.val, p.bound = *p.initVal, true
	case p.def != nil:
		p.val, p.bound = *p.def, true
	default:
		return fmt.Errorf("param %s: %w", p.name, ErrMissingData)
	}
	return nil
}

func (p *Param) write(sbb *strings.Builder) {
	if !p.bound {
		fmt.Fprintf(sbb, "%s : unbound", p.name)
		return
	}
	fmt.Fprintf(sbb, "%s : value=%g", p.name, p.val)
	if p.mutable {
		sbb.WriteString(", mutable")
	}
}

// ParamOver is a parameter family indexed by a set.
type ParamOver[E Element] struct {
	name string
	m    *Model
	over *Set[E]

	def     *float64
	init    map[E]float64
	mutable bool

	bound bool
	vals  map[E]float64
}

// AddParamOver declares a parameter indexed by the elements of `over`.
// init provides declared values per index; WithDefault fills missing
// indexes.
func AddParamOver[E Element](m *Model, name string, over *Set[E], init map[E]float64, opts ...ParamOption) (*ParamOver[E], error) {
	var cfg paramConfig
	for _, o := range opts {
		o(&cfg)
	}
	p := &ParamOver[E]{name: name, m: m, over: over, def: cfg.def, init: init, mutable: cfg.mutable}
	if err := m.attach(p); err != nil {
		return nil, err
	}
	if m.Mode() == Concrete {
		if err := p.bindFrom(nil); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *ParamOver[E]) Name() string  { return p.name }
func (p *ParamOver[E]) CType() string { return "Param" }
func (p *ParamOver[E]) Bound() bool   { return p.bound }

// Over returns the index set.
func (p *ParamOver[E]) Over() *Set[E] { return p.over }

// BindData binds every index, preferring store entries, then declared
// values, then the default.
func (p *ParamOver[E]) BindData(st Store) error {
	if p.bound {
		return nil
	}
	return p.bindFrom(st)
}

func (p *ParamOver[E]) bindFrom(st Store) error {
	if !p.over.Bound() {
		return fmt.Errorf("param %s: index set %s: %w", p.name, p.over.Name(), ErrUnboundSet)
	}
	keys, err := p.over.Elements()
	if err != nil {
		return err
	}
	p.vals = make(map[E]float64, len(keys))
	for _, k := range keys {
		if st != nil {
			if v, ok := st.IndexedParamValue(p.name, fmt.Sprint(k)); ok {
				p.vals[k] = v
				continue
			}
		}
		if v, ok := p.init[k]; ok {
			p.vals[k] = v
			continue
		}
		if p.def != nil {
			p.vals[k] = *p.def
			continue
		}
		return fmt.Errorf("param %s[%v]: %w", p.name, k, ErrMissingData)
	}
	p.bound = true
	return nil
}

// At returns the symbolic reference to the parameter at index k.
func (p *ParamOver[E]) At(k E) expr.Node { return expr.Ref(paramElem[E]{p, k}) }

// ValueAt returns the bound value at index k.
func (p *ParamOver[E]) ValueAt(k E) (float64, error) {
	return paramElem[E]{p, k}.Value()
}

// SetValueAt assigns a value at index k on a mutable parameter family.
func (p *ParamOver[E]) SetValueAt(k E, v float64) error {
	if !p.mutable {
		return fmt.Errorf("param %s: immutable", p.name)
	}
	if !p.bound {
		return fmt.Errorf("param %s: %w", p.name, ErrUnboundParam)
	}
	if !p.over.Contains(k) {
		return fmt.Errorf("param %s: index %v not in %s", p.name, k, p.over.Name())
	}
	p.vals[k] = v
	return nil
}

// paramElem is the expr.Value view of one index of a ParamOver.
type paramElem[E Element] struct {
	p *ParamOver[E]
	k E
}

func (e paramElem[E]) Label() string    { return fmt.Sprintf("%s[%v]", e.p.name, e.k) }
func (e paramElem[E]) IsDecision() bool { return false }

func (e paramElem[E]) Value() (float64, error) {
	if !e.p.bound {
		return 0, fmt.Errorf("param %s: %w", e.p.name, ErrUnboundParam)
	}
	v, ok := e.p.vals[e.k]
	if !ok {
		return 0, fmt.Errorf("param %s: no value at index %v", e.p.name, e.k)
	}
	return v, nil
}

func (p *ParamOver[E]) write(sbb *strings.Builder) {
	if !p.bound {
		fmt.Fprintf(sbb, "%s : unbound, indexed by %s", p.name, p.over.Name())
		return
	}
	fmt.Fprintf(sbb, "%s : indexed by %s", p.name, p.over.Name())
	for _, k := range p.over.elems {
		fmt.Fprintf(sbb, "\n        [%v] = %g", k, p.vals[k])
	}
}
