// Package network models flowsheets: units exposing ports, arcs connecting
// them, and a sequential decomposition driver that converges recycle loops
// by tearing streams, without any external solver.
package network

import (
	"fmt"
	"sort"

	"github.com/gomo-dev/gomo/model"
)

// Rule states how a port member combines across arcs.
type Rule uint8

const (
	// Intensive members (temperature, pressure) carry through unchanged.
	Intensive Rule = iota
	// Extensive members (flows) split by fraction on fan-out and sum on
	// fan-in.
	Extensive
)

// Network is a set of units and the arcs connecting their ports.
type Network struct {
	name  string
	units []*Unit
	arcs  []*Arc

	unitsByName map[string]*Unit
}

// New returns an empty network.
func New(name string) *Network {
	return &Network{name: name, unitsByName: make(map[string]*Unit)}
}

func (n *Network) Name() string { return n.name }

// Units returns the units in declaration order.
func (n *Network) Units() []*Unit { return append([]*Unit(nil), n.units...) }

// Arcs returns the arcs in declaration order.
func (n *Network) Arcs() []*Arc { return append([]*Arc(nil), n.arcs...) }

// AddUnit declares a unit.
func (n *Network) AddUnit(name string) (*Unit, error) {
	if _, ok := n.unitsByName[name]; ok {
		return nil, fmt.Errorf("unit %s already declared", name)
	}
	u := &Unit{name: name, net: n, portsByName: make(map[string]*Port)}
	n.units = append(n.units, u)
	n.unitsByName[name] = u
	return u, nil
}

// Connect declares a directed arc from src to dst.
func (n *Network) Connect(name string, src, dst *Port) (*Arc, error) {
	if src == nil || dst == nil {
		return nil, fmt.Errorf("arc %s: nil port", name)
	}
	if src.unit.net != n || dst.unit.net != n {
		return nil, fmt.Errorf("arc %s: ports belong to another network", name)
	}
	a := &Arc{name: name, src: src, dst: dst}
	n.arcs = append(n.arcs, a)
	src.outbound = append(src.outbound, a)
	dst.inbound = append(dst.inbound, a)
	return a, nil
}

// Unit is a named block exposing ports. Initialize, when set, is the unit's
// default calculation invoked by drivers through the run function.
type Unit struct {
	name string
	net  *Network

	ports       []*Port
	portsByName map[string]*Port

	Initialize func(u *Unit) error
}

func (u *Unit) Name() string { return u.name }

// Ports returns the unit's ports in declaration order.
func (u *Unit) Ports() []*Port { return append([]*Port(nil), u.ports...) }

// Port returns the named port, or nil.
func (u *Unit) Port(name string) *Port { return u.portsByName[name] }

// AddPort declares a port on the unit.
func (u *Unit) AddPort(name string) (*Port, error) {
	if _, ok := u.portsByName[name]; ok {
		return nil, fmt.Errorf("port %s already declared on unit %s", name, u.name)
	}
	p := &Port{name: name, unit: u, byName: make(map[string]*member), splits: make(map[*Arc]float64)}
	u.ports = append(u.ports, p)
	u.portsByName[name] = p
	return p, nil
}

// Port is a named bundle of variable members on a unit.
type Port struct {
	name string
	unit *Unit

	members []*member
	byName  map[string]*member

	inbound  []*Arc
	outbound []*Arc

	// split fractions per outbound arc, applied to extensive members
	splits map[*Arc]float64
}

// member is one named entry of a port: a scalar handle or an indexed family
// of handles.
type member struct {
	name  string
	rule  Rule
	keys  []string
	slots map[string]model.Handle
}

func (p *Port) Name() string { return p.name }

// Unit returns the owning unit.
func (p *Port) Unit() *Unit { return p.unit }

// AddScalar attaches a scalar member backed by h.
func (p *Port) AddScalar(name string, h model.Handle, rule Rule) error {
	return p.add(name, rule, []string{""}, map[string]model.Handle{"": h})
}

// AddIndexed attaches an indexed member backed by the given handles.
func (p *Port) AddIndexed(name string, slots map[string]model.Handle, rule Rule) error {
	keys := make([]string, 0, len(slots))
	for k := range slots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return p.add(name, rule, keys, slots)
}

func (p *Port) add(name string, rule Rule, keys []string, slots map[string]model.Handle) error {
	if _, ok := p.byName[name]; ok {
		return fmt.Errorf("member %s already declared on port %s.%s", name, p.unit.name, p.name)
	}
	m := &member{name: name, rule: rule, keys: keys, slots: slots}
	p.members = append(p.members, m)
	p.byName[name] = m
	return nil
}

// SetSplitFraction declares the fraction of extensive members leaving
// through arc. The arc must originate at this port.
func (p *Port) SetSplitFraction(arc *Arc, frac float64) error {
	if arc.src != p {
		return fmt.Errorf("arc %s does not originate at port %s.%s", arc.name, p.unit.name, p.name)
	}
	if frac < 0 || frac > 1 {
		return fmt.Errorf("split fraction %g outside [0, 1]", frac)
	}
	p.splits[arc] = frac
	return nil
}

// splitFraction returns the extensive fraction leaving through arc; it
// defaults to 1 when the port has a single outbound arc.
func (p *Port) splitFraction(arc *Arc) (float64, error) {
	if f, ok := p.splits[arc]; ok {
		return f, nil
	}
	if len(p.outbound) == 1 {
		return 1, nil
	}
	return 0, fmt.Errorf("port %s.%s: no split fraction for arc %s", p.unit.name, p.name, arc.name)
}

// Arc is a directed connection between two ports.
type Arc struct {
	name     string
	src, dst *Port
}

func (a *Arc) Name() string { return a.name }
func (a *Arc) Src() *Port   { return a.src }
func (a *Arc) Dst() *Port   { return a.dst }

// IsExtensive reports whether the named member of the source port follows
// the extensive rule.
func (a *Arc) IsExtensive(member string) bool {
	m, ok := a.src.byName[member]
	return ok && m.rule == Extensive
}

// Slots builds the indexed-member handle map of a variable family, keyed by
// the string form of each index.
func Slots[E model.Element](v *model.VarOver[E]) (map[string]model.Handle, error) {
	keys, err := v.Over().Elements()
	if err != nil {
		return nil, fmt.Errorf("var %s: %w", v.Name(), err)
	}
	slots := make(map[string]model.Handle, len(keys))
	for _, k := range keys {
		slots[fmt.Sprint(k)] = v.At(k)
	}
	return slots, nil
}
