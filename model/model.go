// Package model implements the declarative side of gomo: models and their
// components (sets, parameters, variables, constraints, objectives).
//
// A Model is either Abstract or Concrete. In a concrete model every component
// is bound the moment it is declared. In an abstract model declarations are
// symbolic; memberships and values are bound later by the instance package,
// against a data.Store. Until then parameter values are unavailable:
// declaration-time code cannot branch on them.
package model

import (
	"fmt"
	"io"
	"strings"
)

// Mode distinguishes abstract from concrete models.
type Mode uint8

const (
	// Abstract models bind component values at instantiation time.
	Abstract Mode = iota
	// Concrete models bind component values at declaration time.
	Concrete
)

func (m Mode) String() string {
	if m == Concrete {
		return "concrete"
	}
	return "abstract"
}

// Component is implemented by everything attachable to a Model.
type Component interface {
	Name() string
	CType() string

	write(sbb *strings.Builder)
}

// Binder is implemented by components that take their values from a data
// store at instantiation time.
type Binder interface {
	Component
	BindData(st Store) error
	Bound() bool
}

// Expander is implemented by components built from rules (constraints,
// objectives); Expand runs the rules once all Binders are bound.
type Expander interface {
	Component
	Expand() error
}

// Store is the subset of data.Store the model package binds from. It is
// satisfied by *data.Store.
type Store interface {
	SetMembers(name string) (ints []int64, strs []string, ok bool)
	IndexedSetMembers(name, key string) (ints []int64, strs []string, ok bool)
	ParamValue(name string) (float64, bool)
	IndexedParamValue(name, key string) (float64, bool)
}

// Model is an ordered container of components.
type Model struct {
	name string
	mode Mode

	components   []Component
	byName       map[string]Component
	instantiated bool
}

// NewAbstract returns an empty abstract model.
func NewAbstract(name string) *Model {
	return &Model{name: name, mode: Abstract, byName: make(map[string]Component)}
}

// NewConcrete returns an empty concrete model.
func NewConcrete(name string) *Model {
	return &Model{name: name, mode: Concrete, byName: make(map[string]Component), instantiated: true}
}

func (m *Model) Name() string { return m.name }
func (m *Model) Mode() Mode   { return m.mode }

// Instantiated reports whether component values are bound (always true for
// concrete models).
func (m *Model) Instantiated() bool { return m.instantiated }

// SetInstantiated marks the model bound. It is called by the instance
// package once every component has been bound and expanded.
func (m *Model) SetInstantiated() error {
	if m.instantiated {
		return fmt.Errorf("model %s: %w", m.name, ErrAlreadyInstantiated)
	}
	m.instantiated = true
	return nil
}

// Components returns the components in declaration order.
func (m *Model) Components() []Component {
	res := make([]Component, len(m.components))
	copy(res, m.components)
	return res
}

// Component returns the named component, or nil.
func (m *Model) Component(name string) Component { return m.byName[name] }

func (m *Model) attach(c Component) error {
	if _, ok := m.byName[c.Name()]; ok {
		return fmt.Errorf("component %s: %w", c.Name(), ErrDuplicateComponent)
	}
	m.components = append(m.components, c)
	m.byName[c.Name()] = c
	return nil
}

// Print renders the model and its components in declaration order, grouped
// by component type.
func (m *Model) Print(w io.Writer) error {
	_, err := io.WriteString(w, m.String())
	return err
}

func (m *Model) String() string {
	var sbb strings.Builder
	fmt.Fprintf(&sbb, "%s (%s)\n", m.name, m.mode)

	order := []string{"Set", "IndexedSet", "Param", "Var", "Constraint", "Objective"}
	for _, ctype := range order {
		var group []Component
		for _, c := range m.components {
			if c.CType() == ctype {
				group = append(group, c)
			}
		}
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&sbb, "\n%d %s Declarations\n", len(group), ctype)
		for _, c := range group {
			sbb.WriteString("    ")
			c.write(&sbb)
			sbb.WriteByte('\n')
		}
	}
	return sbb.String()
}
