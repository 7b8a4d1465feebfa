package model

import (
	"fmt"
	"strings"

	"github.com/gomo-dev/gomo/expr"
)

// Constraint is a scalar constraint built from a rule. The rule runs at
// expansion time (declaration for concrete models, instantiation for
// abstract ones) when parameter values are bound; it must still build the
// relation symbolically so the constraint remains evaluable as values
// change.
type Constraint struct {
	name string
	m    *Model

	rule func(*Model) (expr.Relation, error)

	built  bool
	rel    expr.Relation
	active bool
}

// AddConstraint declares a scalar constraint with the given rule.
func AddConstraint(m *Model, name string, rule func(*Model) (expr.Relation, error)) (*Constraint, error) {
	c := &Constraint{name: name, m: m, rule: rule, active: true}
	if err := m.attach(c); err != nil {
		return nil, err
	}
	if m.Mode() == Concrete {
		if err := c.Expand(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Constraint) Name() string  { return c.name }
func (c *Constraint) CType() string { return "Constraint" }

// Expand runs the rule. It is a no-op if the constraint is already built.
func (c *Constraint) Expand() error {
	if c.built {
		return nil
	}
	rel, err := c.rule(c.m)
	if err != nil {
		return fmt.Errorf("constraint %s: %w", c.name, err)
	}
	c.rel, c.built = rel, true
	return nil
}

// Body returns the built relation.
func (c *Constraint) Body() (expr.Relation, error) {
	if !c.built {
		return expr.Relation{}, fmt.Errorf("constraint %s: not expanded", c.name)
	}
	return c.rel, nil
}

// Satisfied evaluates the relation against current values.
func (c *Constraint) Satisfied(tol float64) (bool, error) {
	rel, err := c.Body()
	if err != nil {
		return false, err
	}
	return rel.Satisfied(tol)
}

// Activate re-enables the constraint.
func (c *Constraint) Activate() { c.active = true }

// Deactivate flags the constraint as excluded from feasibility checks.
func (c *Constraint) Deactivate() { c.active = false }

// IsActive reports whether the constraint participates in checks.
func (c *Constraint) IsActive() bool { return c.active }

func (c *Constraint) write(sbb *strings.Builder) {
	if !c.built {
		fmt.Fprintf(sbb, "%s : unexpanded", c.name)
		return
	}
	fmt.Fprintf(sbb, "%s : %s", c.name, c.rel)
	if !c.active {
		sbb.WriteString(", inactive")
	}
}

// ConstraintOver is a constraint family indexed by a set: the rule runs once
// per index at expansion.
type ConstraintOver[E Element] struct {
	name string
	m    *Model
	over *Set[E]

	rule func(*Model, E) (expr.Relation, error)

	built  bool
	rows   map[E]expr.Relation
	active bool
}

// AddConstraintOver declares a constraint indexed by the elements of `over`.
func AddConstraintOver[E Element](m *Model, name string, over *Set[E], rule func(*Model, E) (expr.Relation, error)) (*ConstraintOver[E], error) {
	c := &ConstraintOver[E]{name: name, m: m, over: over, rule: rule, active: true}
	if err := m.attach(c); err != nil {
		return nil, err
	}
	if m.Mode() == Concrete {
		if err := c.Expand(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *ConstraintOver[E]) Name() string  { return c.name }
func (c *ConstraintOver[E]) CType() string { return "Constraint" }

// Over returns the index set.
func (c *ConstraintOver[E]) Over() *Set[E] { return c.over }

// Expand runs the rule per index of the (bound) index set.
func (c *ConstraintOver[E]) Expand() error {
	if c.built {
		return nil
	}
	keys, err := c.over.Elements()
	if err != nil {
		return fmt.Errorf("constraint %s: %w", c.name, err)
	}
	c.rows = make(map[E]expr.Relation, len(keys))
	for _, k := range keys {
		rel, err := c.rule(c.m, k)
		if err != nil {
			return fmt.Errorf("constraint %s[%v]: %w", c.name, k, err)
		}
		c.rows[k] = rel
	}
	c.built = true
	return nil
}

// At returns the built relation at index k.
func (c *ConstraintOver[E]) At(k E) (expr.Relation, error) {
	if !c.built {
		return expr.Relation{}, fmt.Errorf("constraint %s: not expanded", c.name)
	}
	rel, ok := c.rows[k]
	if !ok {
		return expr.Relation{}, fmt.Errorf("constraint %s: no row at index %v", c.name, k)
	}
	return rel, nil
}

// Satisfied evaluates every row against current values.
func (c *ConstraintOver[E]) Satisfied(tol float64) (bool, error) {
	if !c.built {
		return false, fmt.Errorf("constraint %s: not expanded", c.name)
	}
	for _, k := range c.over.elems {
		ok, err := c.rows[k].Satisfied(tol)
		if err != nil {
			return false, fmt.Errorf("constraint %s[%v]: %w", c.name, k, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Activate re-enables the constraint family.
func (c *ConstraintOver[E]) Activate() { c.active = true }

// Deactivate flags the family as excluded from feasibility checks.
func (c *ConstraintOver[E]) Deactivate() { c.active = false }

// IsActive reports whether the family participates in checks.
func (c *ConstraintOver[E]) IsActive() bool { return c.active }

func (c *ConstraintOver[E]) write(sbb *strings.Builder) {
	if !c.built {
		fmt.Fprintf(sbb, "%s : unexpanded, indexed by %s", c.name, c.over.Name())
		return
	}
	fmt.Fprintf(sbb, "%s : indexed by %s", c.name, c.over.Name())
	for _, k := range c.over.elems {
		fmt.Fprintf(sbb, "\n        [%v] : %s", k, c.rows[k])
	}
}
