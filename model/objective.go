package model

import (
	"fmt"
	"strings"

	"github.com/gomo-dev/gomo/expr"
)

// Sense is the optimization direction of an objective.
type Sense uint8

const (
	Minimize Sense = iota
	Maximize
)

func (s Sense) String() string {
	if s == Maximize {
		return "maximize"
	}
	return "minimize"
}

// Objective is a named objective expression with a sense. Like constraints
// it is built from a rule at expansion time.
type Objective struct {
	name  string
	m     *Model
	sense Sense

	rule func(*Model) (expr.Node, error)

	built  bool
	node   expr.Node
	active bool
}

// AddObjective declares an objective with the given sense and rule.
func AddObjective(m *Model, name string, sense Sense, rule func(*Model) (expr.Node, error)) (*Objective, error) {
	o := &Objective{name: name, m: m, sense: sense, rule: rule, active: true}
	if err := m.attach(o); err != nil {
		return nil, err
	}
	if m.Mode() == Concrete {
		if err := o.Expand(); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *Objective) Name() string  { return o.name }
func (o *Objective) CType() string { return "Objective" }
func (o *Objective) Sense() Sense  { return o.sense }

// Expand runs the rule. It is a no-op if the objective is already built.
func (o *Objective) Expand() error {
	if o.built {
		return nil
	}
	node, err := o.rule(o.m)
	if err != nil {
		return fmt.Errorf("objective %s: %w", o.name, err)
	}
	o.node, o.built = node, true
	return nil
}

// Body returns the built expression.
func (o *Objective) Body() (expr.Node, error) {
	if !o.built {
		return nil, fmt.Errorf("objective %s: not expanded", o.name)
	}
	return o.node, nil
}

// Value evaluates the objective against current values.
func (o *Objective) Value() (float64, error) {
	node, err := o.Body()
	if err != nil {
		return 0, err
	}
	return expr.Eval(node)
}

// Activate re-enables the objective.
func (o *Objective) Activate() { o.active = true }

// Deactivate excludes the objective; models keep at most one active
// objective by convention, extra ones are deactivated rather than removed.
func (o *Objective) Deactivate() { o.active = false }

// IsActive reports whether the objective is active.
func (o *Objective) IsActive() bool { return o.active }

func (o *Objective) write(sbb *strings.Builder) {
	if !o.built {
		fmt.Fprintf(sbb, "%s : unexpanded, sense=%s", o.name, o.sense)
		return
	}
	fmt.Fprintf(sbb, "%s : %s %s", o.name, o.sense, o.node)
	if !o.active {
		sbb.WriteString(", inactive")
	}
}
