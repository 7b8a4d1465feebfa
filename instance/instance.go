// Package instance turns an abstract model into a concrete one: it binds set
// memberships and parameter values from a data store, seeds variables, then
// expands constraint and objective rules.
//
// Binding runs sequentially in declaration order, so later components may
// depend on earlier ones; rule expansion is independent per component and
// runs in parallel.
package instance

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/gomo-dev/gomo/data"
	"github.com/gomo-dev/gomo/logger"
	"github.com/gomo-dev/gomo/model"
)

// Instance is a fully bound model.
type Instance struct {
	m *model.Model

	checkers   []checker
	objectives []*model.Objective
}

// checker is the evaluable face of constraint components.
type checker interface {
	Name() string
	Satisfied(tol float64) (bool, error)
	IsActive() bool
}

// Create binds m against st and expands its rules. st may be nil when every
// component carries its own initializer. Rules must not mutate the model:
// expansion of independent components runs concurrently.
func Create(m *model.Model, st *data.Store) (*Instance, error) {
	log := logger.Logger()
	if m.Instantiated() && m.Mode() == model.Abstract {
		return nil, fmt.Errorf("model %s: %w", m.Name(), model.ErrAlreadyInstantiated)
	}
	log.Info().Str("model", m.Name()).Msg("instantiating model")

	var bst model.Store
	if st != nil {
		bst = st
	}

	components := m.Components()
	counts := make(map[string]int, 4)
	for _, c := range components {
		counts[c.CType()]++
		if b, ok := c.(model.Binder); ok {
			if err := b.BindData(bst); err != nil {
				return nil, fmt.Errorf("bind %s %s: %w", c.CType(), c.Name(), err)
			}
		}
	}

	var g errgroup.Group
	for _, c := range components {
		if e, ok := c.(model.Expander); ok {
			g.Go(e.Expand)
		}
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("expand rules: %w", err)
	}

	if m.Mode() == model.Abstract {
		if err := m.SetInstantiated(); err != nil {
			return nil, err
		}
	}

	inst := &Instance{m: m}
	for _, c := range components {
		if ch, ok := c.(checker); ok && c.CType() == "Constraint" {
			inst.checkers = append(inst.checkers, ch)
		}
		if o, ok := c.(*model.Objective); ok {
			inst.objectives = append(inst.objectives, o)
		}
	}

	log.Info().
		Int("nbSets", counts["Set"]+counts["IndexedSet"]).
		Int("nbParams", counts["Param"]).
		Int("nbVars", counts["Var"]).
		Int("nbConstraints", counts["Constraint"]).
		Msg("model instantiated")
	return inst, nil
}

// Model returns the underlying (now concrete) model.
func (inst *Instance) Model() *model.Model { return inst.m }

// Verify checks every active constraint against current variable values.
// The first violated constraint is reported by name.
func (inst *Instance) Verify(tol float64) error {
	for _, c := range inst.checkers {
		if !c.IsActive() {
			continue
		}
		ok, err := c.Satisfied(tol)
		if err != nil {
			return fmt.Errorf("constraint %s: %w", c.Name(), err)
		}
		if !ok {
			return fmt.Errorf("constraint %s: violated", c.Name())
		}
	}
	return nil
}

// Objective returns the single active objective.
func (inst *Instance) Objective() (*model.Objective, error) {
	var active *model.Objective
	for _, o := range inst.objectives {
		if !o.IsActive() {
			continue
		}
		if active != nil {
			return nil, fmt.Errorf("model %s: multiple active objectives", inst.m.Name())
		}
		active = o
	}
	if active == nil {
		return nil, fmt.Errorf("model %s: no active objective", inst.m.Name())
	}
	return active, nil
}

// ObjectiveValue evaluates the single active objective.
func (inst *Instance) ObjectiveValue() (float64, error) {
	o, err := inst.Objective()
	if err != nil {
		return 0, err
	}
	return o.Value()
}
