package instance

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gomo-dev/gomo/data"
	"github.com/gomo-dev/gomo/expr"
	"github.com/gomo-dev/gomo/model"
)

// buildAbstract declares the recurring fixture: a set, a parameter, a
// variable family over the set and a constraint tying them together.
func buildAbstract(t *testing.T) (*model.Model, *model.Param, *model.VarOver[int]) {
	t.Helper()
	assert := require.New(t)

	m := model.NewAbstract("m")
	s, err := model.AddSet[int](m, "I", nil)
	assert.NoError(err)
	p, err := model.AddParam(m, "p")
	assert.NoError(err)
	x, err := model.AddVarOver(m, "x", s, model.WithInitial(0))
	assert.NoError(err)
	_, err = model.AddConstraintOver(m, "c", s, func(_ *model.Model, k int) (expr.Relation, error) {
		return expr.LessEq(x.At(k).Expr(), p.Expr()), nil
	})
	assert.NoError(err)
	return m, p, x
}

func TestCreateBindsAndExpands(t *testing.T) {
	assert := require.New(t)
	m, p, x := buildAbstract(t)

	st := data.NewStore().
		SetInts("I", 2, 3, 5).
		SetParam("p", 4)

	inst, err := Create(m, st)
	assert.NoError(err)
	assert.True(m.Instantiated())

	v, err := p.Value()
	assert.NoError(err)
	assert.Equal(4.0, v)

	assert.NoError(inst.Verify(1e-6))

	assert.NoError(x.At(5).SetValue(9))
	err = inst.Verify(1e-6)
	assert.Error(err)
	assert.Contains(err.Error(), "c")
}

func TestCreateMissingData(t *testing.T) {
	assert := require.New(t)
	m, _, _ := buildAbstract(t)

	// store carries the set but not the parameter
	st := data.NewStore().SetInts("I", 2, 3, 5)
	_, err := Create(m, st)
	assert.ErrorIs(err, model.ErrMissingData)
}

func TestCreateNilStoreUsesInitializers(t *testing.T) {
	assert := require.New(t)

	m := model.NewAbstract("m")
	s, err := model.AddSet(m, "I", model.FromValues(2, 3, 5))
	assert.NoError(err)
	p, err := model.AddParam(m, "p", model.WithDefault(1))
	assert.NoError(err)

	_, err = Create(m, nil)
	assert.NoError(err)

	elems, err := s.Elements()
	assert.NoError(err)
	assert.Equal([]int{2, 3, 5}, elems)
	v, err := p.Value()
	assert.NoError(err)
	assert.Equal(1.0, v)
}

func TestCreateTwiceFails(t *testing.T) {
	assert := require.New(t)
	m, _, _ := buildAbstract(t)

	st := data.NewStore().SetInts("I", 2, 3, 5).SetParam("p", 4)
	_, err := Create(m, st)
	assert.NoError(err)

	_, err = Create(m, st)
	assert.ErrorIs(err, model.ErrAlreadyInstantiated)
}

func TestStoreOverridesInitializer(t *testing.T) {
	assert := require.New(t)

	m := model.NewAbstract("m")
	s, err := model.AddSet(m, "I", model.FromValues(1, 2))
	assert.NoError(err)
	p, err := model.AddParam(m, "p", model.WithDefault(1))
	assert.NoError(err)

	st := data.NewStore().SetInts("I", 2, 3, 5).SetParam("p", 7)
	_, err = Create(m, st)
	assert.NoError(err)

	elems, err := s.Elements()
	assert.NoError(err)
	assert.Equal([]int{2, 3, 5}, elems)
	v, err := p.Value()
	assert.NoError(err)
	assert.Equal(7.0, v)
}

func TestObjectiveSelection(t *testing.T) {
	assert := require.New(t)

	m := model.NewConcrete("m")
	x, err := model.AddVar(m, "x", model.WithInitial(3))
	assert.NoError(err)
	cost, err := model.AddObjective(m, "cost", model.Minimize, func(*model.Model) (expr.Node, error) {
		return x.Expr(), nil
	})
	assert.NoError(err)
	profit, err := model.AddObjective(m, "profit", model.Maximize, func(*model.Model) (expr.Node, error) {
		return expr.Neg(x.Expr()), nil
	})
	assert.NoError(err)

	inst, err := Create(m, nil)
	assert.NoError(err)

	_, err = inst.Objective()
	assert.Error(err) // two active objectives

	profit.Deactivate()
	o, err := inst.Objective()
	assert.NoError(err)
	assert.Equal("cost", o.Name())

	v, err := inst.ObjectiveValue()
	assert.NoError(err)
	assert.Equal(3.0, v)

	cost.Deactivate()
	_, err = inst.Objective()
	assert.Error(err) // none active
}
