package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gomo-dev/gomo/expr"
)

// An abstract model declares symbolically; parameter values are not
// available until instantiation, so code cannot branch on them.
func TestAbstractParamValueUnavailable(t *testing.T) {
	assert := require.New(t)
	m := NewAbstract("m")

	p, err := AddParam(m, "p", WithValue(5))
	assert.NoError(err)
	assert.False(p.Bound())

	_, err = p.Value()
	assert.ErrorIs(err, ErrUnboundParam)

	// the symbolic reference is always available
	node := p.Expr()
	_, err = expr.Eval(node)
	assert.Error(err)

	// binding (what instantiation does) makes the value available
	assert.NoError(p.BindData(nil))
	v, err := p.Value()
	assert.NoError(err)
	assert.Equal(5.0, v)
	got, err := expr.Eval(node)
	assert.NoError(err)
	assert.Equal(5.0, got)
}

func TestConcreteParamBindsAtDeclaration(t *testing.T) {
	assert := require.New(t)
	m := NewConcrete("m")

	p, err := AddParam(m, "p", WithValue(3), Mutable())
	assert.NoError(err)
	v, err := p.Value()
	assert.NoError(err)
	assert.Equal(3.0, v)

	assert.NoError(p.SetValue(7))
	v, _ = p.Value()
	assert.Equal(7.0, v)

	q, err := AddParam(m, "q", WithDefault(1))
	assert.NoError(err)
	assert.Error(q.SetValue(2)) // immutable once bound

	_, err = AddParam(m, "r")
	assert.Error(err) // concrete models need a value or default
}

func TestDuplicateComponent(t *testing.T) {
	assert := require.New(t)
	m := NewConcrete("m")

	_, err := AddParam(m, "p", WithValue(1))
	assert.NoError(err)
	_, err = AddParam(m, "p", WithValue(2))
	assert.ErrorIs(err, ErrDuplicateComponent)

	// name collisions cross component types
	_, err = AddVar(m, "p")
	assert.ErrorIs(err, ErrDuplicateComponent)
}

func TestVarDomainAndBounds(t *testing.T) {
	assert := require.New(t)
	m := NewConcrete("m")

	x, err := AddVar(m, "x", InDomain(NonNegativeReals), WithBounds(0, 10))
	assert.NoError(err)
	_, err = x.Value()
	assert.ErrorIs(err, ErrNoValue)

	assert.NoError(x.SetValue(4))
	assert.Error(x.SetValue(-1)) // domain
	assert.Error(x.SetValue(11)) // bound

	assert.NoError(x.Fix(2))
	assert.True(x.IsFixed())
	assert.ErrorIs(x.SetValue(5), ErrFixed)
	x.Unfix()
	assert.NoError(x.SetValue(5))

	b, err := AddVar(m, "b", InDomain(Binary))
	assert.NoError(err)
	assert.NoError(b.SetValue(1 - 1e-6)) // rounds to 1
	v, _ := b.Value()
	assert.Equal(1.0, v)
	assert.Error(b.SetValue(0.5))

	z, err := AddVar(m, "z", InDomain(Integers))
	assert.NoError(err)
	assert.NoError(z.SetValue(3.0000001))
	v, _ = z.Value()
	assert.Equal(3.0, v)
}

func TestVarOverSeedsInitial(t *testing.T) {
	assert := require.New(t)
	m := NewConcrete("m")

	s, err := AddSet(m, "I", FromValues(2, 3, 5))
	assert.NoError(err)
	x, err := AddVarOver(m, "x", s, WithInitial(1.5))
	assert.NoError(err)

	for _, k := range []int{2, 3, 5} {
		v, err := x.At(k).Value()
		assert.NoError(err)
		assert.Equal(1.5, v)
	}

	assert.Error(x.At(4).SetValue(1)) // off-index assignment

	assert.NoError(x.At(3).Fix(2))
	assert.True(x.At(3).IsFixed())
	assert.ErrorIs(x.At(3).SetValue(9), ErrFixed)
}

func TestConstraintExpansion(t *testing.T) {
	assert := require.New(t)
	m := NewConcrete("m")

	p, err := AddParam(m, "p", WithValue(5))
	assert.NoError(err)
	x, err := AddVar(m, "x")
	assert.NoError(err)

	c, err := AddConstraint(m, "c", func(*Model) (expr.Relation, error) {
		return expr.GreaterEq(expr.Add(x.Expr(), expr.Const(2)), p.Expr()), nil
	})
	assert.NoError(err)
	assert.True(c.IsActive())

	assert.NoError(x.SetValue(3))
	ok, err := c.Satisfied(1e-6)
	assert.NoError(err)
	assert.True(ok)

	assert.NoError(x.SetValue(1))
	ok, err = c.Satisfied(1e-6)
	assert.NoError(err)
	assert.False(ok)
}

func TestConstraintOverExpansion(t *testing.T) {
	assert := require.New(t)
	m := NewConcrete("m")

	s, err := AddSet(m, "I", FromValues(2, 3, 5))
	assert.NoError(err)
	x, err := AddVarOver(m, "x", s, WithInitial(10))
	assert.NoError(err)

	c, err := AddConstraintOver(m, "cap", s, func(_ *Model, k int) (expr.Relation, error) {
		return expr.LessEq(x.At(k).Expr(), expr.Const(float64(k))), nil
	})
	assert.NoError(err)

	ok, err := c.Satisfied(1e-6)
	assert.NoError(err)
	assert.False(ok)

	for _, k := range []int{2, 3, 5} {
		assert.NoError(x.At(k).SetValue(float64(k)))
	}
	ok, err = c.Satisfied(1e-6)
	assert.NoError(err)
	assert.True(ok)

	rel, err := c.At(3)
	assert.NoError(err)
	r, err := rel.Residual()
	assert.NoError(err)
	assert.InDelta(0, r, 1e-12)
}

func TestObjectiveValue(t *testing.T) {
	assert := require.New(t)
	m := NewConcrete("m")

	x, err := AddVar(m, "x", WithInitial(3))
	assert.NoError(err)
	o, err := AddObjective(m, "cost", Minimize, func(*Model) (expr.Node, error) {
		return expr.Mul(expr.Const(2), x.Expr()), nil
	})
	assert.NoError(err)

	v, err := o.Value()
	assert.NoError(err)
	assert.Equal(6.0, v)
	assert.Equal(Minimize, o.Sense())
}

func TestModelPrint(t *testing.T) {
	assert := require.New(t)
	m := NewConcrete("demo")

	s, err := AddSet(m, "I", FromValues(2, 3, 5))
	assert.NoError(err)
	_, err = AddParam(m, "p", WithValue(4))
	assert.NoError(err)
	x, err := AddVar(m, "x", WithInitial(1))
	assert.NoError(err)
	_, err = AddConstraint(m, "c", func(*Model) (expr.Relation, error) {
		return expr.LessEq(x.Expr(), expr.Const(9)), nil
	})
	assert.NoError(err)
	_ = s

	out := m.String()
	assert.Contains(out, "demo (concrete)")
	assert.Contains(out, "1 Set Declarations")
	assert.Contains(out, "I : size=3, {2, 3, 5}")
	assert.Contains(out, "1 Param Declarations")
	assert.Contains(out, "1 Var Declarations")
	assert.Contains(out, "1 Constraint Declarations")
}

func TestSetInstantiatedOnce(t *testing.T) {
	assert := require.New(t)
	m := NewAbstract("m")
	assert.False(m.Instantiated())
	assert.NoError(m.SetInstantiated())
	assert.True(m.Instantiated())
	assert.True(errors.Is(m.SetInstantiated(), ErrAlreadyInstantiated))
}
