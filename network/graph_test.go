package network

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectTears(t *testing.T) {
	assert := require.New(t)
	f := newRecycleFixture(t)

	covers, err := SelectTears(f.net)
	assert.NoError(err)

	// one loop of three arcs: every singleton on it is a minimal tear set
	assert.Len(covers, 3)
	var names []string
	for _, cover := range covers {
		assert.Len(cover, 1)
		names = append(names, cover[0].Name())
	}
	sort.Strings(names)
	assert.Equal([]string{"mixer_to_unit", "recycle", "unit_to_splitter"}, names)
}

func TestSelectTearsAcyclic(t *testing.T) {
	assert := require.New(t)

	net := New("chain")
	a, err := net.AddUnit("a")
	assert.NoError(err)
	b, err := net.AddUnit("b")
	assert.NoError(err)
	pa, err := a.AddPort("out")
	assert.NoError(err)
	pb, err := b.AddPort("in")
	assert.NoError(err)
	_, err = net.Connect("ab", pa, pb)
	assert.NoError(err)

	covers, err := SelectTears(net)
	assert.NoError(err)
	assert.Empty(covers)
}

func TestCalculationOrder(t *testing.T) {
	assert := require.New(t)
	f := newRecycleFixture(t)

	order, err := calculationOrder(f.net, []*Arc{f.recycle})
	assert.NoError(err)
	assert.Len(order, 5)

	pos := make(map[string]int, len(order))
	for i, u := range order {
		pos[u.Name()] = i
	}
	assert.Less(pos["feed"], pos["mixer"])
	assert.Less(pos["mixer"], pos["unit"])
	assert.Less(pos["unit"], pos["splitter"])
	assert.Less(pos["splitter"], pos["prod"])
}

func TestCalculationOrderNeedsTears(t *testing.T) {
	assert := require.New(t)
	f := newRecycleFixture(t)

	_, err := calculationOrder(f.net, nil)
	assert.Error(err)
}

func TestSplitFractions(t *testing.T) {
	assert := require.New(t)
	f := newRecycleFixture(t)

	// out of range
	assert.Error(f.splitOut.port.SetSplitFraction(f.toProd, 1.5))
	// arc does not originate here
	assert.Error(f.mixOut.port.SetSplitFraction(f.toProd, 0.5))

	// single outbound arc defaults to 1
	frac, err := f.feedOut.port.splitFraction(f.feedOut.port.outbound[0])
	assert.NoError(err)
	assert.Equal(1.0, frac)

	// declared fractions are returned as set
	frac, err = f.splitOut.port.splitFraction(f.recycle)
	assert.NoError(err)
	assert.Equal(0.1, frac)
}

func TestConnectValidation(t *testing.T) {
	assert := require.New(t)

	n1 := New("n1")
	n2 := New("n2")
	u1, err := n1.AddUnit("u")
	assert.NoError(err)
	u2, err := n2.AddUnit("u")
	assert.NoError(err)
	p1, err := u1.AddPort("out")
	assert.NoError(err)
	p2, err := u2.AddPort("in")
	assert.NoError(err)

	_, err = n1.Connect("x", p1, nil)
	assert.Error(err)
	_, err = n1.Connect("x", p1, p2)
	assert.Error(err) // ports from different networks

	_, err = n1.AddUnit("u")
	assert.Error(err) // duplicate unit
	_, err = u1.AddPort("out")
	assert.Error(err) // duplicate port
}
