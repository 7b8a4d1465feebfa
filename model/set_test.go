package model

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// every initializer shape over the values {2, 3, 5} must produce the same
// membership.
func TestSetInitializerShapes(t *testing.T) {
	assert := require.New(t)
	m := NewConcrete("m")

	mustSet := func(name string, init Initializer[int]) *Set[int] {
		s, err := AddSet(m, name, init)
		assert.NoError(err)
		return s
	}

	sets := []*Set[int]{
		mustSet("slice", FromSlice([]int{5, 2, 3, 2})),
		mustSet("map", FromMap(map[int]struct{}{2: {}, 3: {}, 5: {}})),
		mustSet("tuple", FromValues(2, 3, 5)),
		mustSet("seq", FromSeq(func(yield func(int) bool) {
			for _, v := range []int{3, 5, 2} {
				if !yield(v) {
					return
				}
			}
		})),
		mustSet("vec", FromVec(mat.NewVecDense(3, []float64{2, 3, 5}))),
		mustSet("rule", FromRule(func(*Model) ([]int, error) {
			return []int{2, 3, 5}, nil
		})),
	}

	for _, s := range sets {
		assert.Equal(3, s.Len(), s.Name())
		elems, err := s.Elements()
		assert.NoError(err)
		assert.Equal([]int{2, 3, 5}, elems, s.Name())
		for _, e := range []int{2, 3, 5} {
			assert.True(s.Contains(e), s.Name())
		}
		assert.False(s.Contains(4), s.Name())
	}

	// RangeStep hits the same membership with lo=2, hi=5 skipping 4
	r, err := AddSet(m, "range", FromRule(func(*Model) ([]int, error) {
		var res []int
		for v := 2; v <= 5; v++ {
			if v != 4 {
				res = append(res, v)
			}
		}
		return res, nil
	}))
	assert.NoError(err)
	elems, err := r.Elements()
	assert.NoError(err)
	assert.Equal([]int{2, 3, 5}, elems)
}

func TestRangeSets(t *testing.T) {
	assert := require.New(t)
	m := NewConcrete("m")

	s, err := AddSet(m, "r", Range(2, 5))
	assert.NoError(err)
	elems, err := s.Elements()
	assert.NoError(err)
	assert.Equal([]int{2, 3, 4, 5}, elems)

	s2, err := AddSet(m, "r2", RangeStep(1, 9, 2))
	assert.NoError(err)
	elems, err = s2.Elements()
	assert.NoError(err)
	assert.Equal([]int{1, 3, 5, 7, 9}, elems)

	s3, err := AddSet(m, "r3", RangeStep(9, 1, -2))
	assert.NoError(err)
	elems, err = s3.Elements()
	assert.NoError(err)
	assert.Equal([]int{1, 3, 5, 7, 9}, elems)

	_, err = AddSet(m, "r4", RangeStep(1, 2, 0))
	assert.Error(err)
}

func TestSetFromVecRejectsNonIntegral(t *testing.T) {
	assert := require.New(t)
	m := NewConcrete("m")
	_, err := AddSet(m, "v", FromVec(mat.NewVecDense(2, []float64{2, 3.5})))
	assert.Error(err)
}

func TestStringSets(t *testing.T) {
	assert := require.New(t)
	m := NewConcrete("m")

	s, err := AddSet(m, "comps", FromSlice([]string{"C", "A", "B", "A"}))
	assert.NoError(err)
	elems, err := s.Elements()
	assert.NoError(err)
	assert.Equal([]string{"A", "B", "C"}, elems)
	assert.True(s.Contains("B"))
	assert.False(s.Contains("D"))
}

func TestIndexedSet(t *testing.T) {
	assert := require.New(t)
	m := NewConcrete("m")

	idx, err := AddSet(m, "I", FromValues(2, 3, 5))
	assert.NoError(err)
	fam, err := AddIndexedSet(m, "F", idx, map[int][]int{
		2: {1, 5, 3, 3},
		3: {2, 4, 6},
		5: {7, 8, 9},
	})
	assert.NoError(err)

	member, err := fam.Member(2)
	assert.NoError(err)
	assert.Equal([]int{1, 3, 5}, member)
	assert.True(fam.Contains(3, 4))
	assert.False(fam.Contains(3, 5))

	_, err = fam.Member(4)
	assert.Error(err)
}

func TestIndexedSetRequiresAllIndexes(t *testing.T) {
	assert := require.New(t)
	m := NewConcrete("m")

	idx, err := AddSet(m, "I", FromValues(2, 3, 5))
	assert.NoError(err)
	_, err = AddIndexedSet(m, "F", idx, map[int][]int{2: {1}})
	assert.ErrorIs(err, ErrMissingData)
}

// membership is independent of element order and duplication in the input.
func TestSetMembershipProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("slice, map and seq initializers agree", prop.ForAll(
		func(vals []int) bool {
			m := NewConcrete("m")
			asMap := make(map[int]struct{}, len(vals))
			for _, v := range vals {
				asMap[v] = struct{}{}
			}
			fromSlice, err := AddSet(m, "s", FromSlice(vals))
			if err != nil {
				return false
			}
			fromMap, err := AddSet(m, "t", FromMap(asMap))
			if err != nil {
				return false
			}
			fromSeq, err := AddSet(m, "u", FromSeq(func(yield func(int) bool) {
				for i := len(vals) - 1; i >= 0; i-- {
					if !yield(vals[i]) {
						return
					}
				}
			}))
			if err != nil {
				return false
			}

			a, _ := fromSlice.Elements()
			b, _ := fromMap.Elements()
			c, _ := fromSeq.Elements()
			return equalInts(a, b) && equalInts(b, c) && fromSlice.Len() == len(asMap)
		},
		gen.SliceOf(gen.IntRange(-1000, 1000)),
	))

	properties.Property("sorted iteration", prop.ForAll(
		func(vals []int) bool {
			m := NewConcrete("m")
			s, err := AddSet(m, "s", FromSlice(vals))
			if err != nil {
				return false
			}
			prev, first := 0, true
			for e := range s.All() {
				if !first && e <= prev {
					return false
				}
				prev, first = e, false
			}
			return true
		},
		gen.SliceOf(gen.IntRange(-1000, 1000)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
