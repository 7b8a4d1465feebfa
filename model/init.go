package model

import (
	"fmt"
	"iter"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Initializer produces a set membership. The concrete shapes mirror the
// input forms models are written with: slices, native sets, tuples,
// generators, ranges, numeric vectors and rules.
type Initializer[E Element] interface {
	elements(m *Model) ([]E, error)
}

type sliceInit[E Element] struct{ vals []E }

func (s sliceInit[E]) elements(*Model) ([]E, error) { return s.vals, nil }

// FromSlice initializes a set from a slice. Order and duplicates are
// irrelevant: membership is what matters.
func FromSlice[E Element](vals []E) Initializer[E] { return sliceInit[E]{vals} }

// FromValues initializes a set from an inline tuple of values.
func FromValues[E Element](vals ...E) Initializer[E] { return sliceInit[E]{vals} }

type mapInit[E Element] struct{ vals map[E]struct{} }

func (s mapInit[E]) elements(*Model) ([]E, error) {
	res := make([]E, 0, len(s.vals))
	for e := range s.vals {
		res = append(res, e)
	}
	return res, nil
}

// FromMap initializes a set from a native Go set (map with empty values).
func FromMap[E Element](vals map[E]struct{}) Initializer[E] { return mapInit[E]{vals} }

type seqInit[E Element] struct{ seq iter.Seq[E] }

func (s seqInit[E]) elements(*Model) ([]E, error) {
	var res []E
	for e := range s.seq {
		res = append(res, e)
	}
	return res, nil
}

// FromSeq initializes a set by draining a generator.
func FromSeq[E Element](seq iter.Seq[E]) Initializer[E] { return seqInit[E]{seq} }

type rangeInit struct{ lo, hi, step int }

func (r rangeInit) elements(*Model) ([]int, error) {
	if r.step == 0 {
		return nil, fmt.Errorf("range step must be non-zero")
	}
	var res []int
	if r.step > 0 {
		for v := r.lo; v <= r.hi; v += r.step {
			res = append(res, v)
		}
	} else {
		for v := r.lo; v >= r.hi; v += r.step {
			res = append(res, v)
		}
	}
	return res, nil
}

// Range initializes an integer set with lo..hi inclusive.
func Range(lo, hi int) Initializer[int] { return rangeInit{lo, hi, 1} }

// RangeStep initializes an integer set with lo, lo+step, ... up to hi.
func RangeStep(lo, hi, step int) Initializer[int] { return rangeInit{lo, hi, step} }

type vecInit struct{ v mat.Vector }

// intTol is how far a vector entry may sit from an integer and still be
// accepted as a set element.
const intTol = 1e-9

func (s vecInit) elements(*Model) ([]int, error) {
	n := s.v.Len()
	res := make([]int, n)
	for i := 0; i < n; i++ {
		f := s.v.AtVec(i)
		r := math.Round(f)
		if math.Abs(f-r) > intTol {
			return nil, fmt.Errorf("vector entry %d (%g) is not integral", i, f)
		}
		res[i] = int(r)
	}
	return res, nil
}

// FromVec initializes an integer set from a numeric vector. Entries must be
// integral within a small tolerance.
func FromVec(v mat.Vector) Initializer[int] { return vecInit{v} }

type ruleInit[E Element] struct {
	fn func(*Model) ([]E, error)
}

func (s ruleInit[E]) elements(m *Model) ([]E, error) { return s.fn(m) }

// FromRule initializes a set by calling fn against the model at binding time.
func FromRule[E Element](fn func(*Model) ([]E, error)) Initializer[E] { return ruleInit[E]{fn} }
