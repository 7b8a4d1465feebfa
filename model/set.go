package model

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Element is the supported set element type.
type Element interface {
	int | int64 | string
}

// maxDense bounds the universe size backed by a bitset; sparser or larger
// integer sets fall back to the sorted-slice index.
const maxDense = 1 << 20

// Set is an ordered collection component. Membership is bound either at
// declaration (concrete model) or at instantiation (abstract model); ordered
// iteration is always sorted and duplicates collapse.
type Set[E Element] struct {
	name string
	m    *Model

	init  Initializer[E]
	bound bool

	elems []E
	index map[E]struct{}
	bits  *bitset.BitSet
}

// AddSet declares a set on m. In a concrete model the initializer runs
// immediately; in an abstract model it serves as the default membership when
// the data store has no entry for the set.
func AddSet[E Element](m *Model, name string, init Initializer[E]) (*Set[E], error) {
	s := &Set[E]{name: name, m: m, init: init}
	if err := m.attach(s); err != nil {
		return nil, err
	}
	if m.Mode() == Concrete {
		if init == nil {
			return nil, fmt.Errorf("set %s: concrete model requires an initializer", name)
		}
		vals, err := init.elements(m)
		if err != nil {
			return nil, fmt.Errorf("set %s: %w", name, err)
		}
		s.bind(vals)
	}
	return s, nil
}

func (s *Set[E]) Name() string  { return s.name }
func (s *Set[E]) CType() string { return "Set" }

// Bound reports whether membership is available.
func (s *Set[E]) Bound() bool { return s.bound }

func (s *Set[E]) bind(vals []E) {
	elems := append([]E(nil), vals...)
	slices.Sort(elems)
	elems = slices.Compact(elems)
	s.elems = elems
	s.index = make(map[E]struct{}, len(elems))
	for _, e := range elems {
		s.index[e] = struct{}{}
	}
	s.bits = denseBits(elems)
	s.bound = true
}

// denseBits builds a bitset fast path for small nonnegative integer sets.
func denseBits[E Element](elems []E) *bitset.BitSet {
	if len(elems) == 0 {
		return nil
	}
	var max uint
	for _, e := range elems {
		var v int64
		switch x := any(e).(type) {
		case int:
			v = int64(x)
		case int64:
			v = x
		default:
			return nil
		}
		if v < 0 || v >= maxDense {
			return nil
		}
		if uint(v) > max {
			max = uint(v)
		}
	}
	b := bitset.New(max + 1)
	for _, e := range elems {
		switch x := any(e).(type) {
		case int:
			b.Set(uint(x))
		case int64:
			b.Set(uint(x))
		}
	}
	return b
}

// BindData binds membership from the store entry named after the set,
// falling back to the declared initializer.
func (s *Set[E]) BindData(st Store) error {
	if s.bound {
		return nil
	}
	if st != nil {
		if ints, strs, ok := st.SetMembers(s.name); ok {
			vals, err := fromStoreElems[E](ints, strs)
			if err != nil {
				return fmt.Errorf("set %s: %w", s.name, err)
			}
			s.bind(vals)
			return nil
		}
	}
	if s.init == nil {
		return fmt.Errorf("set %s: %w", s.name, ErrMissingData)
	}
	vals, err := s.init.elements(s.m)
	if err != nil {
		return fmt.Errorf("set %s: %w", s.name, err)
	}
	s.bind(vals)
	return nil
}

// fromStoreElems converts store data to the set's element type.
func fromStoreElems[E Element](ints []int64, strs []string) ([]E, error) {
	var zero E
	switch any(zero).(type) {
	case int:
		if len(strs) > 0 {
			return nil, fmt.Errorf("store holds string elements, set is integer")
		}
		vals := make([]E, len(ints))
		for i, v := range ints {
			vals[i] = any(int(v)).(E)
		}
		return vals, nil
	case int64:
		if len(strs) > 0 {
			return nil, fmt.Errorf("store holds string elements, set is integer")
		}
		vals := make([]E, len(ints))
		for i, v := range ints {
			vals[i] = any(v).(E)
		}
		return vals, nil
	default:
		if len(ints) > 0 {
			return nil, fmt.Errorf("store holds integer elements, set is string")
		}
		vals := make([]E, len(strs))
		for i, v := range strs {
			vals[i] = any(v).(E)
		}
		return vals, nil
	}
}

// Len returns the number of elements. It is 0 while unbound.
func (s *Set[E]) Len() int { return len(s.elems) }

// Contains reports membership of e.
func (s *Set[E]) Contains(e E) bool {
	if !s.bound {
		return false
	}
	if s.bits != nil {
		switch x := any(e).(type) {
		case int:
			return x >= 0 && s.bits.Test(uint(x))
		case int64:
			return x >= 0 && s.bits.Test(uint(x))
		}
	}
	_, ok := s.index[e]
	return ok
}

// Elements returns the sorted membership. The slice is a copy.
func (s *Set[E]) Elements() ([]E, error) {
	if !s.bound {
		return nil, fmt.Errorf("set %s: %w", s.name, ErrUnboundSet)
	}
	return append([]E(nil), s.elems...), nil
}

// All iterates the membership in sorted order.
func (s *Set[E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		for _, e := range s.elems {
			if !yield(e) {
				return
			}
		}
	}
}

func (s *Set[E]) write(sbb *strings.Builder) {
	if !s.bound {
		fmt.Fprintf(sbb, "%s : unbound", s.name)
		return
	}
	fmt.Fprintf(sbb, "%s : size=%d, {", s.name, len(s.elems))
	for i, e := range s.elems {
		if i > 0 {
			sbb.WriteString(", ")
		}
		fmt.Fprintf(sbb, "%v", e)
	}
	sbb.WriteByte('}')
}
