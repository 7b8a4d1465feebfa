package model

import (
	"fmt"
	"slices"
	"strings"
)

// IndexedSet is a family of sets indexed by the elements of another set,
// the dictionary-initialized form: each index maps to its own membership.
type IndexedSet[K, E Element] struct {
	name string
	m    *Model
	over *Set[K]

	init    map[K][]E
	bound   bool
	members map[K][]E
}

// AddIndexedSet declares a set family over the index set `over`. init maps
// index elements to member lists; in an abstract model it is the fallback
// when the data store has no entry.
func AddIndexedSet[K, E Element](m *Model, name string, over *Set[K], init map[K][]E) (*IndexedSet[K, E], error) {
	s := &IndexedSet[K, E]{name: name, m: m, over: over, init: init}
	if err := m.attach(s); err != nil {
		return nil, err
	}
	if m.Mode() == Concrete {
		if err := s.bindFrom(nil); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *IndexedSet[K, E]) Name() string  { return s.name }
func (s *IndexedSet[K, E]) CType() string { return "IndexedSet" }
func (s *IndexedSet[K, E]) Bound() bool   { return s.bound }

// Over returns the index set.
func (s *IndexedSet[K, E]) Over() *Set[K] { return s.over }

// BindData binds every member list, preferring store entries over the
// declared dictionary.
func (s *IndexedSet[K, E]) BindData(st Store) error {
	if s.bound {
		return nil
	}
	return s.bindFrom(st)
}

func (s *IndexedSet[K, E]) bindFrom(st Store) error {
	if !s.over.Bound() {
		return fmt.Errorf("indexed set %s: index set %s: %w", s.name, s.over.Name(), ErrUnboundSet)
	}
	keys, err := s.over.Elements()
	if err != nil {
		return err
	}
	s.members = make(map[K][]E, len(keys))
	for _, k := range keys {
		var vals []E
		found := false
		if st != nil {
			if ints, strs, ok := st.IndexedSetMembers(s.name, fmt.Sprint(k)); ok {
				vals, err = fromStoreElems[E](ints, strs)
				if err != nil {
					return fmt.Errorf("indexed set %s[%v]: %w", s.name, k, err)
				}
				found = true
			}
		}
		if !found {
			v, ok := s.init[k]
			if !ok {
				return fmt.Errorf("indexed set %s[%v]: %w", s.name, k, ErrMissingData)
			}
			vals = v
		}
		member := append([]E(nil), vals...)
		slices.Sort(member)
		member = slices.Compact(member)
		s.members[k] = member
	}
	s.bound = true
	return nil
}

// Member returns the sorted membership at index k. The slice is a copy.
func (s *IndexedSet[K, E]) Member(k K) ([]E, error) {
	if !s.bound {
		return nil, fmt.Errorf("indexed set %s: %w", s.name, ErrUnboundSet)
	}
	m, ok := s.members[k]
	if !ok {
		return nil, fmt.Errorf("indexed set %s: no member at index %v", s.name, k)
	}
	return append([]E(nil), m...), nil
}

// Contains reports whether e belongs to the member set at index k.
func (s *IndexedSet[K, E]) Contains(k K, e E) bool {
	if !s.bound {
		return false
	}
	m, ok := s.members[k]
	if !ok {
		return false
	}
	_, found := slices.BinarySearch(m, e)
	return found
}

func (s *IndexedSet[K, E]) write(sbb *strings.Builder) {
	if !s.bound {
		fmt.Fprintf(sbb, "%s : unbound, indexed by %s", s.name, s.over.Name())
		return
	}
	fmt.Fprintf(sbb, "%s : indexed by %s", s.name, s.over.Name())
	for _, k := range s.over.elems {
		fmt.Fprintf(sbb, "\n        [%v] : size=%d, %v", k, len(s.members[k]), s.members[k])
	}
}
