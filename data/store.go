// Package data holds the values an abstract model is instantiated against:
// set memberships and parameter values, keyed by component name.
//
// A Store is what a model data file reduces to; it can be authored in Go,
// loaded from JSON, or round-tripped through the binary codec in this package.
package data

import (
	"fmt"
	"sort"
)

// SetData is the membership of one set. Exactly one of Ints and Strs should
// be populated.
type SetData struct {
	Ints []int64  `json:"ints,omitempty" cbor:"1,keyasint,omitempty"`
	Strs []string `json:"strs,omitempty" cbor:"2,keyasint,omitempty"`
}

// Len returns the number of elements.
func (s SetData) Len() int {
	if len(s.Ints) > 0 {
		return len(s.Ints)
	}
	return len(s.Strs)
}

// Store maps component names to their data. Indexed entries are keyed by the
// string form of the index element.
type Store struct {
	Sets          map[string]SetData            `json:"sets,omitempty" cbor:"1,keyasint,omitempty"`
	IndexedSets   map[string]map[string]SetData `json:"indexed_sets,omitempty" cbor:"2,keyasint,omitempty"`
	Params        map[string]float64            `json:"params,omitempty" cbor:"3,keyasint,omitempty"`
	IndexedParams map[string]map[string]float64 `json:"indexed_params,omitempty" cbor:"4,keyasint,omitempty"`
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		Sets:          make(map[string]SetData),
		IndexedSets:   make(map[string]map[string]SetData),
		Params:        make(map[string]float64),
		IndexedParams: make(map[string]map[string]float64),
	}
}

// SetInts records an integer set membership for name.
func (st *Store) SetInts(name string, elems ...int64) *Store {
	st.Sets[name] = SetData{Ints: elems}
	return st
}

// SetStrs records a string set membership for name.
func (st *Store) SetStrs(name string, elems ...string) *Store {
	st.Sets[name] = SetData{Strs: elems}
	return st
}

// SetParam records a scalar parameter value.
func (st *Store) SetParam(name string, v float64) *Store {
	st.Params[name] = v
	return st
}

// SetIndexedParam records one indexed parameter value.
func (st *Store) SetIndexedParam(name string, key string, v float64) *Store {
	m, ok := st.IndexedParams[name]
	if !ok {
		m = make(map[string]float64)
		st.IndexedParams[name] = m
	}
	m[key] = v
	return st
}

// SetIndexedInts records one member list of an indexed set family.
func (st *Store) SetIndexedInts(name string, key string, elems ...int64) *Store {
	m, ok := st.IndexedSets[name]
	if !ok {
		m = make(map[string]SetData)
		st.IndexedSets[name] = m
	}
	m[key] = SetData{Ints: elems}
	return st
}

// Key converts an index element to its store key.
func Key(idx any) string { return fmt.Sprint(idx) }

// SetMembers returns the membership recorded for a set component.
func (st *Store) SetMembers(name string) (ints []int64, strs []string, ok bool) {
	sd, ok := st.Sets[name]
	return sd.Ints, sd.Strs, ok
}

// IndexedSetMembers returns one member list of an indexed set family.
func (st *Store) IndexedSetMembers(name, key string) (ints []int64, strs []string, ok bool) {
	family, ok := st.IndexedSets[name]
	if !ok {
		return nil, nil, false
	}
	sd, ok := family[key]
	return sd.Ints, sd.Strs, ok
}

// ParamValue returns the value recorded for a scalar parameter.
func (st *Store) ParamValue(name string) (float64, bool) {
	v, ok := st.Params[name]
	return v, ok
}

// IndexedParamValue returns one value of an indexed parameter.
func (st *Store) IndexedParamValue(name, key string) (float64, bool) {
	m, ok := st.IndexedParams[name]
	if !ok {
		return 0, false
	}
	v, ok := m[key]
	return v, ok
}

// normalize sorts integer memberships so the codec's delta compression sees
// monotone input.
func (st *Store) normalize() {
	for name, sd := range st.Sets {
		if len(sd.Ints) > 1 && !sort.SliceIsSorted(sd.Ints, func(i, j int) bool { return sd.Ints[i] < sd.Ints[j] }) {
			sorted := append([]int64(nil), sd.Ints...)
			sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
			st.Sets[name] = SetData{Ints: sorted, Strs: sd.Strs}
		}
	}
	for _, family := range st.IndexedSets {
		for key, sd := range family {
			if len(sd.Ints) > 1 && !sort.SliceIsSorted(sd.Ints, func(i, j int) bool { return sd.Ints[i] < sd.Ints[j] }) {
				sorted := append([]int64(nil), sd.Ints...)
				sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
				family[key] = SetData{Ints: sorted, Strs: sd.Strs}
			}
		}
	}
}
