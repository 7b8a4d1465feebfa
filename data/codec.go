package data

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/blang/semver/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/ronanh/intcomp"
)

// FormatVersion is the binary store format version. Readers accept any store
// written by the same major version.
var FormatVersion = semver.MustParse("1.1.0")

type wireSet struct {
	Packed []uint64 `cbor:"1,keyasint,omitempty"`
	Strs   []string `cbor:"2,keyasint,omitempty"`
}

type wireStore struct {
	Version       string                         `cbor:"1,keyasint"`
	Sets          map[string]wireSet             `cbor:"2,keyasint,omitempty"`
	IndexedSets   map[string]map[string]wireSet  `cbor:"3,keyasint,omitempty"`
	Params        map[string]float64             `cbor:"4,keyasint,omitempty"`
	IndexedParams map[string]map[string]float64  `cbor:"5,keyasint,omitempty"`
}

func packSet(sd SetData) wireSet {
	w := wireSet{Strs: sd.Strs}
	if len(sd.Ints) > 0 {
		w.Packed = intcomp.CompressInt64(sd.Ints, nil)
	}
	return w
}

func unpackSet(w wireSet) SetData {
	sd := SetData{Strs: w.Strs}
	if len(w.Packed) > 0 {
		sd.Ints = intcomp.UncompressInt64(w.Packed, nil)
	}
	return sd
}

// WriteTo serializes the store. Integer memberships are sorted then
// delta-compressed before encoding.
func (st *Store) WriteTo(w io.Writer) (int64, error) {
	st.normalize()
	ws := wireStore{Version: FormatVersion.String()}
	if len(st.Sets) > 0 {
		ws.Sets = make(map[string]wireSet, len(st.Sets))
		for name, sd := range st.Sets {
			ws.Sets[name] = packSet(sd)
		}
	}
	if len(st.IndexedSets) > 0 {
		ws.IndexedSets = make(map[string]map[string]wireSet, len(st.IndexedSets))
		for name, family := range st.IndexedSets {
			packed := make(map[string]wireSet, len(family))
			for key, sd := range family {
				packed[key] = packSet(sd)
			}
			ws.IndexedSets[name] = packed
		}
	}
	ws.Params = st.Params
	ws.IndexedParams = st.IndexedParams

	buf, err := cbor.Marshal(ws)
	if err != nil {
		return 0, fmt.Errorf("encode store: %w", err)
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// ReadFrom deserializes a store written by WriteTo. Stores written by a
// different major format version are rejected.
func (st *Store) ReadFrom(r io.Reader) (int64, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	var ws wireStore
	if err := cbor.Unmarshal(buf, &ws); err != nil {
		return int64(len(buf)), fmt.Errorf("decode store: %w", err)
	}
	v, err := semver.Parse(ws.Version)
	if err != nil {
		return int64(len(buf)), fmt.Errorf("decode store: bad format version %q: %w", ws.Version, err)
	}
	if v.Major != FormatVersion.Major {
		return int64(len(buf)), fmt.Errorf("incompatible store format version %s (reader is %s)", v, FormatVersion)
	}

	st.Sets = make(map[string]SetData, len(ws.Sets))
	for name, w := range ws.Sets {
		st.Sets[name] = unpackSet(w)
	}
	st.IndexedSets = make(map[string]map[string]SetData, len(ws.IndexedSets))
	for name, family := range ws.IndexedSets {
		unpacked := make(map[string]SetData, len(family))
		for key, w := range family {
			unpacked[key] = unpackSet(w)
		}
		st.IndexedSets[name] = unpacked
	}
	st.Params = ws.Params
	if st.Params == nil {
		st.Params = make(map[string]float64)
	}
	st.IndexedParams = ws.IndexedParams
	if st.IndexedParams == nil {
		st.IndexedParams = make(map[string]map[string]float64)
	}
	return int64(len(buf)), nil
}

// WriteFile writes the binary form of the store to path.
func (st *Store) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := st.WriteTo(f); err != nil {
		return err
	}
	return f.Close()
}

// ReadFile reads a binary store from path.
func ReadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st := NewStore()
	if _, err := st.ReadFrom(f); err != nil {
		return nil, err
	}
	return st, nil
}

// LoadJSON reads a store from its JSON interchange form.
func LoadJSON(r io.Reader) (*Store, error) {
	st := NewStore()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(st); err != nil {
		return nil, fmt.Errorf("decode json store: %w", err)
	}
	return st, nil
}

// DumpJSON writes the JSON interchange form of the store.
func (st *Store) DumpJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(st)
}
