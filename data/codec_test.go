package data

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func sampleStore() *Store {
	return NewStore().
		SetInts("I", 5, 2, 3).
		SetStrs("comps", "A", "B", "C").
		SetIndexedInts("F", "2", 1, 3, 5).
		SetIndexedInts("F", "3", 2, 4, 6).
		SetParam("p", 4.5).
		SetIndexedParam("flow", "A", 100).
		SetIndexedParam("flow", "B", 200)
}

func TestStoreRoundTrip(t *testing.T) {
	assert := require.New(t)
	st := sampleStore()

	var buf bytes.Buffer
	_, err := st.WriteTo(&buf)
	assert.NoError(err)

	got := NewStore()
	_, err = got.ReadFrom(&buf)
	assert.NoError(err)

	// WriteTo sorts integer memberships, so compare against the written form
	if diff := cmp.Diff(st, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("store mismatch (-want +got):\n%s", diff)
	}
	ints, _, ok := got.SetMembers("I")
	assert.True(ok)
	assert.Equal([]int64{2, 3, 5}, ints)
}

func TestStoreFileRoundTrip(t *testing.T) {
	assert := require.New(t)
	st := sampleStore()

	path := filepath.Join(t.TempDir(), "store.bin")
	assert.NoError(st.WriteFile(path))

	got, err := ReadFile(path)
	assert.NoError(err)
	if diff := cmp.Diff(st, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("store mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreVersionMismatch(t *testing.T) {
	assert := require.New(t)

	saved := FormatVersion
	defer func() { FormatVersion = saved }()

	var buf bytes.Buffer
	_, err := sampleStore().WriteTo(&buf)
	assert.NoError(err)

	FormatVersion.Major++
	got := NewStore()
	_, err = got.ReadFrom(bytes.NewReader(buf.Bytes()))
	assert.Error(err)
	assert.Contains(err.Error(), "incompatible store format version")
}

func TestStoreJSON(t *testing.T) {
	assert := require.New(t)
	st := sampleStore()

	var buf bytes.Buffer
	assert.NoError(st.DumpJSON(&buf))

	got, err := LoadJSON(&buf)
	assert.NoError(err)
	if diff := cmp.Diff(st, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("store mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadJSONRejectsUnknownFields(t *testing.T) {
	assert := require.New(t)
	_, err := LoadJSON(strings.NewReader(`{"params": {"p": 1}, "bogus": {}}`))
	assert.Error(err)
}

func TestStoreAccessors(t *testing.T) {
	assert := require.New(t)
	st := sampleStore()

	v, ok := st.ParamValue("p")
	assert.True(ok)
	assert.Equal(4.5, v)
	_, ok = st.ParamValue("missing")
	assert.False(ok)

	v, ok = st.IndexedParamValue("flow", "B")
	assert.True(ok)
	assert.Equal(200.0, v)
	_, ok = st.IndexedParamValue("flow", "Z")
	assert.False(ok)
	_, ok = st.IndexedParamValue("missing", "A")
	assert.False(ok)

	ints, strs, ok := st.IndexedSetMembers("F", "3")
	assert.True(ok)
	assert.Empty(strs)
	assert.Equal([]int64{2, 4, 6}, ints)
	_, _, ok = st.IndexedSetMembers("F", "9")
	assert.False(ok)

	assert.Equal("5", Key(5))
	assert.Equal("A", Key("A"))
}
