package types

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableSetGetDelete(t *testing.T) {
	h := NewHeap(HeapConfig{}, nil)
	var tbl Table

	k1, k2 := h.Intern("one"), h.Intern("two")

	_, ok := tbl.Get(k1)
	assert.False(t, ok)

	assert.True(t, tbl.Set(k1, Float(1)))
	assert.True(t, tbl.Set(k2, Float(2)))
	assert.False(t, tbl.Set(k1, Float(11)), "overwrite is not a new key")

	v, ok := tbl.Get(k1)
	require.True(t, ok)
	assert.Equal(t, Float(11), v)

	assert.True(t, tbl.Delete(k1))
	assert.False(t, tbl.Delete(k1))
	_, ok = tbl.Get(k1)
	assert.False(t, ok)

	// k2 is still reachable past any tombstone
	v, ok = tbl.Get(k2)
	require.True(t, ok)
	assert.Equal(t, Float(2), v)
}

func TestTableTombstoneReuse(t *testing.T) {
	h := NewHeap(HeapConfig{}, nil)
	var tbl Table

	keys := make([]*String, 32)
	for i := range keys {
		keys[i] = h.Intern(fmt.Sprintf("key-%d", i))
		tbl.Set(keys[i], Float(i))
	}
	for _, k := range keys {
		tbl.Delete(k)
	}
	for i, k := range keys {
		tbl.Set(k, Float(i*10))
	}
	for i, k := range keys {
		v, ok := tbl.Get(k)
		require.True(t, ok, k.Text())
		assert.Equal(t, Float(i*10), v)
	}
	assert.Equal(t, 32, tbl.Len())
}

func TestTableGrowthKeepsEntries(t *testing.T) {
	h := NewHeap(HeapConfig{}, nil)
	var tbl Table

	const n = 500
	for i := 0; i < n; i++ {
		tbl.Set(h.Intern(fmt.Sprintf("k%d", i)), Float(i))
	}
	assert.Equal(t, n, tbl.Len())
	for i := 0; i < n; i++ {
		v, ok := tbl.Get(h.Intern(fmt.Sprintf("k%d", i)))
		require.True(t, ok, i)
		assert.Equal(t, Float(i), v)
	}
}

func TestTableAddAll(t *testing.T) {
	h := NewHeap(HeapConfig{}, nil)
	var src, dst Table

	ka, kb := h.Intern("a"), h.Intern("b")
	src.Set(ka, Float(1))
	src.Set(kb, Float(2))
	dst.Set(ka, Float(0))

	dst.AddAll(&src)
	v, _ := dst.Get(ka)
	assert.Equal(t, Float(1), v, "source entries overwrite destination")
	v, _ = dst.Get(kb)
	assert.Equal(t, Float(2), v)
}

func TestTableFindString(t *testing.T) {
	h := NewHeap(HeapConfig{}, nil)
	var tbl Table

	key := h.Intern("needle")
	tbl.Set(key, True)

	found := tbl.FindString("needle", hashString("needle"))
	assert.Same(t, key, found)

	assert.Nil(t, tbl.FindString("missing", hashString("missing")))

	// a deleted key is not found, and the probe does not stop at its
	// tombstone
	tbl.Delete(key)
	assert.Nil(t, tbl.FindString("needle", hashString("needle")))
}
