package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkLineMap(t *testing.T) {
	var c Chunk

	// three bytes on line 1, two on line 2, one on line 5
	c.Write(0, 1)
	c.Write(1, 1)
	c.Write(2, 1)
	c.Write(3, 2)
	c.Write(4, 2)
	c.Write(5, 5)

	// the run-length map stores one pair per line run
	assert.Len(t, c.lines, 3)

	wantLines := []int{1, 1, 1, 2, 2, 5}
	for i, want := range wantLines {
		assert.Equal(t, want, c.Line(i), "code index %d", i)
	}
	assert.Equal(t, 5, c.Line(100), "past the end resolves to the last run")
}

func TestChunkLineMapEmpty(t *testing.T) {
	var c Chunk
	assert.Equal(t, -1, c.Line(0))
}

func TestChunkAddConstant(t *testing.T) {
	var c Chunk

	assert.Equal(t, 0, c.AddConstant(Float(1)))
	assert.Equal(t, 1, c.AddConstant(Float(2)))
	// the pool does not deduplicate
	assert.Equal(t, 2, c.AddConstant(Float(1)))
	assert.Len(t, c.Constants, 3)
}
