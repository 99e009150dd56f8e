package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"vlelab/internal/diag"
)

func diagRegion() diag.Region { return diag.Region{File: "t.v", Line: 1, Pos: 1} }

func TestRangeSizeAndEndianness(t *testing.T) {
	cases := []struct {
		name       string
		left       int
		right      int
		wantSize   int
		wantBigEnd bool
	}{
		{"descending [7:0]", 7, 0, 8, true},
		{"ascending [0:7]", 0, 7, 8, false},
		{"single bit [0:0]", 0, 0, 1, true},
		{"negative lsb [3:-4]", 3, -4, 8, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := New(diagRegion(), "", "", c.left, c.right)
			assert.Equal(t, c.wantSize, r.Size())
			assert.Equal(t, c.wantBigEnd, r.BigEndian())
		})
	}
}

func TestRangeOffsetRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		left  int
		right int
	}{
		{"descending [7:0]", 7, 0},
		{"ascending [0:7]", 0, 7},
		{"descending negative [3:-4]", 3, -4},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := New(diagRegion(), "", "", c.left, c.right)
			lo, hi := c.left, c.right
			if lo > hi {
				lo, hi = hi, lo
			}
			for idx := lo; idx <= hi; idx++ {
				off, ok := r.Offset(idx)
				assert.True(t, ok)
				assert.Equal(t, idx, r.Index(off))

				roff, ok := r.ROffset(idx)
				assert.True(t, ok)
				assert.Equal(t, idx, r.RIndex(roff))
			}
		})
	}
}

func TestRangeOffsetOutOfBounds(t *testing.T) {
	r := New(diagRegion(), "", "", 7, 0)
	_, ok := r.Offset(8)
	assert.False(t, ok)
	_, ok = r.Offset(-1)
	assert.False(t, ok)
	assert.False(t, r.IsIn(8))
}

func TestArrayOffsetPacking(t *testing.T) {
	// mirrors `reg [7:0] mem [0:15][0:3]`: two unpacked dimensions.
	a := NewArray([]Range{
		New(diagRegion(), "", "", 0, 15),
		New(diagRegion(), "", "", 0, 3),
	})
	assert.Equal(t, 64, a.Size())

	off, ok := a.Offset([]int{5, 2})
	assert.True(t, ok)
	idx := a.Index(off)
	assert.Equal(t, []int{5, 2}, idx)
}

func TestArrayOffsetWrongArity(t *testing.T) {
	a := NewArray([]Range{New(diagRegion(), "", "", 0, 3)})
	_, ok := a.Offset([]int{1, 2})
	assert.False(t, ok)
}

