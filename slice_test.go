package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSliceEqualAndCompare(t *testing.T) {
	a := NewSlice([]byte("abc"))
	b := NewSlice([]byte("abc"))
	c := NewSlice([]byte("abd"))

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.Negative(t, a.Compare(c))
	assert.Positive(t, c.Compare(a))
}

func TestSlicePrefixSuffix(t *testing.T) {
	s := NewSlice([]byte("hello world"))
	assert.True(t, s.StartsWith(NewSlice([]byte("hello"))))
	assert.True(t, s.EndsWith(NewSlice([]byte("world"))))
	assert.False(t, s.StartsWith(NewSlice([]byte("world"))))
}

func TestSliceSplit(t *testing.T) {
	s := NewSlice([]byte("a,b,c"))
	parts := s.Split(',')
	want := []string{"a", "b", "c"}
	for i, p := range parts {
		assert.Equal(t, want[i], p.String())
	}
}

func TestSliceEatWordAndLine(t *testing.T) {
	s := NewSlice([]byte("  word rest\nsecond"))
	s.TrimSpace()
	word := s.EatWord()
	assert.Equal(t, "word", word.String())

	line := s.EatLine()
	assert.Equal(t, " rest", line.String())
	assert.Equal(t, "\nsecond", s.String())
}
