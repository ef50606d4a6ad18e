package mirror

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct{ A int }

func TestFresh(t *testing.T) {
	p, ok := Fresh[*sample]().(*sample)
	assert.True(t, ok)
	assert.Equal(t, sample{}, *p)

	v, ok := Fresh[sample]().(*sample)
	assert.True(t, ok)
	assert.NotNil(t, v)
}

func TestIsStructPointer(t *testing.T) {
	var nilPtr *sample
	n := 3

	assert.NoError(t, IsStructPointer(&sample{}))
	assert.ErrorIs(t, IsStructPointer(sample{}), ErrNotPointer)
	assert.ErrorIs(t, IsStructPointer(nilPtr), ErrNilPointer)
	assert.ErrorIs(t, IsStructPointer(&n), ErrInvalidPointerKind)
}
