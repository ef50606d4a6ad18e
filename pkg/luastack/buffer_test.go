package luastack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffer_ReservesTerminator(t *testing.T) {
	raw := []byte("garbage!")
	b := NewBuffer(raw)
	assert.Equal(t, make([]byte, 8), raw)
	assert.Equal(t, 8, b.Cap())

	n, err := b.WriteString("abcd")
	assert.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = b.Write([]byte("efghij"))
	assert.ErrorIs(t, err, ErrTruncated)
	assert.Equal(t, 3, n)
	assert.True(t, b.Truncated())
	assert.Equal(t, "abcdefg", b.String())
	assert.Equal(t, byte(0), raw[7])

	n, err = b.WriteString("")
	assert.ErrorIs(t, err, ErrTruncated)
	assert.Zero(t, n)
}

func TestBuffer_ExactFitIsNotTruncated(t *testing.T) {
	b := NewBuffer(make([]byte, 4))
	_, err := b.WriteString("abc")
	assert.NoError(t, err)
	assert.False(t, b.Truncated())
	assert.Equal(t, 3, b.Len())
}

func TestBuffer_SingleByte(t *testing.T) {
	b := NewBuffer(make([]byte, 1))
	n, err := b.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrTruncated)
	assert.Zero(t, n)
	assert.Empty(t, b.Bytes())
}

func TestBuffer_Reset(t *testing.T) {
	raw := make([]byte, 8)
	b := NewBuffer(raw)
	_, _ = b.WriteString("too long for this")
	b.Reset()

	assert.Equal(t, byte(0), raw[0])
	assert.Zero(t, b.Len())
	assert.False(t, b.Truncated())
}

func TestNewBuffer_Empty(t *testing.T) {
	assert.Panics(t, func() { NewBuffer(nil) })
}
