package luastack

import (
	"errors"
	"strconv"
)

// ErrTruncated is returned by Buffer once the trace no longer fits. It is a
// stop signal, not a failure.
var ErrTruncated = errors.New("luastack: buffer full, trace truncated")

// Buffer is a bounded writer over a caller-owned byte slice. The last byte
// of the slice is reserved for the NUL terminator and is never written.
type Buffer struct {
	buf       []byte
	pos       int
	truncated bool
}

// NewBuffer zero-fills buf and wraps it. It panics when buf is empty: there
// is no room for the terminator and that is a caller bug.
func NewBuffer(buf []byte) *Buffer {
	b := newBuffer(buf)
	return &b
}

func newBuffer(buf []byte) Buffer {
	if len(buf) == 0 {
		panic("luastack: buffer must hold at least the terminator byte")
	}
	clear(buf)
	return Buffer{buf: buf}
}

func (b *Buffer) limit() int { return len(b.buf) - 1 }

// Write copies as much of p as fits. When p does not fit entirely the
// buffer is marked truncated, ErrTruncated is returned and every later
// write is a no-op.
func (b *Buffer) Write(p []byte) (int, error) {
	if b.truncated {
		return 0, ErrTruncated
	}
	n := copy(b.buf[b.pos:b.limit()], p)
	b.pos += n
	if n < len(p) {
		b.truncated = true
		return n, ErrTruncated
	}
	return n, nil
}

func (b *Buffer) WriteString(s string) (int, error) {
	if b.truncated {
		return 0, ErrTruncated
	}
	n := copy(b.buf[b.pos:b.limit()], s)
	b.pos += n
	if n < len(s) {
		b.truncated = true
		return n, ErrTruncated
	}
	return n, nil
}

// writeInt renders v in base 10. The scratch digits stay on the stack.
func (b *Buffer) writeInt(v int64) error {
	var num [20]byte
	_, err := b.Write(strconv.AppendInt(num[:0], v, 10))
	return err
}

// Len is the number of bytes written, excluding the terminator.
func (b *Buffer) Len() int { return b.pos }

// Cap is the capacity of the underlying slice, terminator included.
func (b *Buffer) Cap() int { return len(b.buf) }

func (b *Buffer) Truncated() bool { return b.truncated }

// Bytes aliases the written part of the caller's slice.
func (b *Buffer) Bytes() []byte { return b.buf[:b.pos] }

func (b *Buffer) String() string { return string(b.buf[:b.pos]) }

// Reset turns the buffer back into the empty string by writing the
// terminator at index 0.
func (b *Buffer) Reset() {
	b.buf[0] = 0
	b.pos = 0
	b.truncated = false
}
