package luastack

import (
	"errors"
	"io"

	"github.com/lattesec/luatrace/internal/helpers/nopanic"
)

// Outcome classifies a serialization.
type Outcome uint8

const (
	Complete  Outcome = iota // every displayable frame was written
	Truncated                // the buffer filled up, output is a prefix
	Failed                   // unexpected failure, output is empty
)

func (o Outcome) String() string {
	switch o {
	case Complete:
		return "complete"
	case Truncated:
		return "truncated"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// FailureCode is what SerializeStack returns on unexpected failure.
const FailureCode = 1

type Result struct {
	Outcome Outcome
	N       int // bytes written, terminator excluded
}

// Code encodes r the way SerializeStack reports it.
func (r Result) Code() int {
	if r.Outcome == Failed {
		return FailureCode
	}
	return r.N
}

// Dump walks src from the innermost frame outwards and writes every
// displayable frame to w. It stops at the first write error.
//
// Rendered frames are joined by one space. A skipped native frame adds no
// separator, so the output never starts with a space.
func Dump(src FrameSource, w io.Writer) error {
	first := true
	for depth := 0; ; depth++ {
		f, ok := src.Frame(depth)
		if !ok {
			return nil
		}
		if !Displayable(f) {
			continue
		}
		if err := WriteFrame(w, f, first); err != nil {
			return err
		}
		first = false
	}
}

// Serializer renders stacks into bounded buffers, reporting unexpected
// failures to Sink. The zero value logs failures.
type Serializer struct {
	Sink Sink
}

// Serialize zero-fills buf and writes the trace of src into it, always
// leaving a NUL terminator after the output. It panics when buf is empty.
func (s Serializer) Serialize(src FrameSource, buf []byte) Result {
	b := newBuffer(buf)

	err := dump(src, &b)
	switch {
	case err == nil:
		return Result{Outcome: Complete, N: b.Len()}
	case errors.Is(err, ErrTruncated):
		return Result{Outcome: Truncated, N: b.Len()}
	}

	b.Reset()
	s.report(err)
	return Result{Outcome: Failed}
}

// dump is Dump into a Buffer with panics turned into errors. It does not
// allocate unless src panics.
func dump(src FrameSource, b *Buffer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = nopanic.Wrap("luastack.Dump", r)
		}
	}()

	first := true
	for depth := 0; ; depth++ {
		f, ok := src.Frame(depth)
		if !ok {
			return nil
		}
		if !Displayable(f) {
			continue
		}
		if err := writeFrame(b, f, first); err != nil {
			return err
		}
		first = false
	}
}

func (s Serializer) report(err error) {
	sink := s.Sink
	if sink == nil {
		sink = LogSink{}
	}
	// sink panics stay here
	_ = nopanic.Recover("luastack.Sink", func() error {
		sink.Report(err)
		return nil
	})
}

// Serialize is Serializer{}.Serialize.
func Serialize(src FrameSource, buf []byte) Result {
	return Serializer{}.Serialize(src, buf)
}

// SerializeStack is the boundary entry point used by hosts. It returns the
// number of bytes written, with buf[n] == 0, or FailureCode with buf[0] == 0
// when the walk failed unexpectedly. An empty buf panics.
func SerializeStack(src FrameSource, buf []byte) int {
	return Serialize(src, buf).Code()
}
