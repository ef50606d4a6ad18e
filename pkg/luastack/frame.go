// Package luastack renders the call stack of an embedded Lua runtime into a
// caller-owned fixed-size buffer as a single line:
//
//	foo@mod.lua:10 bar@mod.lua:3
//
// The serializer never writes past the buffer, never lets a panic escape
// SerializeStack and truncates instead of failing when the trace is larger
// than the buffer.
package luastack

// NativeSource is the source identifier the runtime reports for frames that
// have no script source (C or Go functions).
const NativeSource = "=[C]"

const (
	anonymousName = "[anonymous]"
	nativeFile    = "[C]"
	invalidText   = "[invalid utf8]"
)

// FrameInfo is a snapshot of one call frame.
type FrameInfo struct {
	Name   string // empty when the function is anonymous
	Source string // runtime source identifier, NativeSource for native frames
	Line   int    // current line, meaningless for native frames
}

// FrameSource exposes the frames of a runtime call stack.
//
// Frame is called with depth 0, 1, 2, ... and returns false once the stack
// is exhausted or the debug info of a frame can not be retrieved. It is not
// called again during the same walk after returning false.
type FrameSource interface {
	Frame(depth int) (FrameInfo, bool)
}

// Frames is a FrameSource over a captured slice, innermost frame first.
type Frames []FrameInfo

func (f Frames) Frame(depth int) (FrameInfo, bool) {
	if depth < 0 || depth >= len(f) {
		return FrameInfo{}, false
	}
	return f[depth], true
}

// FrameSourceFunc adapts a function to a FrameSource.
type FrameSourceFunc func(depth int) (FrameInfo, bool)

func (fn FrameSourceFunc) Frame(depth int) (FrameInfo, bool) { return fn(depth) }
