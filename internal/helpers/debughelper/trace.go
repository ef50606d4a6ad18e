package debughelper

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// TraceCaller describes the function skip frames above its caller.
func TraceCaller(skip int) string {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return "???"
	}
	fn := "???"
	if f := runtime.FuncForPC(pc); f != nil {
		fn = f.Name()
	}
	return fmt.Sprintf("%s:%d (%s)", filepath.Base(file), line, fn)
}

// TraceStack returns the current goroutine stack, cut at 4KiB.
func TraceStack() string {
	buf := make([]byte, 4<<10)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
