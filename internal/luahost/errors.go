package luahost

import "fmt"

// ScriptError is an error raised by a script, with the Lua stack at the
// point it was raised.
type ScriptError struct {
	Err       error
	Trace     string
	Truncated bool
}

func (e *ScriptError) Error() string {
	if e.Trace == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v [lua stack: %s]", e.Err, e.Trace)
}

func (e *ScriptError) Unwrap() error { return e.Err }
