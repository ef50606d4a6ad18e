// Package gopherlua adapts a gopher-lua state to luastack.FrameSource.
package gopherlua

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/lattesec/luatrace/pkg/luastack"
)

// Source reads frames from the call stack of L. It holds no state of its
// own; L must not run while a walk is in progress.
type Source struct {
	L *lua.LState
}

// gopher-lua names a frame "?" when the call site gives no name.
const unknownName = "?"

func New(L *lua.LState) Source { return Source{L: L} }

func (s Source) Frame(depth int) (luastack.FrameInfo, bool) {
	if s.L == nil {
		return luastack.FrameInfo{}, false
	}
	dbg, ok := s.L.GetStack(depth)
	if !ok {
		return luastack.FrameInfo{}, false
	}
	if _, err := s.L.GetInfo("Sln", dbg, lua.LNil); err != nil {
		return luastack.FrameInfo{}, false
	}

	f := luastack.FrameInfo{
		Name:   dbg.Name,
		Source: dbg.Source,
		Line:   dbg.CurrentLine,
	}
	if f.Name == unknownName {
		f.Name = ""
	}
	if dbg.What == "G" {
		f.Source = luastack.NativeSource
	}
	return f, true
}

// Serialize renders the current stack of L into buf.
func Serialize(L *lua.LState, buf []byte) luastack.Result {
	return luastack.Serialize(New(L), buf)
}
