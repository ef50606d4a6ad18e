// Package luahost runs Lua scripts with the stack serializer wired in.
//
// Scripts get three globals:
//
//	stacktrace()        -- the current stack as one line
//	metric(name, value) -- report value under name, tagged with the caller's stack
//	fault(msg)          -- report a fault with its stack, then raise msg
//
// Any error raised by a script comes back as a *ScriptError carrying the
// stack at the point the error was raised.
package luahost

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lattesec/log"
	lua "github.com/yuin/gopher-lua"

	"github.com/lattesec/luatrace/internal/helpers/nopanic"
	"github.com/lattesec/luatrace/internal/metrics"
	"github.com/lattesec/luatrace/internal/socket"
	"github.com/lattesec/luatrace/pkg/luastack"
	"github.com/lattesec/luatrace/pkg/luastack/gopherlua"
)

const (
	KindFault      = "fault"
	KindAnnotation = "annotation"

	runTimeMetric = "lua_run_time_ns"
)

// TraceReporter receives traces worth shipping off the host.
type TraceReporter interface {
	PushTrace(tr socket.TraceReport) error
}

type Options struct {
	TraceBufferSize    int // capacity for fault traces and stacktrace()
	AnnotateBufferSize int // capacity for metric tags

	Registry *metrics.Registry // defaults to a fresh registry
	Reporter TraceReporter     // optional
	Sink     luastack.Sink     // where serializer failures go, defaults to the logger
}

// Host owns a Lua state. Like the state itself it must not be used from
// more than one goroutine at a time.
type Host struct {
	L *lua.LState

	opts       Options
	serializer luastack.Serializer
	traceBuf   []byte
	tagBuf     []byte

	lastFault luastack.Result
}

func New(opts Options) *Host {
	if opts.TraceBufferSize < 1 {
		opts.TraceBufferSize = 1024
	}
	if opts.AnnotateBufferSize < 1 {
		opts.AnnotateBufferSize = 128
	}
	if opts.Registry == nil {
		opts.Registry = metrics.NewRegistry()
	}

	h := &Host{
		L:          lua.NewState(),
		opts:       opts,
		serializer: luastack.Serializer{Sink: opts.Sink},
		traceBuf:   make([]byte, opts.TraceBufferSize),
		tagBuf:     make([]byte, opts.AnnotateBufferSize),
	}
	h.L.SetGlobal("stacktrace", h.L.NewFunction(h.luaStacktrace))
	h.L.SetGlobal("metric", h.L.NewFunction(h.luaMetric))
	h.L.SetGlobal("fault", h.L.NewFunction(h.luaFault))
	return h
}

func (h *Host) Registry() *metrics.Registry { return h.opts.Registry }

func (h *Host) Close() { h.L.Close() }

// capture serializes the current stack into buf. The returned string is a
// copy, buf is reused by the next capture.
func (h *Host) capture(buf []byte) (string, luastack.Result) {
	res := h.serializer.Serialize(gopherlua.New(h.L), buf)
	return string(buf[:res.N]), res
}

// RunFile loads and runs a script from disk.
func (h *Host) RunFile(ctx context.Context, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	return h.RunString(ctx, path, string(src))
}

// RunString runs src. name becomes the chunk's source, so frames render
// with its basename.
func (h *Host) RunString(ctx context.Context, name, src string) error {
	fn, err := h.L.Load(strings.NewReader(src), name)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", name, err)
	}

	h.L.SetContext(ctx)
	defer h.L.RemoveContext()

	start := metrics.PreciseTime()
	h.L.Push(fn)
	err = h.L.PCall(0, 0, h.L.NewFunction(h.onError))
	h.opts.Registry.Report(h.opts.Registry.Tagged(runTimeMetric, fmt.Sprintf("{script=%q}", name)), metrics.PreciseTime()-start)

	if err == nil {
		return nil
	}

	serr := &ScriptError{
		Err:       err,
		Trace:     string(h.traceBuf[:h.lastFault.N]),
		Truncated: h.lastFault.Outcome == luastack.Truncated,
	}
	h.lastFault = luastack.Result{}
	h.report(socket.TraceReport{Kind: KindFault, Message: err.Error(), Trace: serr.Trace, Truncated: serr.Truncated})
	return serr
}

// onError runs at the point an error is raised, before the stack unwinds.
func (h *Host) onError(L *lua.LState) int {
	res := h.serializer.Serialize(gopherlua.New(L), h.traceBuf)
	if res.Outcome == luastack.Failed {
		res.N = 0
	}
	h.lastFault = res
	L.Push(L.Get(1))
	return 1
}

func (h *Host) report(tr socket.TraceReport) {
	if h.opts.Reporter == nil {
		return
	}
	err := nopanic.NoPanicRun("luahost.report", func() error {
		return h.opts.Reporter.PushTrace(tr)
	})
	if err != nil {
		log.Warn().
			WithMeta("scope", "luahost").
			WithMeta("kind", tr.Kind).
			Msgf("failed to push trace: %v", err).Send()
	}
}

func (h *Host) luaStacktrace(L *lua.LState) int {
	trace, _ := h.capture(h.traceBuf)
	L.Push(lua.LString(trace))
	return 1
}

func (h *Host) luaMetric(L *lua.LState) int {
	name := L.CheckString(1)
	value := int64(L.CheckNumber(2))

	trace, _ := h.capture(h.tagBuf)
	m := h.opts.Registry.Tagged(name, fmt.Sprintf("{lua=%q}", trace))
	h.opts.Registry.Report(m, value)
	return 0
}

func (h *Host) luaFault(L *lua.LState) int {
	msg := L.CheckString(1)

	trace, res := h.capture(h.traceBuf)
	h.report(socket.TraceReport{
		Kind:      KindAnnotation,
		Message:   msg,
		Trace:     trace,
		Truncated: res.Outcome == luastack.Truncated,
	})
	L.RaiseError("%s", msg)
	return 0
}
