package luastack

import "github.com/lattesec/log"

// Sink receives the cause of a failed serialization. Report must not block.
type Sink interface {
	Report(err error)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(err error)

func (fn SinkFunc) Report(err error) { fn(err) }

// LogSink reports failures through the structured logger.
type LogSink struct {
	Scope string
}

func (s LogSink) Report(err error) {
	scope := s.Scope
	if scope == "" {
		scope = "luastack"
	}
	log.Error().
		WithMeta("scope", scope).
		Msgf("failed to dump lua stack: %v", err).Send()
}

// Discard drops every report.
var Discard Sink = SinkFunc(func(error) {})
