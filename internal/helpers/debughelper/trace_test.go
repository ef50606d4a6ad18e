package debughelper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraceCaller(t *testing.T) {
	got := TraceCaller(0)
	assert.True(t, strings.HasPrefix(got, "trace_test.go:"), got)
	assert.Contains(t, got, "TestTraceCaller")
}

func TestTraceStack(t *testing.T) {
	got := TraceStack()
	assert.Contains(t, got, "goroutine")
	assert.LessOrEqual(t, len(got), 4<<10)
}
