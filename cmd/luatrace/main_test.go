package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattesec/luatrace/internal/config"
	"github.com/lattesec/luatrace/internal/env"
	"github.com/lattesec/luatrace/internal/luahost"
)

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.lua")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		argv    Config
		wantErr bool
	}{
		{"ok", Config{Script: "a.lua"}, false},
		{"no script", Config{}, true},
		{"negative buffer", Config{Script: "a.lua", BufferSize: -1}, true},
		{"bad collector", Config{Script: "a.lua", Collector: "nope"}, true},
		{"good collector", Config{Script: "a.lua", Collector: "127.0.0.1:9000"}, false},
		{"bad level", Config{Script: "a.lua", LogLevel: "loud"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.argv.Validate(nil)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Overrides(t *testing.T) {
	argv := Config{BufferSize: 64, Collector: "127.0.0.1:9000", LogLevel: "debug"}

	cfg := config.Default()
	for _, fn := range argv.overrides() {
		require.NoError(t, fn(cfg))
	}
	assert.Equal(t, 64, cfg.Trace.BufferSize)
	assert.Equal(t, "127.0.0.1:9000", cfg.Collector.Address)
	assert.Equal(t, "debug", cfg.Log.Level)

	assert.Empty(t, (&Config{}).overrides())
}

func TestConnConfig(t *testing.T) {
	c := config.Default().Collector
	c.Address = "collector.internal:7000"
	c.TLS = true
	c.RetryDelayMs = 20

	cc, err := connConfig(c)
	require.NoError(t, err)
	assert.True(t, cc.UseTLS)
	require.NotNil(t, cc.TLSConfig)
	assert.Equal(t, "collector.internal", cc.TLSConfig.ServerName)
	assert.Equal(t, 20*time.Millisecond, cc.ReconnectionDelay)
	assert.Equal(t, 3, cc.MaxReconnectionAttempts)

	c.Address = "no-port"
	_, err = connConfig(c)
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	t.Setenv(env.LUATRACE_CONFIG_DIR_ENV, t.TempDir())

	script := writeScript(t, `
function handler()
  metric("handler_calls", 1)
end
handler()
`)

	var out bytes.Buffer
	err := run(&Config{Script: script, ConfigName: config.DefaultName, Metrics: true, LogLevel: "quiet"}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `handler_calls_count{lua="handler@script.lua:3`)
	assert.Contains(t, out.String(), "lua_run_time_ns_count")
}

func TestRun_ScriptError(t *testing.T) {
	t.Setenv(env.LUATRACE_CONFIG_DIR_ENV, t.TempDir())

	script := writeScript(t, `
function boom()
  error("kaput")
end
boom()
`)

	err := run(&Config{Script: script, ConfigName: config.DefaultName, LogLevel: "quiet"}, &bytes.Buffer{})
	var serr *luahost.ScriptError
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Trace, "boom@script.lua:3")
}

func TestRun_CollectorDown(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(env.LUATRACE_CONFIG_DIR_ENV, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "luatrace.yml"), []byte(`
collector:
  max_attempts: 1
  retry_delay_ms: 1
`), 0o644))

	script := writeScript(t, `x = 1`)
	err := run(&Config{Script: script, ConfigName: config.DefaultName, Collector: "127.0.0.1:1", LogLevel: "quiet"}, &bytes.Buffer{})
	assert.NoError(t, err)
}
