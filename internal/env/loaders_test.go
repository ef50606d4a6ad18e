package env

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCfg struct {
	Name  string `yaml:"name"`
	Size  int    `yaml:"size"`
	Inner struct {
		Addr string `yaml:"addr"`
		TLS  bool   `yaml:"tls"`
	} `yaml:"inner"`
}

var errTooSmall = errors.New("size too small")

func (c *testCfg) Validate() error {
	if c.Size < 1 {
		return errTooSmall
	}
	return nil
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func TestFromYAMLDirs_LaterDirsOverride(t *testing.T) {
	low, high := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(low, "app.yml"), "name: low\nsize: 4\ninner:\n  addr: 127.0.0.1:1\n")
	writeFile(t, filepath.Join(high, "app.yaml"), "size: 16\n")

	fn, err := fromYAMLDirs[*testCfg]("app", func() []string {
		return []string{low, filepath.Join(low, "missing"), high}
	})
	require.NoError(t, err)

	l := NewLoader[*testCfg]()
	l.RegisterCallback(fn)

	cfg := &testCfg{Name: "default", Size: 1}
	require.NoError(t, l.Load(cfg))

	assert.Equal(t, "low", cfg.Name)
	assert.Equal(t, 16, cfg.Size)
	assert.Equal(t, "127.0.0.1:1", cfg.Inner.Addr)
}

func TestFromYAMLDirs_LaterDirsCanClearValues(t *testing.T) {
	low, high := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(low, "app.yml"), "name: low\nsize: 4\ninner:\n  addr: 127.0.0.1:1\n  tls: true\n")
	writeFile(t, filepath.Join(high, "app.yml"), "name: \"\"\ninner:\n  tls: false\n")

	fn, err := fromYAMLDirs[*testCfg]("app", func() []string { return []string{low, high} })
	require.NoError(t, err)

	cfg := &testCfg{}
	require.NoError(t, fn(cfg))

	assert.Empty(t, cfg.Name)
	assert.False(t, cfg.Inner.TLS)
	assert.Equal(t, 4, cfg.Size, "omitted keys keep earlier values")
	assert.Equal(t, "127.0.0.1:1", cfg.Inner.Addr)
}

func TestWithDefaults_FillsOnlyZeroFields(t *testing.T) {
	def := &testCfg{Name: "default", Size: 8}
	def.Inner.Addr = "127.0.0.1:9"

	cfg := &testCfg{Size: 2}
	require.NoError(t, WithDefaults(def)(cfg))

	assert.Equal(t, "default", cfg.Name)
	assert.Equal(t, 2, cfg.Size)
	assert.Equal(t, "127.0.0.1:9", cfg.Inner.Addr)
}

func TestLoader_New(t *testing.T) {
	l := NewLoader[*testCfg]()
	l.RegisterCallback(WithDefaults(&testCfg{Name: "fresh", Size: 1}))

	cfg, err := l.New()
	require.NoError(t, err)
	assert.Equal(t, "fresh", cfg.Name)

	other, err := l.New()
	require.NoError(t, err)
	assert.NotSame(t, cfg, other)
}

func TestFromYAML_ParseError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad.yml"), "size: [not, an, int\n")

	fn, err := FromYAML[*testCfg](filepath.Join(dir, "bad.yml"))
	require.NoError(t, err)
	assert.Error(t, fn(&testCfg{}))
}

func TestFromYAML_InvalidNames(t *testing.T) {
	_, err := FromYAML[*testCfg](".")
	assert.ErrorIs(t, err, ErrInvalidConfigFilename)

	_, err = FromYAML[*testCfg]("config.json")
	assert.ErrorIs(t, err, ErrInvalidConfigFilename)

	_, err = FromYAMLConfigs[*testCfg]("nested/config")
	assert.ErrorIs(t, err, ErrInvalidConfigFilename)
}

func TestLoader_ValidateRuns(t *testing.T) {
	l := NewLoader[*testCfg]()
	l.RegisterCallback(func(c *testCfg) error {
		c.Size = 0
		return nil
	})
	err := l.Load(&testCfg{Size: 3})
	assert.ErrorIs(t, err, errTooSmall)
}

func TestLoader_CallbackOrder(t *testing.T) {
	l := NewLoader[*testCfg]()
	l.RegisterCallback(func(c *testCfg) error { c.Name = "first"; return nil })
	l.RegisterCallback(func(c *testCfg) error { c.Name += "+second"; return nil })

	cfg := &testCfg{Size: 1}
	require.NoError(t, l.Load(cfg))
	assert.Equal(t, "first+second", cfg.Name)
}

func TestMustFn(t *testing.T) {
	assert.Panics(t, func() {
		MustFn(FromYAML[*testCfg]("."))
	})
}

func TestResolvePaths_EnvOverrideIsLast(t *testing.T) {
	t.Setenv(LUATRACE_CONFIG_DIR_ENV, "/tmp/luatrace-test")
	paths := resolvePaths()
	require.NotEmpty(t, paths)
	assert.Equal(t, "/etc/luatrace", paths[0])
	assert.Equal(t, "/tmp/luatrace-test", paths[len(paths)-1])
}

func TestConfigDirEnv(t *testing.T) {
	assert.Equal(t, LUATRACE_CONFIG_DIR_ENV, ConfigDirEnv(LUATRACE_CONFIG_DIR_NAME))
	assert.Equal(t, "LUA_HOST_CONFIG_DIR", ConfigDirEnv("lua-host"))
}

func TestConfigDirs_PerApp(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	t.Setenv(ConfigDirEnv("collector"), "/tmp/collector-override")

	dirs := ConfigDirs("collector")
	require.Len(t, dirs, 4)
	assert.Equal(t, "/etc/collector", dirs[0])
	assert.Equal(t, "/tmp/xdg/collector", dirs[1])
	assert.Equal(t, ".collector", filepath.Base(dirs[2]))
	assert.Equal(t, "/tmp/collector-override", dirs[3])
}
