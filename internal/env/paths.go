package env

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	LUATRACE_CONFIG_DIR_NAME = "luatrace"

	LUATRACE_CONFIG_DIR_ENV = "LUATRACE_CONFIG_DIR"
)

// ConfigDirEnv names the variable that points at app's config directory:
// "luatrace" reads LUATRACE_CONFIG_DIR, "lua-host" reads LUA_HOST_CONFIG_DIR.
func ConfigDirEnv(app string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(app)) + "_CONFIG_DIR"
}

// ConfigDirs lists where app's config files live, lowest priority first.
// Later files override earlier ones.
//
//	/etc/<app>/
//	$XDG_CONFIG_HOME/<app>/ or $HOME/.config/<app>/
//	./.<app>/
//	$<APP>_CONFIG_DIR/
//
// Directories that can not be resolved are left out.
func ConfigDirs(app string) []string {
	dirs := make([]string, 0, 4)
	dirs = append(dirs, filepath.Join("/etc", app))

	if cfgDir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(cfgDir, app))
	}
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, filepath.Join(cwd, "."+app))
	}
	if p := os.Getenv(ConfigDirEnv(app)); p != "" {
		dirs = append(dirs, p)
	}
	return dirs
}

func resolvePaths() []string { return ConfigDirs(LUATRACE_CONFIG_DIR_NAME) }
