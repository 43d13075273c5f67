package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	DefaultConfigDir  = "configs"
	DefaultConfigFile = "lpforge.json"

	// DirEnv names an extra directory searched before the defaults.
	DirEnv = "LPFORGE_CONFIG_DIR"
)

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir, DefaultConfigFile)
}

// SearchDirs lists where config files are looked up, in priority order:
// $LPFORGE_CONFIG_DIR, the working directory, ./configs, ./.lpforge and
// the per-user config directory.
func SearchDirs() []string {
	dirs := []string{os.Getenv(DirEnv), ".", DefaultConfigDir, ".lpforge"}
	if base, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(base, "lpforge"))
	}
	return uniqueDirs(dirs)
}

// Find resolves name against SearchDirs. Names carrying a directory are
// used as given.
func Find(name string, exists func(string) bool) (string, bool) {
	if filepath.IsAbs(name) || strings.ContainsRune(name, filepath.Separator) {
		return name, exists(name)
	}
	for _, dir := range SearchDirs() {
		if p := filepath.Join(dir, name); exists(p) {
			return p, true
		}
	}
	return "", false
}

func uniqueDirs(dirs []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, dir := range dirs {
		dir = strings.TrimSpace(dir)
		key := filepath.Clean(dir)
		if dir == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, dir)
	}
	return out
}
