// Package paths resolves the configuration and data directories.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// AppName names the per-user directories.
const AppName = "investtrack"

// ConfigFileName is the configuration file inside the config directory.
const ConfigFileName = "config.yaml"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "INVESTTRACK_CONFIG_DIR"
	EnvDataDir   = "INVESTTRACK_DATA_DIR"
)

// platformDir holds platform lookups that tests override.
var platformDir = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the per-user configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/investtrack (fallback ~/.config/investtrack)
// macOS:   ~/Library/Application Support/investtrack
// Windows: %APPDATA%/investtrack
func DefaultConfigDir() (string, error) {
	return userDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the per-user data directory, where the local
// workbook lives.
//
// Linux:   $XDG_DATA_HOME/investtrack (fallback ~/.local/share/investtrack)
// macOS and Windows: same as the config directory.
func DefaultDataDir() (string, error) {
	return userDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func userDir(xdgVar, linuxFallback string) (string, error) {
	if platformDir.goos != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, linuxFallback, AppName), nil
}

// ResolveConfigDir applies the precedence flag > INVESTTRACK_CONFIG_DIR >
// DefaultConfigDir and returns an absolute path.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir applies the precedence flag > config file value >
// INVESTTRACK_DATA_DIR > DefaultDataDir and returns an absolute path.
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, v := range []string{flag, configValue, os.Getenv(EnvDataDir)} {
		if v != "" {
			return abs(v)
		}
	}
	return DefaultDataDir()
}

// abs expands a leading ~ and makes p absolute.
func abs(p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return filepath.Abs(p)
}
