// Package config provides XDG path helpers.
package config

import (
	"os"
	"path/filepath"
)

const (
	appName   = "tuiquiz"
	configEnv = "TUIQUIZ_CONFIG"
)

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	return xdgHome("XDG_CONFIG_HOME", ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	return xdgHome("XDG_DATA_HOME", ".local", "share")
}

func xdgHome(env string, fallback ...string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(append([]string{home}, fallback...)...)
}

// DefaultDBPath returns the default path for the SQLite database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), appName, appName+".db")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appName, "config.toml")
}

// ConfigPath returns $TUIQUIZ_CONFIG when set, otherwise DefaultConfigPath.
func ConfigPath() string {
	if v := os.Getenv(configEnv); v != "" {
		return v
	}
	return DefaultConfigPath()
}
