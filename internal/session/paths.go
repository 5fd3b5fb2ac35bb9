package session

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.heyfriend, or $HEYFRIEND_HOME when set.
func BaseDir() string {
	if dir := os.Getenv("HEYFRIEND_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".heyfriend")
}

// Dir returns the profile-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "profiles", name)
}

// IdentityPath returns the file holding the profile's principal.
func IdentityPath(name string) string {
	return filepath.Join(Dir(name), "identity")
}

// OverlayDir returns the directory of the profile's local overlay store.
func OverlayDir(name string) string {
	return filepath.Join(Dir(name), "overlay")
}

// LogDir returns the log directory for a profile.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// LogPath returns the client log file path.
func LogPath(name string) string {
	return filepath.Join(LogDir(name), "hftui.log")
}

// ServerDir returns the development backend's data directory.
func ServerDir() string {
	return filepath.Join(BaseDir(), "server")
}

// ServerDBPath returns the development backend's SQLite path.
func ServerDBPath() string {
	return filepath.Join(ServerDir(), "heyfriend.db")
}

// ServerLogPath returns the development backend's log file path.
func ServerLogPath() string {
	return filepath.Join(ServerDir(), "logs", "hfd.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the profile directory tree with proper permissions.
func EnsureDir(name string) error {
	for _, d := range []string{Dir(name), LogDir(name), OverlayDir(name)} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
