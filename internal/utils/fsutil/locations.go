package fsutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/deploymenttheory/go-rom-manager/internal/utils/errors"
	"github.com/deploymenttheory/go-rom-manager/internal/utils/osutil"
)

// appDir selects one of the per-user directories of the application
type appDir int

const (
	configDir appDir = iota
	dataDir
	logDir
)

// devDirs are relative to the working directory in a development environment
var devDirs = map[appDir]string{
	configDir: "config",
	dataDir:   "data",
	logDir:    "logs",
}

// GetConfigDir returns the per-user directory searched for the config file
func GetConfigDir(appName string) (string, error) {
	return userDir(configDir, appName)
}

// GetDataDir returns the directory holding the scan database
func GetDataDir(appName string) (string, error) {
	return userDir(dataDir, appName)
}

// GetLogDir returns the directory of the default log file
func GetLogDir(appName string) (string, error) {
	return userDir(logDir, appName)
}

// GetSystemConfigDir returns the machine-wide config directory. On Linux the
// first existing of /etc and /usr/local/etc wins.
func GetSystemConfigDir(appName string) (string, error) {
	if osutil.IsDevEnvironment() {
		return devDirs[configDir], nil
	}

	switch osutil.GetOSType() {
	case osutil.Windows:
		drive := envOr("SystemDrive", "C:")
		return filepath.Join(envOr("ProgramData", filepath.Join(drive, "ProgramData")), appName), nil
	case osutil.MacOS:
		return filepath.Join("/Library", "Application Support", appName), nil
	}

	for _, dir := range []string{"/etc", "/usr/local/etc"} {
		if DirExists(filepath.Join(dir, appName)) {
			return filepath.Join(dir, appName), nil
		}
	}
	return filepath.Join("/etc", appName), nil
}

func userDir(kind appDir, appName string) (string, error) {
	if osutil.IsDevEnvironment() {
		return devDirs[kind], nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: home directory: %v", errors.ErrDirNotFound, err)
	}

	switch osutil.GetOSType() {
	case osutil.Windows:
		if kind == configDir {
			return filepath.Join(envOr("APPDATA", filepath.Join(home, "AppData", "Roaming")), appName), nil
		}
		local := filepath.Join(envOr("LOCALAPPDATA", filepath.Join(home, "AppData", "Local")), appName)
		if kind == logDir {
			return filepath.Join(local, "Logs"), nil
		}
		return filepath.Join(local, "Data"), nil

	case osutil.MacOS:
		if kind == logDir {
			return filepath.Join(home, "Library", "Logs", appName), nil
		}
		return filepath.Join(home, "Library", "Application Support", appName), nil
	}

	// XDG layout; logs go under the state home when set, else under the data home
	dataHome := envOr("XDG_DATA_HOME", filepath.Join(home, ".local", "share"))
	switch kind {
	case configDir:
		return filepath.Join(envOr("XDG_CONFIG_HOME", filepath.Join(home, ".config")), appName), nil
	case logDir:
		if state := os.Getenv("XDG_STATE_HOME"); state != "" {
			return filepath.Join(state, appName, "logs"), nil
		}
		return filepath.Join(dataHome, appName, "logs"), nil
	}
	return filepath.Join(dataHome, appName), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
