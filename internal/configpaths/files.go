// Package configpaths locates metagen configuration files.
package configpaths

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "metagen"

// DefaultConfigDir returns the per-user configuration directory.
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if appdata := os.Getenv("AppData"); appdata != "" {
			return filepath.Join(appdata, appName), nil
		}
		return "", errors.New("AppData not set")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".config", appName), nil
		}
		return "", errors.New("HOME not set")
	}
}

// Ext returns the file extension used for a config format.
func Ext(format string) string {
	switch format {
	case "yaml", "yml":
		return "yaml"
	case "toml":
		return "toml"
	default:
		return "json"
	}
}

// DefaultConfigPath returns the per-user config file path for a format.
func DefaultConfigPath(format string) (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName+"."+Ext(format)), nil
}

// EnsureDir creates the parent directory of filePath.
func EnsureDir(filePath string) error {
	return os.MkdirAll(filepath.Dir(filePath), 0o755)
}

// ConfigCandidatePaths lists config files per format, highest priority first:
// userPath, the working directory, the user config directory, then /etc on
// unix. userPath is routed to the loader matching its extension.
func ConfigCandidatePaths(userPath string) (jsonPaths, yamlPaths, tomlPaths []string) {
	add := func(dir, base string) {
		jsonPaths = append(jsonPaths, filepath.Join(dir, base+".json"))
		yamlPaths = append(yamlPaths, filepath.Join(dir, base+".yaml"), filepath.Join(dir, base+".yml"))
		tomlPaths = append(tomlPaths, filepath.Join(dir, base+".toml"))
	}

	if userPath != "" {
		switch filepath.Ext(userPath) {
		case ".yaml", ".yml":
			yamlPaths = append(yamlPaths, userPath)
		case ".toml":
			tomlPaths = append(tomlPaths, userPath)
		default:
			jsonPaths = append(jsonPaths, userPath)
		}
	}

	if wd, err := os.Getwd(); err == nil {
		add(wd, appName)
	}
	if dir, err := DefaultConfigDir(); err == nil {
		add(dir, appName)
	}
	if runtime.GOOS != "windows" {
		add(filepath.Join("/etc", appName), appName)
	}
	return
}
