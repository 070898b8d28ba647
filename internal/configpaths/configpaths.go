// Package configpaths locates padlink configuration files.
package configpaths

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const appDir = "padlink"

// BaseName is the configuration file name without extension.
const BaseName = "config"

// DefaultConfigDir returns the per-user configuration directory.
func DefaultConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDir), nil
}

// ConfigCandidatePaths returns the files kong should try, per format, in
// priority order. An explicit user path is the only candidate for its
// format; a path without a known extension is tried as every format.
func ConfigCandidatePaths(userPath string) (jsonPaths, yamlPaths, tomlPaths []string) {
	if userPath != "" {
		switch strings.ToLower(filepath.Ext(userPath)) {
		case ".json":
			return []string{userPath}, nil, nil
		case ".yaml", ".yml":
			return nil, []string{userPath}, nil
		case ".toml":
			return nil, nil, []string{userPath}
		}
		return []string{userPath}, []string{userPath}, []string{userPath}
	}

	var dirs []string
	if dir, err := DefaultConfigDir(); err == nil {
		dirs = append(dirs, dir)
	}
	if dir, err := SystemConfigDir(); err == nil && !slices.Contains(dirs, dir) {
		dirs = append(dirs, dir)
	}

	for _, dir := range dirs {
		base := filepath.Join(dir, BaseName)
		jsonPaths = append(jsonPaths, base+".json")
		yamlPaths = append(yamlPaths, base+".yaml", base+".yml")
		tomlPaths = append(tomlPaths, base+".toml")
	}
	return jsonPaths, yamlPaths, tomlPaths
}
