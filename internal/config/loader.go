package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the name looked up in the working and home
// directories.
const DefaultConfigFile = ".formbuilder"

// xdgConfigFile is the name looked up in the XDG config directory.
const xdgConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile reads a .formbuilder file. A missing file yields
// ErrConfigNotFound; whether that matters is up to the caller.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, err
	}

	cf := &File{}
	if err := yaml.Unmarshal(data, cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cf.Forms == nil {
		cf.Forms = map[string]FormConfig{}
	}
	return cf, nil
}

// FindConfigFile returns configPath when it exists. Without an explicit
// path it tries ./.formbuilder, $XDG_CONFIG_HOME/formbuilder/config.yaml
// and ~/.formbuilder in that order. It returns "" when nothing is found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if exists(configPath) {
			return configPath
		}
		return ""
	}

	for _, candidate := range searchPaths() {
		if exists(candidate) {
			return candidate
		}
	}
	return ""
}

func searchPaths() []string {
	paths := []string{}
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, DefaultConfigFile))
	}
	paths = append(paths, filepath.Join(XDGConfigDir(), xdgConfigFile))
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, DefaultConfigFile))
	}
	return paths
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
