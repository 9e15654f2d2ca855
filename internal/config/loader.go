package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Loader locates and reads the configuration file.
type Loader struct {
	Version      string // "dev" builds also look in the working directory
	OverridePath string // set at build time or by tests
}

// NewLoader creates a new Loader.
func NewLoader(version string, overridePath string) *Loader {
	return &Loader{
		Version:      version,
		OverridePath: overridePath,
	}
}

// Load reads the config file, if any, and applies environment overrides.
func (l *Loader) Load() (*Config, error) {
	cfg, err := l.loadFile()
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) loadFile() (*Config, error) {
	path := l.GetConfigPath()
	if path == "" {
		return New(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path in RC format. The file is replaced atomically so
// a failed write never leaves a truncated config behind.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".config-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(cfg.String()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// DefaultPath is where config save writes when no path is given.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "panelmark", "config.rc")
}

// candidates lists config locations from most to least specific.
func (l *Loader) candidates() []string {
	var paths []string
	if l.OverridePath != "" {
		paths = append(paths, l.OverridePath)
	}
	if l.Version == "dev" {
		if wd, err := os.Getwd(); err == nil {
			paths = append(paths, filepath.Join(wd, ".panelmarkrc"))
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		dir := filepath.Join(home, ".config", "panelmark")
		paths = append(paths, filepath.Join(dir, "config.rc"), filepath.Join(dir, "panelmark.rc"))
	}
	return paths
}

// GetConfigPath returns the first existing config file, or "" when there
// is none.
func (l *Loader) GetConfigPath() string {
	for _, p := range l.candidates() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
