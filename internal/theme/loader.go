package theme

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no source provides the requested theme.
var ErrNotFound = errors.New("theme not found")

// Loader resolves theme names against declared themes, files, the embedded
// set and the user and system theme directories, in that order.
type Loader struct {
	ConfigDir string
	SystemDir string
	// Declared holds themes defined inline, keyed by name.
	Declared map[string]*Theme
}

// NewLoader creates a Loader with the standard search directories.
func NewLoader() *Loader {
	home, _ := os.UserHomeDir()
	return &Loader{
		ConfigDir: filepath.Join(home, ".config", "panelmark", "themes"),
		SystemDir: "/usr/share/panelmark/themes",
		Declared:  map[string]*Theme{},
	}
}

// Load returns the named theme. An empty name yields Default.
func (l *Loader) Load(name string) (*Theme, error) {
	if name == "" {
		return Default(), nil
	}
	if t, ok := l.Declared[name]; ok {
		return t, nil
	}
	if _, err := os.Stat(name); err == nil {
		return parseFrom(os.DirFS(filepath.Dir(name)), filepath.Base(name))
	}

	filename := name
	if !strings.HasSuffix(filename, ".theme") {
		filename += ".theme"
	}
	sources := []fs.FS{mustSub(EmbeddedThemes, "defaults")}
	for _, dir := range []string{l.ConfigDir, l.SystemDir} {
		if dir != "" {
			sources = append(sources, os.DirFS(dir))
		}
	}
	for _, src := range sources {
		if _, err := fs.Stat(src, filename); err == nil {
			return parseFrom(src, filename)
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}

func parseFrom(fsys fs.FS, name string) (*Theme, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// Available lists the embedded theme names.
func Available() []string {
	entries, err := EmbeddedThemes.ReadDir("defaults")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".theme"))
	}
	return names
}
