package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultFilename is used when the service does not name the document.
const DefaultFilename = "exported_presentation.pptx"

// Document is the generated file returned by the service.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Name returns a safe base name for the document.
func (d *Document) Name() string {
	name := filepath.Base(strings.ReplaceAll(d.Filename, "\\", "/"))
	if name == "" || name == "." || name == "/" || name == ".." {
		return DefaultFilename
	}
	return name
}

// Save writes the document into dir and returns its path. The file appears
// under its final name only once fully written.
func (d *Document) Save(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	final := filepath.Join(dir, d.Name())
	tmp, err := os.CreateTemp(dir, ".panelmark-*.part")
	if err != nil {
		return "", fmt.Errorf("save document: %w", err)
	}
	cleanup := func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}
	if _, err := tmp.Write(d.Data); err != nil {
		cleanup()
		return "", fmt.Errorf("save document: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return "", fmt.Errorf("save document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("save document: %w", err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("save document: %w", err)
	}
	return final, nil
}
