// Package clipboard moves flattened canvases and short text between the
// editor and the desktop clipboard.
package clipboard

import (
	"errors"
	"os"
)

var (
	// ErrNoDisplay is returned when no X11 or Wayland session is available.
	ErrNoDisplay = errors.New("clipboard requires DISPLAY or WAYLAND_DISPLAY")
	// ErrEmpty is returned when the clipboard has nothing in the requested
	// format.
	ErrEmpty = errors.New("clipboard is empty")
)

// Board is a clipboard that carries PNG images and UTF-8 text.
type Board interface {
	WritePNG(data []byte) error
	ReadPNG() ([]byte, error)
	WriteText(text string) error
	ReadText() (string, error)
}

// System is the desktop clipboard.
var System Board = system{}

type system struct{}

func (system) WritePNG(data []byte) error  { return WritePNG(data) }
func (system) ReadPNG() ([]byte, error)    { return ReadPNG() }
func (system) WriteText(text string) error { return WriteText(text) }
func (system) ReadText() (string, error)   { return ReadText() }

func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

