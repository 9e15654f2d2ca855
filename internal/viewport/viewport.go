// Package viewport discovers the display area the editor lays canvases out
// against.
package viewport

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/example/panelmark/internal/canvas"
)

// ErrUnavailable is returned when no display can be queried.
var ErrUnavailable = errors.New("display geometry unavailable")

// Monitor describes one output of the display layout.
type Monitor struct {
	Index   int
	Name    string
	Rect    image.Rectangle
	Primary bool
}

// Viewport returns the monitor size as a layout viewport.
func (m Monitor) Viewport() canvas.Viewport {
	return canvas.Viewport{Width: m.Rect.Dx(), Height: m.Rect.Dy()}
}

// Select resolves selector against monitors. An empty selector or
// "primary" picks the primary output, falling back to the first; a number
// (optionally prefixed with #) picks by index; anything else matches a
// name substring.
func Select(monitors []Monitor, selector string) (Monitor, error) {
	if len(monitors) == 0 {
		return Monitor{}, ErrUnavailable
	}
	sel := strings.ToLower(strings.TrimSpace(selector))
	if sel == "" || sel == "primary" {
		for _, m := range monitors {
			if m.Primary {
				return m, nil
			}
		}
		return monitors[0], nil
	}
	if idx, err := strconv.Atoi(strings.TrimPrefix(sel, "#")); err == nil {
		if idx < 0 || idx >= len(monitors) {
			return Monitor{}, fmt.Errorf("monitor index %d out of range", idx)
		}
		return monitors[idx], nil
	}
	for _, m := range monitors {
		if strings.Contains(strings.ToLower(m.Name), sel) {
			return m, nil
		}
	}
	return Monitor{}, fmt.Errorf("monitor %q not found", selector)
}

// Probe returns the viewport of the monitor matching selector.
func Probe(selector string) (canvas.Viewport, error) {
	monitors, err := Monitors()
	if err != nil {
		return canvas.Viewport{}, err
	}
	m, err := Select(monitors, selector)
	if err != nil {
		return canvas.Viewport{}, err
	}
	return m.Viewport(), nil
}

// ProbeOr returns the probed viewport, or fallback when probing fails.
func ProbeOr(selector string, fallback canvas.Viewport) canvas.Viewport {
	v, err := Probe(selector)
	if err != nil || v.Width <= 0 || v.Height <= 0 {
		return fallback
	}
	return v
}
