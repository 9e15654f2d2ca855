// Package tools turns pointer input into committed annotations according to
// the active editing mode.
package tools

import (
	"fmt"
	"image/color"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/example/panelmark/internal/surface"
)

// Mode is the active editing tool.
type Mode int

const (
	Draw Mode = iota
	Line
	Erase
	Text
)

var modeNames = []string{"draw", "line", "erase", "text"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// Modes lists every mode in declaration order.
func Modes() []Mode { return []Mode{Draw, Line, Erase, Text} }

// ParseMode maps a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range modeNames {
		if n == name {
			return Mode(i), nil
		}
	}
	return Draw, fmt.Errorf("unknown tool %q", s)
}

const (
	// DrawWidth is the stroke width for freehand ink and lines.
	DrawWidth = 2
	// EraseWidth is the eraser brush width.
	EraseWidth = 10
)

// Canvas is the part of a surface the controller writes to.
type Canvas interface {
	AddStroke(surface.Stroke) error
	Epoch() uint64
}

// Resolver returns the currently selected canvas.
type Resolver func() (key string, c Canvas, ok bool)

// TextRequest asks the host to collect a text value for a position. The
// value comes back through the editor keyed by ID.
type TextRequest struct {
	ID     string `json:"id"`
	Canvas string `json:"canvas"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	// Epoch is the annotation epoch of the canvas when the request was made.
	Epoch uint64 `json:"-"`
}

type gesture struct {
	key    string
	canvas Canvas
	mode   Mode
	points []surface.Point
}

// Controller dispatches pointer input to the selected canvas.
type Controller struct {
	mu      sync.Mutex
	mode    Mode
	ink     color.RGBA
	resolve Resolver
	onText  func(TextRequest)
	newID   func() string
	active  *gesture
}

// Option configures a Controller.
type Option func(*Controller)

// WithResolver sets how the selected canvas is found.
func WithResolver(r Resolver) Option { return func(c *Controller) { c.resolve = r } }

// WithTextSink receives text requests raised in Text mode.
func WithTextSink(fn func(TextRequest)) Option { return func(c *Controller) { c.onText = fn } }

// WithInk sets the ink colour for Draw and Line.
func WithInk(col color.RGBA) Option { return func(c *Controller) { c.ink = col } }

// WithIDs replaces the text request id generator.
func WithIDs(fn func() string) Option { return func(c *Controller) { c.newID = fn } }

// New returns a Controller in Draw mode.
func New(opts ...Option) *Controller {
	c := &Controller{
		mode:  Draw,
		ink:   color.RGBA{A: 0xff},
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Mode returns the active mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetMode switches tools. Any gesture in progress is dropped; committed
// objects are untouched.
func (c *Controller) SetMode(m Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = m
	c.active = nil
}

// Press starts a gesture at (x, y) on the selected canvas. It reports
// whether a canvas was selected.
func (c *Controller) Press(x, y int) bool {
	if c.resolve == nil {
		return false
	}
	key, canvas, ok := c.resolve()
	if !ok {
		return false
	}
	c.mu.Lock()
	mode := c.mode
	if mode == Text {
		c.active = nil
		req := TextRequest{ID: c.newID(), Canvas: key, X: x, Y: y, Epoch: canvas.Epoch()}
		sink := c.onText
		c.mu.Unlock()
		if sink != nil {
			sink(req)
		}
		return true
	}
	c.active = &gesture{key: key, canvas: canvas, mode: mode, points: []surface.Point{pt(x, y)}}
	c.mu.Unlock()
	return true
}

// Move extends the gesture in progress.
func (c *Controller) Move(x, y int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g := c.active
	if g == nil {
		return
	}
	p := pt(x, y)
	switch g.mode {
	case Line:
		g.points = append(g.points[:1], p)
	default:
		if last := g.points[len(g.points)-1]; last != p {
			g.points = append(g.points, p)
		}
	}
}

// Release finishes the gesture at (x, y) and commits it.
func (c *Controller) Release(x, y int) error {
	c.mu.Lock()
	g := c.active
	c.active = nil
	if g == nil {
		c.mu.Unlock()
		return nil
	}
	stroke := c.strokeFor(g, pt(x, y))
	c.mu.Unlock()
	if err := g.canvas.AddStroke(stroke); err != nil {
		return fmt.Errorf("commit %s on %s: %w", g.mode, g.key, err)
	}
	return nil
}

// Preview returns the uncommitted stroke, if any, for live display.
func (c *Controller) Preview() (key string, s surface.Stroke, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return "", surface.Stroke{}, false
	}
	g := c.active
	st := c.strokeFor(g, g.points[len(g.points)-1])
	return g.key, st, true
}

func (c *Controller) strokeFor(g *gesture, end surface.Point) surface.Stroke {
	switch g.mode {
	case Line:
		return surface.Stroke{Kind: surface.Ink, Points: []surface.Point{g.points[0], end}, Width: DrawWidth, Color: c.ink}
	case Erase:
		return surface.Stroke{Kind: surface.Erase, Points: appendPoint(g.points, end), Width: EraseWidth}
	default:
		return surface.Stroke{Kind: surface.Ink, Points: appendPoint(g.points, end), Width: DrawWidth, Color: c.ink}
	}
}

func appendPoint(pts []surface.Point, p surface.Point) []surface.Point {
	out := append([]surface.Point(nil), pts...)
	if out[len(out)-1] != p {
		out = append(out, p)
	}
	return out
}

func pt(x, y int) surface.Point { return surface.Point{X: float64(x), Y: float64(y)} }
