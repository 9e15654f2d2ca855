package surface

import (
	"image"
	"image/color"
)

// StrokeKind distinguishes ink from eraser strokes.
type StrokeKind int

const (
	// Ink strokes paint with their own colour.
	Ink StrokeKind = iota
	// Erase strokes paint with the surface fill colour.
	Erase
)

func (k StrokeKind) String() string {
	switch k {
	case Ink:
		return "ink"
	case Erase:
		return "erase"
	}
	return "unknown"
}

// Point is a surface-space position in pixels.
type Point struct {
	X, Y float64
}

// Stroke is a committed freehand path or straight segment.
type Stroke struct {
	Kind   StrokeKind
	Points []Point
	Width  float64
	// Color is ignored for Erase strokes.
	Color color.RGBA
}

// DefaultTextSize is the point size of text annotations.
const DefaultTextSize = 16

// Text is a committed text annotation anchored at its top-left corner.
type Text struct {
	X, Y  int
	Value string
	Size  float64
	Color color.RGBA
}

// LogoBox is the bounding square logos are shrunk to fit.
const LogoBox = 80

// Stamp is a placed logo image.
type Stamp struct {
	Name  string
	Image *image.RGBA
	Rect  image.Rectangle
	Scale float64
}

// Placement is the committed background image and where it sits.
type Placement struct {
	// Source is the decoded upload at its original size.
	Source image.Image
	// Scaled is Source resampled to Rect's size.
	Scaled *image.RGBA
	Rect   image.Rectangle
	Scale  float64
}

// CropOverlay is the accent outline framing the exportable area. It is
// drawn above every other layer and is never part of an export.
type CropOverlay struct {
	Rect   image.Rectangle
	Color  color.RGBA
	Stroke int
}

// State is the per-canvas record of what was uploaded and placed.
type State struct {
	Image     *Placement
	Crop      CropOverlay
	Encoding  []byte
	MediaType string
}

// Uploaded reports whether a background has been committed.
func (s State) Uploaded() bool { return s.Image != nil }

// LayerKind identifies a rendering layer.
type LayerKind int

const (
	LayerBackground LayerKind = iota
	LayerInk
	LayerText
	LayerStamp
	LayerCrop
)

func (k LayerKind) String() string {
	switch k {
	case LayerBackground:
		return "background"
	case LayerInk:
		return "ink"
	case LayerText:
		return "text"
	case LayerStamp:
		return "stamp"
	case LayerCrop:
		return "crop"
	}
	return "unknown"
}

// Layer describes one object in paint order.
type Layer struct {
	Kind LayerKind
	// Index is the position of the object within its kind.
	Index  int
	Bounds image.Rectangle
}
