package appstate

import (
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/example/panelmark/internal/canvas"
)

const (
	stripHeight  = 28
	bottomHeight = 24
	buttonHeight = 24
	toolGap      = 8
	canvasPad    = 16
)

var toolbarWidth = 72

// chrome splits a window into its fixed regions.
type chrome struct {
	strip   image.Rectangle
	toolbar image.Rectangle
	bottom  image.Rectangle
	area    image.Rectangle
}

func layoutChrome(width, height int) chrome {
	return chrome{
		strip:   image.Rect(0, 0, width, stripHeight),
		toolbar: image.Rect(0, stripHeight, toolbarWidth, height-bottomHeight),
		bottom:  image.Rect(0, height-bottomHeight, width, height),
		area:    image.Rect(toolbarWidth, stripHeight, width, height-bottomHeight),
	}
}

// viewport is what the responsive layout sees: the area beside the toolbar.
func (c chrome) viewport() canvas.Viewport {
	return canvas.Viewport{Width: c.area.Dx(), Height: c.area.Dy() + c.strip.Dy() + c.bottom.Dy()}
}

// placeCanvas centres a w×h canvas in area, pinned to the top-left padding
// when it does not fit.
func placeCanvas(area image.Rectangle, w, h int) image.Rectangle {
	x := area.Min.X + (area.Dx()-w)/2
	y := area.Min.Y + (area.Dy()-h)/2
	if x < area.Min.X+canvasPad {
		x = area.Min.X + canvasPad
	}
	if y < area.Min.Y+canvasPad {
		y = area.Min.Y + canvasPad
	}
	return image.Rect(x, y, x+w, y+h)
}

// toCanvas maps a window point onto canvas pixels.
func toCanvas(placed image.Rectangle, p image.Point) image.Point {
	return p.Sub(placed.Min)
}

// hit returns the index of the first rectangle containing p, or -1.
func hit(rects []image.Rectangle, p image.Point) int {
	for i, r := range rects {
		if p.In(r) {
			return i
		}
	}
	return -1
}

// stackButtons lays n buttons top to bottom inside bar, leaving a gap
// before each index listed in breaks.
func stackButtons(bar image.Rectangle, n int, breaks ...int) []image.Rectangle {
	gapBefore := map[int]bool{}
	for _, b := range breaks {
		gapBefore[b] = true
	}
	rects := make([]image.Rectangle, n)
	y := bar.Min.Y
	for i := range rects {
		if gapBefore[i] {
			y += toolGap
		}
		rects[i] = image.Rect(bar.Min.X, y, bar.Max.X, y+buttonHeight)
		y += buttonHeight
	}
	return rects
}

// rowButtons lays buttons left to right inside bar, each as wide as its
// label plus padding.
func rowButtons(bar image.Rectangle, labels []string) []image.Rectangle {
	d := &font.Drawer{Face: basicfont.Face7x13}
	rects := make([]image.Rectangle, len(labels))
	x := bar.Min.X
	for i, l := range labels {
		w := d.MeasureString(l).Ceil() + 12
		rects[i] = image.Rect(x, bar.Min.Y, x+w, bar.Max.Y)
		x += w
	}
	return rects
}

// fitToolbar widens the toolbar so every label fits.
func fitToolbar(labels []string) {
	d := &font.Drawer{Face: basicfont.Face7x13}
	for _, l := range labels {
		if w := d.MeasureString(l).Ceil() + 8; w > toolbarWidth {
			toolbarWidth = w
		}
	}
}
