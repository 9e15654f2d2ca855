package canvas

import "math"

// Viewport is the size of the area the canvases are laid out in.
type Viewport struct {
	Width  int
	Height int
}

// Layout holds the bounds used to size responsive canvases.
type Layout struct {
	// Margin is subtracted from the viewport width.
	Margin int
	// MaxWidth caps the usable width regardless of viewport.
	MaxWidth int
	// HeightFraction is the share of the viewport height a canvas may use.
	HeightFraction float64
	// MaxHeight caps the usable height regardless of viewport.
	MaxHeight int
	// MinWidth is the narrowest a responsive canvas may become.
	MinWidth int
}

// DefaultLayout returns the production layout bounds.
func DefaultLayout() Layout {
	return Layout{
		Margin:         64,
		MaxWidth:       800,
		HeightFraction: 0.6,
		MaxHeight:      600,
		MinWidth:       280,
	}
}

// Bounds returns the maximum width and height a responsive canvas may take
// in the viewport.
func (l Layout) Bounds(v Viewport) (maxWidth, maxHeight float64) {
	maxWidth = math.Min(float64(v.Width-l.Margin), float64(l.MaxWidth))
	maxHeight = math.Min(float64(v.Height)*l.HeightFraction, float64(l.MaxHeight))
	return maxWidth, maxHeight
}

// Compute returns the pixel size of c in the viewport. Fixed configs are
// returned unchanged. Responsive configs bind the dominant axis first
// (width when wider than tall, height otherwise) and derive the other axis
// from the truncated value so the ratio survives the integer conversion.
func (l Layout) Compute(v Viewport, c Config) (width, height int) {
	if !c.Responsive() {
		return c.Width, c.Height
	}
	ratio := c.Ratio()
	maxWidth, maxHeight := l.Bounds(v)

	if ratio > 1 {
		width = int(math.Min(maxWidth, maxHeight*ratio))
		height = int(float64(width) / ratio)
	} else {
		height = int(math.Min(maxHeight, maxWidth/ratio))
		width = int(float64(height) * ratio)
	}

	if width < l.MinWidth {
		width = l.MinWidth
		height = int(float64(width) / ratio)
	}
	return width, height
}
