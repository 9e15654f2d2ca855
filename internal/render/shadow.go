// Package render holds compositing helpers for the editor window.
package render

import (
	"image"
	"image/color"
	"image/draw"
)

// ShadowOptions configures the drop shadow drawn under a canvas card.
type ShadowOptions struct {
	Radius  int
	Offset  image.Point
	Opacity float64
}

// DefaultShadowOptions returns a soft shadow suited to canvases on a light
// backdrop.
func DefaultShadowOptions() ShadowOptions {
	return ShadowOptions{
		Radius:  8,
		Offset:  image.Pt(3, 5),
		Opacity: 0.3,
	}
}

// Shadow is a pre-blurred mask for one card size. Building the mask is the
// expensive part, so callers keep a Shadow until the card is resized.
type Shadow struct {
	mask *image.Alpha
	size image.Point
	opts ShadowOptions
}

// NewShadow blurs a solid w×h card with opts.
func NewShadow(w, h int, opts ShadowOptions) *Shadow {
	s := &Shadow{size: image.Pt(w, h), opts: opts}
	if w <= 0 || h <= 0 || opts.Opacity <= 0 {
		return s
	}
	if opts.Opacity > 1 {
		s.opts.Opacity = 1
	}
	radius := opts.Radius
	if radius < 0 {
		radius = 0
		s.opts.Radius = 0
	}

	mask := image.NewAlpha(image.Rect(0, 0, w+2*radius, h+2*radius))
	alpha := uint8(s.opts.Opacity*255 + 0.5)
	draw.Draw(mask, image.Rect(radius, radius, radius+w, radius+h), image.NewUniform(color.Alpha{A: alpha}), image.Point{}, draw.Src)
	s.mask = blurAlpha(mask, radius)
	return s
}

// Fits reports whether s was built for a w×h card.
func (s *Shadow) Fits(w, h int) bool {
	return s != nil && s.size == image.Pt(w, h)
}

// Bounds returns the area the shadow covers for a card placed at card.
func (s *Shadow) Bounds(card image.Rectangle) image.Rectangle {
	if s == nil || s.mask == nil {
		return image.Rectangle{}
	}
	return s.mask.Bounds().Add(card.Min).Add(s.opts.Offset).Sub(image.Pt(s.opts.Radius, s.opts.Radius))
}

// Draw composites the shadow onto dst for a card placed at card. The card
// itself is drawn afterwards by the caller.
func (s *Shadow) Draw(dst draw.Image, card image.Rectangle, shade color.Color) {
	if s == nil || s.mask == nil {
		return
	}
	r := s.Bounds(card)
	draw.DrawMask(dst, r, image.NewUniform(shade), image.Point{}, s.mask, image.Point{}, draw.Over)
}

// blurAlpha applies a separable box blur using running prefix sums.
func blurAlpha(src *image.Alpha, radius int) *image.Alpha {
	if radius <= 0 {
		out := image.NewAlpha(src.Bounds())
		copy(out.Pix, src.Pix)
		return out
	}
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	tmp := image.NewAlpha(bounds)
	dst := image.NewAlpha(bounds)

	prefix := make([]int, max(w, h)+1)
	for y := 0; y < h; y++ {
		row := y * src.Stride
		for x := 0; x < w; x++ {
			prefix[x+1] = prefix[x] + int(src.Pix[row+x])
		}
		for x := 0; x < w; x++ {
			x0, x1 := max(x-radius, 0), min(x+radius, w-1)
			tmp.Pix[y*tmp.Stride+x] = uint8((prefix[x1+1] - prefix[x0]) / (x1 - x0 + 1))
		}
	}

	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			prefix[y+1] = prefix[y] + int(tmp.Pix[y*tmp.Stride+x])
		}
		for y := 0; y < h; y++ {
			y0, y1 := max(y-radius, 0), min(y+radius, h-1)
			dst.Pix[y*dst.Stride+x] = uint8((prefix[y1+1] - prefix[y0]) / (y1 - y0 + 1))
		}
	}
	return dst
}
