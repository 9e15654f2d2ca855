package surface

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

var (
	fontOnce  sync.Once
	fontErr   error
	textFont  *opentype.Font
	textFaces sync.Map // map[float64]font.Face
	// faceMu serialises use of cached faces, which keep per-face buffers.
	faceMu sync.Mutex
)

func faceForSize(size float64) (font.Face, error) {
	if size <= 0 {
		size = DefaultTextSize
	}
	fontOnce.Do(func() {
		textFont, fontErr = opentype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		return nil, fmt.Errorf("parse font: %w", fontErr)
	}
	if face, ok := textFaces.Load(size); ok {
		return face.(font.Face), nil
	}
	face, err := opentype.NewFace(textFont, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, err
	}
	textFaces.Store(size, face)
	return face, nil
}

// MeasureText returns the bounding box of text rendered at size and the
// offset of the baseline from the top.
func MeasureText(text string, size float64) (width, height, baseline int, err error) {
	face, err := faceForSize(size)
	if err != nil {
		return 0, 0, 0, err
	}
	faceMu.Lock()
	defer faceMu.Unlock()
	drawer := &font.Drawer{Face: face}
	width = drawer.MeasureString(text).Ceil()
	metrics := face.Metrics()
	baseline = metrics.Ascent.Ceil()
	height = baseline + metrics.Descent.Ceil()
	return width, height, baseline, nil
}

// DrawText renders text with its top-left corner at (x, y).
func DrawText(img *image.RGBA, x, y int, text string, col color.Color, size float64) error {
	face, err := faceForSize(size)
	if err != nil {
		return err
	}
	faceMu.Lock()
	defer faceMu.Unlock()
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y+face.Metrics().Ascent.Ceil()),
	}
	drawer.DrawString(text)
	return nil
}

// Render flattens the surface. The crop overlay is drawn only when
// includeOverlay is set. Render never mutates the surface.
func (s *Surface) Render(includeOverlay bool) *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()

	dst := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(s.fill), image.Point{}, draw.Src)

	if bg := s.state.Image; bg != nil {
		draw.Draw(dst, bg.Rect, bg.Scaled, image.Point{}, draw.Over)
	}
	for _, st := range s.strokes {
		DrawStroke(dst, st, s.fill)
	}
	for _, t := range s.texts {
		// A face error leaves the text out; rendering stays total.
		_ = DrawText(dst, t.X, t.Y, t.Value, t.Color, t.Size)
	}
	for _, st := range s.stamps {
		draw.Draw(dst, st.Rect, st.Image, image.Point{}, draw.Over)
	}
	if includeOverlay {
		c := s.state.Crop
		drawRect(dst, c.Rect, c.Color, c.Stroke)
	}
	return dst
}

// ExportRaster flattens the surface without the crop overlay.
func (s *Surface) ExportRaster() *image.RGBA { return s.Render(false) }

// ExportPNG encodes ExportRaster as PNG. Identical surfaces produce
// identical bytes.
func (s *Surface) ExportPNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.ExportRaster()); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// DrawStroke paints st onto dst the same way Render does. Erase strokes
// take fill.
func DrawStroke(dst *image.RGBA, st Stroke, fill color.RGBA) {
	col := st.Color
	if st.Kind == Erase {
		col = fill
	}
	drawStroke(dst, st.Points, st.Width, col)
}

// drawStroke rasterises a polyline of the given width with round joins and
// caps. Every sub-path is emitted with the same winding so overlapping
// pieces never cancel out.
func drawStroke(dst *image.RGBA, pts []Point, width float64, col color.Color) {
	if len(pts) == 0 || width <= 0 {
		return
	}
	b := dst.Bounds()
	r := vector.NewRasterizer(b.Dx(), b.Dy())
	hw := width / 2
	for i, p := range pts {
		disc(r, p, hw)
		if i == 0 {
			continue
		}
		segment(r, pts[i-1], p, hw)
	}
	r.Draw(dst, b, image.NewUniform(col), image.Point{})
}

func segment(r *vector.Rasterizer, a, b Point, hw float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	nx, ny := -dy/l*hw, dx/l*hw
	r.MoveTo(float32(a.X+nx), float32(a.Y+ny))
	r.LineTo(float32(b.X+nx), float32(b.Y+ny))
	r.LineTo(float32(b.X-nx), float32(b.Y-ny))
	r.LineTo(float32(a.X-nx), float32(a.Y-ny))
	r.ClosePath()
}

const discSegments = 16

func disc(r *vector.Rasterizer, c Point, radius float64) {
	// Walk clockwise in y-down space to match segment winding.
	for i := 0; i <= discSegments; i++ {
		t := -2 * math.Pi * float64(i) / discSegments
		x := float32(c.X + radius*math.Cos(t))
		y := float32(c.Y + radius*math.Sin(t))
		if i == 0 {
			r.MoveTo(x, y)
			continue
		}
		r.LineTo(x, y)
	}
	r.ClosePath()
}

// drawRect outlines rect with a border thick pixels wide, inset so the
// whole border stays inside rect.
func drawRect(img *image.RGBA, rect image.Rectangle, col color.Color, thick int) {
	if thick <= 0 || rect.Empty() {
		return
	}
	src := image.NewUniform(col)
	edges := []image.Rectangle{
		image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+thick),
		image.Rect(rect.Min.X, rect.Max.Y-thick, rect.Max.X, rect.Max.Y),
		image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+thick, rect.Max.Y),
		image.Rect(rect.Max.X-thick, rect.Min.Y, rect.Max.X, rect.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(img, e.Intersect(img.Bounds()), src, image.Point{}, draw.Src)
	}
}

func strokeBounds(st Stroke) image.Rectangle {
	if len(st.Points) == 0 {
		return image.Rectangle{}
	}
	minX, minY := st.Points[0].X, st.Points[0].Y
	maxX, maxY := minX, minY
	for _, p := range st.Points[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	hw := st.Width / 2
	return image.Rect(
		int(math.Floor(minX-hw)), int(math.Floor(minY-hw)),
		int(math.Ceil(maxX+hw)), int(math.Ceil(maxY+hw)),
	)
}

func textBounds(t Text) image.Rectangle {
	w, h, _, err := MeasureText(t.Value, t.Size)
	if err != nil {
		return image.Rect(t.X, t.Y, t.X, t.Y)
	}
	return image.Rect(t.X, t.Y, t.X+w, t.Y+h)
}
