package render

import (
	"image"
	"image/color"
	"testing"
)

func TestShadowBoundsFollowOffset(t *testing.T) {
	opts := ShadowOptions{Radius: 4, Offset: image.Pt(8, 6), Opacity: 0.5}
	s := NewShadow(10, 10, opts)
	card := image.Rect(100, 50, 110, 60)
	want := image.Rect(104, 52, 122, 70)
	if got := s.Bounds(card); !got.Eq(want) {
		t.Fatalf("bounds %v, want %v", got, want)
	}
	if !s.Fits(10, 10) || s.Fits(10, 11) {
		t.Fatalf("Fits mismatch")
	}
}

func TestShadowNoOpWhenOpacityZero(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
	fill := color.RGBA{R: 200, G: 100, B: 50, A: 255}
	for i := 0; i < len(dst.Pix); i += 4 {
		dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2], dst.Pix[i+3] = fill.R, fill.G, fill.B, fill.A
	}
	s := NewShadow(4, 4, ShadowOptions{Radius: 3, Offset: image.Pt(2, 2), Opacity: 0})
	s.Draw(dst, image.Rect(5, 5, 9, 9), color.Black)
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			if got := dst.RGBAAt(x, y); got != fill {
				t.Fatalf("pixel (%d,%d) changed to %+v", x, y, got)
			}
		}
	}
}

func TestShadowBlurredEdge(t *testing.T) {
	opts := ShadowOptions{Radius: 2, Offset: image.Pt(3, 0), Opacity: 1}
	s := NewShadow(6, 6, opts)
	dst := image.NewRGBA(image.Rect(0, 0, 30, 30))
	card := image.Rect(10, 10, 16, 16)
	s.Draw(dst, card, color.Black)

	centre := card.Min.Add(opts.Offset).Add(image.Pt(3, 3))
	if a := dst.RGBAAt(centre.X, centre.Y).A; a != 255 {
		t.Fatalf("centre alpha %d, want 255", a)
	}
	// Blur spreads alpha past the card edge but fades it.
	edge := image.Pt(card.Max.X+opts.Offset.X, centre.Y)
	if a := dst.RGBAAt(edge.X, edge.Y).A; a == 0 || a == 255 {
		t.Fatalf("edge alpha %d, want partial", a)
	}
	if a := dst.RGBAAt(0, 0).A; a != 0 {
		t.Fatalf("far pixel alpha %d", a)
	}
}
