package appstate

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/mobile/event/key"

	"github.com/example/panelmark/internal/theme"
)

// KeyShortcut identifies a key chord. Rune and Code are alternatives; the
// zero value of either is ignored when matching.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// ButtonState describes the visual state of a button.
type ButtonState int

const (
	StateDefault ButtonState = iota
	StateHover
	StatePressed
)

// Button represents an interactive UI element.
// Activate performs the button's action when clicked.
type Button interface {
	Draw(dst *image.RGBA, state ButtonState)
	Rect() image.Rectangle
	SetRect(r image.Rectangle)
	Activate()
}

// CacheButton wraps another Button and caches its rendered states.
type CacheButton struct {
	Button
	cache [3]*image.RGBA
}

var _ Button = (*CacheButton)(nil)

func (cb *CacheButton) Draw(dst *image.RGBA, state ButtonState) {
	if cb.cache[state] == nil {
		rect := cb.Button.Rect()
		img := image.NewRGBA(rect)
		cb.Button.Draw(img, state)
		cb.cache[state] = img
	}
	draw.Draw(dst, cb.Button.Rect(), cb.cache[state], cb.Button.Rect().Min, draw.Src)
}

func (cb *CacheButton) SetRect(r image.Rectangle) {
	if r != cb.Button.Rect() {
		cb.Button.SetRect(r)
		cb.Invalidate()
	}
}

// Invalidate drops the cached renderings.
func (cb *CacheButton) Invalidate() { cb.cache = [3]*image.RGBA{} }

// ActionButton is a labelled button in the toolbar or shortcut bar.
type ActionButton struct {
	label      string
	theme      *theme.Theme
	rect       image.Rectangle
	onActivate func()
}

func (b *ActionButton) Draw(dst *image.RGBA, state ButtonState) {
	fillRect(dst, b.rect, buttonColour(b.theme, state))
	outline(dst, b.rect, b.theme.ButtonBorder)
	drawLabel(dst, b.rect.Min.X+4, b.rect.Min.Y+16, b.label, b.theme.ButtonText)
}

func (b *ActionButton) Rect() image.Rectangle     { return b.rect }
func (b *ActionButton) SetRect(r image.Rectangle) { b.rect = r }

func (b *ActionButton) Activate() {
	if b.onActivate != nil {
		b.onActivate()
	}
}

// CanvasTab is a header tab selecting one canvas. The accent runs along
// its bottom edge.
type CanvasTab struct {
	key      string
	label    string
	accent   color.RGBA
	theme    *theme.Theme
	rect     image.Rectangle
	onSelect func(key string)
}

func (t *CanvasTab) Draw(dst *image.RGBA, state ButtonState) {
	bg := t.theme.StripBackground
	switch state {
	case StateHover:
		bg = t.theme.ButtonBackgroundHover
	case StatePressed:
		bg = t.theme.ButtonBackgroundActive
	}
	fillRect(dst, t.rect, bg)
	fillRect(dst, image.Rect(t.rect.Min.X, t.rect.Max.Y-3, t.rect.Max.X, t.rect.Max.Y), t.accent)
	drawLabel(dst, t.rect.Min.X+6, t.rect.Min.Y+17, t.label, t.theme.StripText)
}

func (t *CanvasTab) Rect() image.Rectangle     { return t.rect }
func (t *CanvasTab) SetRect(r image.Rectangle) { t.rect = r }

func (t *CanvasTab) Activate() {
	if t.onSelect != nil {
		t.onSelect(t.key)
	}
}

func buttonColour(th *theme.Theme, state ButtonState) color.RGBA {
	switch state {
	case StateHover:
		return th.ButtonBackgroundHover
	case StatePressed:
		return th.ButtonBackgroundActive
	}
	return th.ButtonBackground
}

func fillRect(dst *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, &image.Uniform{c}, image.Point{}, draw.Src)
}

func outline(dst *image.RGBA, r image.Rectangle, c color.Color) {
	fillRect(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), c)
	fillRect(dst, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), c)
	fillRect(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), c)
	fillRect(dst, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), c)
}

func drawLabel(dst *image.RGBA, x, y int, s string, c color.Color) {
	d := &font.Drawer{Dst: dst, Src: &image.Uniform{c}, Face: basicfont.Face7x13, Dot: fixed.P(x, y)}
	d.DrawString(s)
}

func labelWidth(s string) int {
	d := &font.Drawer{Face: basicfont.Face7x13}
	return d.MeasureString(s).Ceil()
}
