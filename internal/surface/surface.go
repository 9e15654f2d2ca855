// Package surface holds the layered drawing state of a single canvas and
// flattens it into raster images.
package surface

import (
	"errors"
	"image"
	"image/color"
	"sync"

	xdraw "golang.org/x/image/draw"
)

var (
	// ErrDecode reports bytes that could not be decoded as an image.
	ErrDecode = errors.New("decode failure")
	// ErrSuperseded reports a load dropped because the surface moved on
	// (a newer upload, a removal, a clear or a reset) before it finished.
	ErrSuperseded = errors.New("superseded")
	// ErrEmptyStroke reports a stroke without points.
	ErrEmptyStroke = errors.New("stroke has no points")
)

// DefaultFill is the workspace background colour. Erasing paints with it.
var DefaultFill = color.RGBA{0xf8, 0xf9, 0xfa, 0xff}

// CropStroke is the width of the crop overlay outline.
const CropStroke = 2

// NoticeKind classifies what happened to an asynchronous load.
type NoticeKind int

const (
	ImageCommitted NoticeKind = iota
	ImageDiscarded
	ImageFailed
	LogoCommitted
	LogoDiscarded
)

// Notice is delivered to the observer after an asynchronous load resolves.
type Notice struct {
	Kind NoticeKind
	Name string
	Err  error
}

// Surface is one canvas: a background, annotation layers and the crop
// overlay. All methods are safe for concurrent use.
type Surface struct {
	mu sync.Mutex

	width, height int
	fill          color.RGBA
	accent        color.RGBA
	decode        Decoder
	observer      func(Notice)

	state   State
	strokes []Stroke
	texts   []Text
	stamps  []Stamp

	// generation advances whenever the background slot changes hands; a
	// decode that started under an older generation is discarded.
	generation uint64
	// epoch advances whenever annotations are wiped.
	epoch uint64
}

// Option configures a Surface.
type Option func(*Surface)

// WithFill sets the workspace fill colour.
func WithFill(c color.RGBA) Option { return func(s *Surface) { s.fill = c } }

// WithAccent sets the crop overlay colour.
func WithAccent(c color.RGBA) Option { return func(s *Surface) { s.accent = c } }

// WithDecoder replaces the image decoder.
func WithDecoder(d Decoder) Option { return func(s *Surface) { s.decode = d } }

// WithObserver registers a callback for asynchronous load outcomes. It is
// called without the surface lock held.
func WithObserver(fn func(Notice)) Option { return func(s *Surface) { s.observer = fn } }

// New returns an empty surface of the given pixel size.
func New(width, height int, opts ...Option) *Surface {
	s := &Surface{
		width:  width,
		height: height,
		fill:   DefaultFill,
		accent: color.RGBA{A: 0xff},
		decode: Decode,
	}
	for _, o := range opts {
		o(s)
	}
	s.state.Crop = s.freshCrop()
	return s
}

func (s *Surface) freshCrop() CropOverlay {
	return CropOverlay{
		Rect:   image.Rect(0, 0, s.width, s.height),
		Color:  s.accent,
		Stroke: CropStroke,
	}
}

func (s *Surface) emit(n Notice) {
	if s.observer != nil {
		s.observer(n)
	}
}

// Size returns the current pixel dimensions.
func (s *Surface) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Fill returns the surface fill colour.
func (s *Surface) Fill() color.RGBA { return s.fill }

// Generation returns the current background generation.
func (s *Surface) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Epoch returns the current annotation epoch.
func (s *Surface) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// State returns a copy of the canvas record. The returned Encoding aliases
// surface memory and must not be modified.
func (s *Surface) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	if st.Image != nil {
		p := *st.Image
		st.Image = &p
	}
	return st
}

// Strokes returns the committed strokes in paint order.
func (s *Surface) Strokes() []Stroke {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Stroke(nil), s.strokes...)
}

// Texts returns the committed text annotations.
func (s *Surface) Texts() []Text {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Text(nil), s.texts...)
}

// Stamps returns the placed logos.
func (s *Surface) Stamps() []Stamp {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Stamp(nil), s.stamps...)
}

// AddImage decodes data in the background and, unless superseded in the
// meantime, replaces the background with it.
func (s *Surface) AddImage(data []byte, mediaType string) *Pending {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	buf := append([]byte(nil), data...)
	p := newPending()
	go func() {
		img, err := s.decode(buf)
		if err != nil {
			if !errors.Is(err, ErrDecode) {
				err = errors.Join(ErrDecode, err)
			}
			p.finish(false, err)
			s.emit(Notice{Kind: ImageFailed, Err: err})
			return
		}
		s.mu.Lock()
		if gen != s.generation {
			s.mu.Unlock()
			p.finish(false, ErrSuperseded)
			s.emit(Notice{Kind: ImageDiscarded, Err: ErrSuperseded})
			return
		}
		s.state.Image = fit(img, s.width, s.height)
		s.state.Encoding = buf
		s.state.MediaType = mediaType
		s.state.Crop = s.freshCrop()
		s.mu.Unlock()
		p.finish(true, nil)
		s.emit(Notice{Kind: ImageCommitted})
	}()
	return p
}

// RemoveImage drops the background and its encoding. Loads still in flight
// are discarded when they finish.
func (s *Surface) RemoveImage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.state.Image = nil
	s.state.Encoding = nil
	s.state.MediaType = ""
}

// AddText inserts a text annotation. An empty value is ignored and reported
// as false.
func (s *Surface) AddText(x, y int, value string, col color.RGBA) bool {
	if value == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, Text{X: x, Y: y, Value: value, Size: DefaultTextSize, Color: col})
	return true
}

// AddTextAt inserts text only if the annotation epoch still equals epoch.
// It reports whether the text was inserted.
func (s *Surface) AddTextAt(epoch uint64, x, y int, value string, col color.RGBA) bool {
	if value == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return false
	}
	s.texts = append(s.texts, Text{X: x, Y: y, Value: value, Size: DefaultTextSize, Color: col})
	return true
}

// AddLogo decodes data in the background and stamps it at the centre of the
// surface, shrunk to fit LogoBox when larger. A clear or reset before the
// decode finishes drops the logo.
func (s *Surface) AddLogo(name string, data []byte) *Pending {
	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	p := newPending()
	go func() {
		img, err := s.decode(data)
		if err != nil {
			p.finish(false, err)
			s.emit(Notice{Kind: LogoDiscarded, Name: name, Err: err})
			return
		}
		s.mu.Lock()
		if epoch != s.epoch {
			s.mu.Unlock()
			p.finish(false, ErrSuperseded)
			s.emit(Notice{Kind: LogoDiscarded, Name: name, Err: ErrSuperseded})
			return
		}
		s.stamps = append(s.stamps, stamp(name, img, s.width, s.height))
		s.mu.Unlock()
		p.finish(true, nil)
		s.emit(Notice{Kind: LogoCommitted, Name: name})
	}()
	return p
}

// AddStroke commits an ink or erase stroke.
func (s *Surface) AddStroke(st Stroke) error {
	if len(st.Points) == 0 {
		return ErrEmptyStroke
	}
	st.Points = append([]Point(nil), st.Points...)
	if st.Kind == Erase {
		st.Color = s.fill
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strokes = append(s.strokes, st)
	return nil
}

// ClearAnnotations removes strokes, text and logos. The background and the
// crop overlay stay.
func (s *Surface) ClearAnnotations() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strokes = nil
	s.texts = nil
	s.stamps = nil
	s.epoch++
}

// Reset returns the surface to its freshly created state at its current
// size.
func (s *Surface) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.epoch++
	s.strokes = nil
	s.texts = nil
	s.stamps = nil
	s.state = State{Crop: s.freshCrop()}
}

// Resize changes the pixel size. The background is refitted and the crop
// overlay follows; annotations keep their absolute coordinates.
func (s *Surface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if width == s.width && height == s.height {
		return
	}
	s.width, s.height = width, height
	if s.state.Image != nil {
		s.state.Image = fit(s.state.Image.Source, width, height)
	}
	s.state.Crop = s.freshCrop()
}

// Layers lists every object bottom to top.
func (s *Surface) Layers() []Layer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Layer
	if s.state.Image != nil {
		out = append(out, Layer{Kind: LayerBackground, Bounds: s.state.Image.Rect})
	}
	for i, st := range s.strokes {
		out = append(out, Layer{Kind: LayerInk, Index: i, Bounds: strokeBounds(st)})
	}
	for i, t := range s.texts {
		out = append(out, Layer{Kind: LayerText, Index: i, Bounds: textBounds(t)})
	}
	for i, st := range s.stamps {
		out = append(out, Layer{Kind: LayerStamp, Index: i, Bounds: st.Rect})
	}
	out = append(out, Layer{Kind: LayerCrop, Bounds: s.state.Crop.Rect})
	return out
}

// fit scales img uniformly to fit width×height and centres it.
func fit(img image.Image, width, height int) *Placement {
	b := img.Bounds()
	scale := min(float64(width)/float64(b.Dx()), float64(height)/float64(b.Dy()))
	w := max(1, int(float64(b.Dx())*scale+0.5))
	h := max(1, int(float64(b.Dy())*scale+0.5))
	x := (width - w) / 2
	y := (height - h) / 2
	return &Placement{
		Source: img,
		Scaled: resample(img, w, h),
		Rect:   image.Rect(x, y, x+w, y+h),
		Scale:  scale,
	}
}

func stamp(name string, img image.Image, width, height int) Stamp {
	b := img.Bounds()
	scale := 1.0
	if b.Dx() > LogoBox || b.Dy() > LogoBox {
		scale = min(float64(LogoBox)/float64(b.Dx()), float64(LogoBox)/float64(b.Dy()))
	}
	w := max(1, int(float64(b.Dx())*scale+0.5))
	h := max(1, int(float64(b.Dy())*scale+0.5))
	x := (width - w) / 2
	y := (height - h) / 2
	return Stamp{
		Name:  name,
		Image: resample(img, w, h),
		Rect:  image.Rect(x, y, x+w, y+h),
		Scale: scale,
	}
}

func resample(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
		return dst
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
