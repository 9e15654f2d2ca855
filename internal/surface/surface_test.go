package surface

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func solid(w, h int, col color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, col)
		}
	}
	return img
}

func pngBytes(t *testing.T, w, h int, col color.RGBA) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(w, h, col)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

// gatedDecoder holds each decode until its payload is released.
type gatedDecoder struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
}

func newGatedDecoder(keys ...string) *gatedDecoder {
	g := &gatedDecoder{gates: map[string]chan struct{}{}}
	for _, k := range keys {
		g.gates[k] = make(chan struct{})
	}
	return g
}

func (g *gatedDecoder) release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	close(g.gates[key])
}

func (g *gatedDecoder) decode(data []byte) (image.Image, error) {
	g.mu.Lock()
	gate := g.gates[string(data)]
	g.mu.Unlock()
	if gate != nil {
		<-gate
	}
	// Width encodes the payload so tests can tell images apart.
	return solid(10*len(data), 10, color.RGBA{R: 0xff, A: 0xff}), nil
}

func wait(t *testing.T, p *Pending) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	select {
	case <-p.Done():
	case <-ctx.Done():
		t.Fatalf("load did not finish")
	}
}

func TestLaterUploadWinsWhenEarlierFinishesLast(t *testing.T) {
	g := newGatedDecoder("A", "BB")
	s := New(342, 350, WithDecoder(g.decode))

	a := s.AddImage([]byte("A"), "image/png")
	b := s.AddImage([]byte("BB"), "image/png")

	g.release("BB")
	wait(t, b)
	g.release("A")
	wait(t, a)

	if !b.Committed() {
		t.Fatalf("second upload not committed: %v", b.Err())
	}
	if a.Committed() {
		t.Fatalf("first upload committed after being superseded")
	}
	if !errors.Is(a.Err(), ErrSuperseded) {
		t.Fatalf("first upload err = %v, want ErrSuperseded", a.Err())
	}
	st := s.State()
	if string(st.Encoding) != "BB" {
		t.Fatalf("encoding = %q, want BB", st.Encoding)
	}
	if got := st.Image.Source.Bounds().Dx(); got != 20 {
		t.Fatalf("background source width = %d, want 20", got)
	}
}

func TestRemoveDiscardsInFlightUpload(t *testing.T) {
	g := newGatedDecoder("A")
	s := New(320, 346, WithDecoder(g.decode))
	p := s.AddImage([]byte("A"), "image/png")
	s.RemoveImage()
	g.release("A")
	wait(t, p)

	if p.Committed() {
		t.Fatalf("upload committed after removal")
	}
	if s.State().Uploaded() {
		t.Fatalf("surface reports upload after removal")
	}
}

func TestDecodeFailureKeepsPriorBackground(t *testing.T) {
	s := New(342, 350)
	good := pngBytes(t, 100, 100, color.RGBA{B: 0xff, A: 0xff})
	p := s.AddImage(good, "image/png")
	wait(t, p)
	if !p.Committed() {
		t.Fatalf("valid upload failed: %v", p.Err())
	}

	bad := s.AddImage([]byte("not an image"), "image/png")
	wait(t, bad)
	if bad.Committed() {
		t.Fatalf("garbage committed")
	}
	if !errors.Is(bad.Err(), ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", bad.Err())
	}
	if !bytes.Equal(s.State().Encoding, good) {
		t.Fatalf("prior encoding lost")
	}
}

func TestBackgroundCentredAndScaled(t *testing.T) {
	s := New(342, 350)
	p := s.AddImage(pngBytes(t, 684, 350, color.RGBA{G: 0xff, A: 0xff}), "image/png")
	wait(t, p)
	st := s.State()
	if st.Image.Scale != 0.5 {
		t.Fatalf("scale = %v, want 0.5", st.Image.Scale)
	}
	want := image.Rect(0, 87, 342, 262)
	if st.Image.Rect != want {
		t.Fatalf("rect = %v, want %v", st.Image.Rect, want)
	}
}

func TestClearKeepsBackgroundAndCrop(t *testing.T) {
	s := New(320, 346)
	wait(t, s.AddImage(pngBytes(t, 32, 32, color.RGBA{R: 0xff, A: 0xff}), "image/png"))
	if err := s.AddStroke(Stroke{Kind: Ink, Points: []Point{{1, 1}, {20, 20}}, Width: 2}); err != nil {
		t.Fatalf("stroke: %v", err)
	}
	s.AddText(10, 10, "MCCB", color.RGBA{A: 0xff})
	wait(t, s.AddLogo("abb", pngBytes(t, 60, 40, color.RGBA{R: 0xff, A: 0xff})))

	s.ClearAnnotations()

	var kinds []LayerKind
	for _, l := range s.Layers() {
		kinds = append(kinds, l.Kind)
	}
	if diff := cmp.Diff([]LayerKind{LayerBackground, LayerCrop}, kinds); diff != "" {
		t.Fatalf("layers mismatch (-want +got):\n%s", diff)
	}
}

func TestResetRestoresEmptySurface(t *testing.T) {
	s := New(320, 346, WithAccent(color.RGBA{R: 0x10, G: 0xb9, B: 0x81, A: 0xff}))
	wait(t, s.AddImage(pngBytes(t, 32, 32, color.RGBA{R: 0xff, A: 0xff}), "image/png"))
	s.AddText(5, 5, "x", color.RGBA{A: 0xff})
	s.Reset()

	st := s.State()
	if st.Uploaded() || st.Encoding != nil {
		t.Fatalf("background survived reset")
	}
	layers := s.Layers()
	if len(layers) != 1 || layers[0].Kind != LayerCrop {
		t.Fatalf("layers after reset = %v", layers)
	}
	if layers[0].Bounds != image.Rect(0, 0, 320, 346) {
		t.Fatalf("crop bounds = %v", layers[0].Bounds)
	}
}

func TestExportRepeatableAndExcludesCrop(t *testing.T) {
	accent := color.RGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff}
	s := New(342, 350, WithAccent(accent))
	s.AddText(20, 20, "MSB", color.RGBA{A: 0xff})
	if err := s.AddStroke(Stroke{Kind: Ink, Points: []Point{{30, 30}, {100, 120}, {200, 40}}, Width: 2, Color: color.RGBA{A: 0xff}}); err != nil {
		t.Fatalf("stroke: %v", err)
	}

	first, err := s.ExportPNG()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	second, err := s.ExportPNG()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("export not repeatable")
	}

	img, err := png.Decode(bytes.NewReader(first))
	if err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 342, 350) {
		t.Fatalf("export bounds = %v", img.Bounds())
	}
	if got := color.RGBAModel.Convert(img.At(0, 0)); got != DefaultFill {
		t.Fatalf("corner = %v, want fill", got)
	}
	if got := s.Render(true).RGBAAt(0, 0); got != accent {
		t.Fatalf("overlay corner = %v, want accent", got)
	}
}

func TestLogoShrunkToBoxAndCentred(t *testing.T) {
	s := New(320, 346)
	p := s.AddLogo("wide", pngBytes(t, 200, 100, color.RGBA{R: 0xff, A: 0xff}))
	wait(t, p)
	stamps := s.Stamps()
	if len(stamps) != 1 {
		t.Fatalf("stamps = %d, want 1", len(stamps))
	}
	if stamps[0].Scale != 0.4 {
		t.Fatalf("scale = %v, want 0.4", stamps[0].Scale)
	}
	if want := image.Rect(120, 153, 200, 193); stamps[0].Rect != want {
		t.Fatalf("rect = %v, want %v", stamps[0].Rect, want)
	}
}

func TestSmallLogoKeepsSize(t *testing.T) {
	s := New(342, 350)
	wait(t, s.AddLogo("schneider", pngBytes(t, 60, 40, color.RGBA{G: 0xff, A: 0xff})))
	st := s.Stamps()[0]
	if st.Scale != 1 || st.Rect.Dx() != 60 || st.Rect.Dy() != 40 {
		t.Fatalf("stamp = %v scale %v", st.Rect, st.Scale)
	}
}

func TestLogoDroppedByClear(t *testing.T) {
	g := newGatedDecoder("L")
	s := New(320, 346, WithDecoder(g.decode))
	p := s.AddLogo("siemens", []byte("L"))
	s.ClearAnnotations()
	g.release("L")
	wait(t, p)
	if p.Committed() || len(s.Stamps()) != 0 {
		t.Fatalf("logo survived clear")
	}
}

func TestCropOverlayIsTopmost(t *testing.T) {
	s := New(320, 346)
	wait(t, s.AddLogo("abb", pngBytes(t, 60, 40, color.RGBA{B: 0xff, A: 0xff})))
	wait(t, s.AddImage(pngBytes(t, 50, 50, color.RGBA{R: 0xff, A: 0xff}), "image/png"))
	layers := s.Layers()
	if layers[len(layers)-1].Kind != LayerCrop {
		t.Fatalf("top layer = %v", layers[len(layers)-1].Kind)
	}
	if layers[0].Kind != LayerBackground {
		t.Fatalf("bottom layer = %v", layers[0].Kind)
	}
}

func TestErasePaintsFill(t *testing.T) {
	s := New(100, 100)
	line := []Point{{10, 50}, {90, 50}}
	if err := s.AddStroke(Stroke{Kind: Ink, Points: line, Width: 2, Color: color.RGBA{A: 0xff}}); err != nil {
		t.Fatalf("ink: %v", err)
	}
	if got := s.ExportRaster().RGBAAt(50, 50); got == DefaultFill {
		t.Fatalf("ink not drawn")
	}
	if err := s.AddStroke(Stroke{Kind: Erase, Points: line, Width: 10}); err != nil {
		t.Fatalf("erase: %v", err)
	}
	if got := s.ExportRaster().RGBAAt(50, 50); got != DefaultFill {
		t.Fatalf("erased pixel = %v, want fill", got)
	}
	if n := len(s.Strokes()); n != 2 {
		t.Fatalf("strokes = %d, erase must not delete layers", n)
	}
}

func TestEmptyInputsAreNoOps(t *testing.T) {
	s := New(100, 100)
	if s.AddText(1, 1, "", color.RGBA{}) {
		t.Fatalf("empty text inserted")
	}
	if err := s.AddStroke(Stroke{}); !errors.Is(err, ErrEmptyStroke) {
		t.Fatalf("empty stroke err = %v", err)
	}
	if n := len(s.Layers()); n != 1 {
		t.Fatalf("layers = %d, want crop only", n)
	}
}

func TestResizeRefitsBackground(t *testing.T) {
	s := New(389, 460)
	wait(t, s.AddImage(pngBytes(t, 100, 100, color.RGBA{R: 0xff, A: 0xff}), "image/png"))
	s.AddText(300, 400, "far", color.RGBA{A: 0xff})
	s.Resize(280, 330)

	st := s.State()
	if want := image.Rect(0, 25, 280, 305); st.Image.Rect != want {
		t.Fatalf("background rect = %v, want %v", st.Image.Rect, want)
	}
	if st.Crop.Rect != image.Rect(0, 0, 280, 330) {
		t.Fatalf("crop rect = %v", st.Crop.Rect)
	}
	if txt := s.Texts()[0]; txt.X != 300 || txt.Y != 400 {
		t.Fatalf("text moved to %d,%d", txt.X, txt.Y)
	}
}

func TestAddTextAtRejectsStaleEpoch(t *testing.T) {
	s := New(100, 100)
	epoch := s.Epoch()
	s.ClearAnnotations()
	if s.AddTextAt(epoch, 1, 1, "late", color.RGBA{A: 0xff}) {
		t.Fatalf("stale text inserted")
	}
	if !s.AddTextAt(s.Epoch(), 1, 1, "fresh", color.RGBA{A: 0xff}) {
		t.Fatalf("current text rejected")
	}
}

// pngHeader returns the signature and IHDR chunk of an 8-bit grey PNG. The
// header alone is enough for image.DecodeConfig.
func pngHeader(w, h uint32) []byte {
	var ihdr [13]byte
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8
	chunk := append([]byte("IHDR"), ihdr[:]...)
	out := []byte("\x89PNG\r\n\x1a\n")
	out = binary.BigEndian.AppendUint32(out, uint32(len(ihdr)))
	out = append(out, chunk...)
	return binary.BigEndian.AppendUint32(out, crc32.ChecksumIEEE(chunk))
}

func TestDecodeRejectsOversizedHeader(t *testing.T) {
	_, err := Decode(pngHeader(12000, 12000))
	if !errors.Is(err, ErrTooLarge) || !errors.Is(err, ErrDecode) {
		t.Fatalf("err = %v, want ErrTooLarge wrapped in ErrDecode", err)
	}
	if err := CheckSize(pngBytes(t, 4, 4, color.RGBA{A: 0xff})); err != nil {
		t.Fatalf("small image rejected: %v", err)
	}
	if err := CheckSize(pngHeader(5000, 10000)); err != nil {
		t.Fatalf("image at the limit rejected: %v", err)
	}
}
