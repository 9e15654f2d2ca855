package editor

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/panelmark/internal/canvas"
	"github.com/example/panelmark/internal/surface"
	"github.com/example/panelmark/internal/tools"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func waitFor(t *testing.T, p *surface.Pending) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Wait(ctx))
}

func newWorkspace(t *testing.T, opts ...Option) *Workspace {
	t.Helper()
	w, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(w.Close)
	return w
}

func drain(ch <-chan Event) []Event {
	var out []Event
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestDefaultsSelectMSB(t *testing.T) {
	w := newWorkspace(t)
	key, ok := w.Selected()
	assert.True(t, ok)
	assert.Equal(t, "msb", key)
	assert.Equal(t, canvas.Default().Keys(), w.Keys())
}

func TestSelectUnknownCanvas(t *testing.T) {
	w := newWorkspace(t)
	err := w.Select("nope")
	assert.ErrorIs(t, err, ErrUnknownCanvas)
	key, _ := w.Selected()
	assert.Equal(t, "msb", key)
}

func TestResponsiveLayoutAtStart(t *testing.T) {
	w := newWorkspace(t, WithViewport(canvas.Viewport{Width: 1024, Height: 768}))
	byKey := map[string]CanvasInfo{}
	for _, c := range w.Snapshot() {
		byKey[c.Key] = c
	}
	assert.Equal(t, 389, byKey["tprouting1"].Width)
	assert.Equal(t, 460, byKey["tprouting1"].Height)
	assert.Equal(t, 342, byKey["msb"].Width)
	assert.Equal(t, 350, byKey["msb"].Height)
}

func TestAddLogoWithoutSelectionWarns(t *testing.T) {
	w := newWorkspace(t, WithSelection(""))
	events, cancel := w.Subscribe()
	defer cancel()

	p, err := w.AddLogo("abb")
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrNoSelection)

	_, ok := w.Selected()
	assert.False(t, ok, "selection must stay empty")
	for _, c := range w.Snapshot() {
		assert.Zero(t, c.Logos, c.Key)
	}
	got := drain(events)
	require.Len(t, got, 1)
	assert.Equal(t, EventNotice, got[0].Kind)
	assert.Equal(t, NoSelectionWarning, got[0].Message)
}

func TestAddLogoUnknown(t *testing.T) {
	w := newWorkspace(t)
	_, err := w.AddLogo("acme")
	assert.ErrorIs(t, err, ErrUnknownLogo)
}

func TestAddLogoStampsSelected(t *testing.T) {
	w := newWorkspace(t)
	require.NoError(t, w.Select("mccb"))
	p, err := w.AddLogo("Siemens")
	require.NoError(t, err)
	waitFor(t, p)

	s, err := w.Surface("mccb")
	require.NoError(t, err)
	stamps := s.Stamps()
	require.Len(t, stamps, 1)
	assert.Equal(t, image.Rect(130, 153, 190, 193), stamps[0].Rect)
}

func TestUploadValidation(t *testing.T) {
	w := newWorkspace(t)
	cases := map[string][]byte{
		"empty":     nil,
		"text":      []byte("hello, this is not an image"),
		"oversized": append(pngBytes(t, 4, 4), make([]byte, MaxUploadSize)...),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			p, err := w.Upload("msb", data, name)
			assert.Nil(t, p)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	s, _ := w.Surface("msb")
	assert.False(t, s.State().Uploaded())

	_, err := w.Upload("missing", pngBytes(t, 4, 4), "x.png")
	assert.ErrorIs(t, err, ErrUnknownCanvas)
}

func TestUploadCommitsAndEmits(t *testing.T) {
	w := newWorkspace(t)
	events, cancel := w.Subscribe()
	defer cancel()

	p, err := w.Upload("tpsld", pngBytes(t, 640, 692), "sld.png")
	require.NoError(t, err)
	waitFor(t, p)
	assert.True(t, p.Committed())

	s, _ := w.Surface("tpsld")
	st := s.State()
	assert.True(t, st.Uploaded())
	assert.Equal(t, "image/png", st.MediaType)
	assert.Equal(t, image.Rect(0, 0, 320, 346), st.Image.Rect)

	select {
	case ev := <-events:
		assert.Equal(t, EventImageCommitted, ev.Kind)
		assert.Equal(t, "tpsld", ev.Canvas)
	case <-time.After(5 * time.Second):
		t.Fatal("no commit event")
	}
}

func TestTextRequestRoundTrip(t *testing.T) {
	w := newWorkspace(t)
	events, cancel := w.Subscribe()
	defer cancel()

	w.SetTool(tools.Text)
	require.True(t, w.Press(40, 50))
	got := drain(events)
	require.Len(t, got, 1)
	require.Equal(t, EventTextRequest, got[0].Kind)
	req := got[0].Text
	require.NotNil(t, req)
	assert.Equal(t, "msb", req.Canvas)

	placed, err := w.CompleteText(req.ID, "Incoming")
	require.NoError(t, err)
	assert.True(t, placed)

	s, _ := w.Surface("msb")
	texts := s.Texts()
	require.Len(t, texts, 1)
	assert.Equal(t, surface.Text{X: 40, Y: 50, Value: "Incoming", Size: 16, Color: color.RGBA{A: 0xff}}, texts[0])

	_, err = w.CompleteText(req.ID, "again")
	assert.ErrorIs(t, err, ErrNoPendingText)
}

func TestTextRequestDroppedAfterClear(t *testing.T) {
	w := newWorkspace(t)
	w.SetTool(tools.Text)
	require.True(t, w.Press(1, 1))
	req, ok := w.PendingText()
	require.True(t, ok)

	require.True(t, w.ClearAnnotations())
	placed, err := w.CompleteText(req.ID, "late")
	require.NoError(t, err)
	assert.False(t, placed)
}

func TestEmptyTextIsNoOp(t *testing.T) {
	w := newWorkspace(t)
	w.SetTool(tools.Text)
	w.Press(1, 1)
	req, _ := w.PendingText()
	placed, err := w.CompleteText(req.ID, "")
	require.NoError(t, err)
	assert.False(t, placed)
	_, ok := w.PendingText()
	assert.False(t, ok)
}

func TestCancelText(t *testing.T) {
	w := newWorkspace(t)
	w.SetTool(tools.Text)
	w.Press(1, 1)
	req, _ := w.PendingText()
	require.NoError(t, w.CancelText(req.ID))
	assert.ErrorIs(t, w.CancelText(req.ID), ErrNoPendingText)
}

func TestDrawingWithoutSelectionIsInert(t *testing.T) {
	w := newWorkspace(t, WithSelection(""))
	assert.False(t, w.Press(1, 1))
	assert.NoError(t, w.Release(5, 5))
	assert.False(t, w.ClearAnnotations())
	for _, c := range w.Snapshot() {
		assert.Zero(t, c.Strokes, c.Key)
	}
}

func TestClearOnlyTouchesSelected(t *testing.T) {
	w := newWorkspace(t)
	for _, key := range []string{"msb", "mccb"} {
		require.NoError(t, w.Select(key))
		w.Press(10, 10)
		w.Move(20, 20)
		require.NoError(t, w.Release(30, 30))
	}
	require.True(t, w.ClearAnnotations())

	counts := map[string]int{}
	for _, c := range w.Snapshot() {
		counts[c.Key] = c.Strokes
	}
	assert.Equal(t, 1, counts["msb"])
	assert.Equal(t, 0, counts["mccb"])
}

func TestResetAllClearsEverything(t *testing.T) {
	w := newWorkspace(t)
	p, err := w.Upload("msb", pngBytes(t, 10, 10), "a.png")
	require.NoError(t, err)
	waitFor(t, p)
	w.Press(1, 1)
	require.NoError(t, w.Release(2, 2))

	w.ResetAll()
	for _, c := range w.Snapshot() {
		assert.False(t, c.Uploaded, c.Key)
		assert.Zero(t, c.Strokes, c.Key)
	}
}

func TestResizeIsDebounced(t *testing.T) {
	w := newWorkspace(t, WithDebounce(20*time.Millisecond), WithViewport(canvas.Viewport{Width: 640, Height: 480}))
	w.Resize(canvas.Viewport{Width: 300, Height: 300})
	w.Resize(canvas.Viewport{Width: 1024, Height: 768})

	require.Eventually(t, func() bool {
		return w.Viewport() == canvas.Viewport{Width: 1024, Height: 768}
	}, 2*time.Second, 10*time.Millisecond)

	// The superseded call never lands after the latest one.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, canvas.Viewport{Width: 1024, Height: 768}, w.Viewport())
	s, _ := w.Surface("tprouting3")
	width, height := s.Size()
	assert.Equal(t, 800, width)
	assert.Equal(t, 418, height)
}

func TestFixedCanvasesIgnoreViewport(t *testing.T) {
	w := newWorkspace(t)
	w.ApplyViewport(canvas.Viewport{Width: 320, Height: 240})
	s, _ := w.Surface("msb")
	width, height := s.Size()
	assert.Equal(t, 342, width)
	assert.Equal(t, 350, height)
	s, _ = w.Surface("tprouting1")
	width, _ = s.Size()
	assert.Equal(t, 280, width)
}

func TestExportPNGForEveryCanvas(t *testing.T) {
	w := newWorkspace(t)
	for _, key := range w.Keys() {
		data, err := w.ExportPNG(key)
		require.NoError(t, err, key)
		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err, key)
		s, _ := w.Surface(key)
		width, height := s.Size()
		assert.Equal(t, image.Rect(0, 0, width, height), img.Bounds(), key)
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

func TestUploadRejectsOversizedImage(t *testing.T) {
	w := newWorkspace(t)
	data := pngHeader(12000, 12000)
	require.Less(t, len(data), 1024)

	p, err := w.Upload("msb", data, "huge.png")
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, surface.ErrTooLarge)
	s, _ := w.Surface("msb")
	assert.False(t, s.State().Uploaded())
}

func TestTextDroppedAfterDeselect(t *testing.T) {
	w := newWorkspace(t)
	w.SetTool(tools.Text)
	require.True(t, w.Press(10, 10))
	req, ok := w.PendingText()
	require.True(t, ok)

	w.Deselect()
	placed, err := w.CompleteText(req.ID, "hello")
	require.NoError(t, err)
	assert.False(t, placed)
	s, _ := w.Surface("msb")
	assert.Empty(t, s.Texts())
}

func TestTextDroppedAfterSelectionMoves(t *testing.T) {
	w := newWorkspace(t)
	w.SetTool(tools.Text)
	require.True(t, w.Press(10, 10))
	req, _ := w.PendingText()

	require.NoError(t, w.Select("mccb"))
	placed, err := w.CompleteText(req.ID, "hello")
	require.NoError(t, err)
	assert.False(t, placed)
	for _, key := range []string{"msb", "mccb"} {
		s, _ := w.Surface(key)
		assert.Empty(t, s.Texts(), key)
	}
}

func TestApplyViewportCancelsPendingResize(t *testing.T) {
	w := newWorkspace(t, WithDebounce(20*time.Millisecond))
	w.Resize(canvas.Viewport{Width: 400, Height: 400})
	w.ApplyViewport(canvas.Viewport{Width: 1024, Height: 768})

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, canvas.Viewport{Width: 1024, Height: 768}, w.Viewport())
	s, _ := w.Surface("tprouting1")
	width, height := s.Size()
	assert.Equal(t, 389, width)
	assert.Equal(t, 460, height)
}
