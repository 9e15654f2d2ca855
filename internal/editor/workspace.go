// Package editor owns the set of canvases an operator works on: which one
// is selected, what has been uploaded and placed on each, and how pointer
// input reaches them.
package editor

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/example/panelmark/assets"
	"github.com/example/panelmark/internal/canvas"
	"github.com/example/panelmark/internal/logging"
	"github.com/example/panelmark/internal/surface"
	"github.com/example/panelmark/internal/theme"
	"github.com/example/panelmark/internal/tools"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnknownCanvas = errors.New("unknown canvas")
	ErrNoSelection   = errors.New("no canvas selected")
	ErrNoPendingText = errors.New("no pending text request")
	ErrUnknownLogo   = assets.ErrUnknownLogo
	ErrDecode        = surface.ErrDecode
)

// MaxUploadSize is the largest accepted upload in bytes.
const MaxUploadSize = 10 << 20

// NoSelectionWarning is shown when a logo is requested with nothing selected.
const NoSelectionWarning = "Please select a canvas first before adding logos."

// DefaultSelection is the canvas selected when a workspace starts.
const DefaultSelection = "msb"

var acceptedTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/webp": true,
	"image/tiff": true,
}

type entry struct {
	cfg     canvas.Config
	surface *surface.Surface
}

// Workspace is the editing session: every configured canvas with its
// surface, the selection and the active tool.
type Workspace struct {
	mu sync.Mutex

	registry *canvas.Registry
	layout   canvas.Layout
	viewport canvas.Viewport
	theme    *theme.Theme
	log      *logging.Logger
	decoder  surface.Decoder
	initial  string

	entries  map[string]*entry
	selected string
	pending  *tools.TextRequest

	tools    *tools.Controller
	debounce *canvas.Debouncer
	wait     time.Duration

	subsMu  sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithRegistry replaces the production canvas set.
func WithRegistry(r *canvas.Registry) Option { return func(w *Workspace) { w.registry = r } }

// WithLayout sets the responsive layout bounds.
func WithLayout(l canvas.Layout) Option { return func(w *Workspace) { w.layout = l } }

// WithViewport sets the initial viewport.
func WithViewport(v canvas.Viewport) Option { return func(w *Workspace) { w.viewport = v } }

// WithTheme sets canvas and ink colours.
func WithTheme(t *theme.Theme) Option { return func(w *Workspace) { w.theme = t } }

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option { return func(w *Workspace) { w.log = l } }

// WithDebounce sets the quiet interval for Resize.
func WithDebounce(d time.Duration) Option { return func(w *Workspace) { w.wait = d } }

// WithDecoder replaces the image decoder used by every surface.
func WithDecoder(d surface.Decoder) Option { return func(w *Workspace) { w.decoder = d } }

// WithSelection sets the initially selected canvas. An empty key starts with
// nothing selected.
func WithSelection(key string) Option { return func(w *Workspace) { w.initial = key } }

// New builds a workspace with one surface per registered canvas.
func New(opts ...Option) (*Workspace, error) {
	w := &Workspace{
		registry: canvas.Default(),
		layout:   canvas.DefaultLayout(),
		viewport: canvas.Viewport{Width: 1024, Height: 768},
		theme:    theme.Default(),
		log:      logging.Nop(),
		decoder:  surface.Decode,
		initial:  DefaultSelection,
		wait:     canvas.DefaultDebounce,
		entries:  map[string]*entry{},
		subs:     map[int]chan Event{},
	}
	for _, o := range opts {
		o(w)
	}
	w.debounce = canvas.NewDebouncer(w.wait)
	w.tools = tools.New(
		tools.WithResolver(w.resolveSelected),
		tools.WithTextSink(w.onTextRequest),
		tools.WithInk(w.theme.Ink),
	)

	for _, sized := range w.registry.Resolve(w.layout, w.viewport) {
		key := sized.Key
		s := surface.New(sized.PixelWidth, sized.PixelHeight,
			surface.WithFill(w.theme.Fill),
			surface.WithAccent(sized.Accent),
			surface.WithDecoder(w.decoder),
			surface.WithObserver(func(n surface.Notice) { w.onNotice(key, n) }),
		)
		w.entries[key] = &entry{cfg: sized.Config, surface: s}
	}

	if w.initial != "" {
		if _, ok := w.entries[w.initial]; !ok {
			return nil, fmt.Errorf("initial selection: %w: %q", ErrUnknownCanvas, w.initial)
		}
		w.selected = w.initial
	}
	return w, nil
}

// Close stops pending layout work and ends every subscription.
func (w *Workspace) Close() {
	w.debounce.Stop()
	w.closeSubscribers()
}

func (w *Workspace) lookup(key string) (*entry, error) {
	e, ok := w.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCanvas, key)
	}
	return e, nil
}

func (w *Workspace) onNotice(key string, n surface.Notice) {
	switch n.Kind {
	case surface.ImageCommitted:
		w.log.Info("image committed", zap.String("canvas", key))
		w.Publish(Event{Kind: EventImageCommitted, Canvas: key})
	case surface.ImageDiscarded:
		w.log.Debug("stale image discarded", zap.String("canvas", key))
		w.Publish(Event{Kind: EventImageDiscarded, Canvas: key})
	case surface.ImageFailed:
		w.log.Warn("image decode failed", zap.String("canvas", key), zap.Error(n.Err))
		w.Publish(Event{Kind: EventImageFailed, Canvas: key, Message: n.Err.Error()})
	case surface.LogoCommitted:
		w.Publish(Event{Kind: EventLogoAdded, Canvas: key, Message: n.Name})
	case surface.LogoDiscarded:
		w.log.Debug("logo discarded", zap.String("canvas", key), zap.String("logo", n.Name), zap.Error(n.Err))
	}
}

// Registry returns the canvas registry the workspace was built from.
func (w *Workspace) Registry() *canvas.Registry { return w.registry }

// Theme returns the workspace theme.
func (w *Workspace) Theme() *theme.Theme { return w.theme }

// Keys lists canvas keys in declaration order.
func (w *Workspace) Keys() []string { return w.registry.Keys() }

// Surface returns the surface backing key.
func (w *Workspace) Surface(key string) (*surface.Surface, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, err := w.lookup(key)
	if err != nil {
		return nil, err
	}
	return e.surface, nil
}

// Select makes key the target of tools and logos.
func (w *Workspace) Select(key string) error {
	w.mu.Lock()
	if _, err := w.lookup(key); err != nil {
		w.mu.Unlock()
		return err
	}
	prev := w.selected
	w.selected = key
	w.mu.Unlock()
	if prev != key {
		w.log.Debug("canvas selected", zap.String("canvas", key), zap.String("previous", prev))
	}
	w.Publish(Event{Kind: EventSelection, Canvas: key})
	return nil
}

// Deselect clears the selection.
func (w *Workspace) Deselect() {
	w.mu.Lock()
	w.selected = ""
	w.mu.Unlock()
	w.Publish(Event{Kind: EventSelection})
}

// Selected returns the selected canvas key.
func (w *Workspace) Selected() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selected, w.selected != ""
}

func (w *Workspace) resolveSelected() (string, tools.Canvas, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.selected == "" {
		return "", nil, false
	}
	return w.selected, w.entries[w.selected].surface, true
}

// Upload validates data and starts loading it as the background of key.
// Validation failures return ErrInvalidInput and leave the canvas as it was.
func (w *Workspace) Upload(key string, data []byte, filename string) (*surface.Pending, error) {
	w.mu.Lock()
	e, err := w.lookup(key)
	w.mu.Unlock()
	if err != nil {
		return nil, err
	}
	mediaType, err := Validate(data)
	if err != nil {
		w.log.Info("upload rejected", zap.String("canvas", key), zap.String("file", filename), zap.Error(err))
		return nil, err
	}
	w.log.Debug("upload accepted",
		zap.String("canvas", key),
		zap.String("file", filename),
		zap.String("type", mediaType),
		zap.Int("bytes", len(data)),
	)
	return e.surface.AddImage(data, mediaType), nil
}

// Validate checks the byte size, sniffed type and declared pixel area of an
// upload and returns its media type.
func Validate(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty upload", ErrInvalidInput)
	}
	if len(data) > MaxUploadSize {
		return "", fmt.Errorf("%w: file too large, maximum size is 10MB", ErrInvalidInput)
	}
	mt := mimetype.Detect(data)
	if !acceptedTypes[mt.String()] {
		return "", fmt.Errorf("%w: unsupported type %s", ErrInvalidInput, mt.String())
	}
	if err := surface.CheckSize(data); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return mt.String(), nil
}

// RemoveImage drops the background of key.
func (w *Workspace) RemoveImage(key string) error {
	s, err := w.Surface(key)
	if err != nil {
		return err
	}
	s.RemoveImage()
	w.Publish(Event{Kind: EventImageRemoved, Canvas: key})
	return nil
}

// ResetCanvas returns key to its initial empty state.
func (w *Workspace) ResetCanvas(key string) error {
	s, err := w.Surface(key)
	if err != nil {
		return err
	}
	s.Reset()
	w.Publish(Event{Kind: EventReset, Canvas: key})
	return nil
}

// ResetAll resets every canvas.
func (w *Workspace) ResetAll() {
	w.mu.Lock()
	w.pending = nil
	for _, e := range w.entries {
		e.surface.Reset()
	}
	w.mu.Unlock()
	w.log.Info("workspace reset")
	w.Publish(Event{Kind: EventReset})
}

// AddLogo stamps the named catalogue logo onto the selected canvas. With
// nothing selected it publishes NoSelectionWarning and returns
// ErrNoSelection.
func (w *Workspace) AddLogo(name string) (*surface.Pending, error) {
	key, ok := w.Selected()
	if !ok {
		w.Publish(Event{Kind: EventNotice, Message: NoSelectionWarning})
		return nil, ErrNoSelection
	}
	data, err := assets.LogoPNG(name)
	if err != nil {
		return nil, err
	}
	s, err := w.Surface(key)
	if err != nil {
		return nil, err
	}
	return s.AddLogo(name, data), nil
}

// ClearAnnotations wipes strokes, text and logos from the selected canvas.
// It reports false when nothing is selected.
func (w *Workspace) ClearAnnotations() bool {
	key, ok := w.Selected()
	if !ok {
		return false
	}
	s, err := w.Surface(key)
	if err != nil {
		return false
	}
	s.ClearAnnotations()
	w.Publish(Event{Kind: EventCleared, Canvas: key})
	return true
}

// SetTool switches the active tool.
func (w *Workspace) SetTool(m tools.Mode) { w.tools.SetMode(m) }

// Tool returns the active tool.
func (w *Workspace) Tool() tools.Mode { return w.tools.Mode() }

// Press forwards a pointer press to the selected canvas.
func (w *Workspace) Press(x, y int) bool { return w.tools.Press(x, y) }

// Move forwards pointer motion.
func (w *Workspace) Move(x, y int) { w.tools.Move(x, y) }

// Release forwards a pointer release and commits the gesture.
func (w *Workspace) Release(x, y int) error { return w.tools.Release(x, y) }

// Preview returns the gesture in progress for live display.
func (w *Workspace) Preview() (string, surface.Stroke, bool) { return w.tools.Preview() }

func (w *Workspace) onTextRequest(req tools.TextRequest) {
	w.mu.Lock()
	r := req
	w.pending = &r
	w.mu.Unlock()
	w.Publish(Event{Kind: EventTextRequest, Canvas: req.Canvas, Text: &r})
}

// PendingText returns the outstanding text request, if any.
func (w *Workspace) PendingText() (tools.TextRequest, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == nil {
		return tools.TextRequest{}, false
	}
	return *w.pending, true
}

func (w *Workspace) takePending(id string) (tools.TextRequest, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == nil || w.pending.ID != id {
		return tools.TextRequest{}, fmt.Errorf("%w: %q", ErrNoPendingText, id)
	}
	req := *w.pending
	w.pending = nil
	return req, nil
}

// CompleteText answers a text request. An empty value cancels it. It reports
// whether text was placed; a request whose canvas was cleared, reset or
// deselected in the meantime is dropped.
func (w *Workspace) CompleteText(id, value string) (bool, error) {
	req, err := w.takePending(id)
	if err != nil {
		return false, err
	}
	if key, ok := w.Selected(); !ok || key != req.Canvas {
		w.log.Debug("text dropped", zap.String("canvas", req.Canvas), zap.String("selected", key))
		return false, nil
	}
	s, err := w.Surface(req.Canvas)
	if err != nil {
		return false, err
	}
	if !s.AddTextAt(req.Epoch, req.X, req.Y, value, w.theme.Text) {
		return false, nil
	}
	return true, nil
}

// CancelText drops a text request.
func (w *Workspace) CancelText(id string) error {
	_, err := w.takePending(id)
	return err
}

// Viewport returns the viewport of the last layout pass.
func (w *Workspace) Viewport() canvas.Viewport {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.viewport
}

// ApplyViewport lays out responsive canvases for v immediately. A pending
// Resize is cancelled.
func (w *Workspace) ApplyViewport(v canvas.Viewport) {
	w.debounce.Do(func() { w.applyViewport(v) })
}

func (w *Workspace) applyViewport(v canvas.Viewport) {
	w.mu.Lock()
	w.viewport = v
	for _, sized := range w.registry.Resolve(w.layout, v) {
		if !sized.Responsive() {
			continue
		}
		w.entries[sized.Key].surface.Resize(sized.PixelWidth, sized.PixelHeight)
	}
	w.mu.Unlock()
	w.log.Debug("layout applied", zap.Int("width", v.Width), zap.Int("height", v.Height))
	w.Publish(Event{Kind: EventLayout, Message: fmt.Sprintf("%dx%d", v.Width, v.Height)})
}

// Resize schedules ApplyViewport after the debounce interval. Later calls
// supersede earlier ones.
func (w *Workspace) Resize(v canvas.Viewport) {
	w.debounce.Trigger(func() { w.applyViewport(v) })
}

// Raster flattens key. The crop overlay is included only when overlay is set.
func (w *Workspace) Raster(key string, overlay bool) (*image.RGBA, error) {
	s, err := w.Surface(key)
	if err != nil {
		return nil, err
	}
	return s.Render(overlay), nil
}

// ExportPNG encodes the exportable raster of key.
func (w *Workspace) ExportPNG(key string) ([]byte, error) {
	s, err := w.Surface(key)
	if err != nil {
		return nil, err
	}
	return s.ExportPNG()
}

// CanvasInfo summarises one canvas.
type CanvasInfo struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Responsive bool   `json:"responsive"`
	Dimensions string `json:"dimensions,omitempty"`
	Accent     string `json:"accent"`
	Uploaded   bool   `json:"uploaded"`
	Selected   bool   `json:"selected"`
	Strokes    int    `json:"strokes"`
	Texts      int    `json:"texts"`
	Logos      int    `json:"logos"`
}

// Snapshot summarises every canvas in declaration order.
func (w *Workspace) Snapshot() []CanvasInfo {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]CanvasInfo, 0, len(w.entries))
	for _, key := range w.registry.Keys() {
		e := w.entries[key]
		width, height := e.surface.Size()
		out = append(out, CanvasInfo{
			Key:        key,
			Name:       e.cfg.DisplayName,
			Width:      width,
			Height:     height,
			Responsive: e.cfg.Responsive(),
			Dimensions: e.cfg.Dimensions,
			Accent:     theme.Hex(e.cfg.Accent),
			Uploaded:   e.surface.State().Uploaded(),
			Selected:   key == w.selected,
			Strokes:    len(e.surface.Strokes()),
			Texts:      len(e.surface.Texts()),
			Logos:      len(e.surface.Stamps()),
		})
	}
	return out
}
