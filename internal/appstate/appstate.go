// Package appstate runs the desktop annotation window: a canvas strip, a
// toolbar and the selected canvas, all driven through an editor workspace.
package appstate

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/panelmark/assets"
	"github.com/example/panelmark/internal/clipboard"
	"github.com/example/panelmark/internal/editor"
	"github.com/example/panelmark/internal/logging"
	"github.com/example/panelmark/internal/notify"
	"github.com/example/panelmark/internal/render"
	"github.com/example/panelmark/internal/surface"
	"github.com/example/panelmark/internal/theme"
	"github.com/example/panelmark/internal/tools"
)

// frameDropThreshold specifies how many consecutive frames can be canceled
// before a draw is allowed to complete to keep the UI responsive.
const frameDropThreshold = 10

const messageDuration = 3 * time.Second

// ExportFunc runs a full export and returns the saved document path.
type ExportFunc func(ctx context.Context) (string, error)

// AppState holds application configuration for the UI.
type AppState struct {
	ws        *editor.Workspace
	theme     *theme.Theme
	board     clipboard.Board
	notifier  *notify.Notifier
	export    ExportFunc
	outputDir string
	title     string
	log       *logging.Logger
	onClose   func()
}

// Option configures an AppState.
type Option func(*AppState)

// WithTheme overrides the workspace theme for the window chrome.
func WithTheme(t *theme.Theme) Option { return func(a *AppState) { a.theme = t } }

// WithClipboard replaces the system clipboard.
func WithClipboard(b clipboard.Board) Option { return func(a *AppState) { a.board = b } }

// WithNotifier sets the desktop notifier.
func WithNotifier(n *notify.Notifier) Option { return func(a *AppState) { a.notifier = n } }

// WithExporter enables the export action.
func WithExporter(fn ExportFunc) Option { return func(a *AppState) { a.export = fn } }

// WithOutputDir sets where single canvases are saved.
func WithOutputDir(dir string) Option { return func(a *AppState) { a.outputDir = dir } }

// WithTitle sets the window title.
func WithTitle(title string) Option { return func(a *AppState) { a.title = title } }

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option { return func(a *AppState) { a.log = l } }

// WithOnClose registers a callback invoked once the window closes.
func WithOnClose(fn func()) Option { return func(a *AppState) { a.onClose = fn } }

// New returns an AppState for ws.
func New(ws *editor.Workspace, opts ...Option) *AppState {
	a := &AppState{
		ws:        ws,
		theme:     ws.Theme(),
		board:     clipboard.System,
		outputDir: ".",
		title:     "Panelmark",
		log:       logging.Nop(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Run opens the window and blocks until it closes.
func (a *AppState) Run() { driver.Main(a.Main) }

type workspaceEvent struct{ editor.Event }

type exportDone struct {
	path string
	err  error
}

type paintState struct {
	width, height int
	theme         *theme.Theme
	raster        *image.RGBA
	shadow        *render.Shadow
	placed        image.Rectangle
	caption       string
	status        string
	message       string
	warn          bool
	tabs          []*CacheButton
	tools         []*CacheButton
	shortcuts     []*CacheButton
	activeTab     int
	activeTool    int
	hover         hover
}

type hover struct {
	tab, tool, shortcut int
}

// ui is the window state owned by the event loop goroutine.
type ui struct {
	a *AppState

	width, height int
	shown         string
	pressed       bool
	exporting     bool

	text      *tools.TextRequest
	textInput string

	message      string
	warn         bool
	messageUntil time.Time

	shadow *render.Shadow

	tabs      []*CacheButton
	toolbar   []*CacheButton
	shortcuts []*CacheButton
	hover     hover

	actions map[string]func()
	keys    map[KeyShortcut]string

	send func(any)
}

func newUI(a *AppState, send func(any)) *ui {
	u := &ui{
		a:       a,
		actions: map[string]func(){},
		keys:    map[KeyShortcut]string{},
		hover:   hover{-1, -1, -1},
		send:    send,
	}
	if key, ok := a.ws.Selected(); ok {
		u.shown = key
	} else if keys := a.ws.Keys(); len(keys) > 0 {
		u.shown = keys[0]
	}
	u.configure()
	return u
}

func (u *ui) register(name string, fn func(), keys ...KeyShortcut) {
	u.actions[name] = fn
	for _, k := range keys {
		u.keys[k] = name
	}
}

func (u *ui) trigger(name string) {
	if fn, ok := u.actions[name]; ok {
		fn()
	}
}

func (u *ui) configure() {
	th := u.a.theme
	ws := u.a.ws

	u.tabs = u.tabs[:0]
	for _, cfg := range ws.Registry().Configs() {
		u.tabs = append(u.tabs, &CacheButton{Button: &CanvasTab{
			key:    cfg.Key,
			label:  cfg.Key,
			accent: cfg.Accent,
			theme:  th,
			onSelect: func(key string) {
				u.selectCanvas(key)
			},
		}})
	}

	var labels []string
	u.toolbar = u.toolbar[:0]
	addTool := func(label, action string) {
		labels = append(labels, label)
		u.toolbar = append(u.toolbar, &CacheButton{Button: &ActionButton{
			label: label, theme: th, onActivate: func() { u.trigger(action) },
		}})
	}
	for _, m := range tools.Modes() {
		name := m.String()
		mode := m
		r := rune(name[0])
		addTool(fmt.Sprintf("%c:%s", unicode.ToUpper(r), strings.ToUpper(name[:1])+name[1:]), "tool:"+name)
		u.register("tool:"+name, func() {
			ws.SetTool(mode)
			u.flash(fmt.Sprintf("%s tool", name), false)
		}, KeyShortcut{Rune: r})
	}
	if logos, err := assets.Logos(); err == nil {
		for i, l := range logos {
			name := l.Key
			addTool(fmt.Sprintf("%d:%s", i+1, l.Name), "logo:"+name)
			u.register("logo:"+name, func() { u.addLogo(name) }, KeyShortcut{Rune: rune('1' + i)})
		}
	}
	addTool("K:Clear", "clear")
	addTool("Reset", "reset")
	fitToolbar(labels)

	u.register("clear", func() {
		if !ws.ClearAnnotations() {
			u.flash("select a canvas first", true)
		}
	}, KeyShortcut{Rune: 'k'})
	u.register("reset", func() {
		if err := ws.ResetCanvas(u.shown); err != nil {
			u.fail("reset", err)
		}
	}, KeyShortcut{Rune: 'r', Modifiers: key.ModControl})
	u.register("remove", func() {
		if err := ws.RemoveImage(u.shown); err != nil {
			u.fail("remove", err)
		}
	}, KeyShortcut{Code: key.CodeDeleteForward})
	u.register("copy", u.copyCanvas, KeyShortcut{Rune: 'c', Modifiers: key.ModControl})
	u.register("paste", u.pasteCanvas, KeyShortcut{Rune: 'v', Modifiers: key.ModControl})
	u.register("save", u.saveCanvas, KeyShortcut{Rune: 's', Modifiers: key.ModControl})
	u.register("export", u.startExport, KeyShortcut{Rune: 'e', Modifiers: key.ModControl})
	u.register("next", func() { u.cycle(1) }, KeyShortcut{Code: key.CodeTab})
	u.register("prev", func() { u.cycle(-1) }, KeyShortcut{Code: key.CodeTab, Modifiers: key.ModShift})
	u.register("deselect", ws.Deselect, KeyShortcut{Code: key.CodeEscape})

	u.shortcuts = u.shortcuts[:0]
	for _, sc := range []struct{ label, action string }{
		{"^C Copy", "copy"},
		{"^V Paste", "paste"},
		{"^S Save", "save"},
		{"^E Export", "export"},
		{"Del Remove", "remove"},
		{"Tab Next", "next"},
	} {
		action := sc.action
		u.shortcuts = append(u.shortcuts, &CacheButton{Button: &ActionButton{
			label: sc.label, theme: th, onActivate: func() { u.trigger(action) },
		}})
	}
}

func (u *ui) flash(msg string, warn bool) {
	u.message = msg
	u.warn = warn
	u.messageUntil = time.Now().Add(messageDuration)
}

func (u *ui) fail(action string, err error) {
	u.a.log.Warn(action+" failed", zap.Error(err))
	u.flash(fmt.Sprintf("%s: %v", action, err), true)
}

func (u *ui) selectCanvas(key string) {
	if err := u.a.ws.Select(key); err != nil {
		u.fail("select", err)
		return
	}
	u.shown = key
}

func (u *ui) cycle(step int) {
	keys := u.a.ws.Keys()
	if len(keys) == 0 {
		return
	}
	idx := 0
	for i, k := range keys {
		if k == u.shown {
			idx = i
		}
	}
	idx = (idx + step + len(keys)) % len(keys)
	u.selectCanvas(keys[idx])
}

func (u *ui) addLogo(name string) {
	p, err := u.a.ws.AddLogo(name)
	if err != nil {
		if !errors.Is(err, editor.ErrNoSelection) {
			u.fail("logo", err)
		}
		return
	}
	go func() {
		<-p.Done()
		u.send(paint.Event{})
	}()
}

func (u *ui) copyCanvas() {
	data, err := u.a.ws.ExportPNG(u.shown)
	if err != nil {
		u.fail("copy", err)
		return
	}
	if err := u.a.board.WritePNG(data); err != nil {
		u.fail("copy", err)
		return
	}
	u.a.notifier.Copy(u.shown)
	u.flash(fmt.Sprintf("copied %s to clipboard", u.shown), false)
}

func (u *ui) pasteCanvas() {
	key, ok := u.a.ws.Selected()
	if !ok {
		u.flash("select a canvas first", true)
		return
	}
	data, err := u.a.board.ReadPNG()
	if err != nil {
		u.fail("paste", err)
		return
	}
	if _, err := u.a.ws.Upload(key, data, "clipboard.png"); err != nil {
		u.fail("paste", err)
		return
	}
	u.flash("loading image", false)
}

func (u *ui) saveCanvas() {
	data, err := u.a.ws.ExportPNG(u.shown)
	if err != nil {
		u.fail("save", err)
		return
	}
	path := filepath.Join(u.a.outputDir, u.shown+".png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		u.fail("save", err)
		return
	}
	u.a.log.Info("canvas saved", zap.String("canvas", u.shown), zap.String("path", path))
	u.flash("saved "+path, false)
}

func (u *ui) startExport() {
	if u.a.export == nil {
		u.flash("export service is not configured", true)
		return
	}
	if u.exporting {
		return
	}
	u.exporting = true
	u.flash("exporting...", false)
	go func() {
		path, err := u.a.export(context.Background())
		u.send(exportDone{path: path, err: err})
	}()
}

func (u *ui) finishExport(e exportDone) {
	u.exporting = false
	if e.err != nil {
		u.fail("export", e.err)
		return
	}
	u.a.notifier.Export(e.path)
	u.flash("saved "+e.path, false)
}

func (u *ui) onWorkspace(ev editor.Event) {
	switch ev.Kind {
	case editor.EventNotice:
		u.flash(ev.Message, true)
	case editor.EventTextRequest:
		if ev.Text != nil {
			req := *ev.Text
			u.text = &req
			u.textInput = ""
		}
	case editor.EventImageFailed:
		u.flash(fmt.Sprintf("%s: %s", ev.Canvas, ev.Message), true)
	case editor.EventImageCommitted:
		u.a.notifier.Upload(ev.Canvas, "")
	case editor.EventCleared, editor.EventReset:
		if u.text != nil && (ev.Canvas == "" || ev.Canvas == u.text.Canvas) {
			u.text = nil
		}
	case editor.EventSelection:
		if ev.Canvas != "" {
			u.shown = ev.Canvas
		}
	}
}

// handleKey applies a key press. It reports whether a repaint is needed.
func (u *ui) handleKey(e key.Event) bool {
	if e.Direction != key.DirPress && e.Direction != key.DirNone {
		return false
	}
	if u.text != nil {
		return u.handleTextKey(e)
	}
	mods := e.Modifiers &^ (key.ModAlt | key.ModMeta)
	if e.Rune > 0 {
		if name, ok := u.keys[KeyShortcut{Rune: unicode.ToLower(e.Rune), Modifiers: mods}]; ok {
			u.trigger(name)
			return true
		}
	}
	if name, ok := u.keys[KeyShortcut{Code: e.Code, Modifiers: mods}]; ok {
		u.trigger(name)
		return true
	}
	return false
}

func (u *ui) handleTextKey(e key.Event) bool {
	switch e.Code {
	case key.CodeReturnEnter:
		req, value := *u.text, u.textInput
		u.text, u.textInput = nil, ""
		if _, err := u.a.ws.CompleteText(req.ID, value); err != nil {
			u.fail("text", err)
		}
		return true
	case key.CodeEscape:
		req := *u.text
		u.text, u.textInput = nil, ""
		if err := u.a.ws.CancelText(req.ID); err != nil {
			u.a.log.Debug("cancel text", zap.Error(err))
		}
		return true
	case key.CodeDeleteBackspace:
		if _, n := utf8.DecodeLastRuneInString(u.textInput); n > 0 {
			u.textInput = u.textInput[:len(u.textInput)-n]
		}
		return true
	}
	if e.Rune > 0 && unicode.IsPrint(e.Rune) {
		u.textInput += string(e.Rune)
		return true
	}
	return false
}

func (u *ui) placed() image.Rectangle {
	s, err := u.a.ws.Surface(u.shown)
	if err != nil {
		return image.Rectangle{}
	}
	w, h := s.Size()
	return placeCanvas(layoutChrome(u.width, u.height).area, w, h)
}

// handleMouse applies a pointer event. It reports whether a repaint is
// needed.
func (u *ui) handleMouse(e mouse.Event) bool {
	p := image.Pt(int(e.X), int(e.Y))
	c := layoutChrome(u.width, u.height)
	press := e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress

	if !u.pressed {
		for _, bar := range []struct {
			rect    image.Rectangle
			buttons []*CacheButton
			hover   *int
		}{
			{c.strip, u.tabs, &u.hover.tab},
			{c.toolbar, u.toolbar, &u.hover.tool},
			{c.bottom, u.shortcuts, &u.hover.shortcut},
		} {
			if !p.In(bar.rect) {
				*bar.hover = -1
				continue
			}
			idx := hit(buttonRects(bar.buttons), p)
			*bar.hover = idx
			if press && idx >= 0 {
				bar.buttons[idx].Activate()
			}
			return true
		}
	}

	placed := u.placed()
	cp := toCanvas(placed, p)
	switch {
	case press:
		if !p.In(placed) || u.text != nil {
			return false
		}
		if key, ok := u.a.ws.Selected(); !ok || key != u.shown {
			u.selectCanvas(u.shown)
		}
		u.pressed = u.a.ws.Press(cp.X, cp.Y) && u.a.ws.Tool() != tools.Text
		return true
	case e.Direction == mouse.DirNone && u.pressed:
		u.a.ws.Move(cp.X, cp.Y)
		return true
	case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirRelease && u.pressed:
		u.pressed = false
		if err := u.a.ws.Release(cp.X, cp.Y); err != nil {
			u.fail("draw", err)
		}
		return true
	}
	return false
}

func buttonRects(buttons []*CacheButton) []image.Rectangle {
	rects := make([]image.Rectangle, len(buttons))
	for i, b := range buttons {
		rects[i] = b.Rect()
	}
	return rects
}

// resize lays out the chrome for a new window size.
func (u *ui) resize(width, height int) {
	u.width, u.height = width, height
	c := layoutChrome(width, height)

	tabLabels := make([]string, len(u.tabs))
	for i, t := range u.tabs {
		tabLabels[i] = t.Button.(*CanvasTab).label
	}
	for i, r := range rowButtons(c.strip, tabLabels) {
		u.tabs[i].SetRect(r)
	}
	breaks := []int{len(tools.Modes())}
	if n := len(u.toolbar) - 2; n > breaks[0] {
		breaks = append(breaks, n)
	}
	for i, r := range stackButtons(c.toolbar, len(u.toolbar), breaks...) {
		u.toolbar[i].SetRect(r)
	}
	labels := make([]string, len(u.shortcuts))
	for i, s := range u.shortcuts {
		labels[i] = s.Button.(*ActionButton).label
	}
	for i, r := range rowButtons(c.bottom, labels) {
		u.shortcuts[i].SetRect(r)
	}
	u.a.ws.Resize(c.viewport())
}

func (u *ui) snapshot() paintState {
	st := paintState{
		width:      u.width,
		height:     u.height,
		theme:      u.a.theme,
		tabs:       u.tabs,
		tools:      u.toolbar,
		shortcuts:  u.shortcuts,
		hover:      u.hover,
		activeTab:  -1,
		activeTool: int(u.a.ws.Tool()),
	}
	selected, hasSelection := u.a.ws.Selected()
	for i, k := range u.a.ws.Keys() {
		if k == selected {
			st.activeTab = i
		}
	}
	if s, err := u.a.ws.Surface(u.shown); err == nil {
		st.raster = s.Render(true)
		st.placed = u.placed()
		if w, h := s.Size(); !u.shadow.Fits(w, h) {
			u.shadow = render.NewShadow(w, h, render.DefaultShadowOptions())
		}
		st.shadow = u.shadow
		if key, stroke, ok := u.a.ws.Preview(); ok && key == u.shown {
			surface.DrawStroke(st.raster, stroke, s.Fill())
		}
		if u.text != nil && u.text.Canvas == u.shown {
			_ = surface.DrawText(st.raster, u.text.X, u.text.Y, u.textInput+"|", u.a.theme.Text, surface.DefaultTextSize)
		}
		for _, cfg := range u.a.ws.Registry().Configs() {
			if cfg.Key == u.shown {
				st.caption = cfg.DisplayName
				if cfg.Dimensions != "" {
					st.caption += " (" + cfg.Dimensions + ")"
				}
			}
		}
	}
	switch {
	case u.text != nil:
		st.status = "type text, Enter to place, Esc to cancel"
	case !hasSelection:
		st.status = "no canvas selected"
	default:
		st.status = fmt.Sprintf("%s on %s", u.a.ws.Tool(), selected)
	}
	if u.message != "" && time.Now().Before(u.messageUntil) {
		st.message, st.warn = u.message, u.warn
	}
	return st
}

// Main runs the window on s.
func (a *AppState) Main(s screen.Screen) {
	defer func() {
		if a.onClose != nil {
			a.onClose()
		}
	}()

	vp := a.ws.Viewport()
	width, height := vp.Width+toolbarWidth, vp.Height
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: width, Height: height, Title: a.title})
	if err != nil {
		a.log.Error("new window", zap.Error(err))
		return
	}
	defer w.Release()

	u := newUI(a, w.Send)
	u.resize(width, height)

	events, unsubscribe := a.ws.Subscribe()
	defer unsubscribe()
	go func() {
		for ev := range events {
			w.Send(workspaceEvent{ev})
		}
	}()

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan paintState, 1)
	defer close(paintCh)
	go func() {
		for st := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			drawFrame(ctx, s, w, st, a.log)
			paintMu.Lock()
			paintCancel = nil
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			cancel()
		}
	}()

	for {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				paintMu.Lock()
				if paintCancel != nil {
					paintCancel()
				}
				paintMu.Unlock()
				return
			}
		case size.Event:
			if e.WidthPx > 0 && e.HeightPx > 0 {
				u.resize(e.WidthPx, e.HeightPx)
			}
			w.Send(paint.Event{})
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil && dropCount < frameDropThreshold {
				paintCancel()
				dropCount++
			}
			paintMu.Unlock()
			st := u.snapshot()
			select {
			case paintCh <- st:
			default:
				select {
				case <-paintCh:
				default:
				}
				paintCh <- st
			}
		case workspaceEvent:
			u.onWorkspace(e.Event)
			w.Send(paint.Event{})
		case exportDone:
			u.finishExport(e)
			w.Send(paint.Event{})
		case key.Event:
			if u.handleKey(e) {
				w.Send(paint.Event{})
			}
		case mouse.Event:
			if u.handleMouse(e) {
				w.Send(paint.Event{})
			}
		case error:
			a.log.Warn("window error", zap.Error(e))
		}
	}
}
