package appstate

import (
	"context"
	"image"
	"image/color"
	"image/draw"

	"go.uber.org/zap"
	"golang.org/x/exp/shiny/screen"

	"github.com/example/panelmark/internal/logging"
)

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState, log *logging.Logger) {
	b, err := s.NewBuffer(image.Point{st.width, st.height})
	if err != nil {
		log.Warn("new buffer", zap.Error(err))
		return
	}
	defer b.Release()

	renderFrame(ctx, b.RGBA(), st)
	if ctx.Err() != nil {
		return
	}

	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}

// renderFrame paints st into dst. It stops early once ctx is cancelled.
func renderFrame(ctx context.Context, dst *image.RGBA, st paintState) {
	th := st.theme
	c := layoutChrome(st.width, st.height)
	fillRect(dst, dst.Bounds(), th.Background)
	if ctx.Err() != nil {
		return
	}

	if st.raster != nil {
		st.shadow.Draw(dst, st.placed, color.Black)
		draw.Draw(dst, st.placed, st.raster, st.raster.Bounds().Min, draw.Src)
		outline(dst, st.placed.Inset(-1), th.StripSelected)
		if st.caption != "" {
			drawLabel(dst, st.placed.Min.X, st.placed.Min.Y-4, st.caption, th.Foreground)
		}
	}
	if ctx.Err() != nil {
		return
	}

	fillRect(dst, c.strip, th.StripBackground)
	drawButtons(dst, st.tabs, st.hover.tab, st.activeTab)
	if st.activeTab >= 0 && st.activeTab < len(st.tabs) {
		outline(dst, st.tabs[st.activeTab].Rect(), th.StripSelected)
	}
	fillRect(dst, c.toolbar, th.StripBackground)
	drawButtons(dst, st.tools, st.hover.tool, st.activeTool)
	fillRect(dst, c.bottom, th.StripBackground)
	drawButtons(dst, st.shortcuts, st.hover.shortcut, -1)

	if ctx.Err() != nil {
		return
	}

	if n := len(st.shortcuts); n > 0 {
		x := st.shortcuts[n-1].Rect().Max.X + 12
		drawLabel(dst, x, c.bottom.Min.Y+16, st.status, th.Foreground)
	}

	if st.message != "" {
		drawBanner(dst, c.area, st.message, th.Foreground, th.Warning, st.warn)
	}
}

func drawButtons(dst *image.RGBA, buttons []*CacheButton, hovered, active int) {
	for i, b := range buttons {
		state := StateDefault
		switch i {
		case active:
			state = StatePressed
		case hovered:
			state = StateHover
		}
		b.Draw(dst, state)
	}
}

func drawBanner(dst *image.RGBA, area image.Rectangle, msg string, fg, warnColour color.RGBA, warn bool) {
	wmsg := labelWidth(msg)
	px := area.Min.X + (area.Dx()-wmsg)/2
	py := area.Max.Y - 20
	rect := image.Rect(px-8, py-16, px+wmsg+8, py+8)
	draw.Draw(dst, rect, &image.Uniform{color.RGBA{255, 255, 255, 230}}, image.Point{}, draw.Over)
	text := fg
	if warn {
		text = warnColour
	}
	outline(dst, rect, text)
	drawLabel(dst, px, py, msg, text)
}
