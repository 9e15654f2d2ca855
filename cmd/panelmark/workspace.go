package main

import (
	"github.com/example/panelmark/internal/canvas"
	"github.com/example/panelmark/internal/editor"
	"github.com/example/panelmark/internal/export"
)

// newWorkspace builds an editing session from the loaded configuration.
func (r *root) newWorkspace(v canvas.Viewport, opts ...editor.Option) (*editor.Workspace, error) {
	base := []editor.Option{
		editor.WithLayout(r.config.Layout),
		editor.WithDebounce(r.config.Debounce),
		editor.WithViewport(v),
		editor.WithTheme(r.activeTheme),
		editor.WithLogger(r.log.Named("editor")),
	}
	return editor.New(append(base, opts...)...)
}

// newExporter returns nil when no service URL is configured.
func (r *root) newExporter(dir string) *export.Exporter {
	if r.config.Service.URL == "" {
		return nil
	}
	if dir == "" {
		dir = r.config.OutputDir
	}
	return &export.Exporter{
		Client: export.NewClient(r.config.Service.URL, export.WithTimeout(r.config.Service.Timeout)),
		Dir:    dir,
		Log:    r.log.Named("export"),
	}
}
