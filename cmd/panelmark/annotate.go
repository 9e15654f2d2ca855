package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/panelmark/internal/appstate"
	"github.com/example/panelmark/internal/editor"
	"github.com/example/panelmark/internal/export"
	"github.com/example/panelmark/internal/viewport"
)

// annotateCmd opens the editing window.
type annotateCmd struct {
	*root
	fs       *flag.FlagSet
	uploads  commandList
	fields   commandList
	monitor  string
	output   string
	selected string
}

func (a *annotateCmd) Program() string        { return a.root.program + " annotate" }
func (a *annotateCmd) FlagSet() *flag.FlagSet { return a.fs }

func parseAnnotateCmd(args []string, r *root) (*annotateCmd, error) {
	fs := newFlagSet("annotate")
	a := &annotateCmd{root: r, fs: fs}
	fs.Var(&a.uploads, "upload", "preload an image as canvas=file (may be repeated)")
	fs.Var(&a.fields, "set", "survey field sent on export as name=value (may be repeated)")
	fs.StringVar(&a.monitor, "monitor", "", "monitor whose size drives the layout (primary, index or name)")
	fs.StringVar(&a.output, "output", r.config.OutputDir, "directory for saved canvases and exported documents")
	fs.StringVar(&a.selected, "select", editor.DefaultSelection, "canvas selected at start, empty for none")
	if err := parseFlags(fs, args, a); err != nil {
		return nil, err
	}
	for _, u := range a.uploads {
		if _, _, ok := strings.Cut(u, "="); !ok {
			return nil, &UsageError{of: a, err: fmt.Errorf("-upload %q: want canvas=file", u)}
		}
	}
	return a, nil
}

func (a *annotateCmd) metadata() (export.Metadata, error) {
	var md export.Metadata
	for _, f := range a.fields {
		name, value, ok := strings.Cut(f, "=")
		if !ok {
			return md, fmt.Errorf("-set %q: want name=value", f)
		}
		if err := md.Set(name, value); err != nil {
			return md, err
		}
	}
	return md, nil
}

func (a *annotateCmd) Run() error {
	md, err := a.metadata()
	if err != nil {
		return &UsageError{of: a, err: err}
	}
	ws, err := a.newWorkspace(viewport.ProbeOr(a.monitor, a.config.Viewport), editor.WithSelection(a.selected))
	if err != nil {
		return err
	}
	defer ws.Close()

	for _, u := range a.uploads {
		key, path, _ := strings.Cut(u, "=")
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if _, err := ws.Upload(key, data, filepath.Base(path)); err != nil {
			return fmt.Errorf("upload %s: %w", key, err)
		}
	}

	opts := []appstate.Option{
		appstate.WithTheme(a.activeTheme),
		appstate.WithNotifier(a.notifier),
		appstate.WithOutputDir(a.output),
		appstate.WithLogger(a.log.Named("window")),
	}
	if exporter := a.newExporter(a.output); exporter != nil {
		opts = append(opts, appstate.WithExporter(func(ctx context.Context) (string, error) {
			ctx, cancel := context.WithTimeout(ctx, a.config.Service.Timeout+10*time.Second)
			defer cancel()
			res, err := exporter.Export(ctx, ws, md)
			if err != nil {
				return "", err
			}
			return res.Path, nil
		}))
	}
	v := ws.Viewport()
	a.log.Debug("opening window", zap.Int("width", v.Width), zap.Int("height", v.Height))
	appstate.New(ws, opts...).Run()
	return nil
}
