package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"

	"github.com/example/panelmark/internal/canvas"
)

// renderCmd runs an editing script without a window.
type renderCmd struct {
	*root
	fs     *flag.FlagSet
	script string
	output string
	width  int
	height int
}

func (c *renderCmd) Program() string        { return c.root.program + " render" }
func (c *renderCmd) FlagSet() *flag.FlagSet { return c.fs }

func parseRenderCmd(args []string, r *root) (*renderCmd, error) {
	fs := newFlagSet("render")
	c := &renderCmd{root: r, fs: fs}
	fs.StringVar(&c.script, "script", "-", "script file to run, - for stdin")
	fs.StringVar(&c.output, "output", r.config.OutputDir, "directory for saved canvases and exported documents")
	fs.IntVar(&c.width, "width", r.config.Viewport.Width, "viewport width used for layout")
	fs.IntVar(&c.height, "height", r.config.Viewport.Height, "viewport height used for layout")
	if err := parseFlags(fs, args, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *renderCmd) Run() error {
	var in io.Reader = os.Stdin
	if c.script != "-" {
		f, err := os.Open(c.script)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	ws, err := c.newWorkspace(canvas.Viewport{Width: c.width, Height: c.height})
	if err != nil {
		return err
	}
	defer ws.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newSession(ws, c.newExporter(c.output), c.output, c.stdout).runScript(ctx, in)
}
