package main

import (
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/example/panelmark/assets"
	"github.com/example/panelmark/internal/canvas"
	"github.com/example/panelmark/internal/theme"
)

// layoutCmd prints the pixel size of every canvas for a viewport.
type layoutCmd struct {
	*root
	fs     *flag.FlagSet
	width  int
	height int
}

func (l *layoutCmd) Program() string        { return l.root.program + " layout" }
func (l *layoutCmd) FlagSet() *flag.FlagSet { return l.fs }

func parseLayoutCmd(args []string, r *root) (*layoutCmd, error) {
	fs := newFlagSet("layout")
	l := &layoutCmd{root: r, fs: fs}
	fs.IntVar(&l.width, "width", r.config.Viewport.Width, "viewport width")
	fs.IntVar(&l.height, "height", r.config.Viewport.Height, "viewport height")
	if err := parseFlags(fs, args, l); err != nil {
		return nil, err
	}
	if l.width <= 0 || l.height <= 0 {
		return nil, &UsageError{of: l, err: fmt.Errorf("viewport must be positive")}
	}
	return l, nil
}

func (l *layoutCmd) Run() error {
	tw := tabwriter.NewWriter(l.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME\tSIZE\tMODE\tACCENT\t")
	v := canvas.Viewport{Width: l.width, Height: l.height}
	for _, s := range canvas.Default().Resolve(l.config.Layout, v) {
		mode := "fixed"
		if s.Responsive() {
			mode = "responsive"
		}
		fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%s\t%s\t\n", s.Key, s.DisplayName, s.PixelWidth, s.PixelHeight, mode, theme.Hex(s.Accent))
	}
	return tw.Flush()
}

type logosCmd struct {
	*root
}

func (l *logosCmd) Run() error {
	logos, err := assets.Logos()
	if err != nil {
		return err
	}
	names := make([]string, 0, len(logos))
	for _, logo := range logos {
		names = append(names, fmt.Sprintf("%s (%s, %dx%d)", logo.Key, logo.Name, logo.Width, logo.Height))
	}
	fmt.Fprintln(l.stdout, strings.Join(names, "\n"))
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
