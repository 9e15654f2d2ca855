package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/example/panelmark/internal/canvas"
	"github.com/example/panelmark/internal/editor"
	"github.com/example/panelmark/internal/export"
	"github.com/example/panelmark/internal/surface"
	"github.com/example/panelmark/internal/tools"
)

// errQuit ends a script or an interactive session.
var errQuit = errors.New("quit")

// defaultWait bounds how long a command waits for an image to load.
const defaultWait = 30 * time.Second

// session executes editing commands, one per line, against a workspace.
type session struct {
	ws       *editor.Workspace
	exporter *export.Exporter
	md       export.Metadata
	outDir   string
	out      io.Writer
	wait     time.Duration
}

type command struct {
	usage string
	help  string
	run   func(s *session, ctx context.Context, args []string, rest string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"select":    {"select <canvas>", "select a canvas", cmdSelect},
		"deselect":  {"deselect", "clear the selection", cmdDeselect},
		"upload":    {"upload <canvas> <file>", "load a background image and wait for it", cmdUpload},
		"remove":    {"remove <canvas>", "remove the background image", cmdRemove},
		"tool":      {"tool <draw|line|erase|text>", "switch the active tool", cmdTool},
		"press":     {"press <x> <y>", "start a gesture", pointerCmd("press")},
		"move":      {"move <x> <y>", "extend the gesture", pointerCmd("move")},
		"release":   {"release <x> <y>", "finish the gesture", pointerCmd("release")},
		"click":     {"click <x> <y>", "press and release at one point", cmdClick},
		"line":      {"line <x1> <y1> <x2> <y2>", "drag from one point to another", cmdLine},
		"text":      {"text <value>", "answer the pending text request", cmdText},
		"cancel":    {"cancel", "drop the pending text request", cmdCancel},
		"logo":      {"logo <name>", "stamp a logo on the selected canvas", cmdLogo},
		"clear":     {"clear", "clear annotations on the selected canvas", cmdClear},
		"reset":     {"reset <canvas>", "reset one canvas", cmdReset},
		"reset-all": {"reset-all", "reset every canvas", cmdResetAll},
		"viewport":  {"viewport <width> <height>", "lay canvases out for a viewport", cmdViewport},
		"set":       {"set <field> <value>", "set a survey field", cmdSet},
		"save":      {"save <canvas> [file]", "write one canvas as PNG", cmdSave},
		"export":    {"export", "send every canvas to the document service", cmdExport},
		"status":    {"status", "summarise every canvas", cmdStatus},
		"help":      {"help", "list commands", cmdHelp},
		"quit":      {"quit", "leave the session", cmdQuit},
	}
}

func newSession(ws *editor.Workspace, exporter *export.Exporter, outDir string, out io.Writer) *session {
	if outDir == "" {
		outDir = "."
	}
	return &session{ws: ws, exporter: exporter, outDir: outDir, out: out, wait: defaultWait}
}

// execute runs one line. Blank lines and # comments are ignored.
func (s *session) execute(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	cmd, ok := commands[strings.ToLower(name)]
	if !ok {
		if name == "exit" {
			return errQuit
		}
		return fmt.Errorf("unknown command %q (try help)", name)
	}
	return cmd.run(s, ctx, strings.Fields(rest), rest)
}

// runScript executes r line by line and stops at the first error.
func (s *session) runScript(ctx context.Context, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	for i, line := range strings.Split(string(data), "\n") {
		if err := s.execute(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			return fmt.Errorf("line %d: %w", i+1, err)
		}
	}
	return nil
}

func want(args []string, n int, usage string) error {
	if len(args) != n {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}

func ints(args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q", a)
		}
		out[i] = v
	}
	return out, nil
}

func (s *session) waitFor(ctx context.Context, p *surface.Pending) error {
	ctx, cancel := context.WithTimeout(ctx, s.wait)
	defer cancel()
	return p.Wait(ctx)
}

func cmdSelect(s *session, _ context.Context, args []string, _ string) error {
	if err := want(args, 1, commands["select"].usage); err != nil {
		return err
	}
	return s.ws.Select(args[0])
}

func cmdDeselect(s *session, _ context.Context, _ []string, _ string) error {
	s.ws.Deselect()
	return nil
}

func cmdUpload(s *session, ctx context.Context, args []string, _ string) error {
	if err := want(args, 2, commands["upload"].usage); err != nil {
		return err
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}
	p, err := s.ws.Upload(args[0], data, filepath.Base(args[1]))
	if err != nil {
		return err
	}
	if err := s.waitFor(ctx, p); err != nil {
		return err
	}
	if !p.Committed() {
		return fmt.Errorf("upload to %s was superseded", args[0])
	}
	return nil
}

func cmdRemove(s *session, _ context.Context, args []string, _ string) error {
	if err := want(args, 1, commands["remove"].usage); err != nil {
		return err
	}
	return s.ws.RemoveImage(args[0])
}

func cmdTool(s *session, _ context.Context, args []string, _ string) error {
	if err := want(args, 1, commands["tool"].usage); err != nil {
		return err
	}
	m, err := tools.ParseMode(args[0])
	if err != nil {
		return err
	}
	s.ws.SetTool(m)
	return nil
}

func pointerCmd(name string) func(*session, context.Context, []string, string) error {
	return func(s *session, _ context.Context, args []string, _ string) error {
		return s.pointer(name, args)
	}
}

func (s *session) pointer(name string, args []string) error {
	if err := want(args, 2, commands[name].usage); err != nil {
		return err
	}
	p, err := ints(args)
	if err != nil {
		return err
	}
	switch name {
	case "press":
		if !s.ws.Press(p[0], p[1]) {
			return editor.ErrNoSelection
		}
	case "move":
		s.ws.Move(p[0], p[1])
	case "release":
		return s.ws.Release(p[0], p[1])
	}
	return nil
}

func cmdClick(s *session, _ context.Context, args []string, _ string) error {
	if err := want(args, 2, commands["click"].usage); err != nil {
		return err
	}
	if err := s.pointer("press", args); err != nil {
		return err
	}
	return s.pointer("release", args)
}

func cmdLine(s *session, _ context.Context, args []string, _ string) error {
	if err := want(args, 4, commands["line"].usage); err != nil {
		return err
	}
	if err := s.pointer("press", args[:2]); err != nil {
		return err
	}
	if err := s.pointer("move", args[2:]); err != nil {
		return err
	}
	return s.pointer("release", args[2:])
}

func cmdText(s *session, _ context.Context, _ []string, rest string) error {
	req, ok := s.ws.PendingText()
	if !ok {
		return editor.ErrNoPendingText
	}
	placed, err := s.ws.CompleteText(req.ID, rest)
	if err != nil {
		return err
	}
	if !placed && rest != "" {
		fmt.Fprintf(s.out, "text on %s was dropped\n", req.Canvas)
	}
	return nil
}

func cmdCancel(s *session, _ context.Context, _ []string, _ string) error {
	req, ok := s.ws.PendingText()
	if !ok {
		return editor.ErrNoPendingText
	}
	return s.ws.CancelText(req.ID)
}

func cmdLogo(s *session, ctx context.Context, args []string, _ string) error {
	if err := want(args, 1, commands["logo"].usage); err != nil {
		return err
	}
	p, err := s.ws.AddLogo(args[0])
	if err != nil {
		if errors.Is(err, editor.ErrNoSelection) {
			return errors.New(editor.NoSelectionWarning)
		}
		return err
	}
	return s.waitFor(ctx, p)
}

func cmdClear(s *session, _ context.Context, _ []string, _ string) error {
	if !s.ws.ClearAnnotations() {
		return editor.ErrNoSelection
	}
	return nil
}

func cmdReset(s *session, _ context.Context, args []string, _ string) error {
	if err := want(args, 1, commands["reset"].usage); err != nil {
		return err
	}
	return s.ws.ResetCanvas(args[0])
}

func cmdResetAll(s *session, _ context.Context, _ []string, _ string) error {
	s.ws.ResetAll()
	s.md = export.Metadata{}
	return nil
}

func cmdViewport(s *session, _ context.Context, args []string, _ string) error {
	if err := want(args, 2, commands["viewport"].usage); err != nil {
		return err
	}
	v, err := ints(args)
	if err != nil {
		return err
	}
	if v[0] <= 0 || v[1] <= 0 {
		return fmt.Errorf("viewport must be positive")
	}
	s.ws.ApplyViewport(canvas.Viewport{Width: v[0], Height: v[1]})
	return nil
}

func cmdSet(s *session, _ context.Context, args []string, rest string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s", commands["set"].usage)
	}
	value := strings.TrimSpace(strings.TrimPrefix(rest, args[0]))
	return s.md.Set(args[0], value)
}

func cmdSave(s *session, _ context.Context, args []string, _ string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: %s", commands["save"].usage)
	}
	data, err := s.ws.ExportPNG(args[0])
	if err != nil {
		return err
	}
	path := filepath.Join(s.outDir, args[0]+".png")
	if len(args) == 2 {
		path = args[1]
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "saved %s\n", path)
	return nil
}

func cmdExport(s *session, ctx context.Context, _ []string, _ string) error {
	if s.exporter == nil {
		return errors.New("export service is not configured")
	}
	res, err := s.exporter.Export(ctx, s.ws, s.md)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "saved %s (%d canvases, %s)\n", res.Path, res.Images, res.Elapsed.Round(time.Millisecond))
	return nil
}

func cmdStatus(s *session, _ context.Context, _ []string, _ string) error {
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CANVAS\tSIZE\tIMAGE\tSTROKES\tTEXTS\tLOGOS\t")
	for _, c := range s.ws.Snapshot() {
		name := c.Key
		if c.Selected {
			name = "*" + name
		}
		fmt.Fprintf(tw, "%s\t%dx%d\t%v\t%d\t%d\t%d\t\n", name, c.Width, c.Height, c.Uploaded, c.Strokes, c.Texts, c.Logos)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "tool: %s\n", s.ws.Tool())
	return nil
}

func cmdHelp(s *session, _ context.Context, _ []string, _ string) error {
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	for _, name := range commandNames() {
		c := commands[name]
		fmt.Fprintf(tw, "%s\t%s\n", c.usage, c.help)
	}
	return tw.Flush()
}

func cmdQuit(*session, context.Context, []string, string) error { return errQuit }

func commandNames() []string {
	return []string{
		"select", "deselect", "upload", "remove", "tool", "press", "move", "release",
		"click", "line", "text", "cancel", "logo", "clear", "reset", "reset-all",
		"viewport", "set", "save", "export", "status", "help", "quit",
	}
}
