package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/example/panelmark/internal/viewport"
)

type interactiveCmd struct {
	*root
	fs      *flag.FlagSet
	execs   commandList
	monitor string
	output  string
}

// commandList collects repeated -e flags.
type commandList []string

func (c *commandList) String() string {
	return fmt.Sprint([]string(*c))
}

func (c *commandList) Set(value string) error {
	*c = append(*c, value)
	return nil
}

func (i *interactiveCmd) Program() string        { return i.root.program + " interactive" }
func (i *interactiveCmd) FlagSet() *flag.FlagSet { return i.fs }

func parseInteractiveCmd(args []string, r *root) (*interactiveCmd, error) {
	fs := newFlagSet("interactive")
	i := &interactiveCmd{root: r, fs: fs}
	fs.Var(&i.execs, "e", "execute a command in immediate mode (may be specified multiple times)")
	fs.StringVar(&i.monitor, "monitor", "", "monitor whose size drives the layout (primary, index or name)")
	fs.StringVar(&i.output, "output", r.config.OutputDir, "directory for saved canvases and exported documents")
	if err := parseFlags(fs, args, i); err != nil {
		return nil, err
	}
	return i, nil
}

func (i *interactiveCmd) Run() error {
	ws, err := i.newWorkspace(viewport.ProbeOr(i.monitor, i.config.Viewport))
	if err != nil {
		return err
	}
	defer ws.Close()
	s := newSession(ws, i.newExporter(i.output), i.output, i.stdout)
	ctx := context.Background()

	if len(i.execs) > 0 {
		for _, line := range i.execs {
			if err := s.execute(ctx, line); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				return err
			}
		}
		return nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return i.loop(ctx, s, bufio.NewScanner(os.Stdin))
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return i.loop(ctx, s, bufio.NewScanner(os.Stdin))
	}
	defer func() { _ = term.Restore(fd, state) }()

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}, "> ")
	if w, h, err := term.GetSize(fd); err == nil {
		_ = t.SetSize(w, h)
	}
	s.out = t
	fmt.Fprintln(t, "Enter commands (type 'help' for a list, 'exit' to quit)")
	for {
		line, err := t.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := s.execute(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintln(t, err)
		}
	}
}

// loop reads commands from a pipe or file.
func (i *interactiveCmd) loop(ctx context.Context, s *session, scanner *bufio.Scanner) error {
	for scanner.Scan() {
		if err := s.execute(ctx, scanner.Text()); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintln(i.stderr, err)
		}
	}
	return scanner.Err()
}
