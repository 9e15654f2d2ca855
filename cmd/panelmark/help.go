package main

import (
	"bytes"
	"embed"
	"errors"
	"flag"
	"fmt"
	"io"
	"sync"
	"text/template"
)

//go:embed templates/*.txt
var helpFS embed.FS

var (
	helpOnce sync.Once
	helpTmpl *template.Template
)

func parseHelpTemplates() {
	helpTmpl = template.Must(template.New("").Funcs(map[string]any{
		"flags": func(fs *flag.FlagSet) []flagInfo {
			result := []flagInfo{}
			if fs == nil {
				return result
			}
			fs.VisitAll(func(f *flag.Flag) {
				result = append(result, flagInfo{f.Name, f.DefValue, f.Usage})
			})
			return result
		},
	}).ParseFS(helpFS, "templates/*.txt"))
}

type flagInfo struct {
	Name     string
	DefValue string
	Usage    string
}

type HelpData interface {
	Program() string
	Template() string
	FlagSet() *flag.FlagSet
}

// UsageError renders the help text of the command that rejected its
// arguments.
type UsageError struct {
	of  HelpData
	err error
}

func (e *UsageError) Error() string {
	help, err := e.renderHelp()
	if err != nil {
		return err.Error()
	}
	if e.err != nil {
		return fmt.Sprintf("%v\n\n%s", e.err, help)
	}
	return help
}

func (e *UsageError) Unwrap() error { return e.err }

func (e *UsageError) renderHelp() (string, error) {
	helpOnce.Do(parseHelpTemplates)
	var buf bytes.Buffer
	if err := helpTmpl.ExecuteTemplate(&buf, e.of.Template(), e.of); err != nil {
		return "", fmt.Errorf("rendering help template: %w", err)
	}
	return buf.String(), nil
}

// newFlagSet returns a flag set that reports problems through parseFlags
// instead of printing them.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// parseFlags parses args into fs and turns -h into a UsageError.
func parseFlags(fs *flag.FlagSet, args []string, of HelpData) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return &UsageError{of: of}
		}
		return &UsageError{of: of, err: err}
	}
	return nil
}

func (r *root) Template() string {
	return "root.txt"
}

func (a *annotateCmd) Template() string {
	return "annotate.txt"
}

func (s *serveCmd) Template() string {
	return "serve.txt"
}

func (c *renderCmd) Template() string {
	return "render.txt"
}

func (i *interactiveCmd) Template() string {
	return "interactive.txt"
}

func (l *layoutCmd) Template() string {
	return "layout.txt"
}

func (c *configCmd) Template() string {
	return "config.txt"
}

func (v *versionCmd) Template() string {
	return "version.txt"
}
