package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/example/panelmark/internal/config"
	"github.com/example/panelmark/internal/logging"
	"github.com/example/panelmark/internal/notify"
	"github.com/example/panelmark/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs           *flag.FlagSet
	program      string
	config       *config.Config
	log          *logging.Logger
	notifier     *notify.Notifier
	exportAlerts bool
	uploadAlerts bool
	copyAlerts   bool
	themeName    string
	logLevel     string
	activeTheme  *theme.Theme
	stdout       io.Writer
	stderr       io.Writer
}

func (r *root) Program() string {
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}

	r := &root{
		fs:      newFlagSet("panelmark"),
		program: "panelmark",
		config:  cfg,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	r.fs.BoolVar(&r.exportAlerts, "notify-export", cfg.Notify.Export, "show a desktop notification after an export is saved")
	r.fs.BoolVar(&r.uploadAlerts, "notify-upload", cfg.Notify.Upload, "show a desktop notification when an image loads onto a canvas")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", cfg.Notify.Copy, "show a desktop notification after copying to the clipboard")

	// Precedence: CLI > Env > Config > Default
	r.fs.StringVar(&r.themeName, "theme", "", "color theme to use ("+strings.Join(theme.Available(), ", ")+")")
	r.fs.StringVar(&r.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	return r
}

// setup builds the logger, notifier and theme once flags are parsed.
func (r *root) setup() error {
	logCfg := logging.DefaultConfig()
	logCfg.Level = r.config.Log.Level
	logCfg.Development = r.config.Log.Development
	if r.logLevel != "" {
		logCfg.Level = r.logLevel
	}
	log, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	r.log = log

	prefs, err := notify.LoadPreferences()
	if err != nil {
		r.log.Sugar().Warnf("%v", err)
	}
	r.notifier = notify.New(prefs, r.log.Named("notify"))
	r.notifier.Enable(notify.EventExport, r.exportAlerts)
	r.notifier.Enable(notify.EventUpload, r.uploadAlerts)
	r.notifier.Enable(notify.EventCopy, r.copyAlerts)

	themeName := r.themeName
	if themeName == "" {
		themeName = r.config.Theme
	}
	t, err := r.config.ThemeLoader().Load(themeName)
	if err != nil {
		if themeName != "default" {
			fmt.Fprintf(r.stderr, "warning: failed to load theme '%s': %v. using default.\n", themeName, err)
		}
		t = theme.Default()
	}
	r.activeTheme = t
	return nil
}

func (r *root) Run(args []string) error {
	if err := parseFlags(r.fs, args, r); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	if err := r.setup(); err != nil {
		return err
	}
	defer func() { _ = r.log.Sync() }()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "annotate":
		cmd, err = parseAnnotateCmd(subArgs, r)
	case "serve":
		cmd, err = parseServeCmd(subArgs, r)
	case "render":
		cmd, err = parseRenderCmd(subArgs, r)
	case "interactive":
		cmd, err = parseInteractiveCmd(subArgs, r)
	case "layout":
		cmd, err = parseLayoutCmd(subArgs, r)
	case "logos":
		cmd = &logosCmd{root: r}
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{r: r}
	case "help":
		err = &UsageError{of: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
