package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/panelmark/internal/canvas"
	"github.com/example/panelmark/internal/theme"
)

// Notify holds notification settings.
type Notify struct {
	Export bool
	Upload bool
	Copy   bool
}

// Service describes the document generation endpoint.
type Service struct {
	URL     string
	Timeout time.Duration
}

// Server holds settings for the editing API.
type Server struct {
	Addr string
	// RateLimit is the sustained number of exports per second; zero
	// disables limiting.
	RateLimit float64
	Burst     int
}

// Log holds logger settings.
type Log struct {
	Level       string
	Development bool
}

// Config holds the application configuration.
type Config struct {
	Theme     string
	OutputDir string
	Service   Service
	Server    Server
	Layout    canvas.Layout
	Debounce  time.Duration
	Viewport  canvas.Viewport
	Notify    Notify
	Log       Log
	Themes    map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Theme:     "", // Default to empty to allow fallback to Env/Default
		OutputDir: ".",
		Service: Service{
			URL:     "http://localhost:3000/export",
			Timeout: 60 * time.Second,
		},
		Server: Server{
			Addr:      ":8080",
			RateLimit: 1,
			Burst:     3,
		},
		Layout:   canvas.DefaultLayout(),
		Debounce: canvas.DefaultDebounce,
		Viewport: canvas.Viewport{Width: 1024, Height: 768},
		Notify: Notify{
			Export: true,
			Upload: false,
			Copy:   false,
		},
		Log:    Log{Level: "info"},
		Themes: make(map[string]*theme.Theme),
	}
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	// Root section
	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.OutputDir != "" {
		fmt.Fprintf(&sb, "output_dir = %s\n", c.OutputDir)
	}
	sb.WriteString("\n")

	sb.WriteString("[service]\n")
	fmt.Fprintf(&sb, "url = %s\n", c.Service.URL)
	fmt.Fprintf(&sb, "timeout = %s\n", c.Service.Timeout)
	sb.WriteString("\n")

	sb.WriteString("[server]\n")
	fmt.Fprintf(&sb, "addr = %s\n", c.Server.Addr)
	fmt.Fprintf(&sb, "rate_limit = %g\n", c.Server.RateLimit)
	fmt.Fprintf(&sb, "burst = %d\n", c.Server.Burst)
	sb.WriteString("\n")

	sb.WriteString("[layout]\n")
	fmt.Fprintf(&sb, "margin = %d\n", c.Layout.Margin)
	fmt.Fprintf(&sb, "max_width = %d\n", c.Layout.MaxWidth)
	fmt.Fprintf(&sb, "height_fraction = %g\n", c.Layout.HeightFraction)
	fmt.Fprintf(&sb, "max_height = %d\n", c.Layout.MaxHeight)
	fmt.Fprintf(&sb, "min_width = %d\n", c.Layout.MinWidth)
	fmt.Fprintf(&sb, "debounce = %s\n", c.Debounce)
	sb.WriteString("\n")

	sb.WriteString("[viewport]\n")
	fmt.Fprintf(&sb, "width = %d\n", c.Viewport.Width)
	fmt.Fprintf(&sb, "height = %d\n", c.Viewport.Height)
	sb.WriteString("\n")

	// Notify section
	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "export = %v\n", c.Notify.Export)
	fmt.Fprintf(&sb, "upload = %v\n", c.Notify.Upload)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	sb.WriteString("\n")

	sb.WriteString("[log]\n")
	fmt.Fprintf(&sb, "level = %s\n", c.Log.Level)
	fmt.Fprintf(&sb, "development = %v\n", c.Log.Development)
	sb.WriteString("\n")

	// Themes sections
	// Sort keys for deterministic output
	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		for _, f := range theme.Fields(t) {
			fmt.Fprintf(&sb, "%s: %s\n", f.Name, theme.Hex(f.Color))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// ThemeLoader returns a theme loader that also knows the themes declared in
// this config.
func (c *Config) ThemeLoader() *theme.Loader {
	l := theme.NewLoader()
	for name, t := range c.Themes {
		l.Declared[name] = t
	}
	return l
}
