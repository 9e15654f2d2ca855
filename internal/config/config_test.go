package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	input := `
theme = my_custom_theme
output_dir = /tmp/decks

[service]
url = http://generator.local/export
timeout = 90s

[server]
addr = 127.0.0.1:9000
rate_limit = 0.5

[layout]
max_width = 640
debounce = 150ms

[viewport]
width = 1280
height = 720

[notify]
export = false
upload = true
copy = true

[log]
level = debug
development = true

[theme.my_custom_theme]
Fill = #111111
Ink = #FFFFFF
`
	r := strings.NewReader(input)
	cfg, err := Parse(r)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Theme != "my_custom_theme" {
		t.Errorf("Expected theme 'my_custom_theme', got '%s'", cfg.Theme)
	}
	if cfg.OutputDir != "/tmp/decks" {
		t.Errorf("Expected output_dir '/tmp/decks', got '%s'", cfg.OutputDir)
	}
	if cfg.Service.URL != "http://generator.local/export" || cfg.Service.Timeout != 90*time.Second {
		t.Errorf("Unexpected service: %+v", cfg.Service)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || cfg.Server.RateLimit != 0.5 {
		t.Errorf("Unexpected server: %+v", cfg.Server)
	}
	if cfg.Layout.MaxWidth != 640 || cfg.Layout.Margin != 64 {
		t.Errorf("Unexpected layout: %+v", cfg.Layout)
	}
	if cfg.Debounce != 150*time.Millisecond {
		t.Errorf("Unexpected debounce: %v", cfg.Debounce)
	}
	if cfg.Viewport.Width != 1280 || cfg.Viewport.Height != 720 {
		t.Errorf("Unexpected viewport: %+v", cfg.Viewport)
	}
	if cfg.Notify.Export {
		t.Error("Expected notify.export to be false")
	}
	if !cfg.Notify.Upload || !cfg.Notify.Copy {
		t.Error("Expected notify.upload and notify.copy to be true")
	}
	if cfg.Log.Level != "debug" || !cfg.Log.Development {
		t.Errorf("Unexpected log: %+v", cfg.Log)
	}

	theme, ok := cfg.Themes["my_custom_theme"]
	if !ok {
		t.Fatal("Expected theme 'my_custom_theme' to be loaded")
	}
	if theme.Fill.R != 0x11 || theme.Fill.G != 0x11 || theme.Fill.B != 0x11 {
		t.Errorf("Unexpected Fill color: %+v", theme.Fill)
	}
}

func TestParseErrors(t *testing.T) {
	for name, input := range map[string]string{
		"bool":     "[notify]\nexport = maybe\n",
		"duration": "[service]\ntimeout = soon\n",
		"fraction": "[layout]\nheight_fraction = 2\n",
		"color":    "[theme.x]\nFill = #12\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(input)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestCircular(t *testing.T) {
	input := `theme = dark
output_dir = /home/user/decks

[notify]
export = true
upload = true
copy = false

[theme.custom]
Name = custom
Fill = #000000
StripSelected = #FFFFFF
`
	// 1. Parse initial input
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Initial parse failed: %v", err)
	}

	// 2. Generate string representation
	generated := cfg.String()

	// 3. Parse generated string
	cfg2, err := Parse(strings.NewReader(generated))
	if err != nil {
		t.Fatalf("Circular parse failed: %v", err)
	}

	// 4. Compare relevant fields
	if cfg.Theme != cfg2.Theme {
		t.Errorf("Theme mismatch: %q vs %q", cfg.Theme, cfg2.Theme)
	}
	if cfg.OutputDir != cfg2.OutputDir {
		t.Errorf("OutputDir mismatch: %q vs %q", cfg.OutputDir, cfg2.OutputDir)
	}
	if cfg.Notify != cfg2.Notify {
		t.Errorf("Notify mismatch: %+v vs %+v", cfg.Notify, cfg2.Notify)
	}
	if cfg.Service != cfg2.Service || cfg.Server != cfg2.Server || cfg.Layout != cfg2.Layout {
		t.Errorf("Section mismatch:\n%+v\n%+v", cfg, cfg2)
	}

	// Check theme persistence
	t1 := cfg.Themes["custom"]
	t2 := cfg2.Themes["custom"]
	if t1 == nil || t2 == nil {
		t.Fatalf("Custom theme missing in one config")
	}
	if *t1 != *t2 {
		t.Errorf("Theme mismatch: %+v vs %+v", t1, t2)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.rc")
	if err := os.WriteFile(path, []byte("[service]\nurl = http://file/export\n[log]\nlevel = warn\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("PANELMARK_SERVICE_URL", "http://env/export")
	t.Setenv("PANELMARK_LOG_DEVELOPMENT", "true")
	t.Setenv("PANELMARK_VIEWPORT_WIDTH", "1440")

	cfg, err := NewLoader("test", path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Service.URL != "http://env/export" {
		t.Errorf("env did not override url: %s", cfg.Service.URL)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("file level lost: %s", cfg.Log.Level)
	}
	if !cfg.Log.Development {
		t.Errorf("env development flag not applied")
	}
	if cfg.Viewport.Width != 1440 || cfg.Viewport.Height != 768 {
		t.Errorf("viewport = %+v", cfg.Viewport)
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.rc")
	cfg := New()
	cfg.Theme = "contrast"
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := NewLoader("test", path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Theme != "contrast" {
		t.Errorf("theme = %q", got.Theme)
	}
}
