package viewport

import (
	"errors"
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/example/panelmark/internal/canvas"
)

var layout = []Monitor{
	{Index: 0, Name: "HDMI-1", Rect: image.Rect(0, 0, 1920, 1080)},
	{Index: 1, Name: "eDP-1", Rect: image.Rect(1920, 0, 3200, 800), Primary: true},
}

func TestSelect(t *testing.T) {
	cases := map[string]string{
		"":        "eDP-1",
		"primary": "eDP-1",
		"0":       "HDMI-1",
		"#1":      "eDP-1",
		"hdmi":    "HDMI-1",
	}
	for sel, want := range cases {
		m, err := Select(layout, sel)
		if err != nil {
			t.Fatalf("Select(%q): %v", sel, err)
		}
		if m.Name != want {
			t.Errorf("Select(%q) = %s, want %s", sel, m.Name, want)
		}
	}
}

func TestSelectErrors(t *testing.T) {
	if _, err := Select(nil, ""); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("empty layout: %v", err)
	}
	if _, err := Select(layout, "7"); err == nil {
		t.Fatal("expected out of range error")
	}
	if _, err := Select(layout, "dp-9"); err == nil {
		t.Fatal("expected not found error")
	}
}

func TestMonitorViewport(t *testing.T) {
	got := layout[1].Viewport()
	if diff := cmp.Diff(canvas.Viewport{Width: 1280, Height: 800}, got); diff != "" {
		t.Fatalf("viewport mismatch (-want +got):\n%s", diff)
	}
}

func TestProbeOrFallsBackWithoutDisplay(t *testing.T) {
	t.Setenv("DISPLAY", "")
	fallback := canvas.Viewport{Width: 1024, Height: 768}
	if got := ProbeOr("", fallback); got != fallback {
		t.Fatalf("ProbeOr = %v, want %v", got, fallback)
	}
}
