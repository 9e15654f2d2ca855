//go:build linux || freebsd || openbsd || netbsd || dragonfly

package clipboard

import (
	"errors"
	"sync"
	"testing"
)

func TestWithoutDisplay(t *testing.T) {
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "")

	initOnce = sync.Once{}
	initErr = nil
	t.Cleanup(func() { initOnce = sync.Once{} })

	if err := System.WritePNG([]byte{0x89, 'P', 'N', 'G'}); !errors.Is(err, ErrNoDisplay) {
		t.Fatalf("WritePNG: expected ErrNoDisplay, got %v", err)
	}
	if _, err := System.ReadPNG(); !errors.Is(err, ErrNoDisplay) {
		t.Fatalf("ReadPNG: expected ErrNoDisplay, got %v", err)
	}
}
