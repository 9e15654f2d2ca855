// Package canvas describes the diagram placeholders an operator edits and
// computes their pixel geometry.
package canvas

import (
	"fmt"
	"image/color"
)

// Config describes one canvas type. A config is either fixed (Width and
// Height set) or responsive (WidthRatio and HeightRatio set, pixel size
// derived from the viewport on every layout pass).
type Config struct {
	Key         string
	DisplayName string
	Width       int
	Height      int
	WidthRatio  float64
	HeightRatio float64
	Accent      color.RGBA
	// Dimensions is the physical size of the document placeholder, shown to
	// the operator next to the upload affordance.
	Dimensions string
}

// Responsive reports whether the canvas size follows the viewport.
func (c Config) Responsive() bool {
	return c.WidthRatio > 0 && c.HeightRatio > 0
}

// Ratio returns the width/height aspect ratio of the canvas.
func (c Config) Ratio() float64 {
	if c.Responsive() {
		return c.WidthRatio / c.HeightRatio
	}
	if c.Height == 0 {
		return 1
	}
	return float64(c.Width) / float64(c.Height)
}

// Registry is the ordered set of configured canvases. Declaration order is
// significant: it is the order canvases are listed and exported in.
type Registry struct {
	configs []Config
	index   map[string]int
}

// NewRegistry builds a registry from configs in declaration order.
func NewRegistry(configs ...Config) (*Registry, error) {
	r := &Registry{index: make(map[string]int, len(configs))}
	for _, c := range configs {
		if c.Key == "" {
			return nil, fmt.Errorf("canvas config without key")
		}
		if _, dup := r.index[c.Key]; dup {
			return nil, fmt.Errorf("duplicate canvas key %q", c.Key)
		}
		if !c.Responsive() && (c.Width <= 0 || c.Height <= 0) {
			return nil, fmt.Errorf("canvas %q: fixed canvas needs positive width and height", c.Key)
		}
		r.index[c.Key] = len(r.configs)
		r.configs = append(r.configs, c)
	}
	return r, nil
}

// Default returns the production placeholder set.
func Default() *Registry {
	r, err := NewRegistry(DefaultConfigs()...)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultConfigs lists the production placeholders in export order.
func DefaultConfigs() []Config {
	return []Config{
		{Key: "msb", DisplayName: "MSB", Width: 342, Height: 350, Accent: hex(0x3b82f6), Dimensions: "9.05cm × 9.25cm"},
		{Key: "mccb", DisplayName: "MCCB", Width: 320, Height: 346, Accent: hex(0x10b981), Dimensions: "4.22cm × 4.57cm"},
		{Key: "tpsld", DisplayName: "TP_SLD", Width: 320, Height: 346, Accent: hex(0x8b5cf6), Dimensions: "4.22cm × 4.57cm"},
		{Key: "tpmccbcompartment", DisplayName: "TP_MCCB_COMPARTMENT", Width: 320, Height: 346, Accent: hex(0x6366f1), Dimensions: "4.22cm × 4.57cm"},
		{Key: "tptappingloc", DisplayName: "TP_TAPPING_LOC", Width: 320, Height: 346, Accent: hex(0xf43f5e), Dimensions: "4.22cm × 4.57cm"},
		{Key: "tprouting1", DisplayName: "TP_ROUTING_1", WidthRatio: 8.85, HeightRatio: 10.45, Accent: hex(0xf59e0b)},
		{Key: "tprouting2", DisplayName: "TP_ROUTING_2", WidthRatio: 8.85, HeightRatio: 10.45, Accent: hex(0x14b8a6)},
		{Key: "tprouting3", DisplayName: "TP_ROUTING_3", WidthRatio: 17.74, HeightRatio: 9.28, Accent: hex(0x84cc16)},
	}
}

func hex(v uint32) color.RGBA {
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

// Configs returns a copy of the configs in declaration order.
func (r *Registry) Configs() []Config {
	out := make([]Config, len(r.configs))
	copy(out, r.configs)
	return out
}

// Keys returns the canvas keys in declaration order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.configs))
	for i, c := range r.configs {
		keys[i] = c.Key
	}
	return keys
}

// Lookup returns the config registered under key.
func (r *Registry) Lookup(key string) (Config, bool) {
	idx, ok := r.index[key]
	if !ok {
		return Config{}, false
	}
	return r.configs[idx], true
}

// Len returns the number of configured canvases.
func (r *Registry) Len() int { return len(r.configs) }

// Sized pairs a config with its concrete pixel size for one layout pass.
type Sized struct {
	Config
	PixelWidth  int
	PixelHeight int
}

// Resolve computes the pixel size of every canvas for the viewport.
func (r *Registry) Resolve(l Layout, v Viewport) []Sized {
	out := make([]Sized, len(r.configs))
	for i, c := range r.configs {
		w, h := l.Compute(v, c)
		out[i] = Sized{Config: c, PixelWidth: w, PixelHeight: h}
	}
	return out
}
