package assets

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"image"
	"image/png"
	"path"
	"strings"
	"sync"
)

// ErrUnknownLogo is returned for a logo name that is not in the catalogue.
var ErrUnknownLogo = errors.New("unknown logo")

// Embedded manufacturer logos for Panelmark.
//
//go:embed logos/*.png
var embeddedLogos embed.FS

// Logo is one catalogue entry.
type Logo struct {
	// Key is the lower-case identifier used by commands and the API.
	Key  string
	Name string
	// Width and Height are the native pixel size.
	Width, Height int

	data  []byte
	image image.Image
}

// catalogue order is the order logos are offered to the operator.
var catalogue = []struct{ key, name string }{
	{"schneider", "Schneider"},
	{"abb", "ABB"},
	{"siemens", "Siemens"},
}

var (
	loadLogosOnce sync.Once
	loadLogosErr  error

	logos []*Logo
	byKey = map[string]*Logo{}
)

func loadLogos() {
	for _, entry := range catalogue {
		data, err := embeddedLogos.ReadFile(path.Join("logos", entry.key+".png"))
		if err != nil {
			loadLogosErr = err
			return
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			loadLogosErr = fmt.Errorf("logo %s: %w", entry.key, err)
			return
		}
		l := &Logo{
			Key:    entry.key,
			Name:   entry.name,
			Width:  img.Bounds().Dx(),
			Height: img.Bounds().Dy(),
			data:   data,
			image:  img,
		}
		logos = append(logos, l)
		byKey[l.Key] = l
	}
}

func ensureLogos() error {
	loadLogosOnce.Do(loadLogos)
	return loadLogosErr
}

// Logos lists the catalogue in display order.
func Logos() ([]Logo, error) {
	if err := ensureLogos(); err != nil {
		return nil, err
	}
	out := make([]Logo, len(logos))
	for i, l := range logos {
		out[i] = Logo{Key: l.Key, Name: l.Name, Width: l.Width, Height: l.Height}
	}
	return out, nil
}

func lookup(name string) (*Logo, error) {
	if err := ensureLogos(); err != nil {
		return nil, err
	}
	l, ok := byKey[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLogo, name)
	}
	return l, nil
}

// LogoPNG returns a copy of the raw PNG bytes for a logo, looked up by key
// or display name ignoring case.
func LogoPNG(name string) ([]byte, error) {
	l, err := lookup(name)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(l.data))
	copy(out, l.data)
	return out, nil
}

// LogoImage returns the decoded logo.
func LogoImage(name string) (image.Image, error) {
	l, err := lookup(name)
	if err != nil {
		return nil, err
	}
	return l.image, nil
}
