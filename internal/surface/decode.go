package surface

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decoder turns raw upload bytes into an image.
type Decoder func(data []byte) (image.Image, error)

// MaxPixels is the largest image area accepted for decoding.
const MaxPixels = 50_000_000

// ErrTooLarge reports an image whose header declares more than MaxPixels.
var ErrTooLarge = errors.New("image too large")

// CheckSize reads only the image header and rejects images whose area
// exceeds MaxPixels. Headers that cannot be parsed are left to Decode.
func CheckSize(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, cfg.Width, cfg.Height, MaxPixels)
	}
	return nil
}

// Decode is the default Decoder. It accepts every format registered with
// the image package.
func Decode(data []byte) (image.Image, error) {
	if err := CheckSize(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}
	return img, nil
}
