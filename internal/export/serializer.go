package export

import (
	"fmt"
)

// Source is anything that can flatten canvases by key.
type Source interface {
	Keys() []string
	ExportPNG(key string) ([]byte, error)
}

// Image is one flattened canvas.
type Image struct {
	Key      string
	Filename string
	PNG      []byte
}

// Payload is everything sent to the generation service.
type Payload struct {
	Images []Image
	Fields []Field
}

// Serialize flattens every canvas of src in key order and attaches the
// form fields. It never mutates the canvases.
func Serialize(src Source, md Metadata) (*Payload, error) {
	keys := src.Keys()
	p := &Payload{Images: make([]Image, 0, len(keys)), Fields: md.Fields()}
	for _, key := range keys {
		data, err := src.ExportPNG(key)
		if err != nil {
			return nil, fmt.Errorf("flatten %s: %w", key, err)
		}
		p.Images = append(p.Images, Image{Key: key, Filename: key + ".png", PNG: data})
	}
	return p, nil
}
