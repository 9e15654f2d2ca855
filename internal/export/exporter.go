package export

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/example/panelmark/internal/logging"
)

// Result describes a finished export.
type Result struct {
	Path     string
	Document *Document
	Images   int
	Elapsed  time.Duration
}

// Exporter runs the full export: flatten, send, save.
type Exporter struct {
	Client *Client
	Dir    string
	Log    *logging.Logger
}

// Export flattens src, sends it with md and saves the returned document.
// On any failure nothing is written and the canvases are untouched.
func (e *Exporter) Export(ctx context.Context, src Source, md Metadata) (*Result, error) {
	log := e.Log
	if log == nil {
		log = logging.Nop()
	}
	start := time.Now()
	payload, err := Serialize(src, md)
	if err != nil {
		return nil, err
	}
	doc, err := e.Client.Send(ctx, payload)
	if err != nil {
		log.Warn("export failed", zap.String("url", e.Client.URL()), zap.Error(err))
		return nil, err
	}
	path, err := doc.Save(e.Dir)
	if err != nil {
		return nil, err
	}
	res := &Result{Path: path, Document: doc, Images: len(payload.Images), Elapsed: time.Since(start)}
	log.Info("export saved",
		zap.String("path", path),
		zap.Int("images", res.Images),
		zap.Int("bytes", len(doc.Data)),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}
