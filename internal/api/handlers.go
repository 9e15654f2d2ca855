package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/panelmark/assets"
	"github.com/example/panelmark/internal/canvas"
	"github.com/example/panelmark/internal/editor"
	"github.com/example/panelmark/internal/export"
	"github.com/example/panelmark/internal/surface"
	"github.com/example/panelmark/internal/tools"
)

// uploadWait bounds how long ?wait=1 holds an upload request.
const uploadWait = 30 * time.Second

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// statusFor maps workspace and export errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, editor.ErrInvalidInput), errors.Is(err, editor.ErrDecode):
		return http.StatusBadRequest
	case errors.Is(err, editor.ErrUnknownCanvas), errors.Is(err, editor.ErrUnknownLogo),
		errors.Is(err, editor.ErrNoPendingText):
		return http.StatusNotFound
	case errors.Is(err, editor.ErrNoSelection), errors.Is(err, surface.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, export.ErrTransport):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) failErr(c *gin.Context, err error) {
	_ = c.Error(err)
	fail(c, statusFor(err), err.Error())
}

func (s *Server) health(c *gin.Context) {
	key, _ := s.ws.Selected()
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"canvases": len(s.ws.Keys()),
		"selected": key,
		"export":   s.exporter != nil,
	})
}

func (s *Server) listCanvases(c *gin.Context) {
	key, _ := s.ws.Selected()
	c.JSON(http.StatusOK, gin.H{
		"canvases": s.ws.Snapshot(),
		"selected": key,
		"tool":     s.ws.Tool().String(),
		"viewport": s.ws.Viewport(),
	})
}

func (s *Server) selectCanvas(c *gin.Context) {
	if err := s.ws.Select(c.Param("key")); err != nil {
		s.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "selected": c.Param("key")})
}

func (s *Server) uploadImage(c *gin.Context) {
	key := c.Param("key")
	fh, err := c.FormFile("image")
	if err != nil {
		fail(c, http.StatusBadRequest, "multipart field \"image\" is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.failErr(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, editor.MaxUploadSize+1))
	if err != nil {
		s.failErr(c, err)
		return
	}

	p, err := s.ws.Upload(key, data, fh.Filename)
	if err != nil {
		s.metrics.Uploads.WithLabelValues(key, "rejected").Inc()
		s.failErr(c, err)
		return
	}
	if c.Query("wait") == "" || c.Query("wait") == "0" {
		s.metrics.Uploads.WithLabelValues(key, "accepted").Inc()
		c.JSON(http.StatusAccepted, gin.H{"success": true, "canvas": key})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), uploadWait)
	defer cancel()
	if err := p.Wait(ctx); err != nil {
		s.metrics.Uploads.WithLabelValues(key, "failed").Inc()
		s.failErr(c, err)
		return
	}
	s.metrics.Uploads.WithLabelValues(key, "committed").Inc()
	c.JSON(http.StatusOK, gin.H{"success": true, "canvas": key, "committed": true})
}

func (s *Server) removeImage(c *gin.Context) {
	if err := s.ws.RemoveImage(c.Param("key")); err != nil {
		s.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) resetCanvas(c *gin.Context) {
	if err := s.ws.ResetCanvas(c.Param("key")); err != nil {
		s.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// raster streams the flattened canvas. ?overlay=1 includes the crop frame,
// which exports never carry.
func (s *Server) raster(c *gin.Context) {
	img, err := s.ws.Raster(c.Param("key"), c.Query("overlay") == "1")
	if err != nil {
		s.failErr(c, err)
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		s.failErr(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

type toolRequest struct {
	Tool string `json:"tool" binding:"required"`
}

func (s *Server) setTool(c *gin.Context) {
	var req toolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	m, err := tools.ParseMode(req.Tool)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	s.ws.SetTool(m)
	c.JSON(http.StatusOK, gin.H{"success": true, "tool": m.String()})
}

type pointerRequest struct {
	Action string `json:"action" binding:"required,oneof=press move release"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

func (s *Server) pointer(c *gin.Context) {
	var req pointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	switch req.Action {
	case "press":
		if !s.ws.Press(req.X, req.Y) {
			s.failErr(c, editor.ErrNoSelection)
			return
		}
	case "move":
		s.ws.Move(req.X, req.Y)
	case "release":
		if err := s.ws.Release(req.X, req.Y); err != nil {
			s.failErr(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type textRequest struct {
	Value string `json:"value"`
}

func (s *Server) completeText(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	placed, err := s.ws.CompleteText(c.Param("id"), req.Value)
	if err != nil {
		s.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "placed": placed})
}

func (s *Server) cancelText(c *gin.Context) {
	if err := s.ws.CancelText(c.Param("id")); err != nil {
		s.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) listLogos(c *gin.Context) {
	logos, err := assets.Logos()
	if err != nil {
		s.failErr(c, err)
		return
	}
	out := make([]gin.H, 0, len(logos))
	for _, l := range logos {
		out = append(out, gin.H{"key": l.Key, "name": l.Name, "width": l.Width, "height": l.Height})
	}
	c.JSON(http.StatusOK, gin.H{"logos": out})
}

func (s *Server) addLogo(c *gin.Context) {
	p, err := s.ws.AddLogo(c.Param("name"))
	if err != nil {
		s.failErr(c, err)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), uploadWait)
	defer cancel()
	if err := p.Wait(ctx); err != nil {
		s.failErr(c, err)
		return
	}
	key, _ := s.ws.Selected()
	c.JSON(http.StatusOK, gin.H{"success": true, "canvas": key})
}

func (s *Server) clear(c *gin.Context) {
	if !s.ws.ClearAnnotations() {
		s.failErr(c, editor.ErrNoSelection)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) resetAll(c *gin.Context) {
	s.ws.ResetAll()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type viewportRequest struct {
	Width  int `json:"width" binding:"required,min=1"`
	Height int `json:"height" binding:"required,min=1"`
	// Immediate skips the resize debounce.
	Immediate bool `json:"immediate"`
}

func (s *Server) viewport(c *gin.Context) {
	var req viewportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	v := canvas.Viewport{Width: req.Width, Height: req.Height}
	if req.Immediate {
		s.ws.ApplyViewport(v)
		c.JSON(http.StatusOK, gin.H{"success": true, "canvases": s.ws.Snapshot()})
		return
	}
	s.ws.Resize(v)
	c.JSON(http.StatusAccepted, gin.H{"success": true})
}

func (s *Server) export(c *gin.Context) {
	if s.exporter == nil {
		fail(c, http.StatusServiceUnavailable, "export service is not configured")
		return
	}
	var md export.Metadata
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&md); err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	start := time.Now()
	res, err := s.exporter.Export(c.Request.Context(), s.ws, md)
	s.metrics.ExportDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.Exports.WithLabelValues("failed").Inc()
		s.ws.Publish(editor.Event{Kind: editor.EventExport, Message: err.Error()})
		s.failErr(c, fmt.Errorf("export: %w", err))
		return
	}
	s.metrics.Exports.WithLabelValues("saved").Inc()
	s.ws.Publish(editor.Event{Kind: editor.EventExport, Message: res.Path})
	s.log.Info("export complete", zap.String("path", res.Path))

	if c.Query("download") == "1" {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Document.Name()))
		c.Data(http.StatusOK, res.Document.ContentType, res.Document.Data)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"path":     res.Path,
		"filename": res.Document.Name(),
		"images":   res.Images,
		"bytes":    len(res.Document.Data),
	})
}
