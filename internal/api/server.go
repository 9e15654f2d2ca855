// Package api exposes a workspace over HTTP for browser front ends.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/example/panelmark/internal/editor"
	"github.com/example/panelmark/internal/export"
	"github.com/example/panelmark/internal/logging"
)

// Config contains server configuration.
type Config struct {
	Addr string
	// ExportRate and ExportBurst bound export requests across all clients.
	ExportRate  float64
	ExportBurst int
	CORS        CORSConfig
}

// DefaultConfig listens on :8080 and allows one export per second.
func DefaultConfig() Config {
	return Config{
		Addr:        ":8080",
		ExportRate:  1,
		ExportBurst: 3,
		CORS:        DefaultCORSConfig(),
	}
}

// Server wires a workspace and an exporter to a gin router.
type Server struct {
	cfg      Config
	ws       *editor.Workspace
	exporter *export.Exporter
	log      *logging.Logger
	metrics  *Metrics
	router   *gin.Engine
	http     *http.Server
}

// New builds the router. exporter may be nil, in which case export requests
// fail with 503.
func New(cfg Config, ws *editor.Workspace, exporter *export.Exporter, log *logging.Logger) *Server {
	if log == nil {
		log = logging.Nop()
	}
	s := &Server{
		cfg:      cfg,
		ws:       ws,
		exporter: exporter,
		log:      log.Named("api"),
		metrics:  NewMetrics(),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), AccessLog(s.log), s.metrics.Middleware(), CORS(s.cfg.CORS))

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	api.GET("/health", s.health)
	api.GET("/canvases", s.listCanvases)
	api.POST("/canvases/:key/select", s.selectCanvas)
	api.PUT("/canvases/:key/image", s.uploadImage)
	api.DELETE("/canvases/:key/image", s.removeImage)
	api.POST("/canvases/:key/reset", s.resetCanvas)
	api.GET("/canvases/:key/raster.png", s.raster)
	api.POST("/tool", s.setTool)
	api.POST("/pointer", s.pointer)
	api.POST("/text/:id", s.completeText)
	api.DELETE("/text/:id", s.cancelText)
	api.GET("/logos", s.listLogos)
	api.POST("/logos/:name", s.addLogo)
	api.POST("/clear", s.clear)
	api.POST("/reset", s.resetAll)
	api.POST("/viewport", s.viewport)

	burst := s.cfg.ExportBurst
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(s.cfg.ExportRate), burst)
	api.POST("/export", Limit(limiter), s.export)

	api.GET("/events", s.events)
	return r
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.http = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", s.cfg.Addr))
		errCh <- s.http.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.log.Info("shutting down")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
