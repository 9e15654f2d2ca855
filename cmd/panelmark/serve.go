package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/example/panelmark/internal/api"
)

// serveCmd exposes a workspace over HTTP.
type serveCmd struct {
	*root
	fs      *flag.FlagSet
	addr    string
	origins string
	output  string
}

func (s *serveCmd) Program() string        { return s.root.program + " serve" }
func (s *serveCmd) FlagSet() *flag.FlagSet { return s.fs }

func parseServeCmd(args []string, r *root) (*serveCmd, error) {
	fs := newFlagSet("serve")
	s := &serveCmd{root: r, fs: fs}
	fs.StringVar(&s.addr, "addr", r.config.Server.Addr, "listen address")
	fs.StringVar(&s.origins, "origins", "", "comma separated origins allowed by CORS (default: any)")
	fs.StringVar(&s.output, "output", r.config.OutputDir, "directory exported documents are saved to")
	if err := parseFlags(fs, args, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *serveCmd) Run() error {
	ws, err := s.newWorkspace(s.config.Viewport)
	if err != nil {
		return err
	}
	defer ws.Close()

	cfg := api.DefaultConfig()
	cfg.Addr = s.addr
	cfg.ExportRate = s.config.Server.RateLimit
	cfg.ExportBurst = s.config.Server.Burst
	if s.origins != "" {
		cfg.CORS.AllowOrigins = splitList(s.origins)
	}

	exporter := s.newExporter(s.output)
	if exporter == nil {
		s.log.Warn("no export service configured; export requests will fail")
	} else {
		s.log.Info("export service", zap.String("url", exporter.Client.URL()), zap.String("dir", exporter.Dir))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return api.New(cfg, ws, exporter, s.log).Run(ctx)
}
