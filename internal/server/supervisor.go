package server

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/remotecmd/internal/config"
)

// Supervisor starts and stops a fixed set of servers together.
type Supervisor struct {
	servers []*Server
	logger  *slog.Logger
}

// NewSupervisor creates one Server per config entry.
func NewSupervisor(cfgs []config.ServerConfig, out Printer, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	servers := make([]*Server, 0, len(cfgs))
	for _, cfg := range cfgs {
		servers = append(servers, New(cfg, out, logger))
	}
	return &Supervisor{servers: servers, logger: logger}
}

// Servers returns the managed servers in config order.
func (s *Supervisor) Servers() []*Server {
	return s.servers
}

// Start launches every server concurrently. On failure the servers that did
// start are left running; call Stop to clean up.
func (s *Supervisor) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range s.servers {
		srv := srv
		g.Go(func() error {
			return srv.Start(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	s.logger.Info("all servers started", "count", len(s.servers))
	return nil
}

// Stop stops every server concurrently and returns the first error.
func (s *Supervisor) Stop(ctx context.Context) error {
	var g errgroup.Group
	for _, srv := range s.servers {
		srv := srv
		g.Go(func() error {
			return srv.Stop(ctx)
		})
	}
	err := g.Wait()
	s.logger.Info("all servers stopped")
	return err
}

// Wait blocks until every server has exited or ctx is done.
func (s *Supervisor) Wait(ctx context.Context) error {
	for _, srv := range s.servers {
		select {
		case <-srv.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
