// Package exporter serves the FPGA inventory and runtime metrics over HTTP.
package exporter

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/fxnlabs/fpga/internal/config"
	"github.com/fxnlabs/fpga/pkg/opae"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the Inventory, the HTTP handler and the Server. It needs a
// *config.Config, a *zap.Logger and an initialized *opae.Runtime.
var Module = fx.Module("exporter",
	fx.Provide(
		newFilter,
		newInventory,
		NewHandler,
		NewServer,
	),
	fx.Invoke(func(*Server) {}),
)

func newFilter(cfg *config.Config) (opae.Filter, error) {
	return cfg.Filter.Filter()
}

func newInventory(lc fx.Lifecycle, cfg *config.Config, rt *opae.Runtime, filter opae.Filter, log *zap.Logger) *Inventory {
	inv := NewInventory(rt, filter, cfg.Exporter.PollInterval, log)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			inv.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			inv.Stop()
			return nil
		},
	})
	return inv
}

// Server is the exporter's HTTP listener.
type Server struct {
	srv    *http.Server
	addr   string
	ln     net.Listener
	logger *zap.Logger
}

func NewServer(lc fx.Lifecycle, cfg *config.Config, handler http.Handler, log *zap.Logger) *Server {
	s := &Server{
		srv:    &http.Server{Handler: handler},
		addr:   cfg.Exporter.ListenAddress,
		logger: log.Named("exporter"),
	}
	lc.Append(fx.Hook{OnStart: s.start, OnStop: s.stop})
	return s
}

// Addr returns the address the server listens on once started.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.addr
	}
	return s.ln.Addr().String()
}

func (s *Server) start(context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.logger.Info("Starting server on", zap.String("address", s.Addr()))
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server stopped", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) stop(ctx context.Context) error {
	s.logger.Info("Stopping server")
	return s.srv.Shutdown(ctx)
}
