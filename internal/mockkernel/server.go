// Copyright (c) 2025 Brio
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package mockkernel emulates the Brio kernel's WebSocket endpoint for UI development.
//
// Every accepted connection is served by its own goroutine with private state only;
// handlers never share a task registry, a session table or anything else, so closing
// one connection cannot disturb another. Frames on one connection are answered in the
// order they arrive.
//
// Two response shapes are supported. ModeLegacy greets each client with a welcome log
// line and acknowledges task and query requests with further log lines. ModeKernel
// answers every request with the status/data/message response the real kernel sends.
package mockkernel

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"brio/devkit/internal/config"

	"github.com/gorilla/websocket"
	"github.com/pterm/pterm"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Server is the mock kernel.
type Server struct {
	cfg      config.Config
	log      *pterm.Logger
	upgrader websocket.Upgrader

	// conns tracks live connection handlers so Serve can wait for them on shutdown.
	conns sync.WaitGroup
}

// New creates a mock kernel for cfg. Log entries go to log.
func New(cfg config.Config, log *pterm.Logger) *Server {
	return &Server{
		cfg: cfg,
		log: log,
		upgrader: websocket.Upgrader{
			// Development tool: any origin may connect, as the kernel allows.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ListenAndServe binds the configured endpoint and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.cfg.Endpoint.Address()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then closes every live
// connection and returns once their handlers have exited.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpSrv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	var health *HealthServer
	if s.cfg.Mock.GRPCAddr != "" {
		hln, err := net.Listen("tcp", s.cfg.Mock.GRPCAddr)
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("listen for gRPC health on %s: %w", s.cfg.Mock.GRPCAddr, err)
		}
		health = NewHealthServer()
		go func() {
			if err := health.Serve(hln); err != nil {
				s.log.Error("gRPC health server stopped", s.log.Args("error", err))
			}
		}()
		s.log.Info("gRPC health service listening", s.log.Args("addr", hln.Addr().String()))
	}

	s.log.Info("Mock Kernel listening on "+s.listenURL(ln.Addr()), s.log.Args("mode", string(s.cfg.Mock.Mode)))

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.Serve(ln) }()

	var serveErr error
	select {
	case <-ctx.Done():
		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		serveErr = httpSrv.Shutdown(shutdownCtx)
		<-errCh
	case serveErr = <-errCh:
	}
	cancel()

	if health != nil {
		health.Stop()
	}
	s.conns.Wait()
	s.log.Info("Mock Kernel stopped")

	if stderrors.Is(serveErr, http.ErrServerClosed) {
		return nil
	}
	return serveErr
}

// listenURL renders the ws:// URL clients should dial for the bound address.
func (s *Server) listenURL(addr net.Addr) string {
	ep := s.cfg.Endpoint
	if host, port, err := net.SplitHostPort(addr.String()); err == nil {
		ep.Host = host
		if p, err := strconv.Atoi(port); err == nil {
			ep.Port = p
		}
	}
	return ep.URL()
}
