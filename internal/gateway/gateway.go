// Package gateway exposes the chat application over HTTP: a JSON API for
// session lifecycle, a WebSocket endpoint that streams responses, and a
// small embedded browser UI.
//
// The underlying session controller is single-user and not safe for
// concurrent use, so every handler runs under one mutex. Requests queue
// rather than interleave.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"memorymate/internal/session"
)

// Options configures a Gateway.
type Options struct {
	// Listen is the TCP bind address.
	Listen string

	// AllowedOrigin, when set, restricts browser WebSocket connections
	// to that origin.
	AllowedOrigin string

	// Controller drives the chat session. Required.
	Controller *session.Controller

	Logger *slog.Logger
}

// Gateway is the HTTP front end.
type Gateway struct {
	mu            sync.Mutex
	ctrl          *session.Controller
	logger        *slog.Logger
	server        *http.Server
	metrics       *Metrics
	listen        string
	allowedOrigin string
	startedAt     time.Time
}

// New builds a Gateway from options.
func New(opts Options) (*Gateway, error) {
	if opts.Controller == nil {
		return nil, errors.New("gateway: controller is required")
	}
	if opts.Listen == "" {
		return nil, errors.New("gateway: listen address is required")
	}
	if _, err := net.ResolveTCPAddr("tcp", opts.Listen); err != nil {
		return nil, errors.New("gateway: invalid listen address: " + opts.Listen)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Gateway{
		ctrl:          opts.Controller,
		logger:        logger,
		metrics:       &Metrics{},
		listen:        opts.Listen,
		allowedOrigin: opts.AllowedOrigin,
	}, nil
}

// Start binds the listener and serves in the background.
func (g *Gateway) Start() error {
	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.listen,
		Handler:      g.buildRouter(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // streaming responses hold the connection open
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.listen)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.listen)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}
