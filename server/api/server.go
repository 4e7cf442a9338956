// Package api serves the annotator's monitoring endpoints over HTTP. The
// analyzer protocol itself stays on standard input and output.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	cfg Config
	log zerolog.Logger

	Router *mux.Router
	http   *http.Server
	chain  []func(http.Handler) http.Handler

	mtx      sync.Mutex
	listener net.Listener
}

func NewServer(cfg Config, log zerolog.Logger) *Server {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		WriteError(w, req, http.StatusNotFound, "not_found", "no such endpoint")
	})

	s := &Server{
		cfg:    cfg,
		log:    log.With().Str("component", "http-api").Logger(),
		Router: r,
		chain:  make([]func(http.Handler) http.Handler, 0),
	}

	s.http = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	return s
}

// Use appends middleware to the chain and rebuilds the handler
func (s *Server) Use(mw func(http.Handler) http.Handler) {
	s.chain = append(s.chain, mw)
	s.http.Handler = s.buildHandler()
}

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// buildHandler constructs the middleware chain
func (s *Server) buildHandler() http.Handler {
	h := http.Handler(s.Router)
	for i := len(s.chain) - 1; i >= 0; i-- {
		h = s.chain[i](h)
	}
	return h
}

// Addr returns the bound listener address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.ListenAddr
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}

	s.mtx.Lock()
	s.listener = ln
	s.mtx.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		_ = s.http.Shutdown(shutdownCtx)
	}()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("HTTP API server starting")
	err = s.http.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info().Msg("HTTP API server stopped")
	return nil
}

// EnableCompression gzips responses for clients that accept it.
func (s *Server) EnableCompression() {
	s.Use(handlers.CompressHandler)
}
