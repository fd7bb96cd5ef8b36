// Package server provides the built-in static dev server used when no
// external dev server tool is configured. It serves the dist tree with
// caching disabled so edits show up on plain refresh.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/jmallard/loom/internal/logging"
)

// Server serves a directory tree over HTTP.
type Server struct {
	root string
	addr string
	log  *logging.Logger
}

// New creates a Server for the given directory and listen address.
func New(root, addr string, log *logging.Logger) *Server {
	return &Server{root: root, addr: addr, log: log}
}

// Serve listens on the configured address until ctx is cancelled. A
// cancelled context is a normal shutdown and returns nil.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on an already-bound listener. The listener is
// closed when serving stops.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           noCache(http.FileServer(http.Dir(s.root))),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	s.log.Info("dev server listening", "addr", ln.Addr().String(), "root", s.root)

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// noCache disables client caching so the browser always refetches files
// the watch session just rebuilt.
func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
