// Package mediaserver exposes the scrape-and-insert relay over HTTP.
// A single authenticated endpoint accepts a search request, fans out
// to the media providers and writes the deduplicated results through
// the ingest gateway.
package mediaserver

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/anatolykoptev/go_media/internal/engine"
	"github.com/anatolykoptev/go_media/internal/engine/ingest"
	"github.com/anatolykoptev/go_media/internal/engine/providers"
	"github.com/anatolykoptev/go_media/internal/metrics"
)

// AuthHeader carries the shared secret set by the mobile shortcut.
const AuthHeader = "X-Shortcuts-Key"

// Server wires the HTTP surface to the provider registry and the
// ingest gateway.
type Server struct {
	cfg      engine.Config
	registry *providers.Registry
	gateway  *ingest.Gateway
}

func New(cfg engine.Config, registry *providers.Registry, gateway *ingest.Gateway) *Server {
	return &Server{cfg: cfg, registry: registry, gateway: gateway}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("HEAD /health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("POST /scrape-and-insert", s.requireKey(s.handleScrape))
	return mux
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requireKey rejects requests whose shared-secret header does not
// match before any outbound call is made.
func (s *Server) requireKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(AuthHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.cfg.ShortcutsKey)) != 1 {
			metrics.AuthRejections.Inc()
			slog.Warn("rejected request with bad shortcut key", "path", r.URL.Path, "remote", r.RemoteAddr)
			writeError(w, http.StatusForbidden, "invalid or missing "+AuthHeader)
			return
		}
		next(w, r)
	}
}
