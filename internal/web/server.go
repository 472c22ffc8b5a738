// Package web serves the summarizer page, history, and downloads over HTTP.
package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/hpungsan/yougpt/internal/ops"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

//go:embed content/about.md
var aboutMarkdown []byte

// minRequestTimeout is the floor for one request, transcript fetch included.
const minRequestTimeout = 60 * time.Second

// requestTimeout leaves room after the fetch deadline so a stalled fetch is
// reported on the page rather than cut off by the timeout handler.
func requestTimeout(fetchDeadline time.Duration) time.Duration {
	return max(minRequestTimeout, fetchDeadline+15*time.Second)
}

// NewServer creates and configures the HTTP server for the yougpt web UI.
func NewServer(p *ops.Pipeline, version, bind string, port int) (*http.Server, error) {
	// Strip the "templates/" and "static/" prefixes
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("template sub-FS: %w", err)
	}
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static sub-FS: %w", err)
	}

	renderer, err := NewRenderer(templateSub, version)
	if err != nil {
		return nil, err
	}

	h := &Handlers{
		p:        p,
		renderer: renderer,
	}

	timeout := requestTimeout(p.Config.FetchDeadline())
	return &http.Server{
		Addr:              net.JoinHostPort(bind, strconv.Itoa(port)),
		Handler:           withMiddleware(routes(h, staticSub), timeout, p.Log),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      timeout + 5*time.Second,
	}, nil
}

// routes registers every handler using Go 1.22+ pattern syntax.
func routes(h *Handlers, static fs.FS) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.HandleIndex)
	mux.HandleFunc("GET /about", h.HandleAbout)
	mux.HandleFunc("POST /summaries", h.HandleGenerate)
	mux.HandleFunc("GET /summaries", h.HandleHistory)
	mux.HandleFunc("POST /summaries/purge", h.HandlePurge)
	mux.HandleFunc("GET /summaries/{id}", h.HandleDetail)
	mux.HandleFunc("GET /summaries/{id}/download/{kind}", h.HandleDownload)
	mux.HandleFunc("DELETE /summaries/{id}", h.HandleDelete)
	mux.HandleFunc("POST /summaries/{id}/delete", h.HandleDelete)

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	return mux
}

// withMiddleware wraps next with request logging, a request timeout, and
// security headers. The logger is attached to every request context.
func withMiddleware(next http.Handler, timeout time.Duration, log zerolog.Logger) http.Handler {
	h := securityHeaders(next)
	h = http.TimeoutHandler(h, timeout, "request timed out")
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})(h)
	h = hlog.RequestIDHandler("req_id", "X-Request-Id")(h)
	h = hlog.RemoteAddrHandler("ip")(h)
	return hlog.NewHandler(log)(h)
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' https://img.youtube.com; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and shuts it down gracefully when ctx ends or
// on SIGINT/SIGTERM.
func Run(ctx context.Context, srv *http.Server, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Info().Msgf("yougpt UI running at http://%s", srv.Addr)

	if host, _, err := net.SplitHostPort(srv.Addr); err == nil && (host == "" || host == "0.0.0.0" || host == "::") {
		log.Warn().Msg("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
