package exporter

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ncolesummers/ai-code-metrics/internal/contract"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 5 * time.Second

// Handler returns the HTTP routes. Scrapes of /metrics refresh from disk at
// most once per refresh interval; zero refreshes on every scrape.
func (e *Exporter) Handler(refresh time.Duration) http.Handler {
	limit := rate.Inf
	if refresh > 0 {
		limit = rate.Every(refresh)
	}
	limiter := rate.NewLimiter(limit, 1)
	metrics := promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})

	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)
	mux.Use(requestLogger)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
	}))

	mux.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		if limiter.Allow() {
			if err := e.Update(); err != nil {
				contract.LogWarn("Metrics refresh failed", err)
			}
		}
		metrics.ServeHTTP(w, r)
	})
	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// requestLogger logs method, path, status and duration of each request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		contract.LogInfo("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond))
	})
}

// Serve listens on addr and serves until ctx is done, watching the metrics
// directory alongside.
func (e *Exporter) Serve(ctx context.Context, addr string, refresh time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return e.serve(ctx, ln, refresh)
}

func (e *Exporter) serve(ctx context.Context, ln net.Listener, refresh time.Duration) error {
	if err := e.Update(); err != nil {
		contract.LogWarn("Initial metrics load failed", err)
	}

	srv := &http.Server{
		Handler:           e.Handler(refresh),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		contract.LogInfo("Serving metrics on http://%s/metrics", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return e.Watch(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
