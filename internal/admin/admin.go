// Package admin serves the operator endpoints on a separate listener so
// profiling never shares a port with the dashboard.
package admin

import (
	"net/http"

	"creditdash/internal/loader"
	"creditdash/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts pprof under /debug, Prometheus metrics and health checks.
// /readyz reports ready once the default file has been parsed into cache.
func NewRouter(m *metrics.Metrics, cache *loader.Cache, defaultFile string) http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
	)

	r.Mount("/debug", middleware.Profiler())
	r.Handle("/metrics", m.Handler())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if cache == nil {
			http.Error(w, "cache not initialised", http.StatusServiceUnavailable)
			return
		}
		found, err := cache.Cached(loader.PathSource(defaultFile).Key())
		if !found {
			http.Error(w, "default dataset not loaded", http.StatusServiceUnavailable)
			return
		}
		if err != nil {
			http.Error(w, "default dataset unavailable: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ready"))
	})
	return r
}
