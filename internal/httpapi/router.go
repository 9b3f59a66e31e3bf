package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/foxseedlab/replaylog/internal/metrics"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(observe)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, okResponse{OK: true})
	})
	r.Handle("/metrics", promhttp.Handler())

	routes := func(r chi.Router) {
		r.Get("/list", h.List)
		r.Get("/view/{id}", h.View)
		r.Get("/s3/{bucket}/*", h.ObjectProxy)
		r.Route("/api", func(r chi.Router) {
			r.Post("/upload", h.Upload)
			r.Post("/mark", h.AddMark)
			r.Delete("/mark", h.DeleteMark)
			r.Post("/note", h.UpdateNote)
			r.Post("/visible", h.UpdateVisible)
		})
	}
	if h.basePath == "" {
		routes(r)
	} else {
		r.Route(h.basePath, routes)
	}
	return r
}

// observe records request latency by route pattern.
func observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		metrics.ObserveHTTPRequest(r.Method, route, status, elapsed)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}
