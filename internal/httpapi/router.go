// Package httpapi exposes the navigation pipeline over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voicenav/internal/domain"
	"voicenav/internal/metrics"
)

// Navigator is the pipeline behind the handlers, satisfied by
// *navigation.Service.
type Navigator interface {
	Transcribe(ctx context.Context, blob domain.AudioBlob) (domain.TranscriptionResult, error)
	Geocode(ctx context.Context, text string) (domain.GeocodeResult, error)
	Directions(ctx context.Context, dest domain.Coordinate, terminalID string) ([]domain.StepView, error)
	Origin() domain.OriginResponse
}

type Config struct {
	MaxUploadBytes int64
	MaxBodyBytes   int64
}

type Server struct {
	cfg     Config
	nav     Navigator
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewServer(cfg Config, nav Navigator, m *metrics.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 25 << 20
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 64 << 10
	}
	return &Server{cfg: cfg, nav: nav, metrics: m, logger: logger}
}

// Router builds the HTTP routes. gatherer may be nil, in which case
// /metrics is not mounted.
func (s *Server) Router(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Get("/origin", s.handleOrigin)
	r.Post("/transcribe", s.handleTranscribe)
	r.Post("/geocode", s.handleGeocode)
	r.Post("/directions", s.handleDirections)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.RecordRequest(route, strconv.Itoa(status))
		s.logger.Info("http request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"cost", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, domain.ErrorResponse{Error: msg})
}
