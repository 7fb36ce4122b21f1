// Package server exposes the answer engine and the dashboard over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/siherrmann/agrimarket/config"
	"github.com/siherrmann/agrimarket/model"
)

// Answerer answers a free text question
type Answerer interface {
	Answer(ctx context.Context, text string) model.Answer
}

// SummaryStore reads daily summaries for the dashboard
type SummaryStore interface {
	SelectLatestSummaries(ctx context.Context) ([]*model.DailySummaryRecord, error)
	SelectAllDailySummaries(ctx context.Context) ([]*model.DailySummaryRecord, error)
}

// PriceSeriesStore reads closing prices over a date range
type PriceSeriesStore interface {
	SelectPriceSeries(ctx context.Context, commodity model.CommodityID, start time.Time, end time.Time) ([]*model.PriceRecord, error)
}

// HealthChecker reports whether the database is reachable
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// SyncFunc runs one incremental indexing pass and returns the documents added
type SyncFunc func(ctx context.Context) (int, error)

// Dependencies are the collaborators behind the routes. Sync and Health are
// optional: without them the index route answers 503 and health skips the
// database check.
type Dependencies struct {
	Answerer  Answerer
	Summaries SummaryStore
	Prices    PriceSeriesStore
	Health    HealthChecker
	Sync      SyncFunc
}

// Server is the HTTP API server
type Server struct {
	router  chi.Router
	cfg     config.APIConfig
	deps    Dependencies
	version string
	logger  *slog.Logger
}

// NewServer creates a server with all routes and middleware
func NewServer(cfg config.APIConfig, deps Dependencies, version string, logger *slog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		deps:    deps,
		version: version,
		logger:  logger,
	}
	s.router = s.buildRouter()
	return s
}

// Router returns the chi router
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", slog.String("addr", httpSrv.Addr))
		errs <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(shutdownCtx)
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.CORSOrigins) > 0 {
		origins = s.cfg.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Post("/index", s.handleIndex)

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/sentiment-cards", s.handleSentimentCards)
			r.Get("/time-series/{commodity}", s.handleTimeSeries)
		})
	})

	return r
}

// requestLogger logs every request with the structured logger
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Debug("Handled request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
