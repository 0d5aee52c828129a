// Package api provides the HTTP surface of the campaign planner.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/gangwaa/NerualAdsV2/internal/adapters/catalog"
	"github.com/gangwaa/NerualAdsV2/internal/core"
	"github.com/gangwaa/NerualAdsV2/internal/logging"
	"github.com/gangwaa/NerualAdsV2/internal/service"
)

// SessionHeader carries the session ID on the /agent routes.
const SessionHeader = "X-Session-ID"

// DefaultRequestTimeout bounds one request, oracle calls included.
const DefaultRequestTimeout = 120 * time.Second

const maxBodyBytes = 1 << 20

// Server provides HTTP endpoints for planning sessions, catalogs and plans.
type Server struct {
	router         chi.Router
	sessions       *service.SessionRegistry
	catalog        *catalog.Catalog
	plans          core.PlanStore
	logger         *logging.Logger
	corsOrigins    []string
	requestTimeout time.Duration
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *logging.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithCatalog serves the segment, preference and advertiser catalogs.
func WithCatalog(c *catalog.Catalog) ServerOption {
	return func(s *Server) {
		s.catalog = c
	}
}

// WithPlanStore serves saved plans.
func WithPlanStore(store core.PlanStore) ServerOption {
	return func(s *Server) {
		s.plans = store
	}
}

// WithCORSOrigins restricts cross-origin access. Empty allows any origin.
func WithCORSOrigins(origins []string) ServerOption {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithRequestTimeout overrides DefaultRequestTimeout.
func WithRequestTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// NewServer creates a new API server.
func NewServer(sessions *service.SessionRegistry, opts ...ServerOption) *Server {
	s := &Server{
		sessions:       sessions,
		logger:         logging.NewNop(),
		requestTimeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout))
	r.Use(s.loggingMiddleware)

	origins := s.corsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With", SessionHeader},
		ExposedHeaders:   []string{SessionHeader},
		AllowCredentials: false,
		MaxAge:           300,
	})
	r.Use(corsHandler.Handler)

	r.Get("/health", s.handleHealth)

	// Header-addressed session routes used by the web client.
	r.Route("/agent", func(r chi.Router) {
		r.Use(s.headerSession)
		s.agentRoutes(r)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Post("/", s.handleCreateSession)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Use(s.pathSession)
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				s.agentRoutes(r)
			})
		})

		r.Get("/segments", s.handleSearchSegments)
		r.Get("/preferences/{advertiserID}", s.handleGetPreferences)
		r.Get("/advertisers/{name}", s.handleLookupAdvertiser)

		r.Route("/plans", func(r chi.Router) {
			r.Get("/", s.handleListPlans)
			r.Get("/{planID}", s.handleGetPlan)
			r.Get("/{planID}/export.csv", s.handleExportPlan)
		})
	})

	return r
}

func (s *Server) agentRoutes(r chi.Router) {
	r.Post("/process", s.handleProcess)
	r.Get("/status", s.handleStatus)
	r.Post("/advance", s.handleAdvance)
	r.Post("/reset", s.handleReset)
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"bytes", ww.BytesWritten(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// decodeJSON reads an optional JSON body into v. An empty body leaves v
// untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"time":     time.Now().UTC().Format(time.RFC3339),
		"sessions": s.sessions.Len(),
	})
}

// ListenAndServe starts the HTTP server and shuts it down when ctx ends.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("starting API server", "addr", addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
