/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging through zap
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for a local dashboard

ROUTE GROUPS:
  /api/policy           Policy
  /api/holidays/*       Holiday and vacation marks
  /api/entries/*        Daily entries
  /api/presence/*       Sensor webhooks and sessions
  /api/months/{month}/* Requirements, progress, suggestions
  /api/synthesize/*     Manual synthesis

SECURITY NOTE:
  No authentication middleware. The service is single-user and expected
  to listen on localhost.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/policy", h.GetPolicy)
		r.Put("/policy", h.PutPolicy)

		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Delete("/{id}", h.DeleteHoliday)
		})

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", h.ListEntries)
			r.Get("/{date}", h.GetEntry)
			r.Put("/{date}", h.PutEntry)
			r.Delete("/{date}", h.DeleteEntry)
		})

		r.Route("/presence", func(r chi.Router) {
			r.Post("/arrival", h.Arrival)
			r.Post("/departure", h.Departure)
			r.Get("/sessions", h.ListSessions)
		})

		r.Route("/months/{month}", func(r chi.Router) {
			r.Get("/requirements", h.GetRequirements)
			r.Get("/progress", h.GetProgress)
			r.Get("/suggestions", h.GetSuggestions)
		})

		r.Post("/synthesize/{date}", h.Synthesize)
	})

	return r
}

// requestLogger logs one line per request, tagged with the request ID.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("http request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
