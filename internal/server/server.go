// Package server exposes the current frame, the time controls and
// recommendations to the map UI over HTTP.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/hotspot-cli/internal/feed"
	"github.com/sells-group/hotspot-cli/internal/geo"
	"github.com/sells-group/hotspot-cli/internal/hotspot"
	"github.com/sells-group/hotspot-cli/internal/recommend"
	"github.com/sells-group/hotspot-cli/internal/timebin"
	"github.com/sells-group/hotspot-cli/internal/view"
)

// Engine is the snapshot side of the service.
type Engine interface {
	Current() *hotspot.Snapshot
	Modes() view.Modes
	SetModes(m view.Modes) *hotspot.Snapshot
	Recommend(loc *geo.Point) (recommend.Recommendation, error)
}

// Clock is the time-control side of the service.
type Clock interface {
	Timeline() *timebin.Timeline
	State() timebin.State
	Request(index int) error
	RequestFine(base, pos int) (int, error)
	Foreground()
}

// Options configures the HTTP layer.
type Options struct {
	AllowedOrigins []string

	// CacheStats is reported on /health when set.
	CacheStats func() feed.CacheStats
}

// Server holds the handlers.
type Server struct {
	engine Engine
	clock  Clock
	opts   Options
}

// New creates a Server.
func New(engine Engine, clock Clock, opts Options) *Server {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Server{engine: engine, clock: clock, opts: opts}
}

// Routes returns the router with all endpoints mounted.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/timeline", s.timeline)
		r.Post("/time/{index}", s.setTime)
		r.Post("/time/{index}/fine/{pos}", s.setFineTime)
		r.Post("/visible", s.visible)
		r.Get("/modes", s.getModes)
		r.Put("/modes", s.putModes)
		r.Get("/zones", s.zones)
		r.Get("/markers", s.markers)
		r.Get("/legend", s.legend)
		r.Get("/recommend", s.recommend)
	})
	return r
}

// NewHTTPServer wraps handler in an http.Server with conservative timeouts.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("server: write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
