package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leca/ci-smoke/internal/api"
	"github.com/leca/ci-smoke/internal/config"
	"github.com/leca/ci-smoke/internal/handler"
	"github.com/leca/ci-smoke/internal/metrics"
)

// Server holds the application dependencies and HTTP router.
type Server struct {
	Config *config.Config
	Router chi.Router
}

// Options tweak the router for embedding in tests.
type Options struct {
	// Quiet drops the request logger.
	Quiet bool
}

// New creates a new Server with a fully configured chi router.
func New(cfg *config.Config, opts Options) *Server {
	s := &Server{Config: cfg}
	h := &handler.Handler{Config: cfg}

	r := chi.NewRouter()

	// CORS must be before other middleware to handle preflight OPTIONS.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Length", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(metrics.Middleware)
	if !opts.Quiet {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.NotFound(w, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.MethodNotAllowed(w)
	})

	r.Get("/", h.Index)
	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	// Request inspection.
	r.Get("/get", h.Get)
	r.Post("/post", h.WithBody)
	r.Put("/put", h.WithBody)
	r.Patch("/patch", h.WithBody)
	r.Delete("/delete", h.WithBody)
	r.HandleFunc("/anything", h.Anything)
	r.HandleFunc("/anything/*", h.Anything)
	r.Get("/headers", h.Headers)
	r.Get("/ip", h.IP)
	r.Get("/user-agent", h.UserAgent)

	// Status codes and timing.
	r.HandleFunc("/status/{codes}", h.Status)
	r.Get("/delay/{n}", h.Delay)

	// Response formats.
	r.Get("/json", h.JSON)
	r.Get("/forms/post", h.FormsPost)
	r.Get("/image/{format}", h.Image)
	r.Get("/uuid", h.UUID)

	// Auth.
	r.With(api.BearerMiddleware(cfg.BearerToken)).Get("/bearer", h.Bearer)
	r.With(api.BasicAuthMiddleware).Get("/basic-auth/{user}/{passwd}", h.BasicAuth)

	s.Router = r
	return s
}
