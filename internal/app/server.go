package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/markdave123-py/docvault/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/docvault/internal/api/middlewares"
	"github.com/markdave123-py/docvault/internal/config"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        *slog.Logger
}

// Routes is everything the router needs besides config.
type Routes struct {
	Files    handlers.FileService
	Accounts handlers.Accounts
	Gatherer prometheus.Gatherer
	Log      *slog.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, rt Routes) *Server {
	if rt.Log == nil {
		rt.Log = slog.Default()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           NewRouter(cfg, rt),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: rt.Log,
	}
}

func NewRouter(cfg *config.Config, rt Routes) http.Handler {
	authHandler := handlers.NewAuthHandler(rt.Accounts, cfg.JWTSecret)
	docHandler := handlers.NewDocumentHandler(rt.Files, cfg.MaxUploadBytes, rt.Log)

	gatherer := rt.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Post("/signup", authHandler.Signup)
		api.Post("/login", authHandler.Login)
		api.Post("/users/register", authHandler.Signup)
		api.Post("/users/login", authHandler.Login)

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware(cfg.JWTSecret))
			protected.Get("/users/current", authHandler.Current)

			protected.Post("/files/upload", docHandler.UploadFile)
			protected.Get("/files/list", docHandler.ListFiles)
			protected.Get("/files/{fileId}", docHandler.GetFile)
			protected.Get("/files/{fileId}/summary", docHandler.SummarizeFile)
		})
	})

	return r
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
