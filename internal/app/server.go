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

	"github.com/markdave123-py/Devmate/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/Devmate/internal/api/middlewares"
	"github.com/markdave123-py/Devmate/internal/config"
)

// Agent turns may chain several model and tool calls.
const requestTimeout = 3 * time.Minute

// Routes groups the handlers mounted by the router.
type Routes struct {
	Auth      *handlers.AuthHandler
	Documents *handlers.DocumentHandler
	Chat      *handlers.ChatHandler
	Voice     *handlers.VoiceHandler
	DB        handlers.Pinger
	Tokens    *appMiddleware.TokenManager
}

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewRouter wires all routes.
func NewRouter(cfg *config.Config, rt Routes) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", handlers.Health(rt.DB))

	r.Route("/api", func(api chi.Router) {
		// The voice socket is long-lived and checks its own token.
		if rt.Voice != nil {
			api.Get("/voice/ws", rt.Voice.ServeHTTP)
		}

		api.Group(func(api chi.Router) {
			api.Use(middleware.Timeout(requestTimeout))

			// public endpoints
			api.Post("/signup", rt.Auth.Signup)
			api.Post("/login", rt.Auth.Login)

			// protected endpoints
			api.Group(func(protected chi.Router) {
				protected.Use(rt.Tokens.JWTMiddleware)

				protected.Post("/documents/upload", rt.Documents.UploadDocument)
				protected.Post("/documents/ask", rt.Documents.Ask)
				protected.Get("/documents", rt.Documents.GetDocuments)
				protected.Delete("/documents", rt.Documents.DeleteAllDocuments)
				protected.Delete("/documents/{file_name}", rt.Documents.DeleteDocument)

				protected.Post("/chat", rt.Chat.Chat)
				protected.Get("/chat/history", rt.Chat.History)
				protected.Delete("/chat/history", rt.Chat.ClearHistory)
				protected.Post("/run", rt.Chat.Run)
			})
		})
	})
	return r
}

func NewServer(cfg *config.Config, handler http.Handler, logger *slog.Logger) *Server {
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return &Server{httpServer: httpSrv, logger: logger}
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
