// Package api exposes the diary over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"reflection-diary/internal/logging"
	"reflection-diary/internal/repository"
	"reflection-diary/internal/service"
)

// Deps holds what the handlers need.
type Deps struct {
	Store       *repository.Store
	Entries     *service.EntryService
	Prompts     *service.PromptService
	CORSOrigins []string
	Log         *slog.Logger
}

// Server routes HTTP requests to the diary services.
type Server struct {
	store    *repository.Store
	entries  *service.EntryService
	prompts  *service.PromptService
	log      *slog.Logger
	validate *validator.Validate
	router   chi.Router
}

func NewServer(deps Deps) *Server {
	log := deps.Log
	if log == nil {
		log = logging.Discard()
	}
	s := &Server{
		store:    deps.Store,
		entries:  deps.Entries,
		prompts:  deps.Prompts,
		log:      log.With("component", "http"),
		validate: newValidator(),
	}
	s.router = s.routes(deps.CORSOrigins)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes(origins []string) chi.Router {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	// Entries
	r.Post("/entry", s.handleCreateEntry)
	r.Get("/entry/{date}", s.handleEntriesByDate)
	r.Get("/list", s.handleListRecent)
	r.Get("/export", s.handleExport)

	// Users
	r.Route("/users", func(r chi.Router) {
		r.Post("/", s.handleCreateUser)
		r.Post("/resolve", s.handleResolveUser)
		r.Get("/by_external_id/{external_id}", s.handleUserByExternalID)
		r.Get("/{id}", s.handleGetUser)
		r.Patch("/{id}", s.handleUpdateUser)
		r.Delete("/{id}", s.handleDeleteUser)
		r.Post("/{id}/deactivate", s.handleDeactivateUser)
	})

	// Prompts
	r.Post("/prompts/run", s.handleRunPrompts)
	r.Get("/prompts/last", s.handleLastRun)

	r.Get("/healthz", s.handleHealth)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := repository.Ping(ctx, s.store.DB()); err != nil {
		s.log.Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// newValidator reports JSON field names in validation errors.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				level := slog.LevelInfo
				if r.URL.Path == "/healthz" {
					level = slog.LevelDebug
				}
				log.Log(r.Context(), level, "request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
