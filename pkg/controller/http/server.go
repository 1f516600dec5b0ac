package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/seisaku-lab/yosan/pkg/usecase"
	"github.com/seisaku-lab/yosan/pkg/utils/errutil"
	"github.com/seisaku-lab/yosan/pkg/utils/logging"
	"github.com/seisaku-lab/yosan/pkg/utils/safe"
)

const serviceName = "policy-budget-simulator-api"

type Server struct {
	router *chi.Mux
	uc     *usecase.UseCases
}

func New(uc *usecase.UseCases) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/analyze", s.handleAnalyze)

	r.Route("/projects", func(r chi.Router) {
		r.Get("/", s.handleListProjects)
		r.Get("/{projectID}", s.handleGetProject)
	})

	r.Get("/stats", s.handleCorpusStats)

	r.Route("/logs", func(r chi.Router) {
		r.Get("/", s.handleListLogs)
		r.Get("/stats", s.handleLogStats)
		r.Post("/cleanup", s.handleCleanupLogs)
		r.Get("/{logID}", s.handleGetLog)
		r.Delete("/{logID}", s.handleDeleteLog)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   serviceName,
	})
}

// writeJSON serializes the response body. Encoding failures after the
// status line is committed can only be logged.
func writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	safe.Write(r.Context(), w, data)
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, errLabel, message string) {
	writeJSON(w, r, statusCode, map[string]string{
		"error":   errLabel,
		"message": message,
	})
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
