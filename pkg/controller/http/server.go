package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/dynattr/pkg/usecase"
	"github.com/secmon-lab/dynattr/pkg/utils/logging"
)

// DefaultMaxBodyBytes caps request bodies
const DefaultMaxBodyBytes = 1 << 20

type Server struct {
	router       *chi.Mux
	uc           *usecase.UseCases
	maxBodyBytes int64
	timeout      time.Duration
}

type Options func(*Server)

// WithMaxBodyBytes overrides the request body limit
func WithMaxBodyBytes(n int64) Options {
	return func(s *Server) {
		s.maxBodyBytes = n
	}
}

// WithRequestTimeout cancels request contexts after d. Zero disables it.
func WithRequestTimeout(d time.Duration) Options {
	return func(s *Server) {
		s.timeout = d
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:       r,
		uc:           uc,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)
	if s.timeout > 0 {
		r.Use(middleware.Timeout(s.timeout))
	}

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequestSize(s.maxBodyBytes))

		r.Get("/field-types", fieldTypesHandler)

		r.Route("/fields", func(r chi.Router) {
			r.Get("/", s.listFields)
			r.Post("/", s.createField)
			r.Get("/grouped", s.listFieldsGrouped)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getField)
				r.Put("/", s.updateField)
				r.Delete("/", s.deleteField)
				r.Post("/deactivate", s.deactivateField)
			})
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.listTemplates)
			r.Post("/", s.createTemplate)
			r.Route("/{code}", func(r chi.Router) {
				r.Get("/", s.getTemplate)
				r.Put("/", s.updateTemplate)
				r.Delete("/", s.deleteTemplate)
				r.Post("/apply", s.applyTemplate)
			})
		})

		r.Route("/forms/{scope}", func(r chi.Router) {
			r.Get("/", s.getForm)
			r.Post("/validate", s.validateForm)
			r.Post("/submit", s.submitForm)
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.From(r.Context()).Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}
