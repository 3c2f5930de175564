// Package httpserver composes the feedback store and the admin session
// guard behind an HTTP API: an open submit endpoint for the form, and a
// credential-gated admin surface for review, export and purge.
package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/golang-jwt/jwt/v5/request"

	"github.com/essexfb/backend/adminauth"
	"github.com/essexfb/backend/feedback"
	"github.com/essexfb/backend/httpjson"
	"github.com/essexfb/backend/logger"
)

type Server struct {
	store  *feedback.Store
	guard  *adminauth.Guard
	jwtKey []byte
	router *chi.Mux
}

func New(
	store *feedback.Store,
	guard *adminauth.Guard,
	jwtKey []byte,
	corsOrigins []string,
) *Server {
	router := chi.NewRouter()

	httpLogger := httplog.NewLogger("essexfb", httplog.Options{
		LogLevel:         slog.LevelDebug,
		Concise:          true,
		MessageFieldName: "message",
	})
	router.Use(httplog.RequestLogger(httpLogger))

	// expose the request-scoped logger to handlers and services, so error
	// logs keep their request attributes
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logger.WithLogger(r.Context(), httplog.LogEntry(r.Context()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           3000,
	}))

	server := &Server{
		store:  store,
		guard:  guard,
		jwtKey: jwtKey,
		router: router,
	}
	server.routes()
	return server
}

func (s *Server) Start(address string) error {
	return http.ListenAndServe(address, s.router)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := s.router
	r.Post("/api/feedback", s.createFeedback)
	r.Post("/api/admin/login", s.adminLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Post("/api/admin/logout", s.adminLogout)
		r.Post("/api/admin/extend", s.adminExtend)
		r.Get("/api/admin/session", s.adminSession)
		r.Get("/api/admin/stats", s.adminStats)
		r.Get("/api/admin/submissions", s.adminSubmissions)
		r.Get("/api/admin/export/csv", s.adminExportCSV)
		r.Get("/api/admin/export/json", s.adminExportJSON)
		r.Post("/api/admin/purge", s.adminPurge)
	})
}

// requireAdmin checks the bearer token signature. It deliberately does NOT
// check the persisted session: every privileged handler re-checks that
// itself, so a handler can never act on a stale assumption. Logout and the
// session-status endpoint only need the token.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := request.BearerExtractor{}.ExtractToken(r)
		if err != nil {
			httpjson.WriteErrorJson(w, "admin token required",
				http.StatusUnauthorized, "token_required")
			return
		}
		if _, err := adminauth.ValidateToken(token, s.jwtKey); err != nil {
			httpjson.WriteErrorJson(w, "invalid admin token",
				http.StatusUnauthorized, "token_invalid")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireSession guards the handlers that touch submission data. Returns
// false after writing the 401 if no live session exists.
func (s *Server) requireSession(w http.ResponseWriter, r *http.Request) bool {
	if !s.guard.IsValid(r.Context()) {
		httpjson.HandleError(logger.FromContext(r.Context()), w, adminauth.NewErrNotAuthenticated())
		return false
	}
	return true
}

// touchSession keeps an active admin alive, the way the browser UI extends
// the session on activity. Best-effort.
func (s *Server) touchSession(r *http.Request) {
	if _, err := s.guard.Extend(r.Context()); err != nil {
		logger.FromContext(r.Context()).Warn("failed to extend admin session", "error", err)
	}
}
