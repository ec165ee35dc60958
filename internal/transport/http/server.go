// Package http provides the HTTP transport layer for the fleet records service.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mvaleed/carfleet/internal/domain"
	"github.com/mvaleed/carfleet/internal/service"
	"github.com/mvaleed/carfleet/internal/storage"
)

// Server is the HTTP server for the fleet records service.
type Server struct {
	httpServer  *http.Server
	router      *chi.Mux
	services    *service.Services
	authService *service.AuthService
	pinger      storage.Pinger
	registry    *prometheus.Registry
	metrics     *httpMetrics
	logger      *slog.Logger
}

// NewServer creates a new HTTP server. pinger may be nil when storage is in process.
// Request metrics are registered with registry and served on /metrics.
func NewServer(
	services *service.Services,
	authService *service.AuthService,
	pinger storage.Pinger,
	registry *prometheus.Registry,
	logger *slog.Logger,
) *Server {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	s := &Server{
		router:      chi.NewRouter(),
		services:    services,
		authService: authService,
		pinger:      pinger,
		registry:    registry,
		metrics:     newHTTPMetrics(registry),
		logger:      logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.metrics.middleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.router.Route("/api/v1", func(r chi.Router) {
		// Public routes (no auth required)
		r.Post("/auth/sign-in", s.handleSignIn)
		r.With(s.authMiddleware).Get("/auth/me", s.handleMe)

		// Record routes; users may register without a token, as plain users.
		mountRecords(r, s, "/cars", s.services.Cars, nil, nil)
		mountRecords(r, s, "/car-types", s.services.CarTypes, nil, nil)
		mountRecords(r, s, "/car-models", s.services.CarModels, nil, nil)
		mountRecords(r, s, "/categories", s.services.Categories, nil, nil)
		mountRecords(r, s, "/offer-types", s.services.OfferTypes, nil, nil)
		mountRecords(r, s, "/service-types", s.services.ServiceTypes, nil, nil)
		mountRecords(r, s, "/addresses", s.services.Addresses, nil, nil)
		mountRecords(r, s, "/driver-licenses", s.services.DriverLicenses, nil, nil)
		mountRecords(r, s, "/offers", s.services.Offers, nil, nil)
		mountRecords(r, s, "/penalties", s.services.Penalties, nil, nil)
		mountRecords(r, s, "/services", s.services.Services, nil, nil)
		mountRecords(r, s, "/users", s.services.Users, redactPassword, registerUser)
	})
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

type healthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger == nil {
		s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Storage: "memory"})
		return
	}
	if err := s.pinger.Ping(r.Context()); err != nil {
		s.logger.WarnContext(r.Context(), "storage health check failed", slog.String("error", err.Error()))
		s.writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "fail", Storage: "unreachable"})
		return
	}
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Storage: "ok"})
}

// Response helpers

type errorResponse struct {
	Error   string              `json:"error"`
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError maps the failure taxonomy onto status codes. Foundation services have
// already logged their failures, so only unclassified errors are logged here.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		status int
		resp   errorResponse
		ee     *domain.EntityError
		ve     domain.ValidationError
	)

	switch {
	case errors.Is(err, domain.ErrInvalidCredential):
		status = http.StatusUnauthorized
		resp = errorResponse{Error: "invalid credentials", Code: "INVALID_CREDENTIALS"}

	case errors.As(err, &ee):
		resp = errorResponse{Error: ee.Error(), Message: ee.Err.Error()}
		switch {
		case errors.Is(err, domain.ErrNotFound):
			status, resp.Code = http.StatusNotFound, "NOT_FOUND"
		case ee.Kind == domain.KindValidation:
			status, resp.Code = http.StatusBadRequest, "VALIDATION_ERROR"
			resp.Details = domain.Violations(err).Fields()
		case errors.Is(err, domain.ErrLocked):
			status, resp.Code = http.StatusLocked, "LOCKED"
		case ee.Kind == domain.KindDependencyValidation:
			status, resp.Code = http.StatusConflict, "ALREADY_EXISTS"
		case ee.Kind == domain.KindDependency:
			status, resp.Code = http.StatusInternalServerError, "DEPENDENCY_ERROR"
			resp.Message = ""
		default:
			status, resp.Code = http.StatusInternalServerError, "SERVICE_ERROR"
			resp.Message = ""
		}

	case errors.As(err, &ve):
		status = http.StatusBadRequest
		resp = errorResponse{Error: err.Error(), Code: "INVALID_INPUT", Details: map[string][]string{ve.Field: {ve.Message}}}

	default:
		s.logger.Error("unhandled error", slog.String("error", err.Error()))
		status = http.StatusInternalServerError
		resp = errorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"}
	}

	s.writeJSON(w, status, resp)
}

func (s *Server) readJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ValidationError{Field: "body", Message: "invalid JSON"}
	}
	return nil
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// Context helpers

type contextKey string

const (
	userClaimsKey contextKey = "user_claims"
)

func setUserClaims(ctx context.Context, claims *userClaims) context.Context {
	return context.WithValue(ctx, userClaimsKey, claims)
}

func getUserClaims(ctx context.Context) *userClaims {
	if claims, ok := ctx.Value(userClaimsKey).(*userClaims); ok {
		return claims
	}
	return nil
}
