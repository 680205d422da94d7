package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"eventbudget/internal/attachments"
	"eventbudget/internal/core"
	"eventbudget/internal/log"
	"eventbudget/internal/middleware/ratelimit"
	"eventbudget/internal/middleware/security"
	"eventbudget/internal/services"
)

// ActorHeader carries the id of the user on whose behalf a request mutates
// data. It is recorded in the updatedBy stamps.
const ActorHeader = "X-Actor-ID"

// Server is the JSON API over the entity mutators.
type Server struct {
	http.Server

	svc      *services.Service
	files    attachments.Store
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector

	rateLimit    ratelimit.Config
	shutdownOnce sync.Once
}

type ServerOption func(*Server)

// WithAttachmentStore enables POST /attachments.
func WithAttachmentStore(files attachments.Store) ServerOption {
	return func(s *Server) { s.files = files }
}

func WithRateLimit(cfg ratelimit.Config) ServerOption {
	return func(s *Server) { s.rateLimit = cfg }
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. Call Shutdown to stop it and its background cleanup.
func NewServer(addr string, svc *services.Service, logger *log.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	s := &Server{
		svc:       svc,
		logger:    logger.WithComponent(log.ComponentHTTP),
		detector:  security.NewDetector(),
		rateLimit: ratelimit.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.limiter = ratelimit.NewLimiter(s.rateLimit)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64KB
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestIDMiddleware(func(r *http.Request) string {
		return middleware.GetReqID(r.Context())
	}))
	r.Use(withActor)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware(func(r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request rejected",
			log.FieldClientIP, s.detector.ExtractClientIP(r), log.FieldPath, r.URL.Path)
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusNotFound, "not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})

	r.Get("/healthz", handleHealth)

	r.Route("/v1/owners/{ownerID}", func(r chi.Router) {
		r.Use(log.RouteParamMiddleware(chi.URLParam, "ownerID", log.FieldOwnerID))
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, s.detector.ExtractClientIP(r), log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
		}))

		r.Post("/attachments", s.handleUploadAttachment)

		r.Get("/events", s.handleListEvents)
		r.Post("/events", s.handleCreateEvent)
		r.Route("/events/{eventID}", func(r chi.Router) {
			r.Use(log.RouteParamMiddleware(chi.URLParam, "eventID", log.FieldEventID))
			r.Get("/", s.handleGetEvent)
			r.Delete("/", s.handleDeleteEvent)
			r.Post("/complete", s.handleCompleteEvent)
			r.Post("/recompute", s.handleRecompute)
			r.Post("/totals/add", handleTotals(s.svc.AddToEventTotals))
			r.Post("/totals/subtract", handleTotals(s.svc.SubtractFromEventTotals))
			r.Post("/totals/complex", s.handleComplexTotals)

			r.Post("/categories", s.handleCreateCategory)
			r.Put("/categories/{categoryID}/budget", s.handleUpdateCategoryBudget)
			r.Delete("/categories/{categoryID}", s.handleDeleteCategory)

			r.Post("/expenses", s.handleAddExpense)
			r.Route("/expenses/{expenseID}", func(r chi.Router) {
				r.Use(log.RouteParamMiddleware(chi.URLParam, "expenseID", log.FieldExpenseID))
				r.Get("/", s.handleGetExpense)
				r.Patch("/", s.handleUpdateExpense)
				r.Delete("/", s.handleDeleteExpense)

				r.Put("/schedule", s.handleSetSchedule)
				r.Post("/payments", s.handleCreatePaidPayment)
				r.Delete("/payments", s.handleClearPayments)
				r.Post("/payments/{paymentID}/paid", s.handleMarkPaid)
				r.Post("/payments/{paymentID}/unpaid", s.handleMarkUnpaid)
				r.Patch("/payments/{paymentID}", s.handleUpdatePayment)
				r.Delete("/payments/{paymentID}", s.handleDeletePayment)
			})
		})
	})

	return r
}

// accessLog logs every completed request with its status and duration.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogHTTPEnd(r.Context(), r, status, time.Since(start).Milliseconds(), s.detector.ExtractClientIP(r), routeFields(r))
	})
}

// routeFields returns the route identifiers chi resolved for r. It is only
// complete after the request was routed.
func routeFields(r *http.Request) log.LogFields {
	fields := log.NewFields()
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return fields
	}
	for i, key := range rctx.URLParams.Keys {
		if field, ok := log.RouteFields[key]; ok && rctx.URLParams.Values[i] != "" {
			fields[field] = rctx.URLParams.Values[i]
		}
	}
	return fields
}

func withActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor := r.Header.Get(ActorHeader); actor != "" {
			r = r.WithContext(core.WithActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Shutdown gracefully shuts down the server and the rate limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
