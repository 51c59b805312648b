// Package api exposes the catalog, fixed-expense and cache operations over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gitlab.com/yelinaung/bodyshop/internal/cache"
	"gitlab.com/yelinaung/bodyshop/internal/fixedexpense"
	"gitlab.com/yelinaung/bodyshop/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// CatalogService is the cached catalog used by the handlers.
type CatalogService interface {
	List(ctx context.Context, tenantID uuid.UUID) ([]models.CatalogService, error)
	ListByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.CatalogService, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*models.CatalogService, error)
	Create(ctx context.Context, svc *models.CatalogService) error
	Update(ctx context.Context, svc *models.CatalogService) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// ExpenseStore persists expenses and fixed-expense templates.
type ExpenseStore interface {
	Create(ctx context.Context, expense *models.Expense) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Expense, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	ListByTenantAndDateRange(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]models.Expense, error)
	ListTemplates(ctx context.Context, tenantID uuid.UUID) ([]models.Expense, error)
}

// TenantStore persists tenants.
type TenantStore interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

// Generator runs the fixed-expense roll-forward for one tenant.
type Generator interface {
	Generate(ctx context.Context, tenantID uuid.UUID, now time.Time) (fixedexpense.Result, error)
}

// Config holds server dependencies.
type Config struct {
	Addr      string
	Log       zerolog.Logger
	Catalog   CatalogService
	Expenses  ExpenseStore
	Tenants   TenantStore
	Generator Generator
	Cache     *cache.TenantCache

	// Location decides which calendar month "now" falls in.
	Location *time.Location

	// Health reports whether dependencies are reachable. Optional.
	Health func(ctx context.Context) error

	// Now overrides the wall clock. Optional.
	Now func() time.Time
}

// Server represents the HTTP server.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger

	catalog   CatalogService
	expenses  ExpenseStore
	tenants   TenantStore
	generator Generator
	cache     *cache.TenantCache
	loc       *time.Location
	health    func(ctx context.Context) error
	now       func() time.Time
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		catalog:   cfg.Catalog,
		expenses:  cfg.Expenses,
		tenants:   cfg.Tenants,
		generator: cfg.Generator,
		cache:     cfg.Cache,
		loc:       cfg.Location,
		health:    cfg.Health,
		now:       cfg.Now,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Handler returns the instrumented router.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "bodyshop-api")
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/cache/stats", s.handleCacheStats)
		r.Post("/tenants", s.handleCreateTenant)

		r.Route("/tenants/{tenantID}", func(r chi.Router) {
			r.Use(s.tenantMiddleware)

			r.Route("/catalog", func(r chi.Router) {
				r.Get("/", s.handleListCatalog)
				r.Post("/", s.handleCreateCatalogService)
				r.Get("/{serviceID}", s.handleGetCatalogService)
				r.Put("/{serviceID}", s.handleUpdateCatalogService)
				r.Delete("/{serviceID}", s.handleDeleteCatalogService)
			})

			r.Route("/fixed-expenses", func(r chi.Router) {
				r.Get("/", s.handleListFixedExpenses)
				r.Post("/", s.handleCreateFixedExpense)
				r.Post("/generate", s.handleGenerateFixedExpenses)
				r.Delete("/{expenseID}", s.handleDeleteFixedExpense)
			})

			r.Get("/expenses/export", s.handleExportExpenses)
			r.Get("/expenses/chart", s.handleExpensesChart)
			r.Delete("/cache", s.handleClearTenantCache)
		})
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.log.Error().Err(err).Msg("Health check failed")
			writeError(w, http.StatusServiceUnavailable, "unhealthy")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
