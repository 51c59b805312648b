// Package catalog serves a tenant's service catalog through the tenant cache.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/bodyshop/internal/cache"
	"gitlab.com/yelinaung/bodyshop/internal/logger"
	"gitlab.com/yelinaung/bodyshop/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"
)

const (
	// KeyServices caches the full, name-ordered catalog of a tenant.
	KeyServices = "catalog_services"
	// KeyServicesByIDsPrefix prefixes every cached id-set lookup.
	KeyServicesByIDsPrefix = KeyServices + ":ids:"

	DefaultCatalogTTL = 10 * time.Minute
	DefaultLookupTTL  = 5 * time.Minute
)

var (
	ErrInvalidName  = errors.New("catalog service name is required")
	ErrNameTooLong  = fmt.Errorf("catalog service name exceeds %d characters", models.MaxCatalogServiceNameLength)
	ErrInvalidPrice = errors.New("catalog service price must not be negative")
)

// Repository is the catalog persistence used by Service.
type Repository interface {
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.CatalogService, error)
	ListByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.CatalogService, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.CatalogService, error)
	Create(ctx context.Context, svc *models.CatalogService) error
	Update(ctx context.Context, svc *models.CatalogService) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// Service reads the catalog through the cache and invalidates it on writes.
type Service struct {
	repo       Repository
	cache      *cache.TenantCache
	catalogTTL time.Duration
	lookupTTL  time.Duration
	group      singleflight.Group
	log        zerolog.Logger
	lookups    metric.Int64Counter
}

// Option customises a Service.
type Option func(*Service)

// WithCatalogTTL sets how long the full catalog stays cached.
func WithCatalogTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.catalogTTL = ttl
		}
	}
}

// WithLookupTTL sets how long id-set lookups stay cached.
func WithLookupTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.lookupTTL = ttl
		}
	}
}

// NewService creates a catalog Service.
func NewService(repo Repository, c *cache.TenantCache, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		cache:      c,
		catalogTTL: DefaultCatalogTTL,
		lookupTTL:  DefaultLookupTTL,
		log:        logger.Component("catalog"),
	}
	for _, opt := range opts {
		opt(s)
	}

	lookups, err := otel.Meter("gitlab.com/yelinaung/bodyshop/internal/catalog").Int64Counter(
		"catalog.cache.lookups",
		metric.WithDescription("Catalog reads by cache result"),
	)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to create catalog lookup counter")
	}
	s.lookups = lookups
	return s
}

var (
	hitAttrs  = metric.WithAttributeSet(attribute.NewSet(attribute.String("result", "hit")))
	missAttrs = metric.WithAttributeSet(attribute.NewSet(attribute.String("result", "miss")))
)

func (s *Service) record(ctx context.Context, hit bool) {
	if s.lookups == nil {
		return
	}
	if hit {
		s.lookups.Add(ctx, 1, hitAttrs)
		return
	}
	s.lookups.Add(ctx, 1, missAttrs)
}

// List returns the tenant's catalog ordered by name.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID) ([]models.CatalogService, error) {
	return s.fetch(ctx, tenantID, KeyServices, s.catalogTTL, func(ctx context.Context) ([]models.CatalogService, error) {
		return s.repo.ListByTenant(ctx, tenantID)
	})
}

// ListByIDs returns the tenant's catalog services with the given IDs. The
// lookup is cached per distinct id set regardless of argument order.
func (s *Service) ListByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.CatalogService, error) {
	if len(ids) == 0 {
		return []models.CatalogService{}, nil
	}

	key := idsKey(ids)
	return s.fetch(ctx, tenantID, key, s.lookupTTL, func(ctx context.Context) ([]models.CatalogService, error) {
		return s.repo.ListByIDs(ctx, tenantID, ids)
	})
}

func (s *Service) fetch(
	ctx context.Context,
	tenantID uuid.UUID,
	key string,
	ttl time.Duration,
	load func(ctx context.Context) ([]models.CatalogService, error),
) ([]models.CatalogService, error) {
	tenant := tenantID.String()
	if cached, ok := cache.GetAs[[]models.CatalogService](s.cache, tenant, key); ok {
		s.record(ctx, true)
		return slices.Clone(cached), nil
	}
	s.record(ctx, false)

	// Waiters share the first caller's load, so it must not end with that
	// caller's context.
	v, err, _ := s.group.Do(cache.Key(tenant, key), func() (any, error) {
		services, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		s.cache.Set(tenant, key, services, ttl)
		return services, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return slices.Clone(v.([]models.CatalogService)), nil
}

// Get returns one catalog service. It is answered from the cached catalog when
// that is present and falls back to the repository otherwise.
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.CatalogService, error) {
	if cached, ok := cache.GetAs[[]models.CatalogService](s.cache, tenantID.String(), KeyServices); ok {
		for i := range cached {
			if cached[i].ID == id {
				svc := cached[i]
				return &svc, nil
			}
		}
	}
	return s.repo.GetByID(ctx, tenantID, id)
}

// Create validates and stores a new catalog service.
func (s *Service) Create(ctx context.Context, svc *models.CatalogService) error {
	if err := validate(svc); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, svc); err != nil {
		return err
	}
	s.Invalidate(svc.TenantID)
	return nil
}

// Update validates and stores changes to a catalog service.
func (s *Service) Update(ctx context.Context, svc *models.CatalogService) error {
	if err := validate(svc); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, svc); err != nil {
		return err
	}
	s.Invalidate(svc.TenantID)
	return nil
}

// Delete removes a catalog service.
func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.Invalidate(tenantID)
	return nil
}

// Invalidate drops every cached catalog view of a tenant.
func (s *Service) Invalidate(tenantID uuid.UUID) {
	tenant := tenantID.String()
	s.cache.Delete(tenant, KeyServices)
	removed := s.cache.DeletePrefix(tenant, KeyServicesByIDsPrefix)
	s.log.Debug().
		Str("tenant_hash", logger.HashTenantID(tenantID)).
		Int("lookups_removed", removed).
		Msg("Invalidated catalog cache")
}

func validate(svc *models.CatalogService) error {
	svc.Name = strings.TrimSpace(svc.Name)
	if svc.Name == "" {
		return ErrInvalidName
	}
	if len([]rune(svc.Name)) > models.MaxCatalogServiceNameLength {
		return ErrNameTooLong
	}
	if svc.Price.LessThan(decimal.Zero) {
		return ErrInvalidPrice
	}
	return nil
}

// idsKey builds the cache key of an id-set lookup from the sorted, de-duplicated ids.
func idsKey(ids []uuid.UUID) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id.String())
	}
	slices.Sort(parts)
	parts = slices.Compact(parts)
	return KeyServicesByIDsPrefix + strings.Join(parts, ",")
}
