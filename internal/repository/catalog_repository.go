package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gitlab.com/yelinaung/bodyshop/internal/database"
	"gitlab.com/yelinaung/bodyshop/internal/models"
)

// CatalogRepository handles catalog service database operations.
type CatalogRepository struct {
	db database.PGXDB
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(db database.PGXDB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const catalogColumns = `id, tenant_id, name, price, created_at, updated_at`

// ListByTenant retrieves all catalog services of a tenant ordered by name.
func (r *CatalogRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.CatalogService, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+catalogColumns+`
		FROM catalog_services
		WHERE tenant_id = $1
		ORDER BY name, id
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog services: %w", err)
	}
	defer rows.Close()

	return scanCatalogServices(rows)
}

// ListByIDs retrieves the tenant's catalog services whose ID is in ids,
// ordered by name. IDs owned by other tenants are ignored.
func (r *CatalogRepository) ListByIDs(
	ctx context.Context,
	tenantID uuid.UUID,
	ids []uuid.UUID,
) ([]models.CatalogService, error) {
	if len(ids) == 0 {
		return []models.CatalogService{}, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+catalogColumns+`
		FROM catalog_services
		WHERE tenant_id = $1 AND id = ANY($2)
		ORDER BY name, id
	`, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog services by id: %w", err)
	}
	defer rows.Close()

	return scanCatalogServices(rows)
}

// GetByID retrieves one catalog service of a tenant.
func (r *CatalogRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.CatalogService, error) {
	var svc models.CatalogService
	err := r.db.QueryRow(ctx, `
		SELECT `+catalogColumns+`
		FROM catalog_services
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, id).Scan(&svc.ID, &svc.TenantID, &svc.Name, &svc.Price, &svc.CreatedAt, &svc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog service: %w", notFound(err))
	}
	return &svc, nil
}

// Create adds a catalog service and fills in its generated fields.
func (r *CatalogRepository) Create(ctx context.Context, svc *models.CatalogService) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO catalog_services (tenant_id, name, price)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, svc.TenantID, svc.Name, svc.Price).Scan(&svc.ID, &svc.CreatedAt, &svc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create catalog service: %w", err)
	}
	return nil
}

// Update changes the name and price of a catalog service.
func (r *CatalogRepository) Update(ctx context.Context, svc *models.CatalogService) error {
	err := r.db.QueryRow(ctx, `
		UPDATE catalog_services SET
			name = $3,
			price = $4,
			updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
		RETURNING created_at, updated_at
	`, svc.TenantID, svc.ID, svc.Name, svc.Price).Scan(&svc.CreatedAt, &svc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update catalog service: %w", notFound(err))
	}
	return nil
}

// Delete removes a catalog service.
func (r *CatalogRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM catalog_services WHERE tenant_id = $1 AND id = $2
	`, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete catalog service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete catalog service: %w", ErrNotFound)
	}
	return nil
}

func scanCatalogServices(rows rowScanner) ([]models.CatalogService, error) {
	services := []models.CatalogService{}
	for rows.Next() {
		var svc models.CatalogService
		if err := rows.Scan(&svc.ID, &svc.TenantID, &svc.Name, &svc.Price, &svc.CreatedAt, &svc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan catalog service: %w", err)
		}
		services = append(services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog services: %w", err)
	}
	return services, nil
}
