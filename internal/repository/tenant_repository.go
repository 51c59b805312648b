package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gitlab.com/yelinaung/bodyshop/internal/database"
	"gitlab.com/yelinaung/bodyshop/internal/models"
)

// TenantRepository handles tenant database operations.
type TenantRepository struct {
	db database.PGXDB
}

// NewTenantRepository creates a new TenantRepository.
func NewTenantRepository(db database.PGXDB) *TenantRepository {
	return &TenantRepository{db: db}
}

// Create adds a tenant. A zero ID is replaced with a new random one.
func (r *TenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	if tenant.ID == uuid.Nil {
		tenant.ID = uuid.New()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO tenants (id, name) VALUES ($1, $2)
		RETURNING created_at
	`, tenant.ID, tenant.Name).Scan(&tenant.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

// GetByID retrieves a tenant by ID.
func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.QueryRow(ctx, `
		SELECT id, name, created_at FROM tenants WHERE id = $1
	`, id).Scan(&tenant.ID, &tenant.Name, &tenant.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", notFound(err))
	}
	return &tenant, nil
}
