package database

import (
	"context"
	"fmt"
)

// RunMigrations creates the database schema.
func RunMigrations(ctx context.Context, db PGXDB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS tenants (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS catalog_services (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			price DECIMAL(12, 2) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_catalog_services_tenant_name ON catalog_services(tenant_id, name)`,

		`CREATE TABLE IF NOT EXISTS expenses (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
			description TEXT NOT NULL,
			value DECIMAL(12, 2) NOT NULL,
			expense_date TIMESTAMPTZ NOT NULL,
			is_fixed BOOLEAN NOT NULL DEFAULT FALSE,
			fixed_day_of_month SMALLINT CHECK (fixed_day_of_month BETWEEN 1 AND 31),
			next_generation_date DATE,
			original_expense_id UUID REFERENCES expenses(id) ON DELETE SET NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_expenses_tenant_date ON expenses(tenant_id, expense_date)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_fixed_due ON expenses(tenant_id, next_generation_date) WHERE is_fixed`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_original ON expenses(original_expense_id)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}
