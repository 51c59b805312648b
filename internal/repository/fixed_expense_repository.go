package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/bodyshop/internal/database"
	"gitlab.com/yelinaung/bodyshop/internal/fixedexpense"
	"gitlab.com/yelinaung/bodyshop/internal/models"
)

// FixedExpenseRepository is the generator's view of the expenses table.
type FixedExpenseRepository struct {
	db database.PGXDB
}

var (
	_ fixedexpense.AtomicStore  = (*FixedExpenseRepository)(nil)
	_ fixedexpense.TenantLister = (*FixedExpenseRepository)(nil)
)

// NewFixedExpenseRepository creates a new FixedExpenseRepository.
func NewFixedExpenseRepository(db database.PGXDB) *FixedExpenseRepository {
	return &FixedExpenseRepository{db: db}
}

// ListDueTemplates returns the tenant's templates with a next generation date
// on or before today, oldest first.
func (r *FixedExpenseRepository) ListDueTemplates(
	ctx context.Context,
	tenantID uuid.UUID,
	today time.Time,
) ([]models.Expense, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE tenant_id = $1 AND is_fixed AND next_generation_date <= $2
		ORDER BY next_generation_date, id
	`, tenantID, dateOnly(today))
	if err != nil {
		return nil, fmt.Errorf("failed to query due fixed expenses: %w", err)
	}
	defer rows.Close()

	return scanExpenses(rows)
}

// ListTenantsWithDueTemplates returns every tenant that has a due template.
func (r *FixedExpenseRepository) ListTenantsWithDueTemplates(ctx context.Context, today time.Time) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT tenant_id
		FROM expenses
		WHERE is_fixed AND next_generation_date <= $1
		ORDER BY tenant_id
	`, dateOnly(today))
	if err != nil {
		return nil, fmt.Errorf("failed to query tenants with due fixed expenses: %w", err)
	}
	defer rows.Close()

	var tenants []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan tenant id: %w", err)
		}
		tenants = append(tenants, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tenants: %w", err)
	}
	return tenants, nil
}

// InsertGenerated stores all expenses in a single batch. The batch runs as
// one implicit transaction, so either every row is written or none is.
func (r *FixedExpenseRepository) InsertGenerated(ctx context.Context, expenses []models.Expense) error {
	return insertBatch(ctx, r.db, expenses)
}

// AdvanceTemplate sets a template's next generation date.
func (r *FixedExpenseRepository) AdvanceTemplate(ctx context.Context, templateID uuid.UUID, next time.Time) error {
	return advanceTemplate(ctx, r.db, templateID, next)
}

// ApplyCycle inserts the generated expenses and advances every template in one
// transaction.
func (r *FixedExpenseRepository) ApplyCycle(
	ctx context.Context,
	expenses []models.Expense,
	advances []models.TemplateAdvance,
) error {
	return database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := insertBatch(ctx, tx, expenses); err != nil {
			return err
		}
		for _, adv := range advances {
			if err := advanceTemplate(ctx, tx, adv.TemplateID, adv.NextGenerationDate); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertBatch(ctx context.Context, db database.PGXDB, expenses []models.Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range expenses {
		batch.Queue(insertExpenseSQL, insertExpenseArgs(&expenses[i])...)
	}

	br := db.SendBatch(ctx, batch)
	for i := range expenses {
		if err := br.QueryRow().Scan(&expenses[i].CreatedAt); err != nil {
			_ = br.Close()
			return fmt.Errorf("failed to insert generated expense: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to insert generated expenses: %w", err)
	}
	return nil
}

func advanceTemplate(ctx context.Context, db database.PGXDB, templateID uuid.UUID, next time.Time) error {
	tag, err := db.Exec(ctx, `
		UPDATE expenses SET next_generation_date = $2
		WHERE id = $1 AND is_fixed
	`, templateID, dateOnly(next))
	if err != nil {
		return fmt.Errorf("failed to advance fixed expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to advance fixed expense: %w", ErrNotFound)
	}
	return nil
}

// dateOnly strips the clock so DATE parameters compare by calendar day.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
