package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gitlab.com/yelinaung/bodyshop/internal/database"
	"gitlab.com/yelinaung/bodyshop/internal/models"
)

// ExpenseRepository handles expense database operations.
type ExpenseRepository struct {
	db database.PGXDB
}

// NewExpenseRepository creates a new ExpenseRepository.
func NewExpenseRepository(db database.PGXDB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

const expenseColumns = `id, tenant_id, description, value, expense_date, is_fixed,
	fixed_day_of_month, next_generation_date, original_expense_id, created_at`

const insertExpenseSQL = `
	INSERT INTO expenses (id, tenant_id, description, value, expense_date, is_fixed,
		fixed_day_of_month, next_generation_date, original_expense_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING created_at`

func insertExpenseArgs(exp *models.Expense) []any {
	return []any{
		exp.ID, exp.TenantID, exp.Description, exp.Value, exp.ExpenseDate, exp.IsFixed,
		exp.FixedDayOfMonth, exp.NextGenerationDate, exp.OriginalExpenseID,
	}
}

// Create adds an expense. Both manual expenses and fixed-expense templates go
// through here; a zero ID is replaced with a new random one.
func (r *ExpenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	if expense.ID == uuid.Nil {
		expense.ID = uuid.New()
	}
	err := r.db.QueryRow(ctx, insertExpenseSQL, insertExpenseArgs(expense)...).Scan(&expense.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// GetByID retrieves an expense of a tenant by ID.
func (r *ExpenseRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Expense, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses WHERE tenant_id = $1 AND id = $2
	`, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	defer rows.Close()

	expenses, err := scanExpenses(rows)
	if err != nil {
		return nil, err
	}
	if len(expenses) == 0 {
		return nil, fmt.Errorf("failed to get expense: %w", ErrNotFound)
	}
	return &expenses[0], nil
}

// ListByTenantAndDateRange retrieves the tenant's expenses dated in
// [startDate, endDate), oldest first. Templates are included.
func (r *ExpenseRepository) ListByTenantAndDateRange(
	ctx context.Context,
	tenantID uuid.UUID,
	startDate, endDate time.Time,
) ([]models.Expense, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE tenant_id = $1 AND expense_date >= $2 AND expense_date < $3
		ORDER BY expense_date, id
	`, tenantID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses by date range: %w", err)
	}
	defer rows.Close()

	return scanExpenses(rows)
}

// ListTemplates retrieves every fixed-expense template of a tenant ordered by
// next generation date.
func (r *ExpenseRepository) ListTemplates(ctx context.Context, tenantID uuid.UUID) ([]models.Expense, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE tenant_id = $1 AND is_fixed
		ORDER BY next_generation_date, id
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fixed expense templates: %w", err)
	}
	defer rows.Close()

	return scanExpenses(rows)
}

// Delete removes an expense. Records generated from a deleted template keep
// existing with their template reference cleared.
func (r *ExpenseRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM expenses WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete expense: %w", ErrNotFound)
	}
	return nil
}

func scanExpenses(rows rowScanner) ([]models.Expense, error) {
	expenses := []models.Expense{}
	for rows.Next() {
		var exp models.Expense
		if err := rows.Scan(
			&exp.ID, &exp.TenantID, &exp.Description, &exp.Value, &exp.ExpenseDate, &exp.IsFixed,
			&exp.FixedDayOfMonth, &exp.NextGenerationDate, &exp.OriginalExpenseID, &exp.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}
	return expenses, nil
}
