package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/bodyshop/internal/database"
	"gitlab.com/yelinaung/bodyshop/internal/fixedexpense"
	"gitlab.com/yelinaung/bodyshop/internal/models"
)

func TestFixedExpenseRepository_ListDueTemplates(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()
	tenant := createTestTenant(t, tx, "Oficina")
	other := createTestTenant(t, tx, "Outra")
	repo := NewFixedExpenseRepository(tx)

	late := createTestTemplate(t, tx, tenant.ID, "Aluguel", 1, "2024-01-01")
	dueToday := createTestTemplate(t, tx, tenant.ID, "Internet", 15, "2024-02-15")
	createTestTemplate(t, tx, tenant.ID, "Seguro", 16, "2024-02-16")
	createTestTemplate(t, tx, other.ID, "Aluguel", 1, "2024-02-01")

	today := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)

	t.Run("returns due templates oldest first", func(t *testing.T) {
		due, err := repo.ListDueTemplates(ctx, tenant.ID, today)
		require.NoError(t, err)
		require.Len(t, due, 2)
		require.Equal(t, late.ID, due[0].ID)
		require.Equal(t, dueToday.ID, due[1].ID)
	})

	t.Run("ignores the clock part of today", func(t *testing.T) {
		due, err := repo.ListDueTemplates(ctx, tenant.ID, today.Add(23*time.Hour))
		require.NoError(t, err)
		require.Len(t, due, 2)
	})

	t.Run("lists tenants with due templates", func(t *testing.T) {
		tenants, err := repo.ListTenantsWithDueTemplates(ctx, today)
		require.NoError(t, err)
		require.Subset(t, tenants, []uuid.UUID{tenant.ID, other.ID})
	})
}

func TestFixedExpenseRepository_InsertGenerated(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()
	tenant := createTestTenant(t, tx, "Oficina")
	repo := NewFixedExpenseRepository(tx)
	expenses := NewExpenseRepository(tx)
	tmpl := createTestTemplate(t, tx, tenant.ID, "Aluguel", 31, "2024-02-01")
	templateID := tmpl.ID

	t.Run("stores every expense", func(t *testing.T) {
		batch := []models.Expense{
			{ID: uuid.New(), TenantID: tenant.ID, Description: "A", Value: tmpl.Value,
				ExpenseDate: time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC), OriginalExpenseID: &templateID},
			{ID: uuid.New(), TenantID: tenant.ID, Description: "B", Value: tmpl.Value,
				ExpenseDate: time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC), OriginalExpenseID: &templateID},
		}
		require.NoError(t, repo.InsertGenerated(ctx, batch))
		require.False(t, batch[0].CreatedAt.IsZero())

		fetched, err := expenses.GetByID(ctx, tenant.ID, batch[1].ID)
		require.NoError(t, err)
		require.Equal(t, models.ExpenseKindGenerated, fetched.Kind())
		require.Equal(t, templateID, *fetched.OriginalExpenseID)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		require.NoError(t, repo.InsertGenerated(ctx, nil))
	})
}

func TestFixedExpenseRepository_AdvanceTemplate(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()
	tenant := createTestTenant(t, tx, "Oficina")
	repo := NewFixedExpenseRepository(tx)
	expenses := NewExpenseRepository(tx)
	tmpl := createTestTemplate(t, tx, tenant.ID, "Aluguel", 31, "2024-02-01")

	t.Run("moves the next generation date", func(t *testing.T) {
		require.NoError(t, repo.AdvanceTemplate(ctx, tmpl.ID, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)))

		fetched, err := expenses.GetByID(ctx, tenant.ID, tmpl.ID)
		require.NoError(t, err)
		require.Equal(t, "2024-03-31", fetched.NextGenerationDate.Format("2006-01-02"))
	})

	t.Run("unknown template is not found", func(t *testing.T) {
		err := repo.AdvanceTemplate(ctx, uuid.New(), time.Now())
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestFixedExpenseRepository_ApplyCycle(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()
	tenant := createTestTenant(t, tx, "Oficina")
	repo := NewFixedExpenseRepository(tx)
	expenses := NewExpenseRepository(tx)
	tmpl := createTestTemplate(t, tx, tenant.ID, "Aluguel", 31, "2024-02-01")
	templateID := tmpl.ID

	t.Run("rolls back everything when an advance fails", func(t *testing.T) {
		generated := models.Expense{
			ID: uuid.New(), TenantID: tenant.ID, Description: "Aluguel", Value: tmpl.Value,
			ExpenseDate: time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC), OriginalExpenseID: &templateID,
		}
		err := repo.ApplyCycle(ctx, []models.Expense{generated}, []models.TemplateAdvance{
			{TemplateID: tmpl.ID, NextGenerationDate: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)},
			{TemplateID: uuid.New(), NextGenerationDate: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)},
		})
		require.ErrorIs(t, err, ErrNotFound)

		_, err = expenses.GetByID(ctx, tenant.ID, generated.ID)
		require.ErrorIs(t, err, ErrNotFound)
		fetched, err := expenses.GetByID(ctx, tenant.ID, tmpl.ID)
		require.NoError(t, err)
		require.Equal(t, "2024-02-01", fetched.NextGenerationDate.Format("2006-01-02"))
	})

	t.Run("commits insert and advance together", func(t *testing.T) {
		generated := models.Expense{
			ID: uuid.New(), TenantID: tenant.ID, Description: "Aluguel", Value: tmpl.Value,
			ExpenseDate: time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC), OriginalExpenseID: &templateID,
		}
		err := repo.ApplyCycle(ctx, []models.Expense{generated}, []models.TemplateAdvance{
			{TemplateID: tmpl.ID, NextGenerationDate: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)},
		})
		require.NoError(t, err)

		_, err = expenses.GetByID(ctx, tenant.ID, generated.ID)
		require.NoError(t, err)
		fetched, err := expenses.GetByID(ctx, tenant.ID, tmpl.ID)
		require.NoError(t, err)
		require.Equal(t, "2024-03-31", fetched.NextGenerationDate.Format("2006-01-02"))
	})
}

func TestFixedExpenseRepository_WithGenerator(t *testing.T) {
	for _, atomic := range []bool{false, true} {
		name := "two-phase"
		if atomic {
			name = "atomic"
		}
		t.Run(name, func(t *testing.T) {
			tx := database.TestTx(t)
			ctx := context.Background()
			tenant := createTestTenant(t, tx, "Oficina")
			tmpl := createTestTemplate(t, tx, tenant.ID, "Aluguel", 31, "2024-02-01")

			gen := fixedexpense.NewGenerator(
				NewFixedExpenseRepository(tx),
				fixedexpense.WithAtomic(atomic),
				fixedexpense.WithLogger(zerolog.Nop()),
			)
			now := time.Date(2024, 2, 15, 9, 0, 0, 0, time.UTC)

			result, err := gen.Generate(ctx, tenant.ID, now)
			require.NoError(t, err)
			require.Equal(t, 1, result.Count())

			again, err := gen.Generate(ctx, tenant.ID, now)
			require.NoError(t, err)
			require.Zero(t, again.Count())

			expenses := NewExpenseRepository(tx)
			fetched, err := expenses.GetByID(ctx, tenant.ID, tmpl.ID)
			require.NoError(t, err)
			require.Equal(t, "2024-03-31", fetched.NextGenerationDate.Format("2006-01-02"))

			generated, err := expenses.GetByID(ctx, tenant.ID, result.Generated[0].ExpenseID)
			require.NoError(t, err)
			require.Equal(t, "2024-02-29", generated.ExpenseDate.UTC().Format("2006-01-02"))
		})
	}
}
