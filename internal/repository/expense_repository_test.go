package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/bodyshop/internal/database"
	"gitlab.com/yelinaung/bodyshop/internal/models"
)

func createTestTenant(t *testing.T, db database.PGXDB, name string) *models.Tenant {
	t.Helper()

	tenant := &models.Tenant{Name: name}
	require.NoError(t, NewTenantRepository(db).Create(context.Background(), tenant))
	return tenant
}

func createTestTemplate(t *testing.T, db database.PGXDB, tenantID uuid.UUID, description string, fixedDay int, next string) *models.Expense {
	t.Helper()

	nextDate, err := time.Parse("2006-01-02", next)
	require.NoError(t, err)

	tmpl := &models.Expense{
		TenantID:           tenantID,
		Description:        description,
		Value:              decimal.RequireFromString("1500.00"),
		ExpenseDate:        nextDate,
		IsFixed:            true,
		FixedDayOfMonth:    &fixedDay,
		NextGenerationDate: &nextDate,
	}
	require.NoError(t, NewExpenseRepository(db).Create(context.Background(), tmpl))
	return tmpl
}

func TestExpenseRepository_Create(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()
	tenant := createTestTenant(t, tx, "Oficina")
	repo := NewExpenseRepository(tx)

	t.Run("creates manual expense", func(t *testing.T) {
		exp := &models.Expense{
			TenantID:    tenant.ID,
			Description: "Lixa",
			Value:       decimal.RequireFromString("35.90"),
			ExpenseDate: time.Date(2024, 2, 10, 15, 0, 0, 0, time.UTC),
		}
		require.NoError(t, repo.Create(ctx, exp))
		require.NotEqual(t, uuid.Nil, exp.ID)

		fetched, err := repo.GetByID(ctx, tenant.ID, exp.ID)
		require.NoError(t, err)
		require.Equal(t, models.ExpenseKindManual, fetched.Kind())
		require.True(t, exp.Value.Equal(fetched.Value))
		require.Nil(t, fetched.FixedDayOfMonth)
		require.Nil(t, fetched.NextGenerationDate)
		require.Nil(t, fetched.OriginalExpenseID)
	})

	t.Run("creates fixed template", func(t *testing.T) {
		tmpl := createTestTemplate(t, tx, tenant.ID, "Aluguel", 31, "2024-02-01")

		fetched, err := repo.GetByID(ctx, tenant.ID, tmpl.ID)
		require.NoError(t, err)
		require.Equal(t, models.ExpenseKindFixed, fetched.Kind())
		require.NotNil(t, fetched.FixedDayOfMonth)
		require.Equal(t, 31, *fetched.FixedDayOfMonth)
		require.NotNil(t, fetched.NextGenerationDate)
		require.Equal(t, "2024-02-01", fetched.NextGenerationDate.Format("2006-01-02"))
	})

	t.Run("other tenant cannot read it", func(t *testing.T) {
		other := createTestTenant(t, tx, "Outra")
		tmpl := createTestTemplate(t, tx, tenant.ID, "Internet", 10, "2024-02-10")

		_, err := repo.GetByID(ctx, other.ID, tmpl.ID)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestExpenseRepository_ListByTenantAndDateRange(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()
	tenant := createTestTenant(t, tx, "Oficina")
	other := createTestTenant(t, tx, "Outra")
	repo := NewExpenseRepository(tx)

	add := func(tenantID uuid.UUID, desc string, date time.Time) {
		require.NoError(t, repo.Create(ctx, &models.Expense{
			TenantID:    tenantID,
			Description: desc,
			Value:       decimal.NewFromInt(10),
			ExpenseDate: date,
		}))
	}
	add(tenant.ID, "janeiro", time.Date(2024, 1, 31, 23, 0, 0, 0, time.UTC))
	add(tenant.ID, "fevereiro 2", time.Date(2024, 2, 20, 12, 0, 0, 0, time.UTC))
	add(tenant.ID, "fevereiro 1", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	add(tenant.ID, "marco", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	add(other.ID, "outra", time.Date(2024, 2, 5, 12, 0, 0, 0, time.UTC))

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	expenses, err := repo.ListByTenantAndDateRange(ctx, tenant.ID, start, end)
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	require.Equal(t, "fevereiro 1", expenses[0].Description)
	require.Equal(t, "fevereiro 2", expenses[1].Description)
}

func TestExpenseRepository_Delete(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()
	tenant := createTestTenant(t, tx, "Oficina")
	repo := NewExpenseRepository(tx)
	fixedRepo := NewFixedExpenseRepository(tx)

	t.Run("deleting a template keeps generated records", func(t *testing.T) {
		tmpl := createTestTemplate(t, tx, tenant.ID, "Aluguel", 5, "2024-02-05")
		templateID := tmpl.ID
		generated := models.Expense{
			ID:                uuid.New(),
			TenantID:          tenant.ID,
			Description:       "Aluguel",
			Value:             tmpl.Value,
			ExpenseDate:       time.Date(2024, 2, 5, 12, 0, 0, 0, time.UTC),
			OriginalExpenseID: &templateID,
		}
		require.NoError(t, fixedRepo.InsertGenerated(ctx, []models.Expense{generated}))

		require.NoError(t, repo.Delete(ctx, tenant.ID, tmpl.ID))

		fetched, err := repo.GetByID(ctx, tenant.ID, generated.ID)
		require.NoError(t, err)
		require.Nil(t, fetched.OriginalExpenseID)
		require.Equal(t, models.ExpenseKindManual, fetched.Kind())
	})

	t.Run("missing expense is not found", func(t *testing.T) {
		err := repo.Delete(ctx, tenant.ID, uuid.New())
		require.ErrorIs(t, err, ErrNotFound)
	})
}
