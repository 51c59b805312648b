// Package models defines the domain entities for the body shop back office.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxCatalogServiceNameLength is the maximum allowed length for catalog service names.
const MaxCatalogServiceNameLength = 120

// Tenant is an isolated shop account. All cached and generated data is
// partitioned by tenant ID.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CatalogService is a named, priced service offered by a tenant
// (e.g. "paint touch-up").
type CatalogService struct {
	ID        uuid.UUID       `json:"id"`
	TenantID  uuid.UUID       `json:"tenant_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ExpenseKind classifies an expense row.
type ExpenseKind string

const (
	ExpenseKindManual    ExpenseKind = "manual"
	ExpenseKindFixed     ExpenseKind = "fixed"
	ExpenseKindGenerated ExpenseKind = "generated"
)

// Expense is a single expense row. Recurring templates ("fixed expenses")
// share the table with concrete records: a template has IsFixed set together
// with FixedDayOfMonth and NextGenerationDate, a generated record points back
// at its template through OriginalExpenseID.
type Expense struct {
	ID                 uuid.UUID       `json:"id"`
	TenantID           uuid.UUID       `json:"tenant_id"`
	Description        string          `json:"description"`
	Value              decimal.Decimal `json:"value"`
	ExpenseDate        time.Time       `json:"expense_date"`
	IsFixed            bool            `json:"is_fixed"`
	FixedDayOfMonth    *int            `json:"fixed_day_of_month,omitempty"`
	NextGenerationDate *time.Time      `json:"next_generation_date,omitempty"`
	OriginalExpenseID  *uuid.UUID      `json:"original_expense_id,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// Kind reports whether the expense is a template, a generated record, or a
// manually entered one.
func (e *Expense) Kind() ExpenseKind {
	switch {
	case e.IsFixed:
		return ExpenseKindFixed
	case e.OriginalExpenseID != nil:
		return ExpenseKindGenerated
	default:
		return ExpenseKindManual
	}
}

// TemplateAdvance moves a fixed-expense template to its next cycle.
type TemplateAdvance struct {
	TemplateID         uuid.UUID
	NextGenerationDate time.Time
}
