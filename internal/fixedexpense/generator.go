// Package fixedexpense materializes recurring ("fixed") expense templates into
// concrete expense records and rolls each template forward one month.
package fixedexpense

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/bodyshop/internal/logger"
	"gitlab.com/yelinaung/bodyshop/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
)

const instrumentationName = "gitlab.com/yelinaung/bodyshop/internal/fixedexpense"

var (
	// ErrListFailed means the due templates could not be read. Nothing was written.
	ErrListFailed = errors.New("failed to list due fixed expenses")
	// ErrInsertFailed means the generated expenses were not stored and no
	// template was advanced, so the run can be retried from the same state.
	ErrInsertFailed = errors.New("failed to insert generated expenses")
	// ErrTenantListingUnsupported is returned by GenerateAll when the store
	// cannot enumerate tenants.
	ErrTenantListingUnsupported = errors.New("store cannot list tenants with due fixed expenses")
)

// Store is the persistence the generator needs.
type Store interface {
	// ListDueTemplates returns the tenant's fixed templates whose next
	// generation date is on or before today, oldest first.
	ListDueTemplates(ctx context.Context, tenantID uuid.UUID, today time.Time) ([]models.Expense, error)
	// InsertGenerated stores all expenses in one batch.
	InsertGenerated(ctx context.Context, expenses []models.Expense) error
	// AdvanceTemplate sets a template's next generation date.
	AdvanceTemplate(ctx context.Context, templateID uuid.UUID, next time.Time) error
}

// AtomicStore can insert generated expenses and advance their templates in a
// single transaction.
type AtomicStore interface {
	Store
	ApplyCycle(ctx context.Context, expenses []models.Expense, advances []models.TemplateAdvance) error
}

// TenantLister enumerates tenants that have at least one due template.
type TenantLister interface {
	ListTenantsWithDueTemplates(ctx context.Context, today time.Time) ([]uuid.UUID, error)
}

// GeneratedExpense summarises one generated record for user notification.
type GeneratedExpense struct {
	ExpenseID   uuid.UUID       `json:"expense_id"`
	TemplateID  uuid.UUID       `json:"template_id"`
	Description string          `json:"description"`
	Value       decimal.Decimal `json:"value"`
	ExpenseDate time.Time       `json:"expense_date"`
}

// Result is the outcome of one generator run for a tenant.
type Result struct {
	Generated       []GeneratedExpense `json:"generated"`
	AdvanceFailures int                `json:"advance_failures"`
}

// Count returns the number of generated expenses.
func (r Result) Count() int {
	return len(r.Generated)
}

// Summary renders the itemised notification shown after a run.
func (r Result) Summary() string {
	switch len(r.Generated) {
	case 0:
		return "No fixed expenses due"
	case 1:
		g := r.Generated[0]
		return fmt.Sprintf("1 fixed expense generated: %s (%s)", g.Description, g.Value.StringFixed(2))
	}

	items := make([]string, 0, len(r.Generated))
	for _, g := range r.Generated {
		items = append(items, fmt.Sprintf("%s (%s)", g.Description, g.Value.StringFixed(2)))
	}
	return fmt.Sprintf("%d fixed expenses generated: %s", len(r.Generated), strings.Join(items, ", "))
}

// Generator rolls fixed-expense templates forward.
type Generator struct {
	store  Store
	atomic bool
	log    zerolog.Logger
	tracer trace.Tracer

	generatedCounter      metric.Int64Counter
	advanceFailureCounter metric.Int64Counter
}

// Option customises a Generator.
type Option func(*Generator)

// WithAtomic makes the generator insert expenses and advance templates in one
// transaction when the store supports it. Without it a template whose advance
// fails stays due and is generated again on the next run.
func WithAtomic(atomic bool) Option {
	return func(g *Generator) {
		g.atomic = atomic
	}
}

// WithLogger overrides the generator's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(g *Generator) {
		g.log = log
	}
}

// NewGenerator creates a Generator backed by store.
func NewGenerator(store Store, opts ...Option) *Generator {
	g := &Generator{
		store:  store,
		log:    logger.Component("fixed_expense_generator"),
		tracer: otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(g)
	}

	meter := otel.Meter(instrumentationName)
	var err error
	g.generatedCounter, err = meter.Int64Counter("fixed_expense.generated",
		metric.WithDescription("Expenses generated from fixed-expense templates"))
	if err != nil {
		g.log.Warn().Err(err).Msg("Failed to create generated expenses counter")
	}
	g.advanceFailureCounter, err = meter.Int64Counter("fixed_expense.advance_failures",
		metric.WithDescription("Templates whose next generation date could not be advanced"))
	if err != nil {
		g.log.Warn().Err(err).Msg("Failed to create advance failure counter")
	}
	return g
}

type stagedCycle struct {
	expenses []models.Expense
	advances []models.TemplateAdvance
	result   Result
}

// Generate materializes one expense per due template of tenantID for the
// month containing now and advances each template to the following month.
// Templates that missed several months still produce a single record.
func (g *Generator) Generate(ctx context.Context, tenantID uuid.UUID, now time.Time) (Result, error) {
	ctx, span := g.tracer.Start(ctx, "fixedexpense.Generate")
	defer span.End()

	log := g.log.With().Str("tenant_hash", logger.HashTenantID(tenantID)).Logger()

	templates, err := g.store.ListDueTemplates(ctx, tenantID, Today(now))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list due templates")
		return Result{}, fmt.Errorf("%w: %w", ErrListFailed, err)
	}
	if len(templates) == 0 {
		span.SetAttributes(attribute.Int("fixed_expense.generated", 0))
		return Result{}, nil
	}

	staged := stage(tenantID, templates, now)

	if err := g.persist(ctx, log, staged); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist cycle")
		return Result{}, err
	}

	span.SetAttributes(
		attribute.Int("fixed_expense.generated", staged.result.Count()),
		attribute.Int("fixed_expense.advance_failures", staged.result.AdvanceFailures),
	)
	if g.generatedCounter != nil {
		g.generatedCounter.Add(ctx, int64(staged.result.Count()))
	}
	if g.advanceFailureCounter != nil && staged.result.AdvanceFailures > 0 {
		g.advanceFailureCounter.Add(ctx, int64(staged.result.AdvanceFailures))
	}
	log.Info().
		Int("generated", staged.result.Count()).
		Int("advance_failures", staged.result.AdvanceFailures).
		Msg("Generated fixed expenses")

	return staged.result, nil
}

func stage(tenantID uuid.UUID, templates []models.Expense, now time.Time) *stagedCycle {
	staged := &stagedCycle{
		expenses: make([]models.Expense, 0, len(templates)),
		advances: make([]models.TemplateAdvance, 0, len(templates)),
	}

	for i := range templates {
		tmpl := &templates[i]
		fixedDay := templateDay(tmpl)
		expenseDate := CycleDate(now, fixedDay)
		templateID := tmpl.ID

		expense := models.Expense{
			ID:                uuid.New(),
			TenantID:          tenantID,
			Description:       tmpl.Description,
			Value:             tmpl.Value,
			ExpenseDate:       expenseDate,
			IsFixed:           false,
			OriginalExpenseID: &templateID,
		}
		staged.expenses = append(staged.expenses, expense)
		staged.advances = append(staged.advances, models.TemplateAdvance{
			TemplateID:         templateID,
			NextGenerationDate: NextGenerationDate(expenseDate, fixedDay),
		})
		staged.result.Generated = append(staged.result.Generated, GeneratedExpense{
			ExpenseID:   expense.ID,
			TemplateID:  templateID,
			Description: expense.Description,
			Value:       expense.Value,
			ExpenseDate: expenseDate,
		})
	}

	return staged
}

// templateDay returns the template's fixed day of month, falling back to the
// day of its next generation date for rows created without one.
func templateDay(tmpl *models.Expense) int {
	if tmpl.FixedDayOfMonth != nil {
		return *tmpl.FixedDayOfMonth
	}
	if tmpl.NextGenerationDate != nil {
		return tmpl.NextGenerationDate.Day()
	}
	return tmpl.ExpenseDate.Day()
}

func (g *Generator) persist(ctx context.Context, log zerolog.Logger, staged *stagedCycle) error {
	if g.atomic {
		if atomicStore, ok := g.store.(AtomicStore); ok {
			if err := atomicStore.ApplyCycle(ctx, staged.expenses, staged.advances); err != nil {
				return fmt.Errorf("%w: %w", ErrInsertFailed, err)
			}
			return nil
		}
		log.Warn().Msg("Store does not support atomic cycles, falling back to two-phase writes")
	}

	if err := g.store.InsertGenerated(ctx, staged.expenses); err != nil {
		return fmt.Errorf("%w: %w", ErrInsertFailed, err)
	}

	// Each advance is independent; a failed one leaves its template due, so
	// the next run generates that expense again.
	for i, adv := range staged.advances {
		if err := g.store.AdvanceTemplate(ctx, adv.TemplateID, adv.NextGenerationDate); err != nil {
			staged.result.AdvanceFailures++
			log.Warn().
				Err(err).
				Str("template_hash", logger.HashID(adv.TemplateID.String())).
				Str("description", logger.SanitizeDescription(staged.expenses[i].Description)).
				Msg("Failed to advance fixed expense template")
		}
	}
	return nil
}

// GenerateAll runs Generate for every tenant with due templates. A failing
// tenant does not stop the others; all failures are returned together.
func (g *Generator) GenerateAll(ctx context.Context, now time.Time) (int, error) {
	lister, ok := g.store.(TenantLister)
	if !ok {
		return 0, ErrTenantListingUnsupported
	}

	tenants, err := lister.ListTenantsWithDueTemplates(ctx, Today(now))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrListFailed, err)
	}

	total := 0
	var errs error
	for _, tenantID := range tenants {
		if err := ctx.Err(); err != nil {
			return total, multierr.Append(errs, err)
		}
		result, err := g.Generate(ctx, tenantID, now)
		if err != nil {
			g.log.Error().
				Err(err).
				Str("tenant_hash", logger.HashTenantID(tenantID)).
				Msg("Fixed expense generation failed for tenant")
			errs = multierr.Append(errs, err)
			continue
		}
		total += result.Count()
	}
	return total, errs
}
