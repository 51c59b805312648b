package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/bodyshop/internal/export"
	"gitlab.com/yelinaung/bodyshop/internal/fixedexpense"
	"gitlab.com/yelinaung/bodyshop/internal/logger"
	"gitlab.com/yelinaung/bodyshop/internal/models"
	"gitlab.com/yelinaung/bodyshop/internal/repository"
)

const dateLayout = "2006-01-02"

type fixedExpenseRequest struct {
	Description     string          `json:"description"`
	Value           decimal.Decimal `json:"value"`
	FixedDayOfMonth int             `json:"fixed_day_of_month"`

	// ExpenseDate dates the first occurrence, which the template itself
	// records. Defaults to now.
	ExpenseDate *time.Time `json:"expense_date,omitempty"`

	// NextGenerationDate (YYYY-MM-DD) defaults to the fixed day of the
	// month after ExpenseDate.
	NextGenerationDate string `json:"next_generation_date,omitempty"`
}

type generateResponse struct {
	Count           int                             `json:"count"`
	Summary         string                          `json:"summary"`
	Generated       []fixedexpense.GeneratedExpense `json:"generated"`
	AdvanceFailures int                             `json:"advance_failures"`
}

func (req *fixedExpenseRequest) validate() error {
	if strings.TrimSpace(req.Description) == "" {
		return errors.New("description is required")
	}
	if !req.Value.IsPositive() {
		return errors.New("value must be positive")
	}
	if req.FixedDayOfMonth < 1 || req.FixedDayOfMonth > 31 {
		return errors.New("fixed_day_of_month must be between 1 and 31")
	}
	return nil
}

// GET /api/tenants/{tenantID}/fixed-expenses
func (s *Server) handleListFixedExpenses(w http.ResponseWriter, r *http.Request) {
	tenantID := tenantFrom(r.Context())

	templates, err := s.expenses.ListTemplates(r.Context(), tenantID)
	if err != nil {
		s.log.Error().Err(err).Str("tenant_hash", logger.HashTenantID(tenantID)).Msg("Failed to list fixed expenses")
		writeError(w, http.StatusInternalServerError, "failed to list fixed expenses")
		return
	}

	writeJSON(w, http.StatusOK, templates)
}

// handleCreateFixedExpense stores a recurring template.
// POST /api/tenants/{tenantID}/fixed-expenses
func (s *Server) handleCreateFixedExpense(w http.ResponseWriter, r *http.Request) {
	var req fixedExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	expenseDate := s.now().In(s.loc)
	if req.ExpenseDate != nil {
		expenseDate = *req.ExpenseDate
	}

	fixedDay := req.FixedDayOfMonth
	next := fixedexpense.NextGenerationDate(expenseDate, fixedDay)
	if req.NextGenerationDate != "" {
		parsed, err := time.Parse(dateLayout, req.NextGenerationDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "next_generation_date must be formatted as YYYY-MM-DD")
			return
		}
		next = parsed
	}

	tmpl := &models.Expense{
		TenantID:           tenantFrom(r.Context()),
		Description:        strings.TrimSpace(req.Description),
		Value:              req.Value,
		ExpenseDate:        expenseDate,
		IsFixed:            true,
		FixedDayOfMonth:    &fixedDay,
		NextGenerationDate: &next,
	}
	if err := s.expenses.Create(r.Context(), tmpl); err != nil {
		s.log.Error().
			Err(err).
			Str("tenant_hash", logger.HashTenantID(tmpl.TenantID)).
			Str("description", logger.SanitizeDescription(tmpl.Description)).
			Msg("Failed to create fixed expense")
		writeError(w, http.StatusInternalServerError, "failed to create fixed expense")
		return
	}

	writeJSON(w, http.StatusCreated, tmpl)
}

// handleDeleteFixedExpense removes a template. Expenses already generated from
// it are kept and become manual records.
// DELETE /api/tenants/{tenantID}/fixed-expenses/{expenseID}
func (s *Server) handleDeleteFixedExpense(w http.ResponseWriter, r *http.Request) {
	tenantID := tenantFrom(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "expenseID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid expense id")
		return
	}

	tmpl, err := s.expenses.GetByID(r.Context(), tenantID, id)
	if err == nil && !tmpl.IsFixed {
		err = repository.ErrNotFound
	}
	if err == nil {
		err = s.expenses.Delete(r.Context(), tenantID, id)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "fixed expense not found")
			return
		}
		s.log.Error().Err(err).Str("tenant_hash", logger.HashTenantID(tenantID)).Msg("Failed to delete fixed expense")
		writeError(w, http.StatusInternalServerError, "failed to delete fixed expense")
		return
	}

	s.log.Info().
		Str("tenant_hash", logger.HashTenantID(tenantID)).
		Str("description", logger.SanitizeDescription(tmpl.Description)).
		Msg("Deleted fixed expense")
	w.WriteHeader(http.StatusNoContent)
}

// handleGenerateFixedExpenses materializes the tenant's due templates for the
// current month.
// POST /api/tenants/{tenantID}/fixed-expenses/generate
func (s *Server) handleGenerateFixedExpenses(w http.ResponseWriter, r *http.Request) {
	tenantID := tenantFrom(r.Context())

	result, err := s.generator.Generate(r.Context(), tenantID, s.now().In(s.loc))
	if err != nil {
		s.log.Error().Err(err).Str("tenant_hash", logger.HashTenantID(tenantID)).Msg("Fixed expense generation failed")
		msg := "failed to generate fixed expenses"
		if errors.Is(err, fixedexpense.ErrListFailed) {
			msg = "failed to load fixed expenses"
		}
		writeError(w, http.StatusInternalServerError, msg)
		return
	}

	generated := result.Generated
	if generated == nil {
		generated = []fixedexpense.GeneratedExpense{}
	}
	writeJSON(w, http.StatusOK, generateResponse{
		Count:           result.Count(),
		Summary:         result.Summary(),
		Generated:       generated,
		AdvanceFailures: result.AdvanceFailures,
	})
}

// handleExportExpenses streams one month of expenses as CSV.
// GET /api/tenants/{tenantID}/expenses/export?month=YYYY-MM
func (s *Server) handleExportExpenses(w http.ResponseWriter, r *http.Request) {
	tenantID := tenantFrom(r.Context())

	month, expenses, ok := s.monthExpenses(w, r, tenantID)
	if !ok {
		return
	}

	data, err := export.ExpensesCSV(expenses, s.loc)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to render expenses CSV")
		writeError(w, http.StatusInternalServerError, "failed to export expenses")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(month)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleExpensesChart renders one month of expenses as a PNG pie chart.
// GET /api/tenants/{tenantID}/expenses/chart?month=YYYY-MM
func (s *Server) handleExpensesChart(w http.ResponseWriter, r *http.Request) {
	tenantID := tenantFrom(r.Context())

	month, expenses, ok := s.monthExpenses(w, r, tenantID)
	if !ok {
		return
	}

	data, err := export.ExpensesChart(expenses, month)
	if errors.Is(err, export.ErrNoExpenses) {
		writeError(w, http.StatusNotFound, "no expenses in "+month)
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to render expenses chart")
		writeError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `inline; filename="`+export.ChartFilename(month)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// monthExpenses resolves ?month= (default: current month) and loads that
// month's expenses. It writes the error response itself and reports false on
// failure.
func (s *Server) monthExpenses(w http.ResponseWriter, r *http.Request, tenantID uuid.UUID) (string, []models.Expense, bool) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = export.CurrentMonth(s.now().In(s.loc))
	}
	start, end, err := export.MonthRange(month, s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", nil, false
	}

	expenses, err := s.expenses.ListByTenantAndDateRange(r.Context(), tenantID, start, end)
	if err != nil {
		s.log.Error().Err(err).Str("tenant_hash", logger.HashTenantID(tenantID)).Msg("Failed to list expenses for export")
		writeError(w, http.StatusInternalServerError, "failed to export expenses")
		return "", nil, false
	}
	return month, expenses, true
}
