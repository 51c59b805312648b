package export

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-analyze/charts"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/bodyshop/internal/models"
)

// ErrNoExpenses is returned when there is nothing to chart.
var ErrNoExpenses = errors.New("no expenses to chart")

// ExpensesChart creates a pie chart of the month's expenses split by kind
// (manual, fixed, generated). Returns PNG image as bytes.
func ExpensesChart(expenses []models.Expense, month string) ([]byte, error) {
	if len(expenses) == 0 {
		return nil, ErrNoExpenses
	}

	totals := aggregateByKind(expenses)

	names := make([]string, 0, len(totals))
	for kind := range totals {
		names = append(names, string(kind))
	}
	sort.Strings(names)

	values := make([]float64, 0, len(names))
	for _, name := range names {
		values = append(values, totals[models.ExpenseKind(name)].InexactFloat64())
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: fmt.Sprintf("Expenses - %s", month),
		}),
		charts.LegendLabelsOptionFunc(names),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return buf, nil
}

func aggregateByKind(expenses []models.Expense) map[models.ExpenseKind]decimal.Decimal {
	totals := make(map[models.ExpenseKind]decimal.Decimal)
	for i := range expenses {
		kind := expenses[i].Kind()
		totals[kind] = totals[kind].Add(expenses[i].Value)
	}
	return totals
}

// ChartFilename creates the download name of a monthly chart.
func ChartFilename(month string) string {
	return fmt.Sprintf("chart_%s.png", month)
}
