// Package export renders expense listings for download.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"time"

	"gitlab.com/yelinaung/bodyshop/internal/models"
)

// ErrInvalidMonth is returned by MonthRange for input that is not YYYY-MM.
var ErrInvalidMonth = errors.New("month must be formatted as YYYY-MM")

const monthLayout = "2006-01"

// ExpensesCSV generates a CSV file from a list of expenses. Dates are written
// in loc, so a generated expense shows its 12:00 cycle time whatever zone the
// database session uses.
func ExpensesCSV(expenses []models.Expense, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"Date", "Description", "Value", "Type", "Template"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range expenses {
		template := ""
		if expenses[i].OriginalExpenseID != nil {
			template = expenses[i].OriginalExpenseID.String()
		}

		row := []string{
			expenses[i].ExpenseDate.In(loc).Format("2006-01-02 15:04:05"),
			expenses[i].Description,
			expenses[i].Value.StringFixed(2),
			string(expenses[i].Kind()),
			template,
		}

		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// MonthRange returns the start of month in loc and the start of the month
// after it.
func MonthRange(month string, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	start, err := time.ParseInLocation(monthLayout, month, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}
	return start, start.AddDate(0, 1, 0), nil
}

// CurrentMonth formats now as YYYY-MM.
func CurrentMonth(now time.Time) string {
	return now.Format(monthLayout)
}

// Filename creates the download name of a monthly report.
func Filename(month string) string {
	return fmt.Sprintf("expenses_%s.csv", month)
}
