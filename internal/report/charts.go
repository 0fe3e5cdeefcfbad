// Package report renders the pre-aggregated financial summaries into PNG
// charts for the admin reports view.
package report

import (
	"fmt"
	"sort"

	"github.com/go-analyze/charts"
	"gitlab.com/chanrith/orderdesk/internal/models"
)

// MonthlyChart renders revenue, expense and profit per month as grouped
// bars. Months are sorted chronologically; the "YYYY-MM" keys sort correctly
// as strings.
func MonthlyChart(data *models.ReportData) ([]byte, error) {
	if data == nil || len(data.Monthly) == 0 {
		return nil, fmt.Errorf("no monthly figures to chart")
	}

	months := make([]string, 0, len(data.Monthly))
	for month := range data.Monthly {
		months = append(months, month)
	}
	sort.Strings(months)

	revenue := make([]float64, len(months))
	expense := make([]float64, len(months))
	profit := make([]float64, len(months))
	for i, month := range months {
		figures := data.Monthly[month]
		revenue[i] = figures.Revenue.InexactFloat64()
		expense[i] = figures.Expense.InexactFloat64()
		profit[i] = figures.Profit.InexactFloat64()
	}

	p, err := charts.BarRender(
		[][]float64{revenue, expense, profit},
		charts.XAxisLabelsOptionFunc(months),
		charts.TitleOptionFunc(charts.TitleOption{
			Text: "Monthly Revenue / Expense / Profit",
		}),
		charts.LegendLabelsOptionFunc([]string{"Revenue", "Expense", "Profit"}),
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

// CompanyExpenseChart renders the shipping spend split by company as a pie.
func CompanyExpenseChart(data *models.ReportData) ([]byte, error) {
	if data == nil {
		return nil, fmt.Errorf("no expense figures to chart")
	}
	return expensePie(data.ByCompany, "Shipping Expense by Company")
}

// DriverExpenseChart renders the shipping spend split by driver as a pie.
func DriverExpenseChart(data *models.ReportData) ([]byte, error) {
	if data == nil {
		return nil, fmt.Errorf("no expense figures to chart")
	}
	return expensePie(data.ByDriver, "Shipping Expense by Driver")
}

func expensePie(breakdown map[string]models.ExpenseBreakdown, title string) ([]byte, error) {
	if len(breakdown) == 0 {
		return nil, fmt.Errorf("no expense figures to chart")
	}

	names := make([]string, 0, len(breakdown))
	for name := range breakdown {
		names = append(names, name)
	}
	sort.Strings(names)

	values := make([]float64, len(names))
	for i, name := range names {
		values[i] = breakdown[name].TotalExpense.InexactFloat64()
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{Text: title}),
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
