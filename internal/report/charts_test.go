package report

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/chanrith/orderdesk/internal/models"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G'}

func sampleReport() *models.ReportData {
	return &models.ReportData{
		Monthly: map[string]models.ReportFigures{
			"2026-07": {
				Revenue: decimal.NewFromInt(1200),
				Expense: decimal.NewFromInt(300),
				Profit:  decimal.NewFromInt(900),
			},
			"2026-08": {
				Revenue: decimal.NewFromInt(1500),
				Expense: decimal.NewFromInt(450),
				Profit:  decimal.NewFromInt(1050),
			},
		},
		ByCompany: map[string]models.ExpenseBreakdown{
			"VET":      {TotalExpense: decimal.NewFromInt(200), OrderCount: 40},
			"J&T":      {TotalExpense: decimal.NewFromInt(350), OrderCount: 70},
			"In-house": {TotalExpense: decimal.NewFromInt(100), OrderCount: 25},
		},
		ByDriver: map[string]models.ExpenseBreakdown{
			"Dara": {TotalExpense: decimal.NewFromInt(60), OrderCount: 15},
		},
	}
}

func TestMonthlyChart(t *testing.T) {
	t.Parallel()

	t.Run("renders a png", func(t *testing.T) {
		t.Parallel()
		buf, err := MonthlyChart(sampleReport())
		require.NoError(t, err)
		require.NotEmpty(t, buf)
		assert.Equal(t, pngHeader, buf[:4])
	})

	t.Run("empty data is an error", func(t *testing.T) {
		t.Parallel()
		_, err := MonthlyChart(&models.ReportData{})
		require.Error(t, err)
		_, err = MonthlyChart(nil)
		require.Error(t, err)
	})
}

func TestExpenseCharts(t *testing.T) {
	t.Parallel()

	t.Run("company breakdown renders", func(t *testing.T) {
		t.Parallel()
		buf, err := CompanyExpenseChart(sampleReport())
		require.NoError(t, err)
		assert.Equal(t, pngHeader, buf[:4])
	})

	t.Run("driver breakdown renders", func(t *testing.T) {
		t.Parallel()
		buf, err := DriverExpenseChart(sampleReport())
		require.NoError(t, err)
		assert.Equal(t, pngHeader, buf[:4])
	})

	t.Run("missing breakdown is an error", func(t *testing.T) {
		t.Parallel()
		_, err := CompanyExpenseChart(&models.ReportData{})
		require.Error(t, err)
		_, err = DriverExpenseChart(nil)
		require.Error(t, err)
	})
}
