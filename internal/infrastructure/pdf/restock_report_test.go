package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockwise-forecast/internal/application/dto"
)

func TestGenerateRestockReport(t *testing.T) {
	list := &dto.ForecastListDTO{
		CycleID:     "c-1",
		GeneratedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Items: []dto.ForecastDTO{
			{ProductID: "a", Name: "Guantes", CurrentQuantity: 5, Urgency: "urgent", RecommendedReorderQty: 5,
				EstimatedRestockCost: decimal.NewFromInt(10), ConfidenceScore: 0.6, NewlyLow: true},
			{ProductID: "b", Name: "Cinta", CurrentQuantity: 40, PredictedDaysUntilLow: 60, Urgency: "normal",
				EstimatedRestockCost: decimal.Zero, ConfidenceScore: 0.4},
		},
	}
	summary := &dto.RestockSummaryDTO{
		CycleID: "c-1", TotalItems: 2, ItemsToRestock: 1, UrgentItems: 1, LowStockItems: 1, NewlyLowItems: 1,
		TotalCost:  decimal.NewFromInt(10),
		Categories: []dto.CategorySummaryDTO{{Category: "epp", Items: 1, ReorderUnits: 5, TotalCost: decimal.NewFromInt(10)}},
	}

	out, err := NewRestockReportGenerator("StockWise").GenerateRestockReport(list, summary)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerateRestockReport_SinCiclo(t *testing.T) {
	_, err := NewRestockReportGenerator("StockWise").GenerateRestockReport(nil, nil)
	assert.Error(t, err)
}

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":        "0,00",
		"25000":    "25.000,00",
		"1234.5":   "1.234,50",
		"1000000":  "1.000.000,00",
		"-4500.25": "-4.500,25",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatMoney(decimal.RequireFromString(in)), in)
	}
}

func TestFormatQty(t *testing.T) {
	assert.Equal(t, "5", formatQty(5))
	assert.Equal(t, "2.5", formatQty(2.5))
}
