package pricing

import (
	"testing"

	"pokestore_back_end/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestComputeLineTotal_BoosterTiers(t *testing.T) {
	price := decimal.NewFromInt(100)

	tests := []struct {
		quantity int
		percent  int
		net      string
		savings  string
	}{
		{quantity: 1, percent: 0, net: "100.00", savings: "0.00"},
		{quantity: 2, percent: 0, net: "200.00", savings: "0.00"},
		{quantity: 3, percent: 10, net: "270.00", savings: "30.00"},
		{quantity: 4, percent: 10, net: "360.00", savings: "40.00"},
		{quantity: 5, percent: 15, net: "425.00", savings: "75.00"},
		{quantity: 10, percent: 15, net: "850.00", savings: "150.00"},
	}

	for _, tc := range tests {
		line := ComputeLineTotal(BoosterCategory, price, tc.quantity)
		assert.Equal(t, tc.percent, line.DiscountPercent, "quantity %d", tc.quantity)
		assert.Equal(t, tc.net, line.NetTotal.StringFixed(2), "quantity %d", tc.quantity)
		assert.Equal(t, tc.savings, line.Savings.StringFixed(2), "quantity %d", tc.quantity)
		assert.True(t, line.GrossTotal.Equal(price.Mul(decimal.NewFromInt(int64(tc.quantity)))))
	}
}

func TestComputeLineTotal_RoundsDiscountedNetToCents(t *testing.T) {
	// 3 × 33.33 = 99.99, -10 % = 89.991
	line := ComputeLineTotal(BoosterCategory, decimal.RequireFromString("33.33"), 3)

	assert.Equal(t, "99.99", line.GrossTotal.String())
	assert.Equal(t, "89.99", line.NetTotal.String())
	assert.Equal(t, "10", line.Savings.String())
}

func TestComputeLineTotal_NonBoosterNeverDiscounted(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		category := rapid.SampledFrom([]string{"cards", "elite-trainer-box", "accessories", "Booster", ""}).Draw(t, "category")
		cents := rapid.Int64Range(0, 10_000_000).Draw(t, "cents")
		quantity := rapid.IntRange(1, 500).Draw(t, "quantity")
		price := decimal.New(cents, -2)

		line := ComputeLineTotal(category, price, quantity)

		expected := price.Mul(decimal.NewFromInt(int64(quantity)))
		assert.True(t, line.NetTotal.Equal(expected), "net %s != %s", line.NetTotal, expected)
		assert.Equal(t, 0, line.DiscountPercent)
		assert.True(t, line.Savings.IsZero())
	})
}

func TestComputeLineTotal_BoosterNetPlusSavingsIsGross(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cents := rapid.Int64Range(0, 10_000_000).Draw(t, "cents")
		quantity := rapid.IntRange(1, 500).Draw(t, "quantity")

		line := ComputeLineTotal(BoosterCategory, decimal.New(cents, -2), quantity)

		assert.True(t, line.NetTotal.Add(line.Savings).Equal(line.GrossTotal))
		assert.True(t, line.NetTotal.LessThanOrEqual(line.GrossTotal))
		assert.True(t, line.NetTotal.Equal(line.NetTotal.Round(2)))
	})
}

func TestComputeOrderTotal_EmptyCart(t *testing.T) {
	assert.True(t, ComputeOrderTotal(nil, models.PaymentMethodOnline).IsZero())
	assert.Equal(t, "200", ComputeOrderTotal([]models.CartItem{}, models.PaymentMethodCOD).String())
}

func TestComputeOrderTotal_BoosterWithCOD(t *testing.T) {
	items := []models.CartItem{
		{ProductID: "p1", Name: "Scarlet Booster", Category: BoosterCategory, UnitPrice: decimal.NewFromInt(100), Quantity: 5},
	}

	summary := Summarize(items, models.PaymentMethodCOD)

	assert.Len(t, summary.Lines, 1)
	assert.Equal(t, "425.00", summary.Lines[0].NetTotal.StringFixed(2))
	assert.Equal(t, "75.00", summary.Savings.StringFixed(2))
	assert.Equal(t, "625.00", summary.Total.StringFixed(2))
	assert.Equal(t, 5, summary.ItemCount)
	assert.True(t, ComputeOrderTotal(items, models.PaymentMethodCOD).Equal(summary.Total))
}

func TestSummarize_MixedCart(t *testing.T) {
	items := []models.CartItem{
		{ProductID: "b", Category: BoosterCategory, UnitPrice: decimal.RequireFromString("149.50"), Quantity: 3},
		{ProductID: "c", Category: "cards", UnitPrice: decimal.RequireFromString("20.25"), Quantity: 4},
	}

	summary := Summarize(items, models.PaymentMethodOnline)

	// 448.50 × 0.9 = 403.65 ; 81.00 sans remise
	assert.Equal(t, "403.65", summary.Lines[0].NetTotal.StringFixed(2))
	assert.Equal(t, "81.00", summary.Lines[1].NetTotal.StringFixed(2))
	assert.Equal(t, "484.65", summary.Subtotal.StringFixed(2))
	assert.True(t, summary.Surcharge.IsZero())
	assert.True(t, summary.Total.Equal(summary.Subtotal))
	assert.Equal(t, 7, summary.ItemCount)
}

func TestSurcharge(t *testing.T) {
	assert.Equal(t, "200", Surcharge(models.PaymentMethodCOD).String())
	assert.True(t, Surcharge(models.PaymentMethodOnline).IsZero())
}
