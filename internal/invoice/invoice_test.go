package invoice

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-backend/internal/apperr"
	"invoice-backend/internal/models"
)

func item(qty, price, rate float64) models.InvoiceItem {
	return models.InvoiceItem{Description: "Widget", Quantity: qty, Unit: "pcs", UnitPrice: price, TaxRate: rate}
}

func TestComputeTotals(t *testing.T) {
	sub, tax, total := ComputeTotals([]models.InvoiceItem{item(2, 100, 17), item(1, 50, 0)})
	assert.Equal(t, 250.0, sub)
	assert.Equal(t, 34.0, tax)
	assert.Equal(t, 284.0, total)
}

func TestComputeTotalsExactDecimals(t *testing.T) {
	sub, tax, total := ComputeTotals([]models.InvoiceItem{item(3, 0.1, 0), item(1, 0.2, 0)})
	assert.Equal(t, 0.5, sub)
	assert.Equal(t, 0.0, tax)
	assert.Equal(t, 0.5, total)
}

func TestComputeTotalsEmpty(t *testing.T) {
	sub, tax, total := ComputeTotals(nil)
	assert.Zero(t, sub)
	assert.Zero(t, tax)
	assert.Zero(t, total)
}

func TestTotalsOrderIndependentAndAdditive(t *testing.T) {
	a := []models.InvoiceItem{item(2, 19.99, 5), item(7, 3.25, 17)}
	b := []models.InvoiceItem{item(1, 1000, 0), item(0.5, 8.4, 12.5)}

	s1, t1, _ := ComputeTotals(append(append([]models.InvoiceItem{}, a...), b...))
	s2, t2, _ := ComputeTotals(append(append([]models.InvoiceItem{}, b...), a...))
	assert.Equal(t, s1, s2)
	assert.Equal(t, t1, t2)

	sa, ta, _ := ComputeTotals(a)
	sb, tb, _ := ComputeTotals(b)
	assert.InDelta(t, sa+sb, s1, 1e-9)
	assert.InDelta(t, ta+tb, t1, 1e-9)
}

func TestCalculateFillsLines(t *testing.T) {
	in := []models.InvoiceItem{item(4, 25, 10)}
	got := Calculate(in)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 100.0, got.Items[0].TotalPrice)
	assert.Equal(t, 10.0, got.Items[0].TaxAmount)
	assert.Zero(t, in[0].TotalPrice, "input must not be modified")
}

func TestAmountToWords(t *testing.T) {
	cases := map[float64]string{
		0:          "Zero Only",
		7:          "Seven Only",
		15:         "Fifteen Only",
		40:         "Forty Only",
		101:        "One Hundred One Only",
		1234.50:    "One Thousand Two Hundred Thirty Four and Fifty /100 Only",
		1000000:    "One Million Only",
		2000017.05: "Two Million Seventeen and Five /100 Only",
		999.999:    "One Thousand Only",
		0.01:       "Zero and One /100 Only",
		0.125:      "Zero and Twelve /100 Only",
		1.375:      "One and Thirty Eight /100 Only",
	}
	for in, want := range cases {
		assert.Equal(t, want, AmountToWords(in), "amount %v", in)
	}
}

func TestAmountToWordsFallback(t *testing.T) {
	assert.Equal(t, "-5", AmountToWords(-5))
	assert.Equal(t, "NaN", AmountToWords(math.NaN()))
	assert.Equal(t, "+Inf", AmountToWords(math.Inf(1)))
	assert.Equal(t, "1000000000000000", AmountToWords(1e15))
}

func TestNextInvoiceNumber(t *testing.T) {
	assert.Equal(t, "INV-0001", NextInvoiceNumber(nil))

	existing := []*models.Invoice{
		{Base: models.Base{ID: 1}, InvoiceNumber: "INV-0007"},
	}
	assert.Equal(t, "INV-0008", NextInvoiceNumber(existing))
}

func TestNextInvoiceNumberUsesHighestID(t *testing.T) {
	existing := []*models.Invoice{
		{Base: models.Base{ID: 9}, InvoiceNumber: "INV-0003"},
		{Base: models.Base{ID: 2}, InvoiceNumber: "INV-0050"},
	}
	assert.Equal(t, "INV-0004", NextInvoiceNumber(existing))
}

func TestNextInvoiceNumberRestartsOnGarbage(t *testing.T) {
	existing := []*models.Invoice{{Base: models.Base{ID: 1}, InvoiceNumber: "custom"}}
	assert.Equal(t, "INV-0001", NextInvoiceNumber(existing))
}

func TestNextInvoiceNumberWidens(t *testing.T) {
	existing := []*models.Invoice{{Base: models.Base{ID: 1}, InvoiceNumber: "INV-9999"}}
	assert.Equal(t, "INV-10000", NextInvoiceNumber(existing))
}

func TestApply(t *testing.T) {
	inv := &models.Invoice{
		InvoiceDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Items:       []models.InvoiceItem{item(1, 1234.5, 0)},
		TotalAmount: 1,
	}
	require.NoError(t, Apply(inv))
	assert.Equal(t, models.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, 1234.5, inv.TotalAmount)
	assert.Equal(t, 1234.5, inv.Items[0].TotalPrice)
	assert.Equal(t, "One Thousand Two Hundred Thirty Four and Fifty /100 Only", inv.AmountInWords)
}

func TestApplyRejects(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	cases := []*models.Invoice{
		{Items: []models.InvoiceItem{item(1, 1, 0)}},
		{InvoiceDate: date, Status: "unknown"},
		{InvoiceDate: date, Items: []models.InvoiceItem{item(-1, 1, 0)}},
		{InvoiceDate: date, Items: []models.InvoiceItem{item(1, math.Inf(1), 0)}},
		{InvoiceDate: date, Items: []models.InvoiceItem{{Quantity: 1, UnitPrice: 1}}},
	}
	for _, inv := range cases {
		assert.ErrorIs(t, Apply(inv), apperr.ErrValidation)
	}
}
