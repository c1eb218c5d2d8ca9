// Package invoice holds the pure invoice computations: line and invoice
// totals, invoice numbering and the amount in words.
package invoice

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"invoice-backend/internal/apperr"
	"invoice-backend/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Totals is the result of Calculate.
type Totals struct {
	Items     []models.InvoiceItem
	Subtotal  float64
	TaxAmount float64
	Total     float64
}

// Calculate returns a copy of items with TotalPrice and TaxAmount filled in,
// and the invoice totals. Sums are exact; the conversion to float64 happens
// once per figure.
func Calculate(items []models.InvoiceItem) Totals {
	out := make([]models.InvoiceItem, len(items))
	subtotal, tax := decimal.Zero, decimal.Zero

	for i, item := range items {
		lineTotal := decimal.NewFromFloat(item.Quantity).Mul(decimal.NewFromFloat(item.UnitPrice))
		lineTax := lineTotal.Mul(decimal.NewFromFloat(item.TaxRate)).Div(hundred)

		item.TotalPrice = lineTotal.InexactFloat64()
		item.TaxAmount = lineTax.InexactFloat64()
		out[i] = item

		subtotal = subtotal.Add(lineTotal)
		tax = tax.Add(lineTax)
	}

	return Totals{
		Items:     out,
		Subtotal:  subtotal.InexactFloat64(),
		TaxAmount: tax.InexactFloat64(),
		Total:     subtotal.Add(tax).InexactFloat64(),
	}
}

// ComputeTotals returns subtotal, tax and total for items.
func ComputeTotals(items []models.InvoiceItem) (subtotal, taxAmount, total float64) {
	t := Calculate(items)
	return t.Subtotal, t.TaxAmount, t.Total
}

// ValidateItems rejects lines the engine cannot price.
func ValidateItems(items []models.InvoiceItem) error {
	for i, item := range items {
		if strings.TrimSpace(item.Description) == "" {
			return fmt.Errorf("%w: item %d: description is required", apperr.ErrValidation, i+1)
		}
		for name, v := range map[string]float64{
			"quantity":   item.Quantity,
			"unit_price": item.UnitPrice,
			"tax_rate":   item.TaxRate,
		} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return fmt.Errorf("%w: item %d: %s must be a non-negative number", apperr.ErrValidation, i+1, name)
			}
		}
	}
	return nil
}

// Apply validates inv and overwrites every derived field from its items.
func Apply(inv *models.Invoice) error {
	if inv.InvoiceDate.IsZero() {
		return fmt.Errorf("%w: invoice_date is required", apperr.ErrValidation)
	}
	if inv.Status == "" {
		inv.Status = models.InvoiceStatusDraft
	}
	if !inv.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", apperr.ErrValidation, inv.Status)
	}
	if err := ValidateItems(inv.Items); err != nil {
		return err
	}

	t := Calculate(inv.Items)
	inv.Items = t.Items
	inv.Subtotal = t.Subtotal
	inv.TaxAmount = t.TaxAmount
	inv.TotalAmount = t.Total
	inv.AmountInWords = AmountToWords(t.Total)
	return nil
}
