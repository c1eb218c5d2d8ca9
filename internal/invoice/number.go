package invoice

import (
	"fmt"
	"strconv"
	"strings"

	"invoice-backend/internal/models"
)

const numberPrefix = "INV-"

// NextInvoiceNumber continues the sequence of the invoice with the highest id.
// A missing or unparsable suffix restarts the sequence at 1.
func NextInvoiceNumber(existing []*models.Invoice) string {
	var last *models.Invoice
	for _, inv := range existing {
		if inv != nil && (last == nil || inv.ID > last.ID) {
			last = inv
		}
	}

	next := 1
	if last != nil {
		suffix := last.InvoiceNumber
		if i := strings.LastIndex(suffix, "-"); i >= 0 {
			suffix = suffix[i+1:]
		}
		if n, err := strconv.Atoi(suffix); err == nil && n >= 0 {
			next = n + 1
		}
	}
	return fmt.Sprintf("%s%04d", numberPrefix, next)
}
