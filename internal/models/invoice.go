package models

import (
	"encoding/json"
	"time"

	"invoice-backend/internal/timeutil"
)

// InvoiceStatus represents the status of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// Pending reports whether the invoice still awaits payment (draft or sent).
func (s InvoiceStatus) Pending() bool {
	return s == InvoiceStatusDraft || s == InvoiceStatusSent
}

// Invoice represents a generated invoice. Subtotal, TaxAmount, TotalAmount and
// AmountInWords are derived from Items and never taken from input.
type Invoice struct {
	Base
	InvoiceNumber string        `json:"invoice_number"`
	PONumber      *string       `json:"po_number,omitempty"`
	InvoiceDate   time.Time     `json:"invoice_date"`
	DueDate       *time.Time    `json:"due_date,omitempty"`
	Status        InvoiceStatus `json:"status"`
	Notes         *string       `json:"notes,omitempty"`
	ClientID      int           `json:"client_id"`
	CreatedBy     int           `json:"created_by"`
	Subtotal      float64       `json:"subtotal"`
	TaxAmount     float64       `json:"tax_amount"`
	TotalAmount   float64       `json:"total_amount"`
	AmountInWords string        `json:"amount_in_words"`
	Items         []InvoiceItem `json:"items"`
}

// InvoiceItem is a line on an invoice. TotalPrice and TaxAmount are derived.
type InvoiceItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unit_price"`
	TaxRate     float64 `json:"tax_rate"` // percent
	TotalPrice  float64 `json:"total_price"`
	TaxAmount   float64 `json:"tax_amount"`
}

// CreateInvoiceRequest represents the request to create an invoice
type CreateInvoiceRequest struct {
	InvoiceNumber string        `json:"invoice_number"`
	PONumber      *string       `json:"po_number,omitempty"`
	InvoiceDate   time.Time     `json:"invoice_date"`
	DueDate       *time.Time    `json:"due_date,omitempty"`
	Status        InvoiceStatus `json:"status"`
	Notes         *string       `json:"notes,omitempty"`
	ClientID      int           `json:"client_id"`
	Items         []InvoiceItem `json:"items"`
}

// UnmarshalJSON accepts the date forms timeutil.ParseDate understands.
func (r *CreateInvoiceRequest) UnmarshalJSON(data []byte) error {
	type plain CreateInvoiceRequest
	aux := struct {
		*plain
		InvoiceDate *string `json:"invoice_date"`
		DueDate     *string `json:"due_date"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.InvoiceDate != nil {
		d, err := timeutil.ParseDate(*aux.InvoiceDate)
		if err != nil {
			return err
		}
		r.InvoiceDate = d
	}
	due, err := parseOptionalDate(aux.DueDate)
	if err != nil {
		return err
	}
	r.DueDate = due
	return nil
}

// InvoiceUpdate is a partial update: nil fields are left untouched.
type InvoiceUpdate struct {
	PONumber    *string        `json:"po_number,omitempty"`
	InvoiceDate *time.Time     `json:"invoice_date,omitempty"`
	DueDate     *time.Time     `json:"due_date,omitempty"`
	Status      *InvoiceStatus `json:"status,omitempty"`
	Notes       *string        `json:"notes,omitempty"`
	ClientID    *int           `json:"client_id,omitempty"`
	Items       []InvoiceItem  `json:"items,omitempty"`
}

// UnmarshalJSON accepts the date forms timeutil.ParseDate understands.
func (p *InvoiceUpdate) UnmarshalJSON(data []byte) error {
	type plain InvoiceUpdate
	aux := struct {
		*plain
		InvoiceDate *string `json:"invoice_date"`
		DueDate     *string `json:"due_date"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	if p.InvoiceDate, err = parseOptionalDate(aux.InvoiceDate); err != nil {
		return err
	}
	p.DueDate, err = parseOptionalDate(aux.DueDate)
	return err
}

func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	d, err := timeutil.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Apply merges the supplied fields into inv. Derived totals are recomputed by
// the invoice engine afterwards.
func (p InvoiceUpdate) Apply(inv *Invoice) {
	if p.PONumber != nil {
		inv.PONumber = p.PONumber
	}
	if p.InvoiceDate != nil {
		inv.InvoiceDate = *p.InvoiceDate
	}
	if p.DueDate != nil {
		inv.DueDate = p.DueDate
	}
	if p.Status != nil {
		inv.Status = *p.Status
	}
	if p.Notes != nil {
		inv.Notes = p.Notes
	}
	if p.ClientID != nil {
		inv.ClientID = *p.ClientID
	}
	if p.Items != nil {
		inv.Items = p.Items
	}
}
