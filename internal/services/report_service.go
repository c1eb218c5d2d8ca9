package services

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf/v2"

	"invoice-backend/internal/config"
	"invoice-backend/internal/models"
	"invoice-backend/internal/timeutil"
)

type ReportService struct {
	Company config.CompanyConfig
}

func NewReportService(company config.CompanyConfig) *ReportService {
	return &ReportService{Company: company}
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

// InvoicePDF renders a printable A4 invoice. client may be nil when the
// client was deleted after invoicing.
func (s *ReportService) InvoicePDF(inv *models.Invoice, client *models.Client) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetTitle("Invoice "+inv.InvoiceNumber, false)
	pdf.AddPage()

	// Company header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, s.Company.Name, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(190, 5, s.Company.Address, "", 1, "C", false, 0, "")
	pdf.CellFormat(190, 5, fmt.Sprintf("%s | %s | %s", s.Company.Phone, s.Company.Email, s.Company.Website), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(190, 9, "INVOICE", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	// Invoice and client details
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(95, 8, "Bill To", "1", 0, "L", true, 0, "")
	pdf.CellFormat(95, 8, "Invoice Details", "1", 1, "L", true, 0, "")

	left := []string{"Client no longer exists", "", "", ""}
	if client != nil {
		left = []string{
			client.Name,
			optional(client.Address),
			optional(client.Phone),
			optional(client.Email),
		}
		if ntn := optional(client.NTN); ntn != "" {
			left = append(left, "NTN: "+ntn)
		}
		if gst := optional(client.GST); gst != "" {
			left = append(left, "GST: "+gst)
		}
		if vc := optional(client.VendorCode); vc != "" {
			left = append(left, "Vendor Code: "+vc)
		}
	}
	right := []string{
		"Number: " + inv.InvoiceNumber,
		"Date: " + inv.InvoiceDate.Format(timeutil.DisplayLayout),
		"Status: " + string(inv.Status),
	}
	if inv.DueDate != nil {
		right = append(right, "Due: "+inv.DueDate.Format(timeutil.DisplayLayout))
	}
	if po := optional(inv.PONumber); po != "" {
		right = append(right, "PO Number: "+po)
	}

	pdf.SetFont("Arial", "", 10)
	rows := max(len(left), len(right))
	for i := 0; i < rows; i++ {
		var l, r string
		if i < len(left) {
			l = left[i]
		}
		if i < len(right) {
			r = right[i]
		}
		border := "LR"
		if i == rows-1 {
			border = "LRB"
		}
		pdf.CellFormat(95, 6, truncate(l, 55), border, 0, "L", false, 0, "")
		pdf.CellFormat(95, 6, truncate(r, 55), border, 1, "L", false, 0, "")
	}
	pdf.Ln(5)

	// Items table
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(10, 7, "#", "1", 0, "C", true, 0, "")
	pdf.CellFormat(70, 7, "Description", "1", 0, "C", true, 0, "")
	pdf.CellFormat(18, 7, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(17, 7, "Unit", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Unit Price", "1", 0, "C", true, 0, "")
	pdf.CellFormat(18, 7, "Tax %", "1", 0, "C", true, 0, "")
	pdf.CellFormat(32, 7, "Amount", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for i, item := range inv.Items {
		pdf.CellFormat(10, 6, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(70, 6, truncate(item.Description, 40), "1", 0, "L", false, 0, "")
		pdf.CellFormat(18, 6, fmt.Sprintf("%g", item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(17, 6, item.Unit, "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.2f", item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(18, 6, fmt.Sprintf("%g", item.TaxRate), "1", 0, "R", false, 0, "")
		pdf.CellFormat(32, 6, fmt.Sprintf("%.2f", item.TotalPrice), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(3)

	// Totals
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(133, 7, "", "", 0, "", false, 0, "")
	pdf.CellFormat(25, 7, "Subtotal", "1", 0, "L", false, 0, "")
	pdf.CellFormat(32, 7, fmt.Sprintf("%.2f", inv.Subtotal), "1", 1, "R", false, 0, "")
	pdf.CellFormat(133, 7, "", "", 0, "", false, 0, "")
	pdf.CellFormat(25, 7, "Tax", "1", 0, "L", false, 0, "")
	pdf.CellFormat(32, 7, fmt.Sprintf("%.2f", inv.TaxAmount), "1", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(133, 8, "", "", 0, "", false, 0, "")
	pdf.CellFormat(25, 8, "Total", "1", 0, "L", true, 0, "")
	pdf.CellFormat(32, 8, fmt.Sprintf("%.2f", inv.TotalAmount), "1", 1, "R", true, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "I", 10)
	pdf.MultiCell(190, 6, "Amount in words: "+inv.AmountInWords, "", "L", false)

	if notes := optional(inv.Notes); notes != "" {
		pdf.Ln(3)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(190, 6, "Notes", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(190, 5, notes, "", "L", false)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "", 8)
	pdf.CellFormat(190, 5, fmt.Sprintf("Generated: %s", timeutil.Now().Format("02-Jan-2006 03:04 PM")), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
