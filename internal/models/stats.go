package models

// Stats is the read-only rollup shown on the dashboard.
type Stats struct {
	UsersCount      int     `json:"users_count"`
	ClientsCount    int     `json:"clients_count"`
	InvoicesCount   int     `json:"invoices_count"`
	TotalRevenue    float64 `json:"total_revenue"`
	PaidInvoices    int     `json:"paid_invoices"`
	PendingInvoices int     `json:"pending_invoices"`
	OverdueInvoices int     `json:"overdue_invoices"`
}

type MonthlyRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

// Dashboard is the /dashboard/stats payload. The flat counters repeat the
// matching Stats fields for clients that read the top level.
type Dashboard struct {
	Year            int              `json:"year"`
	TotalInvoices   int              `json:"total_invoices"`
	TotalRevenue    float64          `json:"total_revenue"`
	PaidInvoices    int              `json:"paid_invoices"`
	PendingInvoices int              `json:"pending_invoices"`
	Stats           Stats            `json:"stats"`
	MonthlyRevenue  []MonthlyRevenue `json:"monthly_revenue"`
	RecentInvoices  []*Invoice       `json:"recent_invoices"`
}
