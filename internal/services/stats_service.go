package services

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"invoice-backend/internal/cache"
	"invoice-backend/internal/logging"
	"invoice-backend/internal/models"
	"invoice-backend/internal/repositories"
	"invoice-backend/internal/timeutil"
)

const (
	recentInvoices = 5
	dashboardTTL   = time.Minute
)

type StatsService struct {
	Users    *repositories.UserRepository
	Clients  *repositories.ClientRepository
	Invoices *repositories.InvoiceRepository
	Cache    DashboardCache
	Events   logging.Events
}

func NewStatsService(users *repositories.UserRepository, clients *repositories.ClientRepository, invoices *repositories.InvoiceRepository, dashboardCache DashboardCache, events logging.Events) *StatsService {
	if dashboardCache == nil {
		dashboardCache = NoCache()
	}
	return &StatsService{
		Users:    users,
		Clients:  clients,
		Invoices: invoices,
		Cache:    dashboardCache,
		Events:   events,
	}
}

type snapshot struct {
	users    []*models.User
	clients  []*models.Client
	invoices []*models.Invoice
}

// load reads the three collections concurrently.
func (s *StatsService) load(ctx context.Context) (*snapshot, error) {
	var snap snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.users, err = s.Users.List(ctx)
		return err
	})
	g.Go(func() (err error) {
		snap.clients, err = s.Clients.List(ctx)
		return err
	})
	g.Go(func() (err error) {
		snap.invoices, err = s.Invoices.List(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

func computeStats(snap *snapshot) models.Stats {
	revenue := decimal.Zero
	st := models.Stats{
		UsersCount:    len(snap.users),
		ClientsCount:  len(snap.clients),
		InvoicesCount: len(snap.invoices),
	}
	for _, inv := range snap.invoices {
		revenue = revenue.Add(decimal.NewFromFloat(inv.TotalAmount))
		switch {
		case inv.Status == models.InvoiceStatusPaid:
			st.PaidInvoices++
		case inv.Status.Pending():
			st.PendingInvoices++
		case inv.Status == models.InvoiceStatusOverdue:
			st.OverdueInvoices++
		}
	}
	st.TotalRevenue = revenue.InexactFloat64()
	return st
}

func computeMonthly(invoices []*models.Invoice, year int) []models.MonthlyRevenue {
	var buckets [12]decimal.Decimal
	for _, inv := range invoices {
		created := inv.CreatedAt.UTC()
		if created.Year() != year {
			continue
		}
		m := created.Month() - 1
		buckets[m] = buckets[m].Add(decimal.NewFromFloat(inv.TotalAmount))
	}
	out := make([]models.MonthlyRevenue, 12)
	for i := range out {
		out[i] = models.MonthlyRevenue{
			Month:   timeutil.MonthLabel(time.Month(i + 1)),
			Revenue: buckets[i].InexactFloat64(),
		}
	}
	return out
}

// Stats returns the counts and revenue totals. Pending counts draft and
// sent invoices.
func (s *StatsService) Stats(ctx context.Context) (*models.Stats, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	st := computeStats(snap)
	return &st, nil
}

// MonthlyRevenue buckets invoice totals of year by created_at month. All
// twelve months are present.
func (s *StatsService) MonthlyRevenue(ctx context.Context, year int) ([]models.MonthlyRevenue, error) {
	invoices, err := s.Invoices.List(ctx)
	if err != nil {
		return nil, err
	}
	return computeMonthly(invoices, year), nil
}

// Dashboard combines stats, monthly revenue and the most recent invoices.
func (s *StatsService) Dashboard(ctx context.Context, year int) (*models.Dashboard, error) {
	key := cache.DashboardKey(year)
	var cached models.Dashboard
	if s.Cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	recent := append([]*models.Invoice(nil), snap.invoices...)
	sort.Slice(recent, func(i, j int) bool {
		if !recent[i].CreatedAt.Equal(recent[j].CreatedAt) {
			return recent[i].CreatedAt.After(recent[j].CreatedAt)
		}
		return recent[i].ID > recent[j].ID
	})
	if len(recent) > recentInvoices {
		recent = recent[:recentInvoices]
	}

	stats := computeStats(snap)
	d := &models.Dashboard{
		Year:            year,
		TotalInvoices:   stats.InvoicesCount,
		TotalRevenue:    stats.TotalRevenue,
		PaidInvoices:    stats.PaidInvoices,
		PendingInvoices: stats.PendingInvoices,
		Stats:           stats,
		MonthlyRevenue:  computeMonthly(snap.invoices, year),
		RecentInvoices:  recent,
	}
	if err := s.Cache.SetJSON(ctx, key, d, dashboardTTL); err != nil {
		s.Events.Error(err, "cache dashboard", 0)
	}
	return d, nil
}
