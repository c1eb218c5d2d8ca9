package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"invoice-backend/internal/timeutil"
)

// Scheduler runs the periodic jobs: overdue marking and backups.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

func NewScheduler(log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		log:  log.Named("scheduler"),
	}
}

// AddOverdueJob marks overdue invoices on spec.
func (s *Scheduler) AddOverdueJob(spec string, invoices *InvoiceService) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		n, err := invoices.MarkOverdue(ctx, timeutil.Now())
		if err != nil {
			s.log.Error("mark overdue failed", zap.Error(err))
			return
		}
		if n > 0 {
			s.log.Info("invoices marked overdue", zap.Int("count", n))
		}
	})
	return err
}

// AddBackupJob uploads a snapshot on spec.
func (s *Scheduler) AddBackupJob(spec string, backups *BackupService) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		b, err := backups.Snapshot(ctx)
		if err != nil {
			s.log.Error("scheduled backup failed", zap.Error(err))
			return
		}
		s.log.Info("scheduled backup uploaded", zap.String("stamp", b.Stamp), zap.Int64("size_bytes", b.SizeBytes))
	})
	return err
}

// Len is the number of registered jobs.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs or ctx, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
