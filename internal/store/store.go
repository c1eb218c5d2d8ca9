// Package store is a document store over named collections of records. Each
// collection is read whole and rewritten whole; writers to one collection are
// serialised by a Locker.
package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"invoice-backend/internal/apperr"
	"invoice-backend/internal/metrics"
	"invoice-backend/internal/timeutil"
)

// Driver persists the raw bytes of a collection. Read returns nil data and a
// nil error when the collection has never been written.
type Driver interface {
	Read(ctx context.Context, collection string) ([]byte, error)
	Write(ctx context.Context, collection string, data []byte) error
	Ping(ctx context.Context) error
	Close() error
}

// Record is implemented by every stored entity (models.Base provides it).
type Record interface {
	GetID() int
	SetID(id int)
	GetCreatedAt() time.Time
	SetTimestamps(createdAt, updatedAt time.Time)
}

// Store is constructed once at start-up and handed to the repositories.
type Store struct {
	driver Driver
	locker Locker
	log    *zap.Logger
	now    timeutil.Clock
}

type Option func(*Store)

// WithLocker replaces the default in-process LocalLocker.
func WithLocker(l Locker) Option {
	return func(s *Store) { s.locker = l }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Store) { s.log = log.Named("store") }
}

// WithClock fixes the time used for created_at/updated_at stamps.
func WithClock(now timeutil.Clock) Option {
	return func(s *Store) { s.now = now }
}

func New(driver Driver, opts ...Option) *Store {
	s := &Store{
		driver: driver,
		locker: NewLocalLocker(),
		log:    zap.NewNop(),
		now:    timeutil.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Driver returns the underlying driver.
func (s *Store) Driver() Driver {
	return s.driver
}

// Ping checks the driver is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.driver.Ping(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// withLock runs fn while holding the lock for collection.
func (s *Store) withLock(ctx context.Context, collection string, fn func() error) error {
	unlock, err := s.locker.Lock(ctx, collection)
	if err != nil {
		return fmt.Errorf("lock %s: %w", collection, err)
	}
	defer unlock()
	return fn()
}

func (s *Store) observe(collection, op string, start time.Time, err error) {
	metrics.StoreOperationsTotal.WithLabelValues(collection, op, metrics.Result(err)).Inc()
	metrics.StoreOperationDuration.WithLabelValues(collection, op).Observe(time.Since(start).Seconds())
}

func (s *Store) write(ctx context.Context, name string, data []byte) error {
	if err := s.driver.Write(ctx, name, data); err != nil {
		s.log.Error("collection write failed", zap.String("collection", name), zap.Error(err))
		return fmt.Errorf("%w: write %s: %v", apperr.ErrStorage, name, err)
	}
	return nil
}

func (s *Store) read(ctx context.Context, name string) ([]byte, error) {
	data, err := s.driver.Read(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", apperr.ErrStorage, name, err)
	}
	return data, nil
}
