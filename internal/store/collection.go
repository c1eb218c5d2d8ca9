package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"

	"invoice-backend/internal/apperr"
	"invoice-backend/internal/metrics"
)

// KeyFunc extracts the identity Upsert matches records on.
type KeyFunc[T Record] func(T) string

// Collection is a typed view of one named collection. T is a pointer to a
// struct embedding models.Base.
type Collection[T Record] struct {
	store *Store
	name  string
}

func NewCollection[T Record](s *Store, name string) *Collection[T] {
	return &Collection[T]{store: s, name: name}
}

func (c *Collection[T]) Name() string {
	return c.name
}

// List returns all records in insertion order. A collection that was never
// written, or whose content cannot be decoded, is empty.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	start := time.Now()
	records, err := c.load(ctx)
	c.store.observe(c.name, "list", start, err)
	return records, err
}

// Get returns the first record, in insertion order, that match accepts.
func (c *Collection[T]) Get(ctx context.Context, match func(T) bool) (T, bool, error) {
	var zero T
	records, err := c.List(ctx)
	if err != nil {
		return zero, false, err
	}
	for _, rec := range records {
		if match(rec) {
			return rec, true, nil
		}
	}
	return zero, false, nil
}

// Upsert replaces the record whose key equals key(rec), keeping its position,
// id and created_at and refreshing updated_at. Without a match rec is appended
// with a new id (when it has none) and both timestamps set.
func (c *Collection[T]) Upsert(ctx context.Context, rec T, key KeyFunc[T]) (T, error) {
	start := time.Now()
	err := c.store.withLock(ctx, c.name, func() error {
		records, err := c.load(ctx)
		if err != nil {
			return err
		}
		now := c.store.now()
		want := key(rec)
		for i, existing := range records {
			if key(existing) != want {
				continue
			}
			if rec.GetID() == 0 {
				rec.SetID(existing.GetID())
			}
			created := rec.GetCreatedAt()
			if created.IsZero() {
				created = existing.GetCreatedAt()
			}
			rec.SetTimestamps(created, now)
			records[i] = rec
			return c.save(ctx, records)
		}
		return c.appendLocked(ctx, records, rec, now)
	})
	c.store.observe(c.name, "upsert", start, err)
	return rec, err
}

// Insert appends rec with a fresh id. prepare runs first, under the same lock,
// against the current records; it may fill in fields of rec or reject it.
func (c *Collection[T]) Insert(ctx context.Context, rec T, prepare func(existing []T, rec T) error) (T, error) {
	start := time.Now()
	err := c.store.withLock(ctx, c.name, func() error {
		records, err := c.load(ctx)
		if err != nil {
			return err
		}
		if prepare != nil {
			if err := prepare(records, rec); err != nil {
				return err
			}
		}
		rec.SetID(0)
		return c.appendLocked(ctx, records, rec, c.store.now())
	})
	c.store.observe(c.name, "insert", start, err)
	return rec, err
}

// Update applies mutate to the first record match accepts and rewrites the
// collection. mutate must not change the id. Returns apperr.ErrNotFound when
// nothing matches.
func (c *Collection[T]) Update(ctx context.Context, match func(T) bool, mutate func(existing []T, rec T) error) (T, error) {
	var updated T
	start := time.Now()
	err := c.store.withLock(ctx, c.name, func() error {
		records, err := c.load(ctx)
		if err != nil {
			return err
		}
		for i, rec := range records {
			if !match(rec) {
				continue
			}
			id, created := rec.GetID(), rec.GetCreatedAt()
			if err := mutate(records, rec); err != nil {
				return err
			}
			rec.SetID(id)
			rec.SetTimestamps(created, c.store.now())
			records[i] = rec
			updated = rec
			return c.save(ctx, records)
		}
		return fmt.Errorf("%s: %w", c.name, apperr.ErrNotFound)
	})
	c.store.observe(c.name, "update", start, err)
	return updated, err
}

// UpdateAll applies mutate to every record match accepts and returns the
// changed records. Nothing is written when none match.
func (c *Collection[T]) UpdateAll(ctx context.Context, match func(T) bool, mutate func(T)) ([]T, error) {
	var changed []T
	start := time.Now()
	err := c.store.withLock(ctx, c.name, func() error {
		records, err := c.load(ctx)
		if err != nil {
			return err
		}
		now := c.store.now()
		for _, rec := range records {
			if !match(rec) {
				continue
			}
			id, created := rec.GetID(), rec.GetCreatedAt()
			mutate(rec)
			rec.SetID(id)
			rec.SetTimestamps(created, now)
			changed = append(changed, rec)
		}
		if len(changed) == 0 {
			return nil
		}
		return c.save(ctx, records)
	})
	c.store.observe(c.name, "update_all", start, err)
	if err != nil {
		return nil, err
	}
	return changed, nil
}

// Delete removes every record match accepts and reports whether any was removed.
func (c *Collection[T]) Delete(ctx context.Context, match func(T) bool) (bool, error) {
	removed := false
	start := time.Now()
	err := c.store.withLock(ctx, c.name, func() error {
		records, err := c.load(ctx)
		if err != nil {
			return err
		}
		kept := records[:0]
		for _, rec := range records {
			if match(rec) {
				removed = true
				continue
			}
			kept = append(kept, rec)
		}
		if !removed {
			return nil
		}
		return c.save(ctx, kept)
	})
	c.store.observe(c.name, "delete", start, err)
	return removed, err
}

// Export returns the raw persisted bytes, normalised to "[]" when empty.
func (c *Collection[T]) Export(ctx context.Context) ([]byte, error) {
	data, err := c.store.read(ctx, c.name)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []byte("[]"), nil
	}
	return data, nil
}

// Import replaces the collection with data, which must decode as records.
// The id high-water mark is raised to cover the imported ids.
func (c *Collection[T]) Import(ctx context.Context, data []byte) error {
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("%w: %s is not a record array: %v", apperr.ErrValidation, c.name, err)
	}
	records = dropNil(records)
	start := time.Now()
	err := c.store.withLock(ctx, c.name, func() error {
		seq, err := c.loadSeq(ctx)
		if err != nil {
			return err
		}
		if top := maxID(records); top > seq.LastID {
			if err := c.saveSeq(ctx, sequence{LastID: top}); err != nil {
				return err
			}
		}
		return c.save(ctx, records)
	})
	c.store.observe(c.name, "import", start, err)
	return err
}

func (c *Collection[T]) appendLocked(ctx context.Context, records []T, rec T, now time.Time) error {
	seq, err := c.loadSeq(ctx)
	if err != nil {
		return err
	}
	// Persist the mark before the records so a failed write leaves a gap, never a reuse.
	if rec.GetID() == 0 {
		next := max(maxID(records), seq.LastID) + 1
		if err := c.saveSeq(ctx, sequence{LastID: next}); err != nil {
			return err
		}
		rec.SetID(next)
	} else if id := rec.GetID(); id > seq.LastID {
		if err := c.saveSeq(ctx, sequence{LastID: id}); err != nil {
			return err
		}
	}
	rec.SetTimestamps(now, now)
	return c.save(ctx, append(records, rec))
}

func (c *Collection[T]) load(ctx context.Context) ([]T, error) {
	data, err := c.store.read(ctx, c.name)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []T{}, nil
	}
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		c.recovered(err)
		return []T{}, nil
	}
	return dropNil(records), nil
}

func (c *Collection[T]) save(ctx context.Context, records []T) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", apperr.ErrStorage, c.name, err)
	}
	return c.store.write(ctx, c.name, data)
}

func (c *Collection[T]) recovered(err error) {
	metrics.StoreRecoveredReads.WithLabelValues(c.name).Inc()
	c.store.log.Warn("malformed collection treated as empty",
		zap.String("collection", c.name), zap.Error(err))
}

// sequence is the id high-water mark stored next to a collection.
type sequence struct {
	LastID int `json:"last_id"`
}

func (c *Collection[T]) seqName() string {
	return c.name + ".meta"
}

func (c *Collection[T]) loadSeq(ctx context.Context) (sequence, error) {
	var seq sequence
	data, err := c.store.read(ctx, c.seqName())
	if err != nil || len(data) == 0 {
		return seq, err
	}
	if err := json.Unmarshal(data, &seq); err != nil {
		c.recovered(errors.Join(errors.New("sequence"), err))
		return sequence{}, nil
	}
	return seq, nil
}

func (c *Collection[T]) saveSeq(ctx context.Context, seq sequence) error {
	data, err := json.Marshal(seq)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", apperr.ErrStorage, c.seqName(), err)
	}
	return c.store.write(ctx, c.seqName(), data)
}

func maxID[T Record](records []T) int {
	top := 0
	for _, rec := range records {
		if id := rec.GetID(); id > top {
			top = id
		}
	}
	return top
}

// dropNil removes JSON null entries, which decode to nil pointers.
func dropNil[T Record](records []T) []T {
	out := records[:0]
	for _, rec := range records {
		if v := reflect.ValueOf(rec); !v.IsValid() || (v.Kind() == reflect.Pointer && v.IsNil()) {
			continue
		}
		out = append(out, rec)
	}
	return out
}
