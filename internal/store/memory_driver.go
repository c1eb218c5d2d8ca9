package store

import (
	"context"
	"sync"
)

// MemoryDriver keeps collections in process memory.
type MemoryDriver struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{data: make(map[string][]byte)}
}

func (d *MemoryDriver) Read(_ context.Context, collection string) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.data[collection]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), b...), nil
}

func (d *MemoryDriver) Write(_ context.Context, collection string, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data[collection] = append([]byte(nil), data...)
	return nil
}

func (d *MemoryDriver) Ping(context.Context) error { return nil }

func (d *MemoryDriver) Close() error { return nil }
