package db

import (
	"context"
	"fmt"

	"invoice-backend/internal/config"
	"invoice-backend/internal/store"
)

// Open returns the store driver named by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (store.Driver, error) {
	switch cfg.Driver {
	case "file":
		return store.NewLocalDriver(cfg.Dir)
	case "ephemeral":
		return store.NewEphemeralDriver()
	case "memory":
		return store.NewMemoryDriver(), nil
	case "postgres":
		return Connect(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
