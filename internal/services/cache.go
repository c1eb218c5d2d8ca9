package services

import (
	"context"
	"time"

	"invoice-backend/internal/logging"
)

// DashboardCache is the best-effort cache in front of the stats service.
// *cache.Redis implements it, including as a nil pointer.
type DashboardCache interface {
	GetJSON(ctx context.Context, key string, dst any) bool
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	InvalidateDashboards(ctx context.Context) error
}

type noCache struct{}

func (noCache) GetJSON(context.Context, string, any) bool                 { return false }
func (noCache) SetJSON(context.Context, string, any, time.Duration) error { return nil }
func (noCache) InvalidateDashboards(context.Context) error                { return nil }

// NoCache disables dashboard caching.
func NoCache() DashboardCache {
	return noCache{}
}

// invalidateDashboards drops cached dashboards after a write. Failures are
// logged and otherwise ignored.
func invalidateDashboards(ctx context.Context, c DashboardCache, events logging.Events, actorID int) {
	if err := c.InvalidateDashboards(ctx); err != nil {
		events.Error(err, "invalidate dashboard cache", actorID)
	}
}
