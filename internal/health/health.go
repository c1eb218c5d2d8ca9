package health

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"invoice-backend/internal/timeutil"
)

// Pinger is satisfied by *store.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthChecker struct {
	store   Pinger
	driver  string
	dataDir string
}

type HealthStatus struct {
	Status    string        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Storage   StorageHealth `json:"storage"`
	Disk      *DiskHealth   `json:"disk,omitempty"`
	System    *SystemHealth `json:"system,omitempty"`
}

type StorageHealth struct {
	Driver       string `json:"driver"`
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
}

// SystemHealth is host load at the time of the check.
type SystemHealth struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsed    uint64  `json:"memory_used_bytes"`
	MemoryTotal   uint64  `json:"memory_total_bytes"`
}

type DiskHealth struct {
	Path        string  `json:"path"`
	TotalBytes  uint64  `json:"total_bytes"`
	FreeBytes   uint64  `json:"free_bytes"`
	UsedPercent float64 `json:"used_percent"`
}

// NewHealthChecker checks store. A non-empty dataDir adds its disk usage to
// the detailed report.
func NewHealthChecker(store Pinger, driver, dataDir string) *HealthChecker {
	return &HealthChecker{store: store, driver: driver, dataDir: dataDir}
}

// CheckBasic pings the store only.
func (h *HealthChecker) CheckBasic(ctx context.Context) HealthStatus {
	storage := h.checkStorage(ctx)

	status := "healthy"
	if storage.Status != "healthy" {
		status = "unhealthy"
	}

	return HealthStatus{
		Status:    status,
		Timestamp: timeutil.Now(),
		Storage:   storage,
	}
}

// CheckDetailed adds host CPU and memory, and disk usage of the data
// directory when one is configured.
func (h *HealthChecker) CheckDetailed(ctx context.Context) HealthStatus {
	st := h.CheckBasic(ctx)
	st.System = checkSystem(ctx)
	if h.dataDir == "" {
		return st
	}
	usage, err := disk.UsageWithContext(ctx, h.dataDir)
	if err != nil {
		return st
	}
	st.Disk = &DiskHealth{
		Path:        usage.Path,
		TotalBytes:  usage.Total,
		FreeBytes:   usage.Free,
		UsedPercent: usage.UsedPercent,
	}
	return st
}

// checkSystem returns nil when the host exposes no memory stats.
func checkSystem(ctx context.Context) *SystemHealth {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil
	}
	sys := &SystemHealth{
		MemoryPercent: vm.UsedPercent,
		MemoryUsed:    vm.Used,
		MemoryTotal:   vm.Total,
	}
	// Zero interval compares against the previous call instead of sleeping.
	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		sys.CPUPercent = percents[0]
	}
	return sys
}

func (h *HealthChecker) checkStorage(ctx context.Context) StorageHealth {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.store.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return StorageHealth{
			Driver:       h.driver,
			Status:       "unhealthy",
			ResponseTime: responseTime,
			Error:        err.Error(),
		}
	}

	return StorageHealth{
		Driver:       h.driver,
		Status:       "healthy",
		ResponseTime: responseTime,
	}
}
