package health

import (
	"context"
	"time"

	"akra-backend/internal/cache"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

type HealthChecker struct {
	db *pgxpool.Pool
}

type HealthStatus struct {
	Status   string         `json:"status"`
	Database DatabaseHealth `json:"database"`
}

type DatabaseHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

type DetailedStatus struct {
	Status   string         `json:"status"`
	Database DatabaseHealth `json:"database"`
	Redis    string         `json:"redis"`
	System   SystemInfo     `json:"system"`
}

type SystemInfo struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  uint64  `json:"memory_used_mb"`
	DiskPercent   float64 `json:"disk_percent"`
}

func NewHealthChecker(db *pgxpool.Pool) *HealthChecker {
	return &HealthChecker{db: db}
}

func (h *HealthChecker) CheckBasic() HealthStatus {
	dbHealth := h.checkDatabase()

	status := "healthy"
	if dbHealth.Status != "healthy" {
		status = "unhealthy"
	}

	return HealthStatus{
		Status:   status,
		Database: dbHealth,
	}
}

// CheckDetailed adds cache and host resource information to the basic
// check. Redis being down degrades the report but not the status, since
// the service runs fine without its cache.
func (h *HealthChecker) CheckDetailed() DetailedStatus {
	basic := h.CheckBasic()

	redisStatus := "healthy"
	if !cache.IsHealthy() {
		redisStatus = "unavailable"
	}

	return DetailedStatus{
		Status:   basic.Status,
		Database: basic.Database,
		Redis:    redisStatus,
		System:   collectSystemInfo(),
	}
}

func (h *HealthChecker) checkDatabase() DatabaseHealth {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return DatabaseHealth{
			Status:       "unhealthy",
			ResponseTime: responseTime,
		}
	}

	return DatabaseHealth{
		Status:       "healthy",
		ResponseTime: responseTime,
	}
}

func collectSystemInfo() SystemInfo {
	var info SystemInfo

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		info.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.MemoryPercent = vm.UsedPercent
		info.MemoryUsedMB = vm.Used / 1024 / 1024
	}
	if du, err := disk.Usage("/"); err == nil {
		info.DiskPercent = du.UsedPercent
	}

	return info
}
