package handler

import (
	"net/http"
	"runtime"
	"time"

	"gm-economy-api/internal/repository"
	"gm-economy-api/internal/service"
	"gm-economy-api/pkg/response"
)

// AdminHandler handles admin-related HTTP requests.
type AdminHandler struct {
	repo      repository.EconomyRepository
	scheduler *service.SyncScheduler
	backend   string
	cacheType string
	startTime time.Time
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(repo repository.EconomyRepository, scheduler *service.SyncScheduler, backend, cacheType string) *AdminHandler {
	return &AdminHandler{
		repo:      repo,
		scheduler: scheduler,
		backend:   backend,
		cacheType: cacheType,
		startTime: time.Now(),
	}
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := make(map[string]interface{})

	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["store_backend"] = h.backend
	stats["cache_type"] = h.cacheType

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":      float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":        float64(memStats.Sys) / 1024 / 1024,
		"heap_alloc_mb": float64(memStats.HeapAlloc) / 1024 / 1024,
		"num_gc":        memStats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	if h.repo != nil {
		storeStats, err := h.repo.Stats(ctx)
		if err == nil {
			stats["store"] = storeStats
		} else {
			stats["store"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		}
	}

	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}

// ForceSync handles POST /api/v1/admin/sync
func (h *AdminHandler) ForceSync(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		response.OK(w, map[string]string{"status": "scheduler not configured"})
		return
	}

	if err := h.scheduler.RunNow(r.Context()); err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]string{"status": "synced"})
}
