package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers serves health and host status endpoints
type SystemHandlers struct {
	started time.Time
	log     zerolog.Logger
}

// NewSystemHandlers creates new system handlers
func NewSystemHandlers(started time.Time, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		started: started,
		log:     log.With().Str("handler", "system").Logger(),
	}
}

// HandleHealth handles GET /api/health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// HandleStatus handles GET /api/system/status with host CPU and memory usage
func (h *SystemHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"goroutines":     runtime.NumGoroutine(),
	}

	if cpuPercent, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		status["cpu_percent"] = cpuPercent[0]
	} else if err != nil {
		h.log.Debug().Err(err).Msg("Failed to read CPU usage")
	}

	if memStat, err := mem.VirtualMemory(); err == nil {
		status["memory_percent"] = memStat.UsedPercent
		status["memory_used_mb"] = memStat.Used / 1024 / 1024
	} else {
		h.log.Debug().Err(err).Msg("Failed to read memory usage")
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode status response")
	}
}
