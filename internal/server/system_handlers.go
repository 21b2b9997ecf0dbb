package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/clients/ibkr"
	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/modules/mode"
)

// SystemHandlers serves the aggregate service status
type SystemHandlers struct {
	modeStore    *mode.Store
	brokerClient *ibkr.Client
	log          zerolog.Logger
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(modeStore *mode.Store, brokerClient *ibkr.Client, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		modeStore:    modeStore,
		brokerClient: brokerClient,
		log:          log.With().Str("handler", "system").Logger(),
	}
}

// HandleStatus returns the aggregate service status. The broker side is
// guarded: a dead gateway degrades the ibkr block but the endpoint always
// answers 200.
// GET /api/status
func (h *SystemHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	target := h.modeStore.Resolve()

	var ibkrStatus interface{}
	result, err := h.brokerClient.Status(r.Context())
	if err != nil {
		ibkrStatus = map[string]interface{}{
			"connected": false,
			"error":     err.Error(),
		}
	} else {
		ibkrStatus = json.RawMessage(result.Body)
	}

	cpuPct, ramPct := h.getSystemStats()
	uptime := h.getUptime(r.Context())

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":    "esentrader-boru-api",
		"time_utc":   time.Now().UTC().Format(time.RFC3339),
		"admin_mode": string(target.Mode),
		"ib_target": map[string]interface{}{
			"host":  target.Host,
			"port":  target.Port,
			"label": target.Label,
		},
		"ibkr": ibkrStatus,
		"system": map[string]interface{}{
			"cpu_percent":    cpuPct,
			"ram_percent":    ramPct,
			"uptime_seconds": uptime,
		},
	})
}

// getSystemStats calculates CPU and RAM usage percentages.
// CPU is sampled over 100ms to keep the endpoint fast.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}

// getUptime returns host uptime in seconds
func (h *SystemHandlers) getUptime(ctx context.Context) uint64 {
	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get host uptime")
		return 0
	}
	return uptime
}
