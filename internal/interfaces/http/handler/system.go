package handler

import (
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shipshape/backend/internal/domain/shared"
)

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	clock     shared.Clock
	startTime time.Time
	storage   StorageInfo
}

// StorageInfo describes the slot backend the store is bound to
type StorageInfo struct {
	Driver    string `json:"driver"`
	KeyPrefix string `json:"key_prefix"`
	ContextID string `json:"context_id"`
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(name, version string, storage StorageInfo, clock shared.Clock) *SystemHandler {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &SystemHandler{
		name:      name,
		version:   version,
		clock:     clock,
		startTime: clock.Now(),
		storage:   storage,
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string      `json:"name" example:"shipshape"`
	Version   string      `json:"version" example:"1.0.0"`
	GoVersion string      `json:"go_version" example:"go1.25.5"`
	Uptime    string      `json:"uptime" example:"1h30m45s"`
	Storage   StorageInfo `json:"storage"`
}

// GetSystemInfo godoc
// @Summary      Get system information
// @Tags         system
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    h.clock.Now().Sub(h.startTime).Round(time.Second).String(),
		Storage:   h.storage,
	})
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message" example:"pong"`
	Timestamp string `json:"timestamp" example:"2026-01-23T12:00:00Z"`
}

// Ping godoc
// @Summary      Ping the API
// @Tags         system
// @Router       /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: h.clock.Now().Format(time.RFC3339),
	})
}
