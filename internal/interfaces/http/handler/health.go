package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pyme/backend/internal/interfaces/http/dto"
)

// Pinger checks a dependency is reachable.
type Pinger interface {
	Ping() error
}

// HealthHandler reports liveness of the process and its database.
type HealthHandler struct {
	BaseHandler
	db      Pinger
	version string
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db Pinger, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Version  string `json:"version,omitempty"`
}

// Health GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	status := HealthStatus{Status: "ok", Database: "ok", Version: h.version}
	if err := h.db.Ping(); err != nil {
		status.Status, status.Database = "degraded", err.Error()
		c.JSON(http.StatusServiceUnavailable, dto.Response{Success: false, Data: status,
			Error: &dto.ErrorInfo{Code: "ERR_UNAVAILABLE", Message: "Database unreachable"}})
		return
	}
	h.Success(c, status)
}
