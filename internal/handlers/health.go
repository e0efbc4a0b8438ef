package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nestify/discovery/pkg/logger"
)

const healthTimeout = 2 * time.Second

// WorkerStatus reports which background workers are running.
type WorkerStatus interface {
	GetWorkerStatus() map[string]bool
}

type HealthHandler struct {
	db      *sql.DB
	workers WorkerStatus
}

// NewHealthHandler reports on db and, when workers is not nil, on the
// background workers.
func NewHealthHandler(db *sql.DB, workers WorkerStatus) *HealthHandler {
	return &HealthHandler{db: db, workers: workers}
}

// HealthCheck reports whether the listing store answers. Worker state is
// informational and never fails the check.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	body := gin.H{"status": "ok", "database": "up"}
	if h.workers != nil {
		body["workers"] = h.workers.GetWorkerStatus()
	}

	if err := h.db.PingContext(ctx); err != nil {
		logger.WithError(err).Warnf("Health check failed")
		body["status"] = "unavailable"
		body["database"] = "down"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}

	c.JSON(http.StatusOK, body)
}
