package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ReadyChecker reports whether the chat gateway session is up
type ReadyChecker interface {
	Ready() bool
}

// Pinger is the optional database health check
type Pinger interface {
	Ping() error
}

type HealthHandler struct {
	startTime time.Time
	appName   string
	gateway   ReadyChecker
	db        Pinger
}

// NewHealthHandler creates the probe handlers; db may be nil
func NewHealthHandler(appName string, gateway ReadyChecker, db Pinger) *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
		appName:   appName,
		gateway:   gateway,
		db:        db,
	}
}

// HealthCheck handles GET /health
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.appName,
		"uptime":  time.Since(h.startTime).String(),
	})
}

// ReadinessCheck handles GET /ready
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	if h.gateway == nil || !h.gateway.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"reason": "gateway_disconnected",
		})
		return
	}

	body := gin.H{
		"status":  "ready",
		"gateway": "connected",
		"uptime":  time.Since(h.startTime).String(),
	}

	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not_ready",
				"reason": "database_unavailable",
				"error":  err.Error(),
			})
			return
		}
		body["database"] = "connected"
	}

	c.JSON(http.StatusOK, body)
}

// LivenessCheck handles GET /live
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
		"uptime": time.Since(h.startTime).String(),
	})
}
