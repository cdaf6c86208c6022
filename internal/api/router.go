package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/payperplay/mcwatch/internal/middleware"
	"github.com/payperplay/mcwatch/pkg/config"
)

// Handlers groups everything the ops router serves; Servers may be nil
type Handlers struct {
	Health     *HealthHandler
	Prometheus *PrometheusHandler
	Servers    *ServerHandler
}

func SetupRouter(h Handlers, cfg *config.Config) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.ErrorHandler())
	router.Use(middleware.RequestLogger("/health", "/live", "/ready", "/metrics"))

	// Probes and scraping, no auth
	router.GET("/health", h.Health.HealthCheck)
	router.HEAD("/health", h.Health.HealthCheck)
	router.GET("/live", h.Health.LivenessCheck)
	router.GET("/ready", h.Health.ReadinessCheck)
	router.GET("/metrics", h.Prometheus.MetricsEndpoint)

	if h.Servers != nil && cfg.OpsToken != "" {
		apiGroup := router.Group("/api")
		apiGroup.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter(time.Second, 60)))
		apiGroup.Use(middleware.TokenAuth(cfg.OpsToken))
		{
			apiGroup.GET("/servers", h.Servers.ListServers)
			apiGroup.GET("/servers/:channel_id", h.Servers.GetServer)
			apiGroup.GET("/servers/:channel_id/console", h.Servers.ConsoleHistory)
			apiGroup.GET("/events", h.Servers.ListEvents)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, middleware.ErrorResponse{Error: "not found", Code: "NOT_FOUND"})
	})

	return router
}

// NewServer wraps the router in an http.Server with conservative timeouts
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
