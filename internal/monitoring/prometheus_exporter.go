package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/payperplay/mcwatch/internal/models"
	"github.com/payperplay/mcwatch/internal/repository"
	"github.com/payperplay/mcwatch/pkg/logger"
)

// PrometheusExporter refreshes store-wide gauges on an interval
type PrometheusExporter struct {
	store    *repository.ServerStore
	interval time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewPrometheusExporter creates a new Prometheus exporter
func NewPrometheusExporter(store *repository.ServerStore, interval time.Duration) *PrometheusExporter {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &PrometheusExporter{
		store:    store,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// CollectMetrics updates gauges derived from the store
func (e *PrometheusExporter) CollectMetrics() {
	var tracked, presence, console int

	for _, entry := range e.store.Snapshot() {
		tracked++
		if entry.Server.ShowInPresence {
			presence++
		}
		if entry.Server.RemoteConsole.Usable() {
			console++
		}
	}

	TrackedServers.Set(float64(tracked))
	PresenceServers.Set(float64(presence))
	ConsoleEnabledServers.Set(float64(console))

	logger.Debug("Prometheus metrics collected", map[string]interface{}{
		"tracked":  tracked,
		"presence": presence,
		"rcon":     console,
	})
}

// RecordStatus updates the per-server gauges after a probe
func RecordStatus(channelID int64, srv *models.TrackedServer, result models.StatusResult) {
	labels := []string{strconv.FormatInt(channelID, 10), srv.Address, string(srv.Type)}

	ServerOnline.WithLabelValues(labels...).Set(BoolToFloat(result.Online))
	ServerPlayerCount.WithLabelValues(labels...).Set(float64(result.Players))
	ServerPlayerLimit.WithLabelValues(labels...).Set(float64(result.MaxPlayers))
	ServerLatencyMs.WithLabelValues(labels...).Set(float64(result.LatencyMs()))
}

// Start begins periodic collection
func (e *PrometheusExporter) Start() {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()

		e.CollectMetrics()

		for {
			select {
			case <-ticker.C:
				e.CollectMetrics()
			case <-e.stopChan:
				return
			}
		}
	}()

	logger.Info("Prometheus exporter started", map[string]interface{}{
		"interval": e.interval.String(),
	})
}

// Stop ends periodic collection
func (e *PrometheusExporter) Stop() {
	close(e.stopChan)
	e.wg.Wait()
}
