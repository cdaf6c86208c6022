package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the status bot
var (
	// Per tracked server, labelled by channel and address
	ServerOnline = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mcwatch_server_online",
			Help: "Whether the tracked server answered the last status probe (1) or not (0)",
		},
		[]string{"channel_id", "address", "type"},
	)

	ServerPlayerCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mcwatch_server_players",
			Help: "Players online at the last status probe",
		},
		[]string{"channel_id", "address", "type"},
	)

	ServerPlayerLimit = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mcwatch_server_player_limit",
			Help: "Maximum players reported by the server",
		},
		[]string{"channel_id", "address", "type"},
	)

	ServerLatencyMs = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mcwatch_server_latency_ms",
			Help: "Status probe round-trip time in milliseconds",
		},
		[]string{"channel_id", "address", "type"},
	)

	// Store-wide gauges, refreshed by the exporter
	TrackedServers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mcwatch_tracked_servers",
			Help: "Number of channels bound to a server",
		},
	)

	PresenceServers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mcwatch_presence_servers",
			Help: "Number of tracked servers shown in the bot presence",
		},
	)

	ConsoleEnabledServers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mcwatch_rcon_enabled_servers",
			Help: "Number of tracked servers with a usable remote console",
		},
	)

	// Counters
	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcwatch_probes_total",
			Help: "Status probes by server type and outcome",
		},
		[]string{"type", "result"},
	)

	ConsoleCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcwatch_rcon_commands_total",
			Help: "Remote console commands by outcome",
		},
		[]string{"result"},
	)

	SlashCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcwatch_slash_commands_total",
			Help: "Slash commands handled by name and outcome",
		},
		[]string{"command", "result"},
	)

	StatusTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcwatch_status_transitions_total",
			Help: "Observed server status changes by new status",
		},
		[]string{"status"},
	)

	RemovedChannelsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mcwatch_removed_channels_total",
			Help: "Tracked channels dropped because their channel or status message vanished",
		},
	)

	ReconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mcwatch_reconcile_duration_seconds",
			Help:    "Duration of one reconciliation tick",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)
)

// BoolToFloat converts a flag to a gauge value
func BoolToFloat(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

// DeleteServerMetrics drops the per-server series of an untracked channel
func DeleteServerMetrics(channelID, address, serverType string) {
	ServerOnline.DeleteLabelValues(channelID, address, serverType)
	ServerPlayerCount.DeleteLabelValues(channelID, address, serverType)
	ServerPlayerLimit.DeleteLabelValues(channelID, address, serverType)
	ServerLatencyMs.DeleteLabelValues(channelID, address, serverType)
}
