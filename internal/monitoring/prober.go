package monitoring

import (
	"context"
	"time"

	"github.com/payperplay/mcwatch/internal/models"
	"github.com/payperplay/mcwatch/pkg/logger"
)

// Prober performs one status query against a single edition.
// Implementations return an error on any failure; StatusProber turns it into an offline result.
type Prober interface {
	Probe(ctx context.Context, address string) (models.StatusResult, error)
}

// StatusProber dispatches probes by server type and never fails
type StatusProber struct {
	probers map[models.ServerType]Prober
	timeout time.Duration
}

// NewStatusProber wires the Java and Bedrock probers
func NewStatusProber(timeout time.Duration) *StatusProber {
	return NewStatusProberWith(timeout, map[models.ServerType]Prober{
		models.ServerTypeJava:    NewJavaProber(timeout),
		models.ServerTypeBedrock: NewBedrockProber(),
	})
}

// NewStatusProberWith builds a prober from explicit per-type implementations
func NewStatusProberWith(timeout time.Duration, probers map[models.ServerType]Prober) *StatusProber {
	return &StatusProber{probers: probers, timeout: timeout}
}

// Probe queries address and normalizes the outcome. Errors are logged and
// reported as an offline result.
func (p *StatusProber) Probe(ctx context.Context, serverType models.ServerType, address string) models.StatusResult {
	prober, ok := p.probers[serverType]
	if !ok {
		logger.Warn("No prober for server type", map[string]interface{}{
			"type":    serverType,
			"address": address,
		})
		ProbesTotal.WithLabelValues(string(serverType), "unsupported").Inc()
		return models.Offline()
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	result, err := prober.Probe(ctx, address)
	if err != nil {
		logger.Debug("Status probe failed", map[string]interface{}{
			"type":    serverType,
			"address": address,
			"error":   err.Error(),
		})
		ProbesTotal.WithLabelValues(string(serverType), "offline").Inc()
		return models.Offline()
	}

	result.Online = true
	ProbesTotal.WithLabelValues(string(serverType), "online").Inc()
	return result
}
