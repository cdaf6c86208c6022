package monitoring

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/payperplay/mcwatch/internal/models"
	"github.com/sandertv/go-raknet"
)

var errMalformedPong = errors.New("malformed bedrock pong")

// PongFunc sends an unconnected ping and returns the pong payload
type PongFunc func(ctx context.Context, address string) ([]byte, error)

// BedrockProber queries Bedrock Edition servers through the RakNet unconnected ping
type BedrockProber struct {
	ping PongFunc
}

func NewBedrockProber() *BedrockProber {
	return NewBedrockProberWith(raknet.PingContext)
}

// NewBedrockProberWith uses a custom pong function
func NewBedrockProberWith(ping PongFunc) *BedrockProber {
	return &BedrockProber{ping: ping}
}

func (p *BedrockProber) Probe(ctx context.Context, address string) (models.StatusResult, error) {
	start := time.Now()
	pong, err := p.ping(ctx, address)
	if err != nil {
		return models.StatusResult{}, fmt.Errorf("ping %s: %w", address, err)
	}
	return parseBedrockPong(pong, time.Since(start))
}

// parseBedrockPong reads "MCPE;motd;protocol;version;online;max;..."
func parseBedrockPong(pong []byte, latency time.Duration) (models.StatusResult, error) {
	fields := strings.Split(string(pong), ";")
	if len(fields) < 6 {
		return models.StatusResult{}, errMalformedPong
	}

	online, err := strconv.Atoi(fields[4])
	if err != nil {
		return models.StatusResult{}, fmt.Errorf("%w: players %q", errMalformedPong, fields[4])
	}
	max, err := strconv.Atoi(fields[5])
	if err != nil {
		return models.StatusResult{}, fmt.Errorf("%w: max players %q", errMalformedPong, fields[5])
	}

	return models.StatusResult{
		Online:     true,
		Players:    online,
		MaxPlayers: max,
		Version:    fields[3],
		MOTD:       fields[1],
		Latency:    latency,
	}, nil
}
