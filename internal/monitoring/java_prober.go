package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Tnze/go-mc/bot"
	"github.com/Tnze/go-mc/chat"
	"github.com/payperplay/mcwatch/internal/models"
)

type javaVersion struct {
	Name     string `json:"name"`
	Protocol int    `json:"protocol"`
}

type javaPlayers struct {
	Max    int          `json:"max"`
	Online int          `json:"online"`
	Sample []javaPlayer `json:"sample"`
}

type javaPlayer struct {
	Name string `json:"name"`
	UUID string `json:"id"`
}

// javaStatusResponse is the Server List Ping JSON document
type javaStatusResponse struct {
	Version     javaVersion  `json:"version"`
	Players     javaPlayers  `json:"players"`
	Description chat.Message `json:"description"`
}

// PingFunc performs a Server List Ping and returns the raw JSON and round-trip time
type PingFunc func(ctx context.Context, address string) ([]byte, time.Duration, error)

// JavaProber queries Java Edition servers through the Server List Ping
type JavaProber struct {
	ping PingFunc
}

// NewJavaProber pings with go-mc; timeout caps each ping and an earlier ctx deadline wins
func NewJavaProber(timeout time.Duration) *JavaProber {
	return NewJavaProberWith(func(ctx context.Context, address string) ([]byte, time.Duration, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return bot.PingAndListContext(ctx, address)
	})
}

// NewJavaProberWith uses a custom ping function
func NewJavaProberWith(ping PingFunc) *JavaProber {
	return &JavaProber{ping: ping}
}

func (p *JavaProber) Probe(ctx context.Context, address string) (models.StatusResult, error) {
	if err := ctx.Err(); err != nil {
		return models.StatusResult{}, err
	}

	raw, latency, err := p.ping(ctx, address)
	if err != nil {
		return models.StatusResult{}, fmt.Errorf("ping %s: %w", address, err)
	}
	return parseJavaStatus(raw, latency)
}

func parseJavaStatus(raw []byte, latency time.Duration) (models.StatusResult, error) {
	var resp javaStatusResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return models.StatusResult{}, fmt.Errorf("decode status: %w", err)
	}

	names := make([]string, 0, len(resp.Players.Sample))
	for _, player := range resp.Players.Sample {
		if player.Name != "" {
			names = append(names, player.Name)
		}
	}

	return models.StatusResult{
		Online:      true,
		Players:     resp.Players.Online,
		MaxPlayers:  resp.Players.Max,
		PlayerNames: names,
		Version:     resp.Version.Name,
		MOTD:        resp.Description.ClearString(),
		Latency:     latency,
	}, nil
}
