package monitoring

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/payperplay/mcwatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const javaStatusJSON = `{
	"version": {"name": "1.20.1", "protocol": 763},
	"players": {"max": 20, "online": 3, "sample": [{"name": "Alex", "id": "a"}, {"name": "Steve", "id": "b"}]},
	"description": {"text": "A Minecraft Server"}
}`

func TestJavaProberParsesStatus(t *testing.T) {
	prober := NewJavaProberWith(func(ctx context.Context, address string) ([]byte, time.Duration, error) {
		assert.Equal(t, "play.example.com:25565", address)
		return []byte(javaStatusJSON), 40 * time.Millisecond, nil
	})

	result, err := prober.Probe(context.Background(), "play.example.com:25565")
	require.NoError(t, err)
	assert.True(t, result.Online)
	assert.Equal(t, 3, result.Players)
	assert.Equal(t, 20, result.MaxPlayers)
	assert.Equal(t, []string{"Alex", "Steve"}, result.PlayerNames)
	assert.Equal(t, "1.20.1", result.Version)
	assert.Equal(t, "A Minecraft Server", result.MOTD)
	assert.EqualValues(t, 40, result.LatencyMs())
}

func TestJavaProberWithoutSample(t *testing.T) {
	prober := NewJavaProberWith(func(context.Context, string) ([]byte, time.Duration, error) {
		return []byte(`{"version":{"name":"Paper 1.20.4"},"players":{"max":100,"online":0},"description":"plain motd"}`), time.Millisecond, nil
	})

	result, err := prober.Probe(context.Background(), "a:1")
	require.NoError(t, err)
	assert.Empty(t, result.PlayerNames)
	assert.Equal(t, "plain motd", result.MOTD)
}

func TestParseBedrockPong(t *testing.T) {
	pong := []byte("MCPE;Dedicated Server;594;1.20.10;2;10;13253860892328930865;Bedrock level;Survival;1;19132;19133;")
	result, err := parseBedrockPong(pong, 15*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Players)
	assert.Equal(t, 10, result.MaxPlayers)
	assert.Equal(t, "1.20.10", result.Version)
	assert.Equal(t, "Dedicated Server", result.MOTD)
	assert.Empty(t, result.PlayerNames)

	_, err = parseBedrockPong([]byte("MCPE;short"), 0)
	assert.ErrorIs(t, err, errMalformedPong)
	_, err = parseBedrockPong([]byte("MCPE;m;1;v;x;10"), 0)
	assert.ErrorIs(t, err, errMalformedPong)
}

func TestStatusProberNeverFails(t *testing.T) {
	failing := NewBedrockProberWith(func(context.Context, string) ([]byte, error) {
		return nil, errors.New("i/o timeout")
	})
	working := NewBedrockProberWith(func(context.Context, string) ([]byte, error) {
		return []byte("MCPE;motd;594;1.20.10;1;5;0"), nil
	})

	prober := NewStatusProberWith(time.Second, map[models.ServerType]Prober{models.ServerTypeBedrock: failing})
	assert.Equal(t, models.Offline(), prober.Probe(context.Background(), models.ServerTypeBedrock, "a:19132"))
	assert.False(t, prober.Probe(context.Background(), models.ServerTypeJava, "a:25565").Online)

	prober = NewStatusProberWith(time.Second, map[models.ServerType]Prober{models.ServerTypeBedrock: working})
	result := prober.Probe(context.Background(), models.ServerTypeBedrock, "a:19132")
	assert.True(t, result.Online)
	assert.Equal(t, 5, result.MaxPlayers)
}

func TestUnreachableJavaServerIsOffline(t *testing.T) {
	prober := NewStatusProber(500 * time.Millisecond)
	result := prober.Probe(context.Background(), models.ServerTypeJava, "127.0.0.1:1")
	assert.False(t, result.Online)
	assert.Zero(t, result.Players)
}

// silentListener accepts connections and never answers them
func silentListener(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		var conns []net.Conn
		defer func() {
			for _, c := range conns {
				c.Close()
			}
		}()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conns = append(conns, conn)
		}
	}()
	return ln.Addr().String()
}

func TestJavaProberHonorsContextDeadline(t *testing.T) {
	address := silentListener(t)
	prober := NewJavaProber(time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := prober.Probe(ctx, address)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestJavaProberAppliesOwnTimeout(t *testing.T) {
	address := silentListener(t)
	prober := NewJavaProber(200 * time.Millisecond)

	start := time.Now()
	_, err := prober.Probe(context.Background(), address)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
