package monitoring

import (
	"testing"

	"github.com/payperplay/mcwatch/internal/models"
	"github.com/payperplay/mcwatch/internal/repository"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopBackend struct{}

func (nopBackend) Read() ([]byte, error)  { return nil, nil }
func (nopBackend) Write(data []byte) error { return nil }

func TestCollectMetrics(t *testing.T) {
	store := repository.NewServerStore(nopBackend{}, nil)
	require.NoError(t, store.Load())

	shown := models.NewTrackedServer("a:25565", models.ServerTypeJava)
	shown.ShowInPresence = true
	withConsole := models.NewTrackedServer("b:25565", models.ServerTypeJava)
	withConsole.RemoteConsole = &models.RemoteConsole{Enabled: true, Port: 25575, Password: "pw"}
	require.NoError(t, store.Create(1, shown))
	require.NoError(t, store.Create(2, withConsole))

	NewPrometheusExporter(store, 0).CollectMetrics()

	assert.Equal(t, 2.0, testutil.ToFloat64(TrackedServers))
	assert.Equal(t, 1.0, testutil.ToFloat64(PresenceServers))
	assert.Equal(t, 1.0, testutil.ToFloat64(ConsoleEnabledServers))
}

func TestRecordStatus(t *testing.T) {
	srv := models.NewTrackedServer("c:25565", models.ServerTypeJava)
	RecordStatus(77, srv, models.StatusResult{Online: true, Players: 4, MaxPlayers: 10})

	assert.Equal(t, 1.0, testutil.ToFloat64(ServerOnline.WithLabelValues("77", "c:25565", "java")))
	assert.Equal(t, 4.0, testutil.ToFloat64(ServerPlayerCount.WithLabelValues("77", "c:25565", "java")))

	DeleteServerMetrics("77", "c:25565", "java")
	assert.Equal(t, 0.0, testutil.ToFloat64(ServerOnline.WithLabelValues("77", "c:25565", "java")))
}
