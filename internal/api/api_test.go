package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/payperplay/mcwatch/internal/audit"
	"github.com/payperplay/mcwatch/internal/events"
	"github.com/payperplay/mcwatch/internal/models"
	"github.com/payperplay/mcwatch/internal/repository"
	"github.com/payperplay/mcwatch/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "ops-token"

type readyFlag bool

func (r readyFlag) Ready() bool { return bool(r) }

type pingFunc func() error

func (f pingFunc) Ping() error { return f() }

type fakeEvents struct {
	filters events.EventFilters
	result  []events.Event
	err     error
}

func (f *fakeEvents) Query(filters events.EventFilters) ([]events.Event, error) {
	f.filters = filters
	return f.result, f.err
}

type testServer struct {
	router   *gin.Engine
	store    *repository.ServerStore
	auditLog *audit.ConsoleAuditLog
	events   *fakeEvents
}

func newTestServer(t *testing.T, ready bool, db Pinger) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewServerStore(repository.FileBackend{Path: filepath.Join(t.TempDir(), "servers.json")}, nil)
	require.NoError(t, store.Load())

	srv := models.NewTrackedServer("play.example.com", models.ServerTypeJava)
	srv.ShowInPresence = true
	logChannel := int64(777)
	srv.RemoteConsole = &models.RemoteConsole{Enabled: true, Port: 25575, Password: "hunter2", LogChannelID: &logChannel}
	require.NoError(t, store.Create(1061998983158964285, srv))

	auditLog := audit.NewConsoleAuditLog(10, nil)
	evts := &fakeEvents{}

	registry := prometheus.NewRegistry()
	cfg := &config.Config{AppName: "mcwatch", OpsToken: testToken}
	router := SetupRouter(Handlers{
		Health:     NewHealthHandler(cfg.AppName, readyFlag(ready), db),
		Prometheus: NewPrometheusHandlerFor(registry),
		Servers:    NewServerHandler(store, auditLog, evts),
	}, cfg)

	return &testServer{router: router, store: store, auditLog: auditLog, events: evts}
}

func (s *testServer) get(path string, authorized bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorized {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestProbes(t *testing.T) {
	s := newTestServer(t, true, nil)

	assert.Equal(t, http.StatusOK, s.get("/health", false).Code)
	assert.Equal(t, http.StatusOK, s.get("/live", false).Code)

	w := s.get("/ready", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"gateway":"connected"`)
}

func TestReadyRequiresGateway(t *testing.T) {
	s := newTestServer(t, false, nil)

	w := s.get("/ready", false)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "gateway_disconnected")
}

func TestReadyChecksDatabase(t *testing.T) {
	s := newTestServer(t, true, pingFunc(func() error { return errors.New("connection refused") }))

	w := s.get("/ready", false)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "database_unavailable")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, true, nil)

	w := s.get("/metrics", false)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServersRequireToken(t *testing.T) {
	s := newTestServer(t, true, nil)

	assert.Equal(t, http.StatusUnauthorized, s.get("/api/servers", false).Code)
}

func TestListServersRedactsPasswords(t *testing.T) {
	s := newTestServer(t, true, nil)

	w := s.get("/api/servers", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "hunter2")

	var body struct {
		Servers []ServerResponse `json:"servers"`
		Count   int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)

	got := body.Servers[0]
	assert.Equal(t, "1061998983158964285", got.ChannelID)
	assert.Equal(t, "play.example.com", got.Address)
	assert.Equal(t, models.StatusUnknown, got.LastStatus)
	assert.True(t, got.ShowInPresence)
	require.NotNil(t, got.Console)
	assert.True(t, got.Console.PasswordSet)
	assert.Equal(t, "777", got.Console.LogChannelID)
}

func TestGetServer(t *testing.T) {
	s := newTestServer(t, true, nil)

	assert.Equal(t, http.StatusOK, s.get("/api/servers/1061998983158964285", true).Code)
	assert.Equal(t, http.StatusNotFound, s.get("/api/servers/42", true).Code)
	assert.Equal(t, http.StatusBadRequest, s.get("/api/servers/abc", true).Code)
}

func TestConsoleHistory(t *testing.T) {
	s := newTestServer(t, true, nil)
	s.auditLog.RecordCommand(1061998983158964285, "play.example.com", "9", "list", "There are 0 players", true)
	s.auditLog.RecordCommand(5, "other.example", "9", "stop", "", false)

	w := s.get("/api/servers/1061998983158964285/console", true)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Entries []models.ConsoleAuditEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Entries, 1)
	assert.Equal(t, "list", body.Entries[0].Command)
}

func TestListEventsFilters(t *testing.T) {
	s := newTestServer(t, true, nil)
	s.events.result = []events.Event{{ID: "e1", Type: events.EventServerOnline}}

	before := time.Now()
	w := s.get("/api/events?type=server.online,server.offline&channel_id=42&limit=5000&since=1h", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	f := s.events.filters
	assert.Equal(t, []events.EventType{events.EventServerOnline, events.EventServerOffline}, f.Types)
	assert.Equal(t, "42", f.ChannelID)
	assert.Equal(t, maxEventLimit, f.Limit)
	assert.WithinDuration(t, before.Add(-time.Hour), f.StartTime, 5*time.Second)
}

func TestListEventsRejectsBadQuery(t *testing.T) {
	s := newTestServer(t, true, nil)

	assert.Equal(t, http.StatusBadRequest, s.get("/api/events?limit=-1", true).Code)
	assert.Equal(t, http.StatusBadRequest, s.get("/api/events?since=yesterday", true).Code)

	s.events.err = errors.New("influx down")
	assert.Equal(t, http.StatusInternalServerError, s.get("/api/events", true).Code)
}

func TestAPIUnmountedWithoutToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := repository.NewServerStore(repository.FileBackend{Path: filepath.Join(t.TempDir(), "servers.json")}, nil)
	router := SetupRouter(Handlers{
		Health:     NewHealthHandler("mcwatch", readyFlag(true), nil),
		Prometheus: NewPrometheusHandlerFor(prometheus.NewRegistry()),
		Servers:    NewServerHandler(store, audit.NewConsoleAuditLog(10, nil), &fakeEvents{}),
	}, &config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/api/servers", nil)
	req.Header.Set("Authorization", "Bearer ")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
