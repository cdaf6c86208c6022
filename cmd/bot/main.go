package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/payperplay/mcwatch/internal/api"
	"github.com/payperplay/mcwatch/internal/audit"
	"github.com/payperplay/mcwatch/internal/discord"
	"github.com/payperplay/mcwatch/internal/events"
	"github.com/payperplay/mcwatch/internal/external"
	"github.com/payperplay/mcwatch/internal/i18n"
	"github.com/payperplay/mcwatch/internal/monitoring"
	"github.com/payperplay/mcwatch/internal/repository"
	"github.com/payperplay/mcwatch/internal/service"
	"github.com/payperplay/mcwatch/internal/storage"
	"github.com/payperplay/mcwatch/pkg/config"
	"github.com/payperplay/mcwatch/pkg/logger"
)

const auditLogSize = 1000

func main() {
	cfg := config.Load()

	logCloser, err := logger.Setup(cfg.LogLevel, cfg.LogJSON, cfg.LogFile)
	if err != nil {
		logger.Fatal("Failed to open log file", err, map[string]interface{}{"path": cfg.LogFile})
	}
	defer logCloser.Close()

	logger.Info("Starting application", map[string]interface{}{
		"app":      cfg.AppName,
		"debug":    cfg.Debug,
		"language": cfg.Language,
		"store":    cfg.StorePath,
	})

	if cfg.BotToken == "" {
		logger.Fatal("BOT_TOKEN is required", nil, nil)
	}

	// Tracked server store
	store := repository.NewServerStore(repository.FileBackend{Path: cfg.StorePath}, repository.NewSealer(cfg.StoreSecret))
	if err := store.Load(); err != nil {
		logger.Fatal("Failed to load server store", err, map[string]interface{}{"path": cfg.StorePath})
	}
	logger.Info("Server store loaded", map[string]interface{}{"servers": store.Len()})

	// Optional database: console audit + event storage
	var (
		auditStore   audit.EntryStore
		eventStorage []events.EventStorage
		dbPinger     api.Pinger
	)
	if cfg.DatabaseEnabled() {
		if err := repository.InitDB(cfg); err != nil {
			logger.Warn("Database unavailable, audit and events stay in memory", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			db := repository.GetDB()
			auditStore = repository.NewConsoleAuditRepository(db)
			eventStorage = append(eventStorage, events.NewDatabaseEventStorage(db))
			dbPinger = repository.GetDBProvider()
			defer repository.GetDBProvider().Close()
		}
	}

	// Optional InfluxDB: status history + event storage
	var history service.StatusRecorder
	if cfg.InfluxEnabled() {
		influxClient, err := storage.NewInfluxDBClient(storage.InfluxDBConfig{
			URL:    cfg.InfluxDBURL,
			Token:  cfg.InfluxDBToken,
			Org:    cfg.InfluxDBOrg,
			Bucket: cfg.InfluxDBBucket,
		})
		if err != nil {
			logger.Warn("Failed to initialize InfluxDB, status history disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer influxClient.Close()
			history = influxClient
			eventStorage = append(eventStorage, events.NewInfluxDBEventStorage(influxClient))
			logger.Info("Status history enabled", map[string]interface{}{
				"influxdb_url": cfg.InfluxDBURL,
				"bucket":       cfg.InfluxDBBucket,
			})
		}
	}

	switch len(eventStorage) {
	case 0:
		logger.Info("Event-Bus initialized without storage", nil)
	case 1:
		events.SetEventStorage(eventStorage[0])
	default:
		events.SetEventStorage(events.NewMultiEventStorage(eventStorage...))
	}

	catalog, err := i18n.Load(cfg.Language)
	if err != nil {
		logger.Fatal("Failed to load message catalog", err, map[string]interface{}{"language": cfg.Language})
	}
	if catalog.Language() != cfg.Language {
		logger.Warn("Unknown language, using fallback", map[string]interface{}{
			"requested": cfg.Language,
			"language":  catalog.Language(),
		})
	}
	renderer := service.NewRenderer(catalog)

	// Chat platform
	session, err := discord.NewSession(cfg.BotToken)
	if err != nil {
		logger.Fatal("Failed to create Discord session", err, nil)
	}
	client := discord.NewClient(session)

	prober := monitoring.NewStatusProber(cfg.ProbeTimeout)
	executor := monitoring.NewConsoleExecutor(cfg.RCONTimeout, cfg.RCONDefaultPort)
	auditLog := audit.NewConsoleAuditLog(auditLogSize, auditStore)

	reconciler := service.NewReconcileService(store, client, prober, renderer, history, cfg.ReconcileInterval)
	presence := service.NewPresenceService(store, client, prober, catalog, cfg.PresenceInterval)
	tracker := service.NewTrackerService(store, client, renderer, reconciler)
	console := service.NewConsoleService(store, executor, client, renderer, auditLog)

	gate := discord.NewRoleGate(cfg.AllowedRoleIDs)
	if gate.Size() == 0 {
		logger.Warn("ALLOWED_ROLE_IDS is empty, administrative commands are denied to everyone", nil)
	}

	router := discord.NewRouter(gate, renderer)
	discord.NewMinecraftCommands(tracker, console, renderer, client, cfg.RCONTimeout*2).Register(router)
	discord.NewToolCommands(
		renderer,
		service.NewWebhookService(),
		external.NewEmojiClient(cfg.EmojiAPIURL),
		client,
		discord.DeveloperInfo{UserID: cfg.DeveloperID, Link: cfg.DeveloperLink},
	).Register(router)

	bot := discord.NewBot(session, router, cfg.GuildID)
	if err := bot.Open(); err != nil {
		logger.Fatal("Failed to connect to Discord", err, nil)
	}
	logger.Info("Discord session opened", nil)

	// Background loops
	reconciler.Start()
	presence.Start()

	exporter := monitoring.NewPrometheusExporter(store, 30*time.Second)
	exporter.Start()

	// Ops HTTP
	var httpServer *http.Server
	if cfg.HTTPAddr != "" {
		handler := api.SetupRouter(api.Handlers{
			Health:     api.NewHealthHandler(cfg.AppName, bot, dbPinger),
			Prometheus: api.NewPrometheusHandler(),
			Servers:    api.NewServerHandler(store, auditLog, events.GetEventBus()),
		}, cfg)
		httpServer = api.NewServer(cfg.HTTPAddr, handler)

		go func() {
			logger.Info("Ops HTTP server listening", map[string]interface{}{
				"addr":       cfg.HTTPAddr,
				"api_routes": cfg.OpsToken != "",
			})
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Ops HTTP server failed", err, nil)
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...", nil)

	if httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Warn("Ops HTTP shutdown failed", map[string]interface{}{"error": err.Error()})
		}
		cancel()
	}

	presence.Stop()
	reconciler.Stop()
	exporter.Stop()

	if err := bot.Close(); err != nil {
		logger.Warn("Failed to close Discord session", map[string]interface{}{"error": err.Error()})
	}

	if err := store.Save(); err != nil {
		logger.Error("Failed to save server store", err, nil)
	}

	logger.Info("Shutdown complete", nil)
}
