package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/payperplay/mcwatch/internal/events"
	"github.com/payperplay/mcwatch/internal/models"
	"github.com/payperplay/mcwatch/internal/monitoring"
	"github.com/payperplay/mcwatch/internal/repository"
	"github.com/payperplay/mcwatch/internal/storage"
	"github.com/payperplay/mcwatch/pkg/logger"
	"github.com/scylladb/go-set/i64set"
)

// StatusRecorder receives every probe outcome, e.g. storage.InfluxDBClient
type StatusRecorder interface {
	WriteStatusSample(sample storage.StatusSample)
}

// TickResult summarizes one reconciliation tick
type TickResult struct {
	Checked int
	Removed []int64
}

// ReconcileService keeps status messages, channel names and the store in
// line with what the tracked servers report.
type ReconcileService struct {
	store    *repository.ServerStore
	platform ChatPlatform
	prober   StatusProber
	renderer *Renderer
	history  StatusRecorder
	interval time.Duration

	// renderMu serializes ticks with render passes triggered by commands
	renderMu sync.Mutex

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewReconcileService creates the reconciliation loop; history may be nil
func NewReconcileService(
	store *repository.ServerStore,
	platform ChatPlatform,
	prober StatusProber,
	renderer *Renderer,
	history StatusRecorder,
	interval time.Duration,
) *ReconcileService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ReconcileService{
		store:    store,
		platform: platform,
		prober:   prober,
		renderer: renderer,
		history:  history,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the reconciliation loop
func (s *ReconcileService) Start() {
	s.wg.Add(1)
	go s.reconcileLoop()
	logger.Info("Reconciliation service started", map[string]interface{}{
		"interval": s.interval.String(),
	})
}

// Stop stops the loop and waits for an in-flight tick
func (s *ReconcileService) Stop() {
	close(s.stopChan)
	s.wg.Wait()
	logger.Info("Reconciliation service stopped", nil)
}

func (s *ReconcileService) reconcileLoop() {
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Initial tick
	s.Tick(ctx)

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one pass over every tracked channel. Channels are processed
// sequentially. Channels whose channel or status message vanished are
// removed at the end with a single save.
func (s *ReconcileService) Tick(ctx context.Context) TickResult {
	start := time.Now()
	defer func() {
		monitoring.ReconcileDuration.Observe(time.Since(start).Seconds())
	}()

	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	removals := i64set.New()
	reasons := make(map[int64]string)
	result := TickResult{}

	for _, entry := range s.store.Snapshot() {
		if ctx.Err() != nil {
			break
		}
		channelID := entry.ChannelID
		result.Checked++

		channel, err := s.platform.Channel(ctx, channelID)
		if err != nil {
			if errors.Is(err, ErrChannelNotFound) {
				removals.Add(channelID)
				reasons[channelID] = "channel_missing"
				continue
			}
			logger.Warn("Failed to resolve channel, skipping this tick", map[string]interface{}{
				"channel_id": channelID,
				"error":      err.Error(),
			})
			continue
		}

		// Re-read: a command may have changed the record since the snapshot
		srv, ok := s.store.Get(channelID)
		if !ok {
			continue
		}

		if srv.StatusMessageID != nil {
			err := s.platform.MessageExists(ctx, channelID, *srv.StatusMessageID)
			switch {
			case err == nil, errors.Is(err, ErrForbidden):
			case errors.Is(err, ErrMessageNotFound):
				removals.Add(channelID)
				reasons[channelID] = "message_missing"
				continue
			default:
				logger.Warn("Failed to fetch status message", map[string]interface{}{
					"channel_id": channelID,
					"error":      err.Error(),
				})
			}
		}

		s.render(ctx, channel, srv)
	}

	if !removals.IsEmpty() {
		result.Removed = s.removeChannels(removals, reasons)
	}

	logger.Debug("Reconciliation tick finished", map[string]interface{}{
		"checked":  result.Checked,
		"removed":  len(result.Removed),
		"duration": time.Since(start).String(),
	})

	return result
}

func (s *ReconcileService) removeChannels(removals *i64set.Set, reasons map[int64]string) []int64 {
	ids := removals.List()
	removedServers := make(map[int64]*models.TrackedServer, len(ids))
	for _, id := range ids {
		if srv, ok := s.store.Get(id); ok {
			removedServers[id] = srv
		}
	}

	if _, err := s.store.Delete(ids...); err != nil {
		logger.Error("Failed to save store after removing channels", err, map[string]interface{}{
			"channels": ids,
		})
	}

	for _, id := range ids {
		srv, ok := removedServers[id]
		if !ok {
			continue
		}
		monitoring.RemovedChannelsTotal.Inc()
		monitoring.DeleteServerMetrics(strconv.FormatInt(id, 10), srv.Address, string(srv.Type))
		events.PublishServerRemoved(id, "", srv.Address, reasons[id])
		logger.Info("Channel untracked", map[string]interface{}{
			"channel_id": id,
			"address":    srv.Address,
			"reason":     reasons[id],
		})
	}

	return ids
}

// RenderOnce probes and renders a single channel outside the timer
func (s *ReconcileService) RenderOnce(ctx context.Context, channelID int64) error {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	srv, ok := s.store.Get(channelID)
	if !ok {
		return ErrNotTracked
	}

	channel, err := s.platform.Channel(ctx, channelID)
	if err != nil {
		return err
	}

	s.render(ctx, channel, srv)
	return nil
}

// render probes, renames, posts or edits the status message and records the status
func (s *ReconcileService) render(ctx context.Context, channel ChannelInfo, srv *models.TrackedServer) {
	result := s.prober.Probe(ctx, srv.Type, srv.Address)
	s.recordSample(channel.ID, srv, result)

	embed := s.renderer.Status(srv, result)

	if srv.RenameChannel {
		slug := srv.ChannelSlug(result.Online)
		if channel.Name != slug {
			if err := s.platform.RenameChannel(ctx, channel.ID, slug); err != nil {
				logger.Debug("Channel rename failed", map[string]interface{}{
					"channel_id": channel.ID,
					"name":       slug,
					"error":      err.Error(),
				})
			}
		}
	}

	s.postOrUpdate(ctx, channel.ID, srv, embed)

	status := result.Status()
	if prev, ok := s.store.SetLastStatus(channel.ID, status); ok && prev != status {
		monitoring.StatusTransitionsTotal.WithLabelValues(string(status)).Inc()
		events.PublishStatusChanged(channel.ID, srv.Address, result.Online, result.Players, result.MaxPlayers)
	}
}

func (s *ReconcileService) postOrUpdate(ctx context.Context, channelID int64, srv *models.TrackedServer, embed models.DiscordEmbed) {
	if srv.StatusMessageID != nil {
		err := s.platform.EditEmbed(ctx, channelID, *srv.StatusMessageID, embed)
		switch {
		case err == nil:
			return
		case errors.Is(err, ErrForbidden):
			return
		case !errors.Is(err, ErrMessageNotFound):
			logger.Error("Failed to update status message", err, map[string]interface{}{
				"channel_id": channelID,
			})
			return
		}
		// The message is gone: post a fresh one below
	}

	messageID, err := s.platform.SendEmbed(ctx, channelID, embed)
	if err != nil {
		if !errors.Is(err, ErrForbidden) {
			logger.Error("Failed to send status message", err, map[string]interface{}{
				"channel_id": channelID,
			})
		}
		return
	}

	if err := s.store.SetStatusMessage(channelID, messageID); err != nil && !errors.Is(err, ErrNotTracked) {
		logger.Error("Failed to save status message id", err, map[string]interface{}{
			"channel_id": channelID,
		})
	}
}

func (s *ReconcileService) recordSample(channelID int64, srv *models.TrackedServer, result models.StatusResult) {
	monitoring.RecordStatus(channelID, srv, result)

	if s.history == nil {
		return
	}
	s.history.WriteStatusSample(storage.StatusSample{
		ChannelID:  strconv.FormatInt(channelID, 10),
		Address:    srv.Address,
		Type:       string(srv.Type),
		Online:     result.Online,
		Players:    result.Players,
		MaxPlayers: result.MaxPlayers,
		LatencyMs:  result.LatencyMs(),
		Timestamp:  time.Now(),
	})
}
