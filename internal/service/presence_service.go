package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/payperplay/mcwatch/internal/i18n"
	"github.com/payperplay/mcwatch/internal/models"
	"github.com/payperplay/mcwatch/internal/repository"
	"github.com/payperplay/mcwatch/pkg/logger"
)

// PresenceSeparator joins the per-server labels
const PresenceSeparator = " | "

// PresenceService aggregates tracked servers into the bot's activity
type PresenceService struct {
	store    *repository.ServerStore
	platform ChatPlatform
	prober   StatusProber
	catalog  *i18n.Catalog
	interval time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewPresenceService(
	store *repository.ServerStore,
	platform ChatPlatform,
	prober StatusProber,
	catalog *i18n.Catalog,
	interval time.Duration,
) *PresenceService {
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	return &PresenceService{
		store:    store,
		platform: platform,
		prober:   prober,
		catalog:  catalog,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins periodic presence updates
func (s *PresenceService) Start() {
	s.wg.Add(1)
	go func() {
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

		s.update(ctx)

		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.update(ctx)
			}
		}
	}()

	logger.Info("Presence service started", map[string]interface{}{
		"interval": s.interval.String(),
	})
}

// Stop stops the presence updates
func (s *PresenceService) Stop() {
	close(s.stopChan)
	s.wg.Wait()
	logger.Info("Presence service stopped", nil)
}

func (s *PresenceService) update(ctx context.Context) {
	if _, err := s.Update(ctx); err != nil {
		logger.Warn("Failed to update presence", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// Update composes and applies the activity text. An empty text means no
// server is shown and the activity is cleared.
func (s *PresenceService) Update(ctx context.Context) (string, error) {
	text := strings.Join(s.Labels(ctx), PresenceSeparator)
	if err := s.platform.SetWatchingActivity(ctx, text); err != nil {
		return text, err
	}
	return text, nil
}

// Labels returns one label per server shown in presence, in store order.
// Online servers in players mode are probed again for a live count.
func (s *PresenceService) Labels(ctx context.Context) []string {
	var labels []string

	for _, entry := range s.store.Snapshot() {
		srv := entry.Server
		if !srv.ShowInPresence {
			continue
		}

		label := srv.DisplayAddress()
		if srv.PresenceDisplayMode == models.DisplayPlayers && srv.LastStatus == models.StatusOnline {
			result := s.prober.Probe(ctx, srv.Type, srv.Address)
			if result.Online {
				label = fmt.Sprintf("%s: %d👥", label, result.Players)
			} else {
				label = fmt.Sprintf("%s: %s", label, s.catalog.T("presence.offline"))
			}
		}
		labels = append(labels, label)
	}

	return labels
}
