package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/payperplay/mcwatch/internal/events"
	"github.com/payperplay/mcwatch/internal/models"
	"github.com/payperplay/mcwatch/internal/repository"
	"github.com/payperplay/mcwatch/pkg/logger"
)

// RegisterRequest carries the add_server options
type RegisterRequest struct {
	ChannelID      int64
	UserID         string
	Address        string
	Type           string
	ShowPlayers    bool
	ShowInPresence bool
	DisplayMode    string
}

// SettingsInput is the raw content of the settings form. An empty console
// port or password disables the remote console.
type SettingsInput struct {
	Address         string
	Type            string
	ConsolePort     string
	ConsolePassword string
	LogChannel      string
}

// TrackerService implements registration and the settings view
type TrackerService struct {
	store      *repository.ServerStore
	platform   ChatPlatform
	renderer   *Renderer
	reconciler *ReconcileService
}

func NewTrackerService(store *repository.ServerStore, platform ChatPlatform, renderer *Renderer, reconciler *ReconcileService) *TrackerService {
	return &TrackerService{
		store:      store,
		platform:   platform,
		renderer:   renderer,
		reconciler: reconciler,
	}
}

// Register creates a tracked server for a channel, posts the placeholder and
// renders it once.
func (s *TrackerService) Register(ctx context.Context, req RegisterRequest) (*models.TrackedServer, error) {
	if s.store.Has(req.ChannelID) {
		return nil, ErrAlreadyTracked
	}

	serverType, err := parseServerType(req.Type)
	if err != nil {
		return nil, err
	}

	address, err := models.ParseAddress(req.Address, serverType)
	if err != nil {
		return nil, err
	}

	srv := models.NewTrackedServer(address, serverType)
	srv.ShowPlayerList = req.ShowPlayers
	srv.ShowInPresence = req.ShowInPresence
	if models.PresenceDisplayMode(req.DisplayMode) == models.DisplayAddress {
		srv.PresenceDisplayMode = models.DisplayAddress
	}

	if err := s.store.Create(req.ChannelID, srv); err != nil {
		return nil, err
	}

	messageID, err := s.platform.SendEmbed(ctx, req.ChannelID, s.renderer.Placeholder(srv))
	if err != nil {
		logger.Warn("Failed to post placeholder", map[string]interface{}{
			"channel_id": req.ChannelID,
			"error":      err.Error(),
		})
	} else if err := s.store.SetStatusMessage(req.ChannelID, messageID); err != nil {
		logger.Error("Failed to save status message id", err, map[string]interface{}{
			"channel_id": req.ChannelID,
		})
	}

	if err := s.reconciler.RenderOnce(ctx, req.ChannelID); err != nil {
		logger.Warn("Initial render failed", map[string]interface{}{
			"channel_id": req.ChannelID,
			"error":      err.Error(),
		})
	}

	events.PublishServerRegistered(req.ChannelID, req.UserID, address, string(serverType))
	logger.Info("Server registered", map[string]interface{}{
		"channel_id": req.ChannelID,
		"address":    address,
		"type":       serverType,
		"user_id":    req.UserID,
	})

	if current, ok := s.store.Get(req.ChannelID); ok {
		return current, nil
	}
	return srv, nil
}

// List returns every tracked server in store order
func (s *TrackerService) List() []repository.StoreEntry {
	return s.store.Snapshot()
}

// Get returns one tracked server
func (s *TrackerService) Get(channelID int64) (*models.TrackedServer, error) {
	srv, ok := s.store.Get(channelID)
	if !ok {
		return nil, ErrNotTracked
	}
	return srv, nil
}

// UpdateSettings applies the settings form, saves and renders once
func (s *TrackerService) UpdateSettings(ctx context.Context, channelID int64, userID string, input SettingsInput) (*models.TrackedServer, error) {
	updated, err := s.store.Update(channelID, func(srv *models.TrackedServer) error {
		return applySettings(srv, input)
	})
	if err != nil {
		return nil, err
	}

	s.afterChange(ctx, channelID, userID, "settings")
	return updated, nil
}

// ToggleDisplayMode switches the presence label between players and address
func (s *TrackerService) ToggleDisplayMode(ctx context.Context, channelID int64, userID string) (*models.TrackedServer, error) {
	return s.toggle(ctx, channelID, userID, "display_mode", func(srv *models.TrackedServer) {
		if srv.PresenceDisplayMode == models.DisplayAddress {
			srv.PresenceDisplayMode = models.DisplayPlayers
		} else {
			srv.PresenceDisplayMode = models.DisplayAddress
		}
	})
}

// TogglePresence flips whether the server appears in the bot presence
func (s *TrackerService) TogglePresence(ctx context.Context, channelID int64, userID string) (*models.TrackedServer, error) {
	return s.toggle(ctx, channelID, userID, "show_in_presence", func(srv *models.TrackedServer) {
		srv.ShowInPresence = !srv.ShowInPresence
	})
}

// ToggleRename flips channel renaming
func (s *TrackerService) ToggleRename(ctx context.Context, channelID int64, userID string) (*models.TrackedServer, error) {
	return s.toggle(ctx, channelID, userID, "rename_channel", func(srv *models.TrackedServer) {
		srv.RenameChannel = !srv.RenameChannel
	})
}

// Delete untracks a channel. The status message is left in place.
func (s *TrackerService) Delete(channelID int64, userID string) error {
	srv, ok := s.store.Get(channelID)
	if !ok {
		return ErrNotTracked
	}

	removed, err := s.store.Delete(channelID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrNotTracked
	}

	events.PublishServerRemoved(channelID, userID, srv.Address, "deleted")
	logger.Info("Server deleted", map[string]interface{}{
		"channel_id": channelID,
		"address":    srv.Address,
		"user_id":    userID,
	})
	return nil
}

func (s *TrackerService) toggle(ctx context.Context, channelID int64, userID, change string, fn func(*models.TrackedServer)) (*models.TrackedServer, error) {
	updated, err := s.store.Update(channelID, func(srv *models.TrackedServer) error {
		fn(srv)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterChange(ctx, channelID, userID, change)
	return updated, nil
}

func (s *TrackerService) afterChange(ctx context.Context, channelID int64, userID, change string) {
	events.PublishServerUpdated(channelID, userID, change)

	if err := s.reconciler.RenderOnce(ctx, channelID); err != nil && !errors.Is(err, ErrNotTracked) {
		logger.Warn("Render after settings change failed", map[string]interface{}{
			"channel_id": channelID,
			"change":     change,
			"error":      err.Error(),
		})
	}
}

func applySettings(srv *models.TrackedServer, input SettingsInput) error {
	serverType := srv.Type
	if strings.TrimSpace(input.Type) != "" {
		t, err := parseServerType(input.Type)
		if err != nil {
			return err
		}
		serverType = t
	}

	address := srv.Address
	if strings.TrimSpace(input.Address) != "" {
		a, err := models.ParseAddress(input.Address, serverType)
		if err != nil {
			return err
		}
		address = a
	}

	console, err := parseConsole(input)
	if err != nil {
		return err
	}

	srv.Type = serverType
	srv.Address = address
	srv.RemoteConsole = console
	return nil
}

// parseConsole builds the remote console block; port accepts "port" or "host:port"
func parseConsole(input SettingsInput) (*models.RemoteConsole, error) {
	portText := strings.TrimSpace(input.ConsolePort)
	password := strings.TrimSpace(input.ConsolePassword)
	if portText == "" || password == "" {
		return &models.RemoteConsole{Enabled: false}, nil
	}

	console := &models.RemoteConsole{Enabled: true, Password: password}

	if strings.Contains(portText, ":") {
		host, port, err := net.SplitHostPort(portText)
		if err != nil || host == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidConsolePort, portText)
		}
		console.Host = host
		portText = port
	}

	port, err := strconv.Atoi(portText)
	if err != nil || port < 1 || port > 65535 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidConsolePort, portText)
	}
	console.Port = port

	if logText := strings.TrimSpace(input.LogChannel); logText != "" {
		id, err := strconv.ParseInt(logText, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidLogChannel, logText)
		}
		console.LogChannelID = &id
	}

	return console, nil
}

func parseServerType(raw string) (models.ServerType, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return models.ServerTypeJava, nil
	}
	t := models.ServerType(raw)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidServerType, raw)
	}
	return t, nil
}
