package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/payperplay/mcwatch/internal/audit"
	"github.com/payperplay/mcwatch/internal/events"
	"github.com/payperplay/mcwatch/internal/middleware"
	"github.com/payperplay/mcwatch/internal/models"
	"github.com/payperplay/mcwatch/internal/repository"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 1000
)

// EventQuerier reads stored bot events, e.g. the event bus
type EventQuerier interface {
	Query(filters events.EventFilters) ([]events.Event, error)
}

// ServerHandler exposes the tracked server store read-only
type ServerHandler struct {
	store    *repository.ServerStore
	auditLog *audit.ConsoleAuditLog
	events   EventQuerier
}

func NewServerHandler(store *repository.ServerStore, auditLog *audit.ConsoleAuditLog, events EventQuerier) *ServerHandler {
	return &ServerHandler{store: store, auditLog: auditLog, events: events}
}

// ServerResponse is one tracked server. Console passwords never leave the process.
type ServerResponse struct {
	ChannelID      string                 `json:"channel_id"`
	Address        string                 `json:"address"`
	Type           models.ServerType      `json:"type"`
	LastStatus     models.ServerStatus    `json:"last_status"`
	StatusMessage  string                 `json:"status_message_id,omitempty"`
	ShowPlayerList bool                   `json:"show_player_list"`
	ShowInPresence bool                   `json:"show_in_presence"`
	PresenceMode   string                 `json:"presence_mode"`
	RenameChannel  bool                   `json:"rename_channel"`
	Console        *RemoteConsoleResponse `json:"console,omitempty"`
}

// RemoteConsoleResponse is the console block with the password redacted
type RemoteConsoleResponse struct {
	Enabled      bool   `json:"enabled"`
	Host         string `json:"host,omitempty"`
	Port         int    `json:"port,omitempty"`
	PasswordSet  bool   `json:"password_set"`
	LogChannelID string `json:"log_channel_id,omitempty"`
}

func toServerResponse(channelID int64, srv *models.TrackedServer) ServerResponse {
	out := ServerResponse{
		ChannelID:      strconv.FormatInt(channelID, 10),
		Address:        srv.Address,
		Type:           srv.Type,
		LastStatus:     srv.LastStatus,
		ShowPlayerList: srv.ShowPlayerList,
		ShowInPresence: srv.ShowInPresence,
		PresenceMode:   string(srv.PresenceDisplayMode),
		RenameChannel:  srv.RenameChannel,
	}
	if srv.StatusMessageID != nil {
		out.StatusMessage = strconv.FormatInt(*srv.StatusMessageID, 10)
	}
	if rc := srv.RemoteConsole; rc != nil {
		out.Console = &RemoteConsoleResponse{
			Enabled:     rc.Enabled,
			Host:        rc.Host,
			Port:        rc.Port,
			PasswordSet: rc.Password != "",
		}
		if rc.LogChannelID != nil {
			out.Console.LogChannelID = strconv.FormatInt(*rc.LogChannelID, 10)
		}
	}
	return out
}

// ListServers handles GET /api/servers
func (h *ServerHandler) ListServers(c *gin.Context) {
	entries := h.store.Snapshot()
	servers := make([]ServerResponse, 0, len(entries))
	for _, e := range entries {
		servers = append(servers, toServerResponse(e.ChannelID, e.Server))
	}
	c.JSON(http.StatusOK, gin.H{
		"servers": servers,
		"count":   len(servers),
	})
}

// GetServer handles GET /api/servers/:channel_id
func (h *ServerHandler) GetServer(c *gin.Context) {
	channelID, ok := channelParam(c)
	if !ok {
		return
	}
	srv, found := h.store.Get(channelID)
	if !found {
		_ = c.Error(middleware.NewNotFoundError("server"))
		return
	}
	c.JSON(http.StatusOK, toServerResponse(channelID, srv))
}

// ConsoleHistory handles GET /api/servers/:channel_id/console
func (h *ServerHandler) ConsoleHistory(c *gin.Context) {
	channelID, ok := channelParam(c)
	if !ok {
		return
	}
	entries := h.auditLog.GetByChannel(channelID)
	if entries == nil {
		entries = []models.ConsoleAuditEntry{}
	}
	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

// ListEvents handles GET /api/events?type=&channel_id=&since=&limit=
func (h *ServerHandler) ListEvents(c *gin.Context) {
	filters := events.EventFilters{
		ChannelID: c.Query("channel_id"),
		Limit:     defaultEventLimit,
	}

	if raw := c.Query("type"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				filters.Types = append(filters.Types, events.EventType(t))
			}
		}
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			_ = c.Error(middleware.NewBadRequestError("limit must be a positive integer"))
			return
		}
		if limit > maxEventLimit {
			limit = maxEventLimit
		}
		filters.Limit = limit
	}

	if raw := c.Query("since"); raw != "" {
		since, err := time.ParseDuration(raw)
		if err != nil || since <= 0 {
			_ = c.Error(middleware.NewBadRequestError("since must be a duration such as 24h"))
			return
		}
		filters.StartTime = time.Now().Add(-since)
	}

	result, err := h.events.Query(filters)
	if err != nil {
		_ = c.Error(middleware.NewInternalError(err))
		return
	}
	if result == nil {
		result = []events.Event{}
	}
	c.JSON(http.StatusOK, gin.H{
		"events": result,
		"count":  len(result),
	})
}

func channelParam(c *gin.Context) (int64, bool) {
	channelID, err := strconv.ParseInt(c.Param("channel_id"), 10, 64)
	if err != nil || channelID <= 0 {
		_ = c.Error(middleware.NewBadRequestError("invalid channel id"))
		return 0, false
	}
	return channelID, true
}
