package service

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/payperplay/mcwatch/internal/audit"
	"github.com/payperplay/mcwatch/internal/i18n"
	"github.com/payperplay/mcwatch/internal/models"
	"github.com/payperplay/mcwatch/internal/repository"
)

// Discord limits
const (
	maxFieldValue  = 1024
	maxEmbedFields = 25
	maxLogResult   = 1000
)

// Renderer builds the localized embeds shown in chat
type Renderer struct {
	catalog *i18n.Catalog
}

func NewRenderer(catalog *i18n.Catalog) *Renderer {
	return &Renderer{catalog: catalog}
}

// Catalog exposes the message catalog to the command layer
func (r *Renderer) Catalog() *i18n.Catalog {
	return r.catalog
}

// Placeholder is posted right after registration, before the first probe
func (r *Renderer) Placeholder(srv *models.TrackedServer) models.DiscordEmbed {
	return models.DiscordEmbed{
		Title:       r.catalog.T("status.placeholder_title", srv.Address),
		Description: r.catalog.T("status.placeholder_description"),
		Color:       models.ColorOrange,
	}
}

// Status renders a probe result
func (r *Renderer) Status(srv *models.TrackedServer, result models.StatusResult) models.DiscordEmbed {
	if !result.Online {
		return models.DiscordEmbed{
			Title:       r.catalog.T("status.offline_title", srv.Address),
			Description: r.catalog.T("status.offline_description"),
			Color:       models.ColorRed,
			Timestamp:   time.Now().Format(time.RFC3339),
		}
	}

	embed := models.DiscordEmbed{
		Title: r.catalog.T("status.online_title", srv.Address),
		Description: r.catalog.T("status.online_description",
			result.Version, result.Players, result.MaxPlayers, result.LatencyMs()),
		Color:     models.ColorGreen,
		Timestamp: time.Now().Format(time.RFC3339),
	}

	if srv.ShowPlayerList && len(result.PlayerNames) > 0 {
		embed = embed.AddField(r.catalog.T("status.players_field"), clip(strings.Join(result.PlayerNames, "\n"), maxFieldValue), false)
	}

	return embed
}

// ConsoleLog mirrors a remote console command to the configured log channel
func (r *Renderer) ConsoleLog(srv *models.TrackedServer, userID, command, result string) models.DiscordEmbed {
	embed := models.DiscordEmbed{
		Title: r.catalog.T("console.log_title"),
		Color: models.ColorBlue,
	}
	embed = embed.AddField(r.catalog.T("console.log_server"), srv.Address, false)
	embed = embed.AddField(r.catalog.T("console.log_user"), "<@"+userID+">", false)
	embed = embed.AddField(r.catalog.T("console.log_command"), "`/"+command+"`", false)
	if result != "" {
		embed = embed.AddField(r.catalog.T("console.log_result"), "```"+audit.Truncate(result, maxLogResult)+"```", false)
	}
	return embed
}

// ServerList renders the read-only list; mention resolves a channel id to a
// mention, returning "" when the channel no longer exists
func (r *Renderer) ServerList(entries []repository.StoreEntry, mention func(channelID int64) string) models.DiscordEmbed {
	if len(entries) == 0 {
		return models.DiscordEmbed{
			Title:       r.catalog.T("list.empty_title"),
			Description: r.catalog.T("errors.no_servers"),
			Color:       models.ColorBlue,
		}
	}

	embed := models.DiscordEmbed{
		Title: r.catalog.T("list.title"),
		Color: models.ColorBlue,
	}

	for i, entry := range entries {
		if i == maxEmbedFields {
			break
		}
		srv := entry.Server

		channel := mention(entry.ChannelID)
		if channel == "" {
			channel = r.catalog.T("list.deleted_channel", entry.ChannelID)
		}

		display := r.catalog.T("list.display_players")
		if srv.PresenceDisplayMode == models.DisplayAddress {
			display = r.catalog.T("list.display_ip")
		}

		embed = embed.AddField(
			r.catalog.T("list.field_name", strings.ToUpper(string(srv.Type)), srv.Address),
			r.catalog.T("list.field_value",
				channel,
				r.statusText(srv.LastStatus),
				r.catalog.YesNo(srv.ShowPlayerList),
				r.enabledText(srv.RemoteConsole.Usable()),
				r.catalog.YesNo(srv.ShowInPresence),
				display,
			),
			false,
		)
	}

	return embed
}

// Settings describes a server in the settings view
func (r *Renderer) Settings(srv *models.TrackedServer) models.DiscordEmbed {
	display := r.catalog.T("list.display_players")
	if srv.PresenceDisplayMode == models.DisplayAddress {
		display = r.catalog.T("list.display_ip")
	}

	return models.DiscordEmbed{
		Title: r.catalog.T("settings.view_title", srv.Address),
		Description: r.catalog.T("settings.view_description",
			srv.Type,
			display,
			r.catalog.YesNo(srv.ShowInPresence),
			r.catalog.YesNo(srv.RenameChannel),
			r.enabledText(srv.RemoteConsole.Usable()),
		),
		Color: models.ColorBlue,
	}
}

// Notice is a plain titled message
func (r *Renderer) Notice(title, description string, color int) models.DiscordEmbed {
	return models.DiscordEmbed{Title: title, Description: description, Color: color}
}

// Error renders a user-facing error
func (r *Renderer) Error(description string) models.DiscordEmbed {
	return models.DiscordEmbed{
		Title:       r.catalog.T("errors.title"),
		Description: description,
		Color:       models.ColorRed,
	}
}

func (r *Renderer) statusText(status models.ServerStatus) string {
	if status == "" || status == models.StatusUnknown {
		return r.catalog.T("common.unknown")
	}
	return string(status)
}

func (r *Renderer) enabledText(v bool) string {
	if v {
		return r.catalog.T("common.enabled")
	}
	return r.catalog.T("common.disabled")
}

// clip cuts s to at most n bytes without splitting a rune
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := s[:n-3]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut + "..."
}

// ErrorMessageKey maps a service error to its catalog key
func ErrorMessageKey(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAlreadyTracked):
		return "errors.already_tracked"
	case errors.Is(err, ErrNotTracked):
		return "errors.not_tracked"
	case errors.Is(err, ErrInvalidPort):
		return "errors.invalid_port"
	case errors.Is(err, ErrInvalidAddress):
		return "errors.invalid_address"
	case errors.Is(err, ErrInvalidServerType):
		return "errors.invalid_type"
	case errors.Is(err, ErrInvalidLogChannel):
		return "errors.invalid_log_channel"
	case errors.Is(err, ErrInvalidChannelID):
		return "errors.invalid_channel_id"
	case errors.Is(err, ErrInvalidConsolePort):
		return "errors.invalid_console_port"
	case errors.Is(err, ErrRemoteConsoleDisabled):
		return "errors.rcon_disabled"
	default:
		return "errors.generic"
	}
}
