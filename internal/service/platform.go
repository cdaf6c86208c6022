package service

import (
	"context"

	"github.com/payperplay/mcwatch/internal/models"
)

// ChannelInfo is the subset of a chat channel the services need
type ChannelInfo struct {
	ID      int64
	Name    string
	GuildID string
}

// ChatPlatform is the chat SDK surface used by the reconciliation loop,
// the presence updater and the command services. Implementations map
// platform errors onto ErrChannelNotFound, ErrMessageNotFound and ErrForbidden.
type ChatPlatform interface {
	Channel(ctx context.Context, channelID int64) (ChannelInfo, error)
	MessageExists(ctx context.Context, channelID, messageID int64) error
	SendEmbed(ctx context.Context, channelID int64, embed models.DiscordEmbed) (int64, error)
	EditEmbed(ctx context.Context, channelID, messageID int64, embed models.DiscordEmbed) error
	RenameChannel(ctx context.Context, channelID int64, name string) error
	// SetWatchingActivity sets a "watching" activity; empty text clears it
	SetWatchingActivity(ctx context.Context, text string) error
}

// StatusProber never fails; unreachable servers yield an offline result
type StatusProber interface {
	Probe(ctx context.Context, serverType models.ServerType, address string) models.StatusResult
}

// ConsoleRunner runs one remote console command; ok is false when the console
// is not configured or the command failed
type ConsoleRunner interface {
	Execute(ctx context.Context, srv *models.TrackedServer, command string) (result string, ok bool)
}
