package service

import (
	"context"
	"strings"

	"github.com/payperplay/mcwatch/internal/audit"
	"github.com/payperplay/mcwatch/internal/events"
	"github.com/payperplay/mcwatch/internal/models"
	"github.com/payperplay/mcwatch/internal/repository"
	"github.com/payperplay/mcwatch/pkg/logger"
)

// ConsoleResult is the outcome of one remote console command
type ConsoleResult struct {
	Output  string
	Success bool
	Logged  bool
}

// ConsoleService forwards admin commands to the remote console of the
// server tracked in a channel.
type ConsoleService struct {
	store    *repository.ServerStore
	runner   ConsoleRunner
	platform ChatPlatform
	renderer *Renderer
	auditLog *audit.ConsoleAuditLog
}

func NewConsoleService(
	store *repository.ServerStore,
	runner ConsoleRunner,
	platform ChatPlatform,
	renderer *Renderer,
	auditLog *audit.ConsoleAuditLog,
) *ConsoleService {
	return &ConsoleService{
		store:    store,
		runner:   runner,
		platform: platform,
		renderer: renderer,
		auditLog: auditLog,
	}
}

// Prepare validates that the channel has a usable console. It is called
// before the command is acknowledged.
func (s *ConsoleService) Prepare(channelID int64) (*models.TrackedServer, error) {
	srv, ok := s.store.Get(channelID)
	if !ok {
		return nil, ErrNotTracked
	}
	if !srv.RemoteConsole.Usable() {
		return nil, ErrRemoteConsoleDisabled
	}
	return srv, nil
}

// Run executes the command, records it and mirrors it to the log channel
func (s *ConsoleService) Run(ctx context.Context, channelID int64, userID, command string) (ConsoleResult, error) {
	srv, err := s.Prepare(channelID)
	if err != nil {
		return ConsoleResult{}, err
	}

	command = strings.TrimPrefix(strings.TrimSpace(command), "/")

	output, ok := s.runner.Execute(ctx, srv, command)
	result := ConsoleResult{Output: output, Success: ok}

	if s.auditLog != nil {
		s.auditLog.RecordCommand(channelID, srv.Address, userID, command, output, ok)
	}
	events.PublishConsoleCommand(channelID, userID, command, ok)

	if logChannel := srv.RemoteConsole.LogChannelID; logChannel != nil {
		embed := s.renderer.ConsoleLog(srv, userID, command, output)
		if _, err := s.platform.SendEmbed(ctx, *logChannel, embed); err != nil {
			logger.Warn("Failed to mirror console command", map[string]interface{}{
				"channel_id":     channelID,
				"log_channel_id": *logChannel,
				"error":          err.Error(),
			})
		} else {
			result.Logged = true
		}
	}

	return result, nil
}
