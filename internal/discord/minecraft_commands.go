package discord

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/payperplay/mcwatch/internal/models"
	"github.com/payperplay/mcwatch/internal/repository"
	"github.com/payperplay/mcwatch/internal/service"
	"github.com/payperplay/mcwatch/pkg/logger"
)

// Mentioner renders a channel mention, "" when the channel is gone
type Mentioner interface {
	Mention(ctx context.Context, channelID int64) string
}

// MinecraftCommands holds add_server, command, server_list, action and the settings view
type MinecraftCommands struct {
	tracker        *service.TrackerService
	console        *service.ConsoleService
	renderer       *service.Renderer
	mentioner      Mentioner
	consoleTimeout time.Duration
}

func NewMinecraftCommands(
	tracker *service.TrackerService,
	console *service.ConsoleService,
	renderer *service.Renderer,
	mentioner Mentioner,
	consoleTimeout time.Duration,
) *MinecraftCommands {
	if consoleTimeout <= 0 {
		consoleTimeout = 10 * time.Second
	}
	return &MinecraftCommands{
		tracker:        tracker,
		console:        console,
		renderer:       renderer,
		mentioner:      mentioner,
		consoleTimeout: consoleTimeout,
	}
}

// Register adds the commands and the settings components to the router
func (m *MinecraftCommands) Register(r *Router) {
	r.AddCommand(Command{Definition: addServerDefinition, Admin: true, Handler: m.addServer})
	r.AddCommand(Command{Definition: commandDefinition, Admin: true, Handler: m.command})
	r.AddCommand(Command{Definition: serverListDefinition, Admin: true, Handler: m.serverList})
	r.AddCommand(Command{Definition: actionDefinition, Admin: true, Handler: m.action})
	m.registerSettings(r)
}

var addServerDefinition = &discordgo.ApplicationCommand{
	Name:        "add_server",
	Description: "Track a Minecraft server in a channel",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:         discordgo.ApplicationCommandOptionChannel,
			Name:         "channel",
			Description:  "Channel for the status message",
			ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
			Required:     true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "address",
			Description: "Server address (host or host:port)",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "server_type",
			Description: "Server edition",
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "java", Value: string(models.ServerTypeJava)},
				{Name: "bedrock", Value: string(models.ServerTypeBedrock)},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "show_players",
			Description: "List online player names",
		},
		{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "show_in_status",
			Description: "Show the server in the bot status",
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "display_in_status",
			Description: "What the bot status shows",
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "players", Value: string(models.DisplayPlayers)},
				{Name: "ip", Value: string(models.DisplayAddress)},
			},
		},
	},
}

var commandDefinition = &discordgo.ApplicationCommand{
	Name:        "command",
	Description: "Run a console command on this channel's server",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "command",
			Description: "Command to run (without /)",
			Required:    true,
		},
	},
}

var serverListDefinition = &discordgo.ApplicationCommand{
	Name:        "server_list",
	Description: "List all tracked servers",
}

var actionDefinition = &discordgo.ApplicationCommand{
	Name:        "action",
	Description: "Manage a tracked server",
}

func (m *MinecraftCommands) addServer(ctx context.Context, req *Request) error {
	channelID := req.ChannelOption("channel")
	if channelID == 0 {
		return service.ErrInvalidChannelID
	}

	if err := req.Defer(true); err != nil {
		return err
	}

	srv, err := m.tracker.Register(ctx, service.RegisterRequest{
		ChannelID:      channelID,
		UserID:         req.UserID(),
		Address:        req.StringOption("address", ""),
		Type:           req.StringOption("server_type", string(models.ServerTypeJava)),
		ShowPlayers:    req.BoolOption("show_players", true),
		ShowInPresence: req.BoolOption("show_in_status", false),
		DisplayMode:    req.StringOption("display_in_status", string(models.DisplayPlayers)),
	})
	if err != nil {
		return err
	}

	catalog := m.renderer.Catalog()
	return req.Reply(m.renderer.Notice(
		catalog.T("register.done_title"),
		catalog.T("register.done_description", srv.Address, srv.Type, "<#"+snowflake(channelID)+">"),
		models.ColorGreen,
	), true)
}

func (m *MinecraftCommands) command(_ context.Context, req *Request) error {
	channelID := req.ChannelID()
	if _, err := m.console.Prepare(channelID); err != nil {
		return err
	}

	command := req.StringOption("command", "")
	catalog := m.renderer.Catalog()
	if err := req.Reply(m.renderer.Notice(
		catalog.T("console.sent_title"),
		catalog.T("console.sent_description", command),
		models.ColorGreen,
	), true); err != nil {
		return err
	}

	// The interaction is acknowledged; the command runs outside the handler deadline
	go m.runConsole(req, channelID, command)
	return nil
}

func (m *MinecraftCommands) runConsole(req *Request, channelID int64, command string) {
	ctx, cancel := context.WithTimeout(context.Background(), m.consoleTimeout)
	defer cancel()

	result, err := m.console.Run(ctx, channelID, req.UserID(), command)
	if err != nil {
		logger.Warn("Console command rejected", map[string]interface{}{
			"channel_id": channelID,
			"error":      err.Error(),
		})
		return
	}

	catalog := m.renderer.Catalog()
	embed := m.renderer.Notice(catalog.T("console.result_title"), catalog.T("console.no_result"), models.ColorBlue)
	switch {
	case !result.Success:
		embed = m.renderer.Error(catalog.T("console.failed"))
	case strings.TrimSpace(result.Output) != "":
		embed.Description = "```" + clipRunes(result.Output, 1900) + "```"
	}

	if err := req.Reply(embed, true); err != nil {
		logger.Warn("Failed to send console result", map[string]interface{}{
			"channel_id": channelID,
			"error":      err.Error(),
		})
	}
}

func (m *MinecraftCommands) serverList(ctx context.Context, req *Request) error {
	if err := req.Defer(true); err != nil {
		return err
	}

	embed := m.renderer.ServerList(m.tracker.List(), func(channelID int64) string {
		return m.mentioner.Mention(ctx, channelID)
	})
	return req.Reply(embed, true)
}

func (m *MinecraftCommands) action(_ context.Context, req *Request) error {
	entries := m.tracker.List()
	catalog := m.renderer.Catalog()
	if len(entries) == 0 {
		return req.Reply(m.renderer.Error(catalog.T("errors.no_servers")), true)
	}

	return req.Reply(
		m.renderer.Notice(catalog.T("settings.pick"), "", models.ColorBlue),
		true,
		serverPicker(entries, catalog.T("settings.placeholder"), func(channelID int64) string {
			return catalog.T("settings.option_description", channelID)
		}),
	)
}

// serverPicker builds the select menu offered by action, one option per server
func serverPicker(entries []repository.StoreEntry, placeholder string, describe func(int64) string) discordgo.ActionsRow {
	options := make([]discordgo.SelectMenuOption, 0, len(entries))
	for i, entry := range entries {
		if i == maxSelectOptions {
			break
		}
		options = append(options, discordgo.SelectMenuOption{
			Label:       clipRunes(fmt.Sprintf("%s - %s", strings.ToUpper(string(entry.Server.Type)), entry.Server.Address), 100),
			Value:       snowflake(entry.ChannelID),
			Description: clipRunes(describe(entry.ChannelID), 100),
		})
	}

	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.SelectMenu{
			MenuType:    discordgo.StringSelectMenu,
			CustomID:    customIDSelect,
			Placeholder: placeholder,
			Options:     options,
		},
	}}
}
