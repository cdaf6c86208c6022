package discord

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/payperplay/mcwatch/internal/models"
	"github.com/payperplay/mcwatch/internal/service"
)

const maxSelectOptions = 25

// Custom ids of the settings view. Buttons and the modal carry the channel id
// as the last segment.
const (
	settingsPrefix   = "settings:"
	customIDSelect   = "settings:select"
	customIDEdit     = "settings:edit"
	customIDDisplay  = "settings:display"
	customIDPresence = "settings:presence"
	customIDRename   = "settings:rename"
	customIDDelete   = "settings:delete"
	customIDModal    = "settings:modal"
)

// Modal field ids
const (
	fieldAddress         = "address"
	fieldType            = "type"
	fieldConsolePort     = "rcon_port"
	fieldConsolePassword = "rcon_password"
	fieldLogChannel      = "rcon_log"
)

func (m *MinecraftCommands) registerSettings(r *Router) {
	r.AddComponent(Component{Prefix: settingsPrefix, Admin: true, Handler: m.settings})
}

// settings routes every settings:* component and the settings modal
func (m *MinecraftCommands) settings(ctx context.Context, req *Request) error {
	if req.Interaction.Type == discordgo.InteractionModalSubmit {
		action, channelID, err := parseSettingsID(req.Interaction.ModalSubmitData().CustomID)
		if err != nil || action != customIDModal {
			return service.ErrInvalidChannelID
		}
		return m.submitSettings(ctx, req, channelID)
	}

	data := req.Interaction.MessageComponentData()
	if data.CustomID == customIDSelect {
		if len(data.Values) == 0 {
			return service.ErrInvalidChannelID
		}
		channelID, err := parseSnowflake(data.Values[0])
		if err != nil {
			return err
		}
		return m.showSettings(req, channelID)
	}

	action, channelID, err := parseSettingsID(data.CustomID)
	if err != nil {
		return err
	}

	switch action {
	case customIDEdit:
		return m.openSettingsModal(req, channelID)
	case customIDDelete:
		return m.deleteServer(req, channelID)
	case customIDDisplay:
		return m.toggle(req, channelID, func() (*models.TrackedServer, error) {
			return m.tracker.ToggleDisplayMode(ctx, channelID, req.UserID())
		})
	case customIDPresence:
		return m.toggle(req, channelID, func() (*models.TrackedServer, error) {
			return m.tracker.TogglePresence(ctx, channelID, req.UserID())
		})
	case customIDRename:
		return m.toggle(req, channelID, func() (*models.TrackedServer, error) {
			return m.tracker.ToggleRename(ctx, channelID, req.UserID())
		})
	}
	return service.ErrInvalidChannelID
}

func (m *MinecraftCommands) showSettings(req *Request, channelID int64) error {
	srv, err := m.tracker.Get(channelID)
	if err != nil {
		return err
	}
	return req.Update(m.renderer.Settings(srv), m.settingsButtons(channelID)...)
}

func (m *MinecraftCommands) toggle(req *Request, channelID int64, fn func() (*models.TrackedServer, error)) error {
	// Toggles render once, which can outlast the interaction deadline
	if err := req.DeferUpdate(); err != nil {
		return err
	}
	srv, err := fn()
	if err != nil {
		return err
	}
	return req.EditOriginal(m.renderer.Settings(srv), m.settingsButtons(channelID)...)
}

func (m *MinecraftCommands) deleteServer(req *Request, channelID int64) error {
	srv, err := m.tracker.Get(channelID)
	if err != nil {
		return err
	}
	if err := m.tracker.Delete(channelID, req.UserID()); err != nil {
		return err
	}

	catalog := m.renderer.Catalog()
	return req.Update(m.renderer.Notice(
		catalog.T("settings.deleted_title"),
		catalog.T("settings.deleted_description", srv.Address),
		models.ColorGreen,
	))
}

func (m *MinecraftCommands) openSettingsModal(req *Request, channelID int64) error {
	srv, err := m.tracker.Get(channelID)
	if err != nil {
		return err
	}

	catalog := m.renderer.Catalog()
	port, password, logChannel := consoleFormDefaults(srv.RemoteConsole)

	return req.Modal(customIDModal+":"+snowflake(channelID), catalog.T("settings.modal_title"),
		&discordgo.TextInput{
			CustomID: fieldAddress,
			Label:    catalog.T("settings.field_address"),
			Style:    discordgo.TextInputShort,
			Value:    srv.Address,
			Required: true,
		},
		&discordgo.TextInput{
			CustomID: fieldType,
			Label:    catalog.T("settings.field_type"),
			Style:    discordgo.TextInputShort,
			Value:    string(srv.Type),
			Required: true,
		},
		&discordgo.TextInput{
			CustomID: fieldConsolePort,
			Label:    catalog.T("settings.field_rcon_port"),
			Style:    discordgo.TextInputShort,
			Value:    port,
		},
		&discordgo.TextInput{
			CustomID: fieldConsolePassword,
			Label:    catalog.T("settings.field_rcon_password"),
			Style:    discordgo.TextInputShort,
			Value:    password,
		},
		&discordgo.TextInput{
			CustomID: fieldLogChannel,
			Label:    catalog.T("settings.field_rcon_log"),
			Style:    discordgo.TextInputShort,
			Value:    logChannel,
		},
	)
}

func (m *MinecraftCommands) submitSettings(ctx context.Context, req *Request, channelID int64) error {
	if err := req.Defer(true); err != nil {
		return err
	}

	if _, err := m.tracker.UpdateSettings(ctx, channelID, req.UserID(), settingsInput(req.Interaction.ModalSubmitData().Components)); err != nil {
		return err
	}

	catalog := m.renderer.Catalog()
	return req.Reply(m.renderer.Notice(
		catalog.T("settings.saved_title"),
		catalog.T("settings.saved_description"),
		models.ColorGreen,
	), true)
}

func (m *MinecraftCommands) settingsButtons(channelID int64) []discordgo.MessageComponent {
	catalog := m.renderer.Catalog()
	id := snowflake(channelID)
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: catalog.T("settings.button_edit"), Style: discordgo.SuccessButton, CustomID: customIDEdit + ":" + id},
			discordgo.Button{Label: catalog.T("settings.button_display"), Style: discordgo.PrimaryButton, CustomID: customIDDisplay + ":" + id},
			discordgo.Button{Label: catalog.T("settings.button_presence"), Style: discordgo.SecondaryButton, CustomID: customIDPresence + ":" + id},
			discordgo.Button{Label: catalog.T("settings.button_rename"), Style: discordgo.SecondaryButton, CustomID: customIDRename + ":" + id},
			discordgo.Button{Label: catalog.T("settings.button_delete"), Style: discordgo.DangerButton, CustomID: customIDDelete + ":" + id},
		}},
	}
}

// settingsInput maps the submitted modal onto the service input
func settingsInput(components []discordgo.MessageComponent) service.SettingsInput {
	values := modalValues(components)
	return service.SettingsInput{
		Address:         values[fieldAddress],
		Type:            values[fieldType],
		ConsolePort:     values[fieldConsolePort],
		ConsolePassword: values[fieldConsolePassword],
		LogChannel:      values[fieldLogChannel],
	}
}

// consoleFormDefaults prefills the console fields from the stored block
func consoleFormDefaults(rc *models.RemoteConsole) (port, password, logChannel string) {
	if rc == nil || !rc.Enabled {
		return "", "", ""
	}
	if rc.Port > 0 {
		port = strconv.Itoa(rc.Port)
		if rc.Host != "" {
			port = rc.Host + ":" + port
		}
	}
	if rc.LogChannelID != nil {
		logChannel = snowflake(*rc.LogChannelID)
	}
	return port, rc.Password, logChannel
}

// parseSettingsID splits "settings:<action>:<channel id>"
func parseSettingsID(customID string) (string, int64, error) {
	i := strings.LastIndex(customID, ":")
	if i <= len(settingsPrefix)-1 {
		return "", 0, service.ErrInvalidChannelID
	}
	channelID, err := parseSnowflake(customID[i+1:])
	if err != nil {
		return "", 0, err
	}
	return customID[:i], channelID, nil
}
