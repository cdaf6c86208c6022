package discord

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/payperplay/mcwatch/internal/external"
	"github.com/payperplay/mcwatch/internal/models"
	"github.com/payperplay/mcwatch/internal/service"
	"github.com/payperplay/mcwatch/pkg/logger"
)

// EmojiManager creates and deletes guild emojis
type EmojiManager interface {
	CreateEmoji(ctx context.Context, guildID, name, image string) (*discordgo.Emoji, error)
	DeleteEmoji(ctx context.Context, guildID, emojiID string) error
}

// DeveloperInfo is shown by the developer command
type DeveloperInfo struct {
	UserID string
	Link   string
}

// ToolCommands holds the utility commands: developer, webhook and emoji management
type ToolCommands struct {
	renderer  *service.Renderer
	webhooks  *service.WebhookService
	emojiGG   *external.EmojiClient
	emojis    EmojiManager
	developer DeveloperInfo
}

func NewToolCommands(
	renderer *service.Renderer,
	webhooks *service.WebhookService,
	emojiGG *external.EmojiClient,
	emojis EmojiManager,
	developer DeveloperInfo,
) *ToolCommands {
	return &ToolCommands{
		renderer:  renderer,
		webhooks:  webhooks,
		emojiGG:   emojiGG,
		emojis:    emojis,
		developer: developer,
	}
}

func (t *ToolCommands) Register(r *Router) {
	r.AddCommand(Command{
		Definition: &discordgo.ApplicationCommand{Name: "developer", Description: "Developer info"},
		Handler:    t.developerInfo,
	})
	r.AddCommand(Command{
		Definition: &discordgo.ApplicationCommand{
			Name:        "webhook",
			Description: "Send a JSON message file through a webhook",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "url", Description: "Webhook URL", Required: true},
				{Type: discordgo.ApplicationCommandOptionAttachment, Name: "file", Description: "Message JSON", Required: true},
			},
		},
		Admin:   true,
		Handler: t.webhook,
	})
	r.AddCommand(Command{
		Definition: &discordgo.ApplicationCommand{
			Name:        "add_emoji",
			Description: "Add an emoji from an image URL",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "url", Description: "Image URL", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Emoji name", Required: true},
			},
		},
		Handler: t.addEmoji,
	})
	r.AddCommand(Command{
		Definition: &discordgo.ApplicationCommand{
			Name:        "add_emojigg",
			Description: "Add an emoji from emoji.gg",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "id", Description: "emoji.gg id, e.g. 1234-name", Required: true},
			},
		},
		Handler: t.addEmojiGG,
	})
	r.AddCommand(Command{
		Definition: &discordgo.ApplicationCommand{
			Name:        "delete_emoji",
			Description: "Delete an emoji",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "emoji", Description: "Emoji or its ID", Required: true},
			},
		},
		Handler: t.deleteEmoji,
	})
}

func (t *ToolCommands) developerInfo(_ context.Context, req *Request) error {
	catalog := t.renderer.Catalog()
	embed := models.DiscordEmbed{Title: catalog.T("developer.title"), Color: models.ColorBlue}
	if t.developer.UserID != "" {
		embed = embed.AddField(catalog.T("developer.author"), "<@"+t.developer.UserID+">", true)
	}
	if t.developer.Link != "" {
		embed = embed.AddField(catalog.T("developer.discord"), t.developer.Link, true)
	}
	embed = embed.AddField(catalog.T("developer.language"), catalog.T("developer.language_value"), true)
	return req.Reply(embed, false)
}

func (t *ToolCommands) webhook(ctx context.Context, req *Request) error {
	catalog := t.renderer.Catalog()

	attachment := req.AttachmentOption("file")
	if attachment == nil {
		return req.Reply(t.renderer.Error(catalog.T("webhook.attachment_required")), true)
	}

	if err := req.Defer(true); err != nil {
		return err
	}

	err := t.webhooks.RelayAttachment(ctx, req.StringOption("url", ""), attachment.URL)
	switch {
	case err == nil:
		return req.Reply(t.renderer.Notice(catalog.T("webhook.sent"), "", models.ColorGreen), true)
	case errors.Is(err, service.ErrInvalidPayload):
		return req.Reply(t.renderer.Error(catalog.T("webhook.invalid_json")), true)
	default:
		return req.Reply(t.renderer.Error(catalog.T("webhook.failed", err.Error())), true)
	}
}

func (t *ToolCommands) addEmoji(ctx context.Context, req *Request) error {
	catalog := t.renderer.Catalog()
	if !canManageEmojis(req.Member()) {
		return req.Reply(t.renderer.Error(catalog.T("emoji.no_permission")), true)
	}

	if err := req.Defer(false); err != nil {
		return err
	}

	img, err := t.emojiGG.Download(ctx, req.StringOption("url", ""))
	if err != nil {
		return req.Reply(t.downloadError(err), false)
	}

	return t.upload(ctx, req, emojiName(req.StringOption("name", "")), img)
}

func (t *ToolCommands) addEmojiGG(ctx context.Context, req *Request) error {
	catalog := t.renderer.Catalog()
	if !canManageEmojis(req.Member()) {
		return req.Reply(t.renderer.Error(catalog.T("emoji.no_permission")), true)
	}

	id, err := external.ParseEmojiGGRef(req.StringOption("id", ""))
	if err != nil {
		return req.Reply(t.renderer.Error(catalog.T("emoji.invalid_gg_reference")), true)
	}

	if err := req.Defer(false); err != nil {
		return err
	}

	entry, err := t.emojiGG.FindEmoji(ctx, id)
	switch {
	case errors.Is(err, external.ErrEmojiNotFound):
		return req.Reply(t.renderer.Error(catalog.T("emoji.not_found")), false)
	case err != nil:
		logger.Warn("emoji.gg listing failed", map[string]interface{}{"error": err.Error()})
		return req.Reply(t.renderer.Error(catalog.T("emoji.list_failed")), false)
	}

	img, err := t.emojiGG.Download(ctx, entry.Image)
	if err != nil {
		return req.Reply(t.downloadError(err), false)
	}

	return t.upload(ctx, req, emojiName(entry.Slug), img)
}

func (t *ToolCommands) upload(ctx context.Context, req *Request, name string, img *external.EmojiImage) error {
	catalog := t.renderer.Catalog()

	emoji, err := t.emojis.CreateEmoji(ctx, req.Interaction.GuildID, name, img.DataURI())
	if err != nil {
		return req.Reply(t.renderer.Error(catalog.T("emoji.upload_failed", err.Error())), false)
	}

	logger.Info("Emoji created", map[string]interface{}{
		"guild_id": req.Interaction.GuildID,
		"emoji_id": emoji.ID,
		"name":     emoji.Name,
		"user_id":  req.UserID(),
	})
	return req.Reply(t.renderer.Notice(catalog.T("emoji.created", emoji.Name, emoji.MessageFormat()), "", models.ColorGreen), false)
}

func (t *ToolCommands) deleteEmoji(ctx context.Context, req *Request) error {
	catalog := t.renderer.Catalog()
	if !canManageEmojis(req.Member()) {
		return req.Reply(t.renderer.Error(catalog.T("emoji.no_permission")), true)
	}

	name, id, ok := parseEmojiRef(req.StringOption("emoji", ""))
	if !ok {
		return req.Reply(t.renderer.Error(catalog.T("emoji.invalid_reference")), true)
	}

	if err := t.emojis.DeleteEmoji(ctx, req.Interaction.GuildID, id); err != nil {
		return req.Reply(t.renderer.Error(catalog.T("emoji.delete_failed", err.Error())), true)
	}

	if name == "" {
		name = id
	}
	return req.Reply(t.renderer.Notice(catalog.T("emoji.deleted", name), "", models.ColorGreen), false)
}

func (t *ToolCommands) downloadError(err error) models.DiscordEmbed {
	catalog := t.renderer.Catalog()
	var statusErr *external.StatusError
	if errors.As(err, &statusErr) {
		return t.renderer.Error(catalog.T("emoji.download_failed", statusErr.Code))
	}
	return t.renderer.Error(catalog.T("emoji.upload_failed", err.Error()))
}

var (
	emojiRefPattern  = regexp.MustCompile(`^<a?:(\w{2,32}):(\d{15,21})>$`)
	emojiIDPattern   = regexp.MustCompile(`^\d{15,21}$`)
	emojiNameInvalid = regexp.MustCompile(`[^A-Za-z0-9_]+`)
)

// parseEmojiRef accepts <:name:id>, <a:name:id> or a bare id
func parseEmojiRef(raw string) (name, id string, ok bool) {
	raw = strings.TrimSpace(raw)
	if m := emojiRefPattern.FindStringSubmatch(raw); m != nil {
		return m[1], m[2], true
	}
	if emojiIDPattern.MatchString(raw) {
		return "", raw, true
	}
	return "", "", false
}

// emojiName makes a valid emoji name (2-32 chars of [A-Za-z0-9_])
func emojiName(raw string) string {
	name := strings.Trim(emojiNameInvalid.ReplaceAllString(raw, "_"), "_")
	if len(name) > 32 {
		name = name[:32]
	}
	for len(name) < 2 {
		name += "_"
	}
	return name
}
