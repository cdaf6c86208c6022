package discord

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/payperplay/mcwatch/internal/models"
)

// InteractionAPI is the part of *discordgo.Session used to answer interactions
type InteractionAPI interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Request is one incoming interaction and the way to answer it
type Request struct {
	api         InteractionAPI
	Interaction *discordgo.InteractionCreate

	responded bool
}

func NewRequest(api InteractionAPI, i *discordgo.InteractionCreate) *Request {
	return &Request{api: api, Interaction: i}
}

// Member is nil outside guilds
func (r *Request) Member() *discordgo.Member {
	return r.Interaction.Member
}

// UserID returns the invoking user's id
func (r *Request) UserID() string {
	if m := r.Interaction.Member; m != nil && m.User != nil {
		return m.User.ID
	}
	if r.Interaction.User != nil {
		return r.Interaction.User.ID
	}
	return ""
}

// Responded reports whether the initial response was sent
func (r *Request) Responded() bool {
	return r.responded
}

// Reply sends an embed as the initial response or, once responded, as a followup
func (r *Request) Reply(embed models.DiscordEmbed, ephemeral bool, components ...discordgo.MessageComponent) error {
	embeds := []*discordgo.MessageEmbed{toMessageEmbed(embed)}
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}

	if r.responded {
		_, err := r.api.FollowupMessageCreate(r.Interaction.Interaction, true, &discordgo.WebhookParams{
			Embeds:     embeds,
			Components: components,
			Flags:      flags,
		})
		return err
	}

	r.responded = true
	return r.api.InteractionRespond(r.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     embeds,
			Components: components,
			Flags:      flags,
		},
	})
}

// Defer acknowledges now and answers later through Reply
func (r *Request) Defer(ephemeral bool) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	r.responded = true
	return r.api.InteractionRespond(r.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags},
	})
}

// Update replaces the message a component belongs to
func (r *Request) Update(embed models.DiscordEmbed, components ...discordgo.MessageComponent) error {
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	r.responded = true
	return r.api.InteractionRespond(r.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{toMessageEmbed(embed)},
			Components: components,
		},
	})
}

// DeferUpdate acknowledges a component click; EditOriginal finishes it
func (r *Request) DeferUpdate() error {
	r.responded = true
	return r.api.InteractionRespond(r.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
}

// EditOriginal replaces the message the interaction responded with
func (r *Request) EditOriginal(embed models.DiscordEmbed, components ...discordgo.MessageComponent) error {
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	embeds := []*discordgo.MessageEmbed{toMessageEmbed(embed)}
	_, err := r.api.InteractionResponseEdit(r.Interaction.Interaction, &discordgo.WebhookEdit{
		Embeds:     &embeds,
		Components: &components,
	})
	return err
}

// Modal opens a form
func (r *Request) Modal(customID, title string, inputs ...*discordgo.TextInput) error {
	rows := make([]discordgo.MessageComponent, 0, len(inputs))
	for _, input := range inputs {
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{input}})
	}
	r.responded = true
	return r.api.InteractionRespond(r.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   customID,
			Title:      title,
			Components: rows,
		},
	})
}

// option returns a named slash command option
func (r *Request) option(name string) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range r.Interaction.ApplicationCommandData().Options {
		if opt.Name == name {
			return opt
		}
	}
	return nil
}

func (r *Request) StringOption(name, fallback string) string {
	if opt := r.option(name); opt != nil {
		if v, ok := opt.Value.(string); ok {
			return v
		}
	}
	return fallback
}

func (r *Request) BoolOption(name string, fallback bool) bool {
	if opt := r.option(name); opt != nil {
		if v, ok := opt.Value.(bool); ok {
			return v
		}
	}
	return fallback
}

// ChannelOption returns the id of a channel option, 0 when absent
func (r *Request) ChannelOption(name string) int64 {
	opt := r.option(name)
	if opt == nil {
		return 0
	}
	id, ok := opt.Value.(string)
	if !ok {
		return 0
	}
	v, err := parseSnowflake(id)
	if err != nil {
		return 0
	}
	return v
}

// AttachmentOption resolves an attachment option
func (r *Request) AttachmentOption(name string) *discordgo.MessageAttachment {
	opt := r.option(name)
	if opt == nil {
		return nil
	}
	id, ok := opt.Value.(string)
	if !ok {
		return nil
	}
	resolved := r.Interaction.ApplicationCommandData().Resolved
	if resolved == nil {
		return nil
	}
	return resolved.Attachments[id]
}

// ChannelID of the channel the interaction happened in
func (r *Request) ChannelID() int64 {
	id, err := parseSnowflake(r.Interaction.ChannelID)
	if err != nil {
		return 0
	}
	return id
}

// modalValues collects text inputs of a submitted modal by custom id
func modalValues(components []discordgo.MessageComponent) map[string]string {
	values := make(map[string]string)
	for _, row := range components {
		var children []discordgo.MessageComponent
		switch r := row.(type) {
		case *discordgo.ActionsRow:
			children = r.Components
		case discordgo.ActionsRow:
			children = r.Components
		default:
			continue
		}
		for _, c := range children {
			if input, ok := c.(*discordgo.TextInput); ok {
				values[input.CustomID] = strings.TrimSpace(input.Value)
			}
		}
	}
	return values
}
