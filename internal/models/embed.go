package models

// Embed colors
const (
	ColorGreen  = 3066993
	ColorRed    = 15158332
	ColorOrange = 15105570
	ColorBlue   = 3447003
)

// DiscordWebhookPayload represents a Discord webhook message
type DiscordWebhookPayload struct {
	Content   string         `json:"content,omitempty"`
	Username  string         `json:"username,omitempty"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	Embeds    []DiscordEmbed `json:"embeds,omitempty"`
}

// DiscordEmbed is the platform-neutral rich message rendered by the services
type DiscordEmbed struct {
	Title        string              `json:"title,omitempty"`
	Description  string              `json:"description,omitempty"`
	Color        int                 `json:"color,omitempty"`
	Fields       []DiscordEmbedField `json:"fields,omitempty"`
	Footer       *DiscordEmbedFooter `json:"footer,omitempty"`
	ThumbnailURL string              `json:"-"`
	Timestamp    string              `json:"timestamp,omitempty"`
}

// DiscordEmbedField represents a field in a Discord embed
type DiscordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// DiscordEmbedFooter represents a footer in a Discord embed
type DiscordEmbedFooter struct {
	Text    string `json:"text"`
	IconURL string `json:"icon_url,omitempty"`
}

// AddField appends a field and returns the embed for chaining
func (e DiscordEmbed) AddField(name, value string, inline bool) DiscordEmbed {
	e.Fields = append(append([]DiscordEmbedField(nil), e.Fields...), DiscordEmbedField{Name: name, Value: value, Inline: inline})
	return e
}
