package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/payperplay/mcwatch/internal/models"
	"github.com/payperplay/mcwatch/internal/service"
)

const (
	// maxActivityLength is the longest activity name Discord accepts
	maxActivityLength = 128

	// renameTimeout bounds one channel rename; Discord allows two per channel per ten minutes
	renameTimeout = 10 * time.Second
)

// ErrRateLimited is returned instead of waiting out a Discord rate limit
var ErrRateLimited = errors.New("discord rate limit reached")

// Client adapts a discordgo session to the services' chat platform
type Client struct {
	session *discordgo.Session
}

// NewClient wraps an opened or unopened session
func NewClient(session *discordgo.Session) *Client {
	return &Client{session: session}
}

var _ service.ChatPlatform = (*Client)(nil)

func (c *Client) Channel(ctx context.Context, channelID int64) (service.ChannelInfo, error) {
	ch, err := c.session.Channel(snowflake(channelID), discordgo.WithContext(ctx))
	if err != nil {
		return service.ChannelInfo{}, classifyError(err, service.ErrChannelNotFound)
	}
	return service.ChannelInfo{ID: channelID, Name: ch.Name, GuildID: ch.GuildID}, nil
}

func (c *Client) MessageExists(ctx context.Context, channelID, messageID int64) error {
	_, err := c.session.ChannelMessage(snowflake(channelID), snowflake(messageID), discordgo.WithContext(ctx))
	if err != nil {
		return classifyError(err, service.ErrMessageNotFound)
	}
	return nil
}

func (c *Client) SendEmbed(ctx context.Context, channelID int64, embed models.DiscordEmbed) (int64, error) {
	msg, err := c.session.ChannelMessageSendEmbed(snowflake(channelID), toMessageEmbed(embed), discordgo.WithContext(ctx))
	if err != nil {
		return 0, classifyError(err, service.ErrChannelNotFound)
	}
	return parseSnowflake(msg.ID)
}

func (c *Client) EditEmbed(ctx context.Context, channelID, messageID int64, embed models.DiscordEmbed) error {
	_, err := c.session.ChannelMessageEditEmbed(snowflake(channelID), snowflake(messageID), toMessageEmbed(embed), discordgo.WithContext(ctx))
	if err != nil {
		return classifyError(err, service.ErrMessageNotFound)
	}
	return nil
}

func (c *Client) RenameChannel(ctx context.Context, channelID int64, name string) error {
	id := snowflake(channelID)
	if wait := c.bucketWait(discordgo.EndpointChannel(id)); wait > 0 {
		return fmt.Errorf("%w: retry in %s", ErrRateLimited, wait)
	}

	ctx, cancel := context.WithTimeout(ctx, renameTimeout)
	defer cancel()

	_, err := c.session.ChannelEdit(id, &discordgo.ChannelEdit{Name: name},
		discordgo.WithContext(ctx), discordgo.WithRetryOnRatelimit(false))
	if err != nil {
		var limited *discordgo.RateLimitError
		if errors.As(err, &limited) && limited.RateLimit != nil && limited.TooManyRequests != nil {
			return fmt.Errorf("%w: retry in %s", ErrRateLimited, limited.RetryAfter)
		}
		return classifyError(err, service.ErrChannelNotFound)
	}
	return nil
}

// bucketWait reports how long discordgo would sleep before sending on the bucket.
// A bucket held by another request counts as limited.
func (c *Client) bucketWait(bucketID string) time.Duration {
	limiter := c.session.Ratelimiter
	if limiter == nil {
		return 0
	}
	bucket := limiter.GetBucket(bucketID)
	if !bucket.TryLock() {
		return renameTimeout
	}
	defer bucket.Unlock()
	return limiter.GetWaitTime(bucket, 1)
}

// SetWatchingActivity goes over the gateway, ctx is unused
func (c *Client) SetWatchingActivity(_ context.Context, text string) error {
	status := discordgo.UpdateStatusData{Status: string(discordgo.StatusOnline)}
	if text != "" {
		status.Activities = []*discordgo.Activity{
			{Name: clipRunes(text, maxActivityLength), Type: discordgo.ActivityTypeWatching},
		}
	} else {
		status.Activities = []*discordgo.Activity{}
	}
	return c.session.UpdateStatusComplex(status)
}

// CreateEmoji uploads an image (data URI) as a guild emoji
func (c *Client) CreateEmoji(ctx context.Context, guildID, name, image string) (*discordgo.Emoji, error) {
	emoji, err := c.session.GuildEmojiCreate(guildID, &discordgo.EmojiParams{Name: name, Image: image}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classifyError(err, nil)
	}
	return emoji, nil
}

// DeleteEmoji removes a guild emoji
func (c *Client) DeleteEmoji(ctx context.Context, guildID, emojiID string) error {
	if err := c.session.GuildEmojiDelete(guildID, emojiID, discordgo.WithContext(ctx)); err != nil {
		return classifyError(err, nil)
	}
	return nil
}

// Mention returns a channel mention, or "" when the channel is gone
func (c *Client) Mention(ctx context.Context, channelID int64) string {
	if _, err := c.Channel(ctx, channelID); err != nil {
		return ""
	}
	return "<#" + snowflake(channelID) + ">"
}

// classifyError maps REST failures onto the service errors. notFound is the
// error reported for a 404; nil leaves 404s unclassified.
func classifyError(err error, notFound error) error {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return err
	}

	code := 0
	if restErr.Message != nil {
		code = restErr.Message.Code
	}

	switch code {
	case discordgo.ErrCodeUnknownChannel:
		return fmt.Errorf("%w: %v", service.ErrChannelNotFound, err)
	case discordgo.ErrCodeUnknownMessage:
		return fmt.Errorf("%w: %v", service.ErrMessageNotFound, err)
	case discordgo.ErrCodeMissingAccess, discordgo.ErrCodeMissingPermissions:
		return fmt.Errorf("%w: %v", service.ErrForbidden, err)
	}

	if restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", service.ErrForbidden, err)
		case http.StatusNotFound:
			if notFound != nil {
				return fmt.Errorf("%w: %v", notFound, err)
			}
		}
	}
	return err
}

func toMessageEmbed(embed models.DiscordEmbed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       embed.Title,
		Description: embed.Description,
		Color:       embed.Color,
		Timestamp:   embed.Timestamp,
	}
	for _, f := range embed.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	if embed.Footer != nil {
		out.Footer = &discordgo.MessageEmbedFooter{Text: embed.Footer.Text, IconURL: embed.Footer.IconURL}
	}
	if embed.ThumbnailURL != "" {
		out.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: embed.ThumbnailURL}
	}
	return out
}

func snowflake(id int64) string {
	return strconv.FormatInt(id, 10)
}

func parseSnowflake(id string) (int64, error) {
	v, err := strconv.ParseInt(id, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: %q", service.ErrInvalidChannelID, id)
	}
	return v, nil
}

func clipRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
