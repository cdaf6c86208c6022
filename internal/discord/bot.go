package discord

import (
	"fmt"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"github.com/payperplay/mcwatch/pkg/logger"
)

// Bot owns the gateway session and registers the command table on ready
type Bot struct {
	session *discordgo.Session
	router  *Router
	guildID string
	ready   atomic.Bool
}

// NewSession creates an unopened bot session
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds
	return session, nil
}

// NewBot wires the router into the session. guildID scopes command
// registration; empty registers global commands.
func NewBot(session *discordgo.Session, router *Router, guildID string) *Bot {
	b := &Bot{session: session, router: router, guildID: guildID}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteraction)
	session.AddHandler(b.onDisconnect)
	session.AddHandler(b.onResumed)
	return b
}

// Open connects to the gateway. An authentication failure is returned here.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	return nil
}

// Close disconnects from the gateway
func (b *Bot) Close() error {
	b.ready.Store(false)
	return b.session.Close()
}

// Ready reports whether the gateway session is established
func (b *Bot) Ready() bool {
	return b.ready.Load()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.ready.Store(true)
	logger.Info("Discord session ready", map[string]interface{}{
		"user":   r.User.Username,
		"guilds": len(r.Guilds),
	})

	defs := b.router.Definitions()
	registered, err := s.ApplicationCommandBulkOverwrite(r.User.ID, b.guildID, defs)
	if err != nil {
		logger.Error("Failed to register commands", err, map[string]interface{}{
			"guild_id": b.guildID,
		})
		return
	}
	logger.Info("Commands registered", map[string]interface{}{
		"count":    len(registered),
		"guild_id": b.guildID,
	})
}

func (b *Bot) onDisconnect(_ *discordgo.Session, _ *discordgo.Disconnect) {
	b.ready.Store(false)
	logger.Warn("Discord session disconnected", nil)
}

func (b *Bot) onResumed(_ *discordgo.Session, _ *discordgo.Resumed) {
	b.ready.Store(true)
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.router.Handle(s, i)
}
