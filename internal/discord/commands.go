package discord

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/payperplay/mcwatch/internal/monitoring"
	"github.com/payperplay/mcwatch/internal/service"
	"github.com/payperplay/mcwatch/pkg/logger"
)

// handlerTimeout bounds the synchronous part of an interaction handler
const handlerTimeout = 30 * time.Second

// HandlerFunc handles one interaction
type HandlerFunc func(ctx context.Context, req *Request) error

// Command is one slash command: schema, authorization and handler
type Command struct {
	Definition *discordgo.ApplicationCommand
	// Admin commands require a role from the allow-list
	Admin   bool
	Handler HandlerFunc
}

// Component handles message components and modals whose custom id starts with Prefix
type Component struct {
	Prefix  string
	Admin   bool
	Handler HandlerFunc
}

// Router dispatches interactions to commands and components
type Router struct {
	commands   map[string]Command
	order      []string
	components []Component
	gate       *RoleGate
	renderer   *service.Renderer
}

func NewRouter(gate *RoleGate, renderer *service.Renderer) *Router {
	return &Router{
		commands: make(map[string]Command),
		gate:     gate,
		renderer: renderer,
	}
}

// AddCommand registers a slash command
func (r *Router) AddCommand(cmd Command) {
	name := cmd.Definition.Name
	if _, exists := r.commands[name]; !exists {
		r.order = append(r.order, name)
	}
	r.commands[name] = cmd
}

// AddComponent registers a component or modal handler
func (r *Router) AddComponent(c Component) {
	r.components = append(r.components, c)
}

// Definitions returns the command schemas in registration order
func (r *Router) Definitions() []*discordgo.ApplicationCommand {
	defs := make([]*discordgo.ApplicationCommand, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.commands[name].Definition)
	}
	return defs
}

// Handle dispatches one interaction; it is the discordgo InteractionCreate handler body
func (r *Router) Handle(api InteractionAPI, i *discordgo.InteractionCreate) {
	req := NewRequest(api, i)

	var (
		name    string
		admin   bool
		handler HandlerFunc
	)

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name = i.ApplicationCommandData().Name
		cmd, ok := r.commands[name]
		if !ok {
			logger.Warn("Unknown command", map[string]interface{}{"command": name})
			return
		}
		admin, handler = cmd.Admin, cmd.Handler
	case discordgo.InteractionMessageComponent:
		name = i.MessageComponentData().CustomID
		admin, handler = r.component(name)
	case discordgo.InteractionModalSubmit:
		name = i.ModalSubmitData().CustomID
		admin, handler = r.component(name)
	default:
		return
	}

	if handler == nil {
		logger.Warn("Unhandled interaction", map[string]interface{}{"custom_id": name})
		return
	}

	label := metricLabel(i.Type, name)

	if admin && !r.gate.Allowed(req.Member()) {
		monitoring.SlashCommandsTotal.WithLabelValues(label, "denied").Inc()
		key := "errors.no_permission"
		if i.Type != discordgo.InteractionApplicationCommand {
			key = "errors.no_permission_action"
		}
		r.replyError(req, r.renderer.Catalog().T(key))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	err := r.run(ctx, req, handler)
	switch {
	case err == nil:
		monitoring.SlashCommandsTotal.WithLabelValues(label, "ok").Inc()
	case isUserError(err):
		monitoring.SlashCommandsTotal.WithLabelValues(label, "rejected").Inc()
		r.replyError(req, r.renderer.Catalog().T(service.ErrorMessageKey(err)))
	default:
		monitoring.SlashCommandsTotal.WithLabelValues(label, "error").Inc()
		logger.Error("Interaction handler failed", err, map[string]interface{}{
			"interaction": name,
			"user_id":     req.UserID(),
			"channel_id":  i.ChannelID,
		})
		r.replyError(req, r.renderer.Catalog().T("errors.generic"))
	}
}

// run calls the handler and turns a panic into an error
func (r *Router) run(ctx context.Context, req *Request, handler HandlerFunc) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v\n%s", rec, debug.Stack())
		}
	}()
	return handler(ctx, req)
}

func (r *Router) component(customID string) (bool, HandlerFunc) {
	for _, c := range r.components {
		if strings.HasPrefix(customID, c.Prefix) {
			return c.Admin, c.Handler
		}
	}
	return false, nil
}

func (r *Router) replyError(req *Request, description string) {
	if err := req.Reply(r.renderer.Error(description), true); err != nil {
		logger.Warn("Failed to send error reply", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// isUserError reports whether err is a validation or state error with its own message
func isUserError(err error) bool {
	return service.ErrorMessageKey(err) != "errors.generic"
}

// metricLabel keeps label cardinality bounded: component ids carry channel ids
func metricLabel(t discordgo.InteractionType, name string) string {
	if t == discordgo.InteractionApplicationCommand {
		return name
	}
	if i := strings.LastIndex(name, ":"); i > 0 {
		return name[:i]
	}
	return name
}
