package discord

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/solacebot/solace/internal/dispatch"
	"github.com/solacebot/solace/internal/messaging"
	sessionpkg "github.com/solacebot/solace/internal/session"
)

// Bot owns the Discord gateway connection: it registers the slash
// commands, turns interactions into engine calls, and feeds thread
// messages to the dispatcher.
type Bot struct {
	session    *discordgo.Session
	engine     *sessionpkg.Engine
	dispatcher *dispatch.Manager
	messenger  messaging.Messenger
	guildID    string
	logger     *zap.Logger

	mu     sync.Mutex
	runCtx context.Context
}

// NewBot creates the Discord front end.
func NewBot(
	session *discordgo.Session,
	engine *sessionpkg.Engine,
	dispatcher *dispatch.Manager,
	messenger messaging.Messenger,
	guildID string,
	logger *zap.Logger,
) (*Bot, error) {
	if session == nil {
		return nil, fmt.Errorf("discord session is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if messenger == nil {
		return nil, fmt.Errorf("messenger is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Bot{
		session:    session,
		engine:     engine,
		dispatcher: dispatcher,
		messenger:  messenger,
		guildID:    guildID,
		logger:     logger,
	}, nil
}

// Start opens the gateway connection, registers commands, and blocks
// until the context is canceled.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	b.runCtx = ctx
	b.mu.Unlock()

	b.session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	b.session.AddHandler(b.onInteraction)
	b.session.AddHandler(b.onMessage)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord gateway: %w", err)
	}

	if err := b.registerCommands(); err != nil {
		_ = b.session.Close()
		return err
	}

	b.logger.Info("discord bot online",
		zap.String("user", b.session.State.User.Username),
		zap.String("user_id", b.session.State.User.ID))

	<-ctx.Done()

	b.logger.Info("discord bot stopping")
	if err := b.session.Close(); err != nil {
		return fmt.Errorf("failed to close discord gateway: %w", err)
	}
	return nil
}

func (b *Bot) registerCommands() error {
	appID := b.session.State.User.ID
	for _, cmd := range commandDefinitions() {
		if _, err := b.session.ApplicationCommandCreate(appID, b.guildID, cmd); err != nil {
			return fmt.Errorf("failed to register command %s: %w", cmd.Name, err)
		}
	}
	b.logger.Info("slash commands registered", zap.Int("count", len(commandDefinitions())))
	return nil
}

func (b *Bot) ctx() context.Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.runCtx != nil {
		return b.runCtx
	}
	return context.Background()
}

// onInteraction routes slash commands.
func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	if kind, ok := kindForCommand(data.Name); ok {
		b.handleStart(s, i, kind)
		return
	}
	if data.Name == "close" {
		b.handleClose(s, i)
	}
}

// handleStart runs the session-start flow: acknowledge immediately,
// then open the session and report the thread once the pipeline is done.
func (b *Bot) handleStart(s *discordgo.Session, i *discordgo.InteractionCreate, kind messaging.SessionKind) {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}); err != nil {
		b.logger.Error("failed to acknowledge interaction", zap.Error(err))
		return
	}

	opening, err := openingMessage(i.ApplicationCommandData())
	if err != nil {
		b.logger.Error("malformed start interaction", zap.Error(err))
		b.followUp(s, i, startFailedText)
		return
	}

	user := interactionUser(i)
	ctx := b.ctx()

	result, err := b.engine.Start(ctx, messaging.StartRequest{
		ParentChannel: i.ChannelID,
		UserName:      threadUserName(user),
		UserMention:   user.Mention(),
		Opening:       opening,
		Kind:          kind,
	})
	if err != nil {
		if sessionpkg.IsCapabilityError(err) {
			b.followUp(s, i, permissionDeniedText)
		} else {
			b.logger.Error("session start failed", zap.Error(err))
			b.followUp(s, i, startFailedText)
		}
		return
	}

	if err := b.messenger.SendMessage(ctx, result.Thread, result.Welcome); err != nil {
		b.logger.Error("failed to post welcome message",
			zap.String("conversation_id", result.Thread.ID),
			zap.Error(err))
	}

	b.followUp(s, i, fmt.Sprintf(startAckText, result.Thread.Mention))
}

// handleClose ends the session for the thread the command was used in.
func (b *Bot) handleClose(s *discordgo.Session, i *discordgo.InteractionCreate) {
	farewell, err := b.engine.Close(b.ctx(), messaging.CloseRequest{
		ConversationID: i.ChannelID,
	})
	switch {
	case errors.Is(err, sessionpkg.ErrNotManaged):
		b.respond(s, i, notSessionText, true)
	case err != nil:
		b.logger.Error("session close failed", zap.Error(err))
		b.respond(s, i, closeFailedText, true)
	default:
		b.respond(s, i, farewell, false)
	}
}

// onMessage feeds messages in managed threads to the dispatcher. Submit
// returns immediately; a worker delivers the reply when it is ready.
func (b *Bot) onMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	// Bot authors are dropped here so their messages never cost a queue
	// slot or a typing indicator; the engine applies the same check to
	// every event it sees.
	if m.Author == nil || m.Author.Bot {
		return
	}
	if !b.engine.Managed(m.ChannelID) {
		return
	}

	if err := b.dispatcher.Submit(messaging.NewMessageEvent(m.ChannelID, m.Content, false)); err != nil {
		b.logger.Error("failed to enqueue message",
			zap.String("conversation_id", m.ChannelID),
			zap.Error(err))
	}
}

func (b *Bot) followUp(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		b.logger.Error("failed to send follow-up", zap.Error(err))
	}
}

func (b *Bot) respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		b.logger.Error("failed to respond to interaction", zap.Error(err))
	}
}
