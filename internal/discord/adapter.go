// Package discord connects the session engine to Discord: it implements
// the messaging collaborator and routes slash commands and thread
// messages into the engine.
package discord

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/solacebot/solace/internal/messaging"
)

// threadAutoArchiveMinutes keeps idle session threads visible for a day
// before Discord auto-archives them.
const threadAutoArchiveMinutes = 1440

// Adapter implements messaging.Messenger on top of a Discord session.
type Adapter struct {
	session *discordgo.Session
	logger  *zap.Logger
}

// NewAdapter wraps an open Discord session.
func NewAdapter(session *discordgo.Session, logger *zap.Logger) (*Adapter, error) {
	if session == nil {
		return nil, fmt.Errorf("discord session is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{session: session, logger: logger}, nil
}

// CreateThread creates a public thread under the parent channel.
func (a *Adapter) CreateThread(ctx context.Context, name string, parentChannel string) (messaging.ThreadRef, error) {
	thread, err := a.session.ThreadStartComplex(parentChannel, &discordgo.ThreadStart{
		Name:                name,
		AutoArchiveDuration: threadAutoArchiveMinutes,
		Type:                discordgo.ChannelTypeGuildPublicThread,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return messaging.ThreadRef{}, mapRESTError("create thread", err)
	}

	return messaging.ThreadRef{
		ID:      thread.ID,
		Name:    thread.Name,
		Mention: thread.Mention(),
	}, nil
}

// SendMessage posts text to a thread.
func (a *Adapter) SendMessage(ctx context.Context, thread messaging.ThreadRef, text string) error {
	if _, err := a.session.ChannelMessageSend(thread.ID, text, discordgo.WithContext(ctx)); err != nil {
		return mapRESTError("send message", err)
	}
	return nil
}

// ArchiveAndLock archives and locks a thread so nothing more can be
// posted to it.
func (a *Adapter) ArchiveAndLock(ctx context.Context, thread messaging.ThreadRef) error {
	yes := true
	_, err := a.session.ChannelEdit(thread.ID, &discordgo.ChannelEdit{
		Archived: &yes,
		Locked:   &yes,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return mapRESTError("archive thread", err)
	}
	return nil
}

// Typing shows the typing indicator in a thread.
func (a *Adapter) Typing(ctx context.Context, thread messaging.ThreadRef) error {
	if err := a.session.ChannelTyping(thread.ID, discordgo.WithContext(ctx)); err != nil {
		return mapRESTError("send typing indicator", err)
	}
	return nil
}

// mapRESTError folds Discord permission failures into the collaborator
// contract's sentinel so the engine can classify them.
func mapRESTError(action string, err error) error {
	if restErr, ok := err.(*discordgo.RESTError); ok &&
		restErr.Response != nil &&
		restErr.Response.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%s: %w", action, messaging.ErrPermissionDenied)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
