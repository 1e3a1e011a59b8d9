package messaging

import (
	"time"

	"github.com/google/uuid"
)

// SessionKind names the flavor of session a user opened. It only affects
// thread naming; the pipeline is identical for all kinds.
type SessionKind string

const (
	// KindVent is a venting session.
	KindVent SessionKind = "Vent"
	// KindTalk is a calm conversation session.
	KindTalk SessionKind = "Talk"
	// KindRant is a ranting session.
	KindRant SessionKind = "Rant"
)

// ThreadRef identifies a conversation thread on the platform.
type ThreadRef struct {
	ID      string // stable conversation ID, platform-assigned
	Name    string // display name at creation time
	Mention string // platform mention markup, if any
}

// StartRequest asks the engine to open a new session.
type StartRequest struct {
	ParentChannel string // channel the thread is created under
	UserName      string // requesting user's display name
	UserMention   string // mention markup for the welcome message
	Opening       string // the user's opening message
	Kind          SessionKind
}

// MessageEvent is one inbound message addressed to a conversation.
type MessageEvent struct {
	ID             string
	ConversationID string
	Text           string
	AuthorIsBot    bool
	ReceivedAt     time.Time
}

// NewMessageEvent creates an event with a fresh ID and receipt timestamp.
func NewMessageEvent(conversationID, text string, authorIsBot bool) MessageEvent {
	return MessageEvent{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Text:           text,
		AuthorIsBot:    authorIsBot,
		ReceivedAt:     time.Now(),
	}
}

// CloseRequest asks the engine to end a session.
type CloseRequest struct {
	ConversationID string
}
