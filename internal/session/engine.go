// Package session orchestrates conversation sessions: crisis gating,
// prompt assembly, completion calls, and the open/closed lifecycle.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/solacebot/solace/internal/completion"
	"github.com/solacebot/solace/internal/conversation"
	"github.com/solacebot/solace/internal/crisis"
	"github.com/solacebot/solace/internal/messaging"
	"github.com/solacebot/solace/internal/metrics"
	"github.com/solacebot/solace/internal/prompt"
)

// state is the lifecycle position of one conversation.
type state int

const (
	stateOpen state = iota + 1
	stateClosed
)

// Config holds the engine's persona and user-facing texts. Zero-valued
// text fields fall back to the package defaults.
type Config struct {
	PersonaPrompt string // opaque system instruction, required
	PersonaName   string // used in thread names

	CrisisResponse    string
	TimeoutFallback   string
	UpstreamFallback  string
	TransportFallback string
	Farewell          string
	FarewellEmpty     string
	Welcome           string // fmt template: user mention, first reply
}

func (c Config) withDefaults() Config {
	if c.PersonaName == "" {
		c.PersonaName = "Zoya"
	}
	if c.CrisisResponse == "" {
		c.CrisisResponse = DefaultCrisisResponse
	}
	if c.TimeoutFallback == "" {
		c.TimeoutFallback = DefaultTimeoutFallback
	}
	if c.UpstreamFallback == "" {
		c.UpstreamFallback = DefaultUpstreamFallback
	}
	if c.TransportFallback == "" {
		c.TransportFallback = DefaultTransportFallback
	}
	if c.Farewell == "" {
		c.Farewell = DefaultFarewell
	}
	if c.FarewellEmpty == "" {
		c.FarewellEmpty = DefaultFarewellNothingStored
	}
	if c.Welcome == "" {
		c.Welcome = DefaultWelcome
	}
	return c
}

// Engine owns session lifecycles and drives the exchange pipeline.
// The set of managed conversation IDs lives here, not in thread names.
type Engine struct {
	config    Config
	store     *conversation.Store
	detector  *crisis.Detector
	client    completion.Client
	messenger messaging.Messenger
	logger    *zap.Logger
	metrics   *metrics.Metrics

	mu     sync.Mutex
	states map[string]state
}

// Option configures the engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics attaches engine instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine creates a session engine.
func NewEngine(
	config Config,
	store *conversation.Store,
	detector *crisis.Detector,
	client completion.Client,
	messenger messaging.Messenger,
	opts ...Option,
) (*Engine, error) {
	if config.PersonaPrompt == "" {
		return nil, fmt.Errorf("persona prompt is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if detector == nil {
		return nil, fmt.Errorf("detector is required")
	}
	if client == nil {
		return nil, fmt.Errorf("completion client is required")
	}
	if messenger == nil {
		return nil, fmt.Errorf("messenger is required")
	}

	e := &Engine{
		config:    config.withDefaults(),
		store:     store,
		detector:  detector,
		client:    client,
		messenger: messenger,
		logger:    zap.NewNop(),
		states:    make(map[string]state),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// StartResult is the outcome of opening a session.
type StartResult struct {
	Thread  messaging.ThreadRef
	Reply   string // the assistant's first reply
	Welcome string // full thread opener, ready to post
}

// Start opens a new session: runs the pipeline on the opening message
// with empty history, creates the thread, and records the first
// exchange. On a permission failure nothing is created or written.
func (e *Engine) Start(ctx context.Context, req messaging.StartRequest) (*StartResult, error) {
	if req.Opening == "" {
		return nil, fmt.Errorf("opening message cannot be empty")
	}

	verdict := e.detector.Detect(req.Opening)
	var reply string
	if verdict == crisis.Flagged {
		reply = e.config.CrisisResponse
	} else {
		reply = e.generate(ctx, nil, req.Opening)
	}

	threadName := fmt.Sprintf("%s's %s with %s", req.UserName, req.Kind, e.config.PersonaName)
	thread, err := e.messenger.CreateThread(ctx, threadName, req.ParentChannel)
	if err != nil {
		if errors.Is(err, messaging.ErrPermissionDenied) {
			return nil, &CapabilityError{Action: "create threads", Err: err}
		}
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}

	e.mu.Lock()
	e.states[thread.ID] = stateOpen
	if verdict != crisis.Flagged {
		e.store.AppendExchange(thread.ID,
			conversation.UserTurn(req.Opening),
			conversation.AssistantTurn(reply),
		)
	}
	e.mu.Unlock()
	e.metrics.SessionOpened()

	if verdict == crisis.Flagged {
		// Crisis replies never enter history.
		e.metrics.Exchange(metrics.OutcomeCrisis)
	} else {
		e.metrics.Exchange(metrics.OutcomeReply)
	}

	e.logger.Info("session opened",
		zap.String("conversation_id", thread.ID),
		zap.String("kind", string(req.Kind)),
		zap.String("verdict", verdict.String()),
	)

	return &StartResult{
		Thread:  thread,
		Reply:   reply,
		Welcome: fmt.Sprintf(e.config.Welcome, req.UserMention, reply),
	}, nil
}

// Handle processes one inbound message for an open session. The second
// return value reports whether a reply should be delivered; events from
// bots, for unknown conversations, or for closed conversations produce
// no reply.
func (e *Engine) Handle(ctx context.Context, ev messaging.MessageEvent) (string, bool) {
	if ev.AuthorIsBot {
		e.metrics.Exchange(metrics.OutcomeIgnored)
		return "", false
	}

	e.mu.Lock()
	st := e.states[ev.ConversationID]
	e.mu.Unlock()
	if st != stateOpen {
		if st == stateClosed {
			// The platform should stop routing to archived threads;
			// if it does not, old history must stay gone.
			e.logger.Debug("dropping message for closed conversation",
				zap.String("conversation_id", ev.ConversationID))
		}
		e.metrics.Exchange(metrics.OutcomeIgnored)
		return "", false
	}

	if e.detector.Detect(ev.Text) == crisis.Flagged {
		// Short-circuit: no store writes, no completion call, no quota.
		e.logger.Info("crisis gate triggered",
			zap.String("conversation_id", ev.ConversationID))
		e.metrics.Exchange(metrics.OutcomeCrisis)
		return e.config.CrisisResponse, true
	}

	history := e.store.Snapshot(ev.ConversationID)
	reply := e.generate(ctx, history, ev.Text)

	// The completion call is slow and Close does not wait for it. The
	// state is re-checked under the same lock that guards the append so
	// an exchange finishing after a close cannot write into the cleared
	// history.
	e.mu.Lock()
	if e.states[ev.ConversationID] != stateOpen {
		e.mu.Unlock()
		e.logger.Info("dropping exchange completed after close",
			zap.String("conversation_id", ev.ConversationID))
		e.metrics.Exchange(metrics.OutcomeIgnored)
		return "", false
	}
	e.store.AppendExchange(ev.ConversationID,
		conversation.UserTurn(ev.Text),
		conversation.AssistantTurn(reply),
	)
	e.mu.Unlock()
	e.metrics.Exchange(metrics.OutcomeReply)

	return reply, true
}

// Close ends a session: clears its history, requests the thread be
// archived and locked, and returns a farewell. Closed is terminal.
func (e *Engine) Close(ctx context.Context, req messaging.CloseRequest) (string, error) {
	e.mu.Lock()
	st := e.states[req.ConversationID]
	if st == 0 {
		e.mu.Unlock()
		return "", ErrNotManaged
	}
	e.states[req.ConversationID] = stateClosed
	cleared := e.store.Clear(req.ConversationID)
	e.mu.Unlock()

	if st == stateOpen {
		e.metrics.SessionClosed()
	}

	if err := e.messenger.ArchiveAndLock(ctx, messaging.ThreadRef{ID: req.ConversationID}); err != nil {
		// The farewell is already determined; archiving is the
		// platform's side and its failure is an operator concern.
		e.logger.Warn("failed to archive thread",
			zap.String("conversation_id", req.ConversationID),
			zap.Error(err))
	}

	e.logger.Info("session closed",
		zap.String("conversation_id", req.ConversationID),
		zap.Bool("history_cleared", cleared))

	if cleared {
		return e.config.Farewell, nil
	}
	return e.config.FarewellEmpty, nil
}

// Managed reports whether the engine currently owns an open session for
// the conversation. The messaging adapter uses this instead of
// inspecting thread names.
func (e *Engine) Managed(conversationID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.states[conversationID] == stateOpen
}

// generate runs assemble → complete and folds every failure kind into
// its fallback reply. It always returns usable text.
func (e *Engine) generate(ctx context.Context, history []conversation.Turn, text string) string {
	messages := prompt.Assemble(e.config.PersonaPrompt, history, text)

	start := time.Now()
	reply, err := e.client.Complete(ctx, messages)
	e.metrics.CompletionCall(time.Since(start))
	if err == nil {
		return reply
	}

	kind, fallback := e.classifyFailure(err)
	e.logger.Error("completion call failed",
		zap.String("kind", kind),
		zap.Error(err))
	e.metrics.CompletionFailure(kind)
	return fallback
}

func (e *Engine) classifyFailure(err error) (kind, fallback string) {
	switch {
	case completion.IsTimeout(err):
		return "timeout", e.config.TimeoutFallback
	case completion.IsUpstream(err):
		return "upstream", e.config.UpstreamFallback
	default:
		return "transport", e.config.TransportFallback
	}
}
