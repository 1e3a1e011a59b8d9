// Package dispatch routes inbound message events to workers while
// preserving receipt order within each conversation. Submitting an event
// is the immediate acknowledgment phase; a worker delivers the final
// reply asynchronously once the pipeline finishes.
package dispatch

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/solacebot/solace/internal/messaging"
)

// Manager is the single inbound-event dispatcher. Distinct conversations
// proceed independently; one event per conversation is in flight at a
// time.
type Manager struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queues  map[string]*queue
	stopped bool
	logger  *zap.Logger
}

// NewManager creates a dispatcher.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		queues: make(map[string]*queue),
		logger: logger,
	}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Submit enqueues one event and returns immediately.
func (m *Manager) Submit(ev messaging.MessageEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return fmt.Errorf("dispatcher is stopped")
	}

	q, exists := m.queues[ev.ConversationID]
	if !exists {
		q = newQueue(ev.ConversationID)
		m.queues[ev.ConversationID] = q
	}
	if err := q.enqueue(ev); err != nil {
		return fmt.Errorf("failed to enqueue event: %w", err)
	}

	m.cond.Broadcast()
	return nil
}

// Next blocks until an event from a conversation with no in-flight work
// is available, the context ends, or the dispatcher stops. The caller
// must call Complete for the event's conversation when done.
func (m *Manager) Next(ctx context.Context) (messaging.MessageEvent, error) {
	stop := context.AfterFunc(ctx, func() {
		m.mu.Lock()
		m.cond.Broadcast()
		m.mu.Unlock()
	})
	defer stop()

	m.mu.Lock()
	defer m.mu.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			return messaging.MessageEvent{}, fmt.Errorf("dispatcher wait canceled: %w", err)
		}
		if m.stopped {
			return messaging.MessageEvent{}, fmt.Errorf("dispatcher is stopped")
		}

		for _, q := range m.queues {
			if ev, ok := q.dequeue(); ok {
				return ev, nil
			}
		}

		m.cond.Wait()
	}
}

// Complete releases the conversation so its next queued event can be
// dispatched. Drained queues are dropped to keep the map bounded by
// active conversations.
func (m *Manager) Complete(conversationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, exists := m.queues[conversationID]
	if !exists {
		return
	}
	q.complete()
	if q.empty() {
		delete(m.queues, conversationID)
	}

	m.cond.Broadcast()
}

// Stop wakes all waiting workers and rejects further submissions.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopped = true
	m.cond.Broadcast()
	m.logger.Info("dispatcher stopped")
}

// Pending returns the number of conversations with queued or in-flight
// events.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.queues)
}
