package dispatch

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/solacebot/solace/internal/messaging"
)

// queue holds pending events for a single conversation. Events leave in
// receipt order, one in flight at a time, so exchanges within a
// conversation never reorder or overlap.
type queue struct {
	events         *list.List
	processing     bool
	conversationID string
	mu             sync.Mutex
}

func newQueue(conversationID string) *queue {
	return &queue{
		conversationID: conversationID,
		events:         list.New(),
	}
}

func (q *queue) enqueue(ev messaging.MessageEvent) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if ev.ConversationID != q.conversationID {
		return fmt.Errorf("event conversation ID %s does not match queue ID %s",
			ev.ConversationID, q.conversationID)
	}

	q.events.PushBack(ev)
	return nil
}

// dequeue removes and returns the next event. Returns false if the queue
// is empty or an event is already in flight.
func (q *queue) dequeue() (messaging.MessageEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.processing {
		return messaging.MessageEvent{}, false
	}

	front := q.events.Front()
	if front == nil {
		return messaging.MessageEvent{}, false
	}

	ev, ok := front.Value.(messaging.MessageEvent)
	if !ok {
		return messaging.MessageEvent{}, false
	}
	q.events.Remove(front)
	q.processing = true

	return ev, true
}

// complete marks the in-flight event as done.
func (q *queue) complete() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.processing = false
}

func (q *queue) empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.events.Len() == 0 && !q.processing
}
