package dispatch_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/solacebot/solace/internal/dispatch"
	"github.com/solacebot/solace/internal/messaging"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recordingHandler tracks per-conversation processing order and detects
// overlapping work on the same conversation.
type recordingHandler struct {
	mu       sync.Mutex
	inFlight map[string]bool
	order    map[string][]string
	overlap  bool
	delay    time.Duration
}

func newRecordingHandler(delay time.Duration) *recordingHandler {
	return &recordingHandler{
		inFlight: make(map[string]bool),
		order:    make(map[string][]string),
		delay:    delay,
	}
}

func (h *recordingHandler) Handle(_ context.Context, ev messaging.MessageEvent) (string, bool) {
	h.mu.Lock()
	if h.inFlight[ev.ConversationID] {
		h.overlap = true
	}
	h.inFlight[ev.ConversationID] = true
	h.mu.Unlock()

	time.Sleep(h.delay)

	h.mu.Lock()
	h.inFlight[ev.ConversationID] = false
	h.order[ev.ConversationID] = append(h.order[ev.ConversationID], ev.Text)
	h.mu.Unlock()

	return "reply to " + ev.Text, true
}

type recordingMessenger struct {
	mu   sync.Mutex
	sent map[string][]string
}

func newRecordingMessenger() *recordingMessenger {
	return &recordingMessenger{sent: make(map[string][]string)}
}

func (m *recordingMessenger) CreateThread(_ context.Context, name, _ string) (messaging.ThreadRef, error) {
	return messaging.ThreadRef{ID: name}, nil
}

func (m *recordingMessenger) SendMessage(_ context.Context, thread messaging.ThreadRef, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent[thread.ID] = append(m.sent[thread.ID], text)
	return nil
}

func (m *recordingMessenger) ArchiveAndLock(_ context.Context, _ messaging.ThreadRef) error {
	return nil
}

func (m *recordingMessenger) Typing(_ context.Context, _ messaging.ThreadRef) error {
	return nil
}

func (m *recordingMessenger) sentTo(id string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent[id]))
	copy(out, m.sent[id])
	return out
}

func runPool(t *testing.T, size int, handler dispatch.Handler, messenger messaging.Messenger) (*dispatch.Manager, func()) {
	t.Helper()

	manager := dispatch.NewManager(zap.NewNop())
	pool, err := dispatch.NewWorkerPool(size, manager, handler, messenger, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = pool.Start(ctx)
	}()

	return manager, func() {
		cancel()
		manager.Stop()
		<-done
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestDispatch_PreservesOrderWithinConversation(t *testing.T) {
	handler := newRecordingHandler(time.Millisecond)
	messenger := newRecordingMessenger()
	manager, stop := runPool(t, 4, handler, messenger)
	defer stop()

	const events = 20
	for i := 0; i < events; i++ {
		require.NoError(t, manager.Submit(
			messaging.NewMessageEvent("thread-1", fmt.Sprintf("msg-%02d", i), false)))
	}

	waitFor(t, 5*time.Second, func() bool {
		return len(messenger.sentTo("thread-1")) == events
	})

	handler.mu.Lock()
	defer handler.mu.Unlock()
	assert.False(t, handler.overlap, "two events for one conversation were processed concurrently")
	for i, text := range handler.order["thread-1"] {
		assert.Equal(t, fmt.Sprintf("msg-%02d", i), text)
	}
}

func TestDispatch_ConversationsProceedIndependently(t *testing.T) {
	// A slow conversation must not block a fast one.
	handler := newRecordingHandler(100 * time.Millisecond)
	messenger := newRecordingMessenger()
	manager, stop := runPool(t, 2, handler, messenger)
	defer stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, manager.Submit(
			messaging.NewMessageEvent("slow", fmt.Sprintf("slow-%d", i), false)))
	}
	require.NoError(t, manager.Submit(messaging.NewMessageEvent("fast", "fast-0", false)))

	waitFor(t, 5*time.Second, func() bool {
		return len(messenger.sentTo("fast")) == 1
	})
	// The slow conversation still has work pending when fast finishes.
	assert.Less(t, len(messenger.sentTo("slow")), 3)

	waitFor(t, 5*time.Second, func() bool {
		return len(messenger.sentTo("slow")) == 3
	})
}

func TestDispatch_NoDeliveryWhenHandlerDeclines(t *testing.T) {
	declining := handlerFunc(func(_ context.Context, _ messaging.MessageEvent) (string, bool) {
		return "", false
	})
	messenger := newRecordingMessenger()
	manager, stop := runPool(t, 1, declining, messenger)
	defer stop()

	require.NoError(t, manager.Submit(messaging.NewMessageEvent("thread-1", "ignored", true)))

	waitFor(t, 5*time.Second, func() bool {
		return manager.Pending() == 0
	})
	assert.Empty(t, messenger.sentTo("thread-1"))
}

func TestDispatch_SubmitAfterStopFails(t *testing.T) {
	manager := dispatch.NewManager(zap.NewNop())
	manager.Stop()

	err := manager.Submit(messaging.NewMessageEvent("thread-1", "late", false))
	assert.Error(t, err)
}

func TestDispatch_NextUnblocksOnContextCancel(t *testing.T) {
	manager := dispatch.NewManager(zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := manager.Next(ctx)
		errCh <- err
	}()

	cancel()
	select {
	case err := <-errCh:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not unblock on context cancellation")
	}
}

// handlerFunc adapts a function to the Handler interface.
type handlerFunc func(ctx context.Context, ev messaging.MessageEvent) (string, bool)

func (f handlerFunc) Handle(ctx context.Context, ev messaging.MessageEvent) (string, bool) {
	return f(ctx, ev)
}
