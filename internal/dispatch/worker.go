package dispatch

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/solacebot/solace/internal/messaging"
)

// Handler processes one inbound event and reports whether a reply should
// be delivered. The session engine satisfies this.
type Handler interface {
	Handle(ctx context.Context, ev messaging.MessageEvent) (string, bool)
}

// WorkerPool runs a fixed set of workers draining the dispatcher and
// delivering replies through the messenger.
type WorkerPool struct {
	size      int
	manager   *Manager
	handler   Handler
	messenger messaging.Messenger
	logger    *zap.Logger
}

// NewWorkerPool creates a worker pool.
func NewWorkerPool(size int, manager *Manager, handler Handler, messenger messaging.Messenger, logger *zap.Logger) (*WorkerPool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", size)
	}
	if manager == nil {
		return nil, fmt.Errorf("manager is required")
	}
	if handler == nil {
		return nil, fmt.Errorf("handler is required")
	}
	if messenger == nil {
		return nil, fmt.Errorf("messenger is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WorkerPool{
		size:      size,
		manager:   manager,
		handler:   handler,
		messenger: messenger,
		logger:    logger,
	}, nil
}

// Start runs the workers and blocks until the context is canceled and
// all workers have drained.
func (wp *WorkerPool) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 1; i <= wp.size; i++ {
		id := i
		g.Go(func() error {
			wp.run(gctx, id)
			return nil
		})
	}
	return g.Wait()
}

func (wp *WorkerPool) run(ctx context.Context, id int) {
	logger := wp.logger.With(zap.Int("worker", id))
	logger.Info("worker started")

	for {
		ev, err := wp.manager.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				logger.Info("worker shutting down")
			} else {
				logger.Info("worker stopping", zap.Error(err))
			}
			return
		}

		wp.process(ctx, logger, ev)
		wp.manager.Complete(ev.ConversationID)
	}
}

func (wp *WorkerPool) process(ctx context.Context, logger *zap.Logger, ev messaging.MessageEvent) {
	thread := messaging.ThreadRef{ID: ev.ConversationID}

	if err := wp.messenger.Typing(ctx, thread); err != nil {
		logger.Debug("typing indicator failed", zap.Error(err))
	}

	reply, deliver := wp.handler.Handle(ctx, ev)
	if !deliver {
		return
	}

	if err := wp.messenger.SendMessage(ctx, thread, reply); err != nil {
		logger.Error("failed to deliver reply",
			zap.String("conversation_id", ev.ConversationID),
			zap.Error(err))
	}
}
