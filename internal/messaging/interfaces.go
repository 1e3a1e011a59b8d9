// Package messaging defines the contract between the session engine and
// the messaging platform.
package messaging

import (
	"context"
	"errors"
)

// ErrPermissionDenied is returned by Messenger operations the bot lacks
// platform permissions for. The engine maps it to an actionable
// capability error rather than a raw failure.
var ErrPermissionDenied = errors.New("messaging: permission denied")

// Messenger abstracts the platform operations the engine needs.
type Messenger interface {
	// CreateThread creates an isolated conversation thread under the
	// given parent channel. Returns ErrPermissionDenied (possibly
	// wrapped) when the bot may not create threads there.
	CreateThread(ctx context.Context, name string, parentChannel string) (ThreadRef, error)

	// SendMessage delivers text to a thread.
	SendMessage(ctx context.Context, thread ThreadRef, text string) error

	// ArchiveAndLock archives the thread and prevents further posting.
	ArchiveAndLock(ctx context.Context, thread ThreadRef) error

	// Typing shows a typing indicator in the thread while a reply is
	// being generated. Best effort; failures are not significant.
	Typing(ctx context.Context, thread ThreadRef) error
}
