// Package completion wraps the external chat-completion service.
package completion

import (
	"context"

	"github.com/solacebot/solace/internal/conversation"
)

// Client abstracts the completion call so the engine can be tested
// without a live endpoint.
type Client interface {
	// Complete sends the ordered message context and returns the
	// generated reply text. Failures are typed: TimeoutError,
	// UpstreamError, or DecodeError.
	Complete(ctx context.Context, messages []conversation.Turn) (string, error)
}
