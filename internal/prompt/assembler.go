// Package prompt builds the ordered message context sent to the
// completion service.
package prompt

import (
	"github.com/solacebot/solace/internal/conversation"
)

// Assemble produces the full completion context for one exchange:
// the persona instruction, the entire history verbatim, then the new
// user message. No truncation or summarization is applied, so request
// size grows with conversation length; long sessions eventually hit
// the service's own context limit.
func Assemble(persona string, history []conversation.Turn, newMessage string) []conversation.Turn {
	messages := make([]conversation.Turn, 0, len(history)+2)
	messages = append(messages, conversation.SystemTurn(persona))
	messages = append(messages, history...)
	messages = append(messages, conversation.UserTurn(newMessage))
	return messages
}
