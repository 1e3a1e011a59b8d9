package prompt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solacebot/solace/internal/conversation"
	"github.com/solacebot/solace/internal/prompt"
)

func TestAssemble_EmptyHistory(t *testing.T) {
	messages := prompt.Assemble("be gentle", nil, "hello")

	require.Len(t, messages, 2)
	assert.Equal(t, conversation.SystemTurn("be gentle"), messages[0])
	assert.Equal(t, conversation.UserTurn("hello"), messages[1])
}

func TestAssemble_FullHistoryInOrder(t *testing.T) {
	history := []conversation.Turn{
		conversation.UserTurn("I'm overwhelmed"),
		conversation.AssistantTurn("I'm here. Tell me more?"),
		conversation.UserTurn("work has been relentless"),
		conversation.AssistantTurn("that sounds exhausting"),
	}

	messages := prompt.Assemble("persona", history, "it's been a hard week")

	require.Len(t, messages, len(history)+2)
	assert.Equal(t, conversation.RoleSystem, messages[0].Role)
	for i, turn := range history {
		assert.Equal(t, turn, messages[i+1])
	}
	assert.Equal(t, conversation.UserTurn("it's been a hard week"), messages[len(messages)-1])
}

func TestAssemble_DoesNotAliasHistory(t *testing.T) {
	history := []conversation.Turn{conversation.UserTurn("hi")}

	messages := prompt.Assemble("persona", history, "again")
	messages[1].Content = "mutated"

	assert.Equal(t, "hi", history[0].Content)
}
