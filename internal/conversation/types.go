package conversation

// Role identifies the author of a turn in a conversation.
type Role string

const (
	// RoleSystem is the persona instruction turn.
	RoleSystem Role = "system"
	// RoleUser is a turn authored by the person in the thread.
	RoleUser Role = "user"
	// RoleAssistant is a turn authored by the bot.
	RoleAssistant Role = "assistant"
)

// Turn is one role-tagged message unit in a conversation's history.
// Turns are immutable once created.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserTurn creates a user-authored turn.
func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// AssistantTurn creates a bot-authored turn.
func AssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}

// SystemTurn creates a persona instruction turn.
func SystemTurn(content string) Turn {
	return Turn{Role: RoleSystem, Content: content}
}
