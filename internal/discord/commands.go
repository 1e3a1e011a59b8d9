package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/solacebot/solace/internal/messaging"
)

// User-facing texts for interaction acknowledgments.
const (
	startAckText = "Your thread is ready: %s\n" +
		"Just talk there whenever you're ready ❤️"
	permissionDeniedText = "I don't have permission to create threads here.\n" +
		"Please give me **Manage Threads** + **Create Public Threads** permissions."
	startFailedText   = "Something went wrong creating your thread... try again?"
	notSessionText    = "This doesn't look like a session thread."
	closeFailedText   = "Something went wrong closing your session... try again?"
	messageOptionName = "message"
)

// commandDefinitions returns the slash commands the bot registers.
func commandDefinitions() []*discordgo.ApplicationCommand {
	openingOption := func(description string) []*discordgo.ApplicationCommandOption {
		return []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        messageOptionName,
				Description: description,
				Required:    true,
			},
		}
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        "vent",
			Description: "Start venting — a private-feeling thread will be made for you",
			Options:     openingOption("What's on your mind?"),
		},
		{
			Name:        "talk",
			Description: "Start a calm conversation",
			Options:     openingOption("How are you feeling?"),
		},
		{
			Name:        "rant",
			Description: "Let it all out — a thread will be made for you",
			Options:     openingOption("What's frustrating you?"),
		},
		{
			Name:        "close",
			Description: "End your session and clear all memory",
		},
	}
}

// kindForCommand maps a session-start command name to its kind.
func kindForCommand(name string) (messaging.SessionKind, bool) {
	switch name {
	case "vent":
		return messaging.KindVent, true
	case "talk":
		return messaging.KindTalk, true
	case "rant":
		return messaging.KindRant, true
	default:
		return "", false
	}
}

// openingMessage extracts the required opening message option.
func openingMessage(data discordgo.ApplicationCommandInteractionData) (string, error) {
	for _, opt := range data.Options {
		if opt.Name == messageOptionName && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue(), nil
		}
	}
	return "", fmt.Errorf("interaction is missing the %s option", messageOptionName)
}

// interactionUser returns the invoking user for guild and DM
// interactions alike.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// threadUserName flattens a display name for use in a thread title.
func threadUserName(user *discordgo.User) string {
	if user == nil {
		return "friend"
	}
	return strings.ReplaceAll(user.Username, " ", "")
}
