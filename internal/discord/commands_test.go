package discord

import (
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solacebot/solace/internal/messaging"
)

func TestCommandDefinitions(t *testing.T) {
	defs := commandDefinitions()
	require.Len(t, defs, 4)

	names := make(map[string]*discordgo.ApplicationCommand)
	for _, def := range defs {
		names[def.Name] = def
	}

	for _, starter := range []string{"vent", "talk", "rant"} {
		cmd, ok := names[starter]
		require.True(t, ok, "missing command %s", starter)
		require.Len(t, cmd.Options, 1)
		assert.Equal(t, messageOptionName, cmd.Options[0].Name)
		assert.True(t, cmd.Options[0].Required)
	}

	closeCmd, ok := names["close"]
	require.True(t, ok)
	assert.Empty(t, closeCmd.Options)
}

func TestKindForCommand(t *testing.T) {
	tests := []struct {
		name string
		want messaging.SessionKind
		ok   bool
	}{
		{"vent", messaging.KindVent, true},
		{"talk", messaging.KindTalk, true},
		{"rant", messaging.KindRant, true},
		{"close", "", false},
		{"unknown", "", false},
	}

	for _, tt := range tests {
		kind, ok := kindForCommand(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.want, kind, tt.name)
	}
}

func TestOpeningMessage(t *testing.T) {
	data := discordgo.ApplicationCommandInteractionData{
		Name: "vent",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{
				Name:  messageOptionName,
				Type:  discordgo.ApplicationCommandOptionString,
				Value: "I'm overwhelmed",
			},
		},
	}

	opening, err := openingMessage(data)
	require.NoError(t, err)
	assert.Equal(t, "I'm overwhelmed", opening)

	_, err = openingMessage(discordgo.ApplicationCommandInteractionData{Name: "vent"})
	assert.Error(t, err)
}

func TestThreadUserName(t *testing.T) {
	assert.Equal(t, "quietsam", threadUserName(&discordgo.User{Username: "quiet sam"}))
	assert.Equal(t, "sam", threadUserName(&discordgo.User{Username: "sam"}))
	assert.Equal(t, "friend", threadUserName(nil))
}

func TestMapRESTError(t *testing.T) {
	forbidden := &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusForbidden},
	}
	err := mapRESTError("create thread", forbidden)
	assert.ErrorIs(t, err, messaging.ErrPermissionDenied)

	serverErr := &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusInternalServerError},
	}
	err = mapRESTError("create thread", serverErr)
	assert.NotErrorIs(t, err, messaging.ErrPermissionDenied)
	assert.Error(t, err)
}
