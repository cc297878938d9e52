package discord

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildAlertEmbed(t *testing.T) {
	embed := BuildAlertEmbed(AlertSuccess, "Wartelistenplatz bestätigt", map[string]any{
		"EventTitle": "Herbstbasteln",
		"FullName":   "Ben Beispiel",
		"Waitlisted": true,
		"ChildCount": 2,
		"Phone":      "",
		"Children":   "Mia Beispiel, Tom Beispiel, und noch ein sehr langer Name dazu",
	})

	require.Equal(t, "Wartelistenplatz bestätigt", embed.Title)
	require.Equal(t, colorSuccess, embed.Color)
	require.Equal(t, "**Herbstbasteln**\nBen Beispiel", embed.Description)

	names := make([]string, 0, len(embed.Fields))
	for _, f := range embed.Fields {
		names = append(names, f.Name)
	}
	require.Equal(t, []string{"ChildCount", "Children", "Waitlisted"}, names, "sorted, empty values dropped")
	require.Equal(t, "2", embed.Fields[0].Value)
	require.True(t, embed.Fields[0].Inline)
	require.False(t, embed.Fields[1].Inline)
	require.Equal(t, "ja", embed.Fields[2].Value)
}

func TestBuildAlertEmbed_EmptyData(t *testing.T) {
	embed := BuildAlertEmbed(AlertInfo, "Neue Anmeldung", nil)
	require.Empty(t, embed.Description)
	require.Empty(t, embed.Fields)
	require.Equal(t, colorInfo, embed.Color)
}
