package discord

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const (
	colorInfo    = 0x5865F2
	colorSuccess = 0x57F287
	colorWarning = 0xFEE75C
)

// Field keys that are promoted into the embed header rather than listed.
const (
	keyEventTitle = "EventTitle"
	keyFullName   = "FullName"
)

// AlertKind selects the colour of an alert embed.
type AlertKind int

const (
	AlertInfo AlertKind = iota
	AlertSuccess
	AlertWarning
)

func (k AlertKind) color() int {
	switch k {
	case AlertSuccess:
		return colorSuccess
	case AlertWarning:
		return colorWarning
	default:
		return colorInfo
	}
}

// BuildAlertEmbed builds an organizer alert. data is the template data of a
// notification; the event title and applicant name form the header, the
// remaining non-empty values are listed as inline fields in key order.
func BuildAlertEmbed(kind AlertKind, title string, data map[string]any) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: title,
		Color: kind.color(),
	}

	var desc strings.Builder
	if v := stringValue(data[keyEventTitle]); v != "" {
		desc.WriteString(fmt.Sprintf("**%s**", v))
	}
	if v := stringValue(data[keyFullName]); v != "" {
		if desc.Len() > 0 {
			desc.WriteString("\n")
		}
		desc.WriteString(v)
	}
	embed.Description = desc.String()

	keys := make([]string, 0, len(data))
	for k := range data {
		if k == keyEventTitle || k == keyFullName {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := stringValue(data[k])
		if v == "" {
			continue
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   k,
			Value:  v,
			Inline: len(v) < 40,
		})
	}
	return embed
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case bool:
		if t {
			return "ja"
		}
		return "nein"
	default:
		return fmt.Sprint(t)
	}
}
