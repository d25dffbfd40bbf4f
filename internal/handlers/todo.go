package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrkirby153/todoist-bot/internal/protocol"
)

const messageLinkBase = "https://discord.com/channels/"

func (b *bot) addToDo(ctx context.Context, in *protocol.Interaction) (*protocol.Response, error) {
	msg, ok := targetMessage(in)
	if !ok {
		return protocol.EphemeralText(emojiCross + " Could not find the target message to create a reminder from."), nil
	}

	text := FlattenMessage(msg)
	if strings.TrimSpace(text) == "" {
		return protocol.EphemeralText(emojiCross + " That message has no text to create a reminder from."), nil
	}
	return b.createFromText(ctx, text, MessageLink(in.GuildID, msg))
}

func targetMessage(in *protocol.Interaction) (protocol.Message, bool) {
	if in.Command == nil || in.Command.Resolved == nil || in.Command.TargetID == "" {
		return protocol.Message{}, false
	}
	msg, ok := in.Command.Resolved.Messages[in.Command.TargetID]
	if ok && msg.ID == "" {
		msg.ID = in.Command.TargetID
	}
	return msg, ok
}

// MessageLink is the jump link of msg. Direct messages use "@me" in place
// of the guild.
func MessageLink(guildID string, msg protocol.Message) string {
	if guildID == "" {
		guildID = "@me"
	}
	return fmt.Sprintf("%s%s/%s/%s", messageLinkBase, guildID, msg.ChannelID, msg.ID)
}

// FlattenMessage collects the readable text of a message: its content, its
// embeds, and the text displays of any component tree.
func FlattenMessage(msg protocol.Message) string {
	var sb strings.Builder
	sb.WriteString(msg.Content)

	for _, e := range msg.Embeds {
		if e.Title != "" {
			sb.WriteString(e.Title)
			sb.WriteByte('\n')
		}
		if e.Description != "" {
			sb.WriteString(e.Description)
			sb.WriteByte('\n')
		}
		fields := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			fields = append(fields, f.Name+": "+f.Value)
		}
		sb.WriteString(strings.Join(fields, "\n"))
		sb.WriteByte('\n')
	}

	for _, c := range msg.Components {
		if s, ok := componentText(c); ok {
			sb.WriteString(s)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func componentText(c protocol.Component) (string, bool) {
	switch c.Type {
	case protocol.ComponentTextDisplay:
		return c.Content, true
	case protocol.ComponentContainer, protocol.ComponentSection:
		var sb strings.Builder
		for _, child := range c.Components {
			if s, ok := componentText(child); ok {
				sb.WriteString(s)
				sb.WriteByte('\n')
			}
		}
		if sb.Len() == 0 {
			return "", false
		}
		return sb.String(), true
	default:
		return "", false
	}
}
