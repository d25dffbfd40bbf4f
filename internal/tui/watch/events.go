package watch

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tidwall/gjson"

	"github.com/mrkirby153/todoist-bot/internal/events"
)

const streamLines = 8

func renderEventStream(eventLog []events.Event, theme Theme, width int) string {
	innerWidth := width - 4

	if len(eventLog) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			theme.Title.Render("EVENT STREAM"),
			theme.Dim.Render("  Waiting for interactions..."),
		)
		return theme.Border.Width(innerWidth).Render(content)
	}

	var lines []string
	for i, e := range eventLog {
		if i >= streamLines {
			break
		}
		lines = append(lines, formatEvent(e, theme))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.Title.Render("EVENT STREAM"),
		lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(lines, "\n")),
	)
	return theme.Border.Width(innerWidth).Render(content)
}

func formatEvent(e events.Event, theme Theme) string {
	ts := theme.Dim.Render(e.At.Format("15:04:05"))
	status, _ := statusFor(e.Type)
	typeName := theme.statusStyle(status).Render(fmt.Sprintf("%-28s", e.Type))
	return fmt.Sprintf("%s %s %s", ts, typeName, describeEvent(e))
}

// describeEvent summarises an event payload in one short line.
func describeEvent(e events.Event) string {
	data := gjson.ParseBytes(e.Data)

	var parts []string
	if id := data.Get("interaction_id").String(); id != "" {
		parts = append(parts, "["+shortID(id)+"]")
	}
	if label := data.Get("label").String(); label != "" {
		parts = append(parts, label)
	}
	if ms := data.Get("duration_ms"); ms.Exists() {
		parts = append(parts, fmt.Sprintf("%dms", ms.Int()))
	}
	if msg := data.Get("error").String(); msg != "" {
		parts = append(parts, msg)
	}

	if len(parts) == 0 {
		raw := string(e.Data)
		if len(raw) > 60 {
			raw = raw[:60] + "..."
		}
		return raw
	}
	return strings.Join(parts, " ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}
