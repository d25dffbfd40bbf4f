package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrkirby153/todoist-bot/internal/protocol"
	"github.com/mrkirby153/todoist-bot/internal/todoist"
)

// sectionSelect moves the task named in the custom id to the chosen
// project or section and replaces the picker message.
func (b *bot) sectionSelect(ctx context.Context, in *protocol.Interaction, taskID string) (*protocol.Response, error) {
	if taskID == "" {
		return nil, fmt.Errorf("section select: custom id has no task")
	}
	if in.Component == nil || len(in.Component.Values) == 0 {
		return nil, fmt.Errorf("section select: nothing selected")
	}

	dst := ParseDestination(in.Component.Values[0])
	if err := b.tasks.MoveTask(ctx, taskID, dst); err != nil {
		return nil, err
	}

	where := "project"
	if dst.SectionID != "" {
		where = "section"
	}
	task := todoist.Task{ID: taskID}
	return protocol.Update(&protocol.ResponseData{
		Components: []protocol.Component{protocol.Container(AccentOK,
			protocol.Section(
				protocol.LinkButton("View Task", task.URL(), &protocol.Emoji{Name: emojiLink}),
				protocol.TextDisplay(fmt.Sprintf("%s Moved task to the selected %s.", emojiTick, where)),
			),
		)},
		Flags: protocol.FlagEphemeral | protocol.FlagIsComponentsV2,
	}), nil
}

// ParseDestination reads a picker value: "<project>" or "<project>-<section>".
func ParseDestination(value string) todoist.Destination {
	project, section, ok := strings.Cut(value, "-")
	if ok && section != "" {
		return todoist.Destination{SectionID: section}
	}
	return todoist.Destination{ProjectID: project}
}
