package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mrkirby153/todoist-bot/internal/command"
	"github.com/mrkirby153/todoist-bot/internal/log"
	"github.com/mrkirby153/todoist-bot/internal/protocol"
	"github.com/mrkirby153/todoist-bot/internal/reminder"
	"github.com/mrkirby153/todoist-bot/internal/todoist"
)

// maxSelectOptions is the platform limit on options in one select menu.
const maxSelectOptions = 25

type taskAddCmd struct {
	Text string
	Due  *string
}

var taskAddSchema = command.Schema[taskAddCmd]{
	command.Required("text", command.String, func(c *taskAddCmd, v string) { c.Text = v }).
		Describe("What needs doing").
		Length(1, 500),
	command.Optional("due", command.String, func(c *taskAddCmd, v *string) { c.Due = v }).
		Describe("When it is due, e.g. \"tomorrow 9am\""),
}

func (b *bot) taskAdd(ctx context.Context, cmd taskAddCmd, _ *protocol.Interaction) (*protocol.Response, error) {
	nt := todoist.NewTask{Content: strings.TrimSpace(cmd.Text)}
	if cmd.Due != nil {
		nt.DueString = strings.TrimSpace(*cmd.Due)
	}
	if b.dryRun {
		return dryRunResponse(nt.Content), nil
	}

	task, err := b.tasks.CreateTask(ctx, nt)
	if err != nil {
		return nil, err
	}
	return b.createdResponse(ctx, task), nil
}

type aiAddCmd struct {
	Text string
}

var aiAddSchema = command.Schema[aiAddCmd]{
	command.Required("text", command.String, func(c *aiAddCmd, v string) { c.Text = v }).
		Describe("Describe the task in your own words").
		Length(1, 1000),
}

func (b *bot) aiAdd(ctx context.Context, cmd aiAddCmd, _ *protocol.Interaction) (*protocol.Response, error) {
	return b.createFromText(ctx, cmd.Text, "")
}

// createFromText generates a reminder from text and files it. source, when
// set, is linked from the task description.
func (b *bot) createFromText(ctx context.Context, text, source string) (*protocol.Response, error) {
	r, err := b.reminders.Generate(ctx, text, b.now())
	if err != nil {
		return nil, err
	}
	if b.dryRun {
		log.Get().Debug("dry run, task not created", "title", r.Title)
		return dryRunResponse(r.Title), nil
	}

	task, err := b.tasks.CreateTask(ctx, newTaskFromReminder(r, source))
	if err != nil {
		return nil, err
	}
	return b.createdResponse(ctx, task), nil
}

func newTaskFromReminder(r reminder.Reminder, source string) todoist.NewTask {
	var desc []string
	if source != "" {
		desc = append(desc, "Created from message: "+source)
	}
	desc = append(desc, r.Links...)

	nt := todoist.NewTask{
		Content:     r.Title,
		Description: strings.Join(desc, "\n"),
	}
	if r.Due != nil {
		nt.DueDatetime = r.Due.UTC().Format(time.RFC3339)
	}
	return nt
}

func dryRunResponse(title string) *protocol.Response {
	return protocol.EphemeralText(fmt.Sprintf("%s (Dry Run) Created reminder: **%s**", emojiTick, title))
}

// createdResponse confirms task with a link and a project/section picker.
// The picker is left out when projects cannot be listed.
func (b *bot) createdResponse(ctx context.Context, task todoist.Task) *protocol.Response {
	header := protocol.Section(
		protocol.LinkButton("View Task", task.URL(), &protocol.Emoji{Name: emojiLink}),
		protocol.TextDisplay(fmt.Sprintf("%s Created task:\n**%s**", emojiTick, task.Content)),
	)
	children := []protocol.Component{header}

	projects, err := b.tasks.ProjectsWithSections(ctx)
	if err != nil {
		log.Get().Warn("project picker unavailable", "task_id", task.ID, "error", err)
	} else if opts := destinationOptions(projects); len(opts) > 0 {
		children = append(children,
			protocol.Separator(true, protocol.SpacingLarge),
			protocol.ActionRow(protocol.StringSelect(SectionSelectPrefix+":"+task.ID, "Update Section", opts...)),
		)
	}
	return protocol.EphemeralComponents(protocol.Container(AccentOK, children...))
}

// destinationOptions lists every project followed by its sections, up to
// the select menu limit. Values are "<project>" or "<project>-<section>".
func destinationOptions(projects []todoist.ProjectSections) []protocol.SelectOption {
	var opts []protocol.SelectOption
	for _, ps := range projects {
		opts = append(opts, protocol.SelectOption{
			Label:       ps.Project.Name,
			Value:       ps.Project.ID,
			Description: "Add to project: " + ps.Project.Name,
		})
		for _, s := range ps.Sections {
			opts = append(opts, protocol.SelectOption{
				Label:       ps.Project.Name + " / " + s.Name,
				Value:       ps.Project.ID + "-" + s.ID,
				Description: "Add to section: " + s.Name,
			})
		}
	}
	if len(opts) > maxSelectOptions {
		opts = opts[:maxSelectOptions]
	}
	return opts
}
