package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mrkirby153/todoist-bot/internal/command"
	"github.com/mrkirby153/todoist-bot/internal/protocol"
	"github.com/mrkirby153/todoist-bot/internal/todoist"
)

const (
	defaultUpcomingDays = 7
	maxUpcomingDays     = 14
)

type todayCmd struct{}

func (b *bot) today(ctx context.Context, _ todayCmd, _ *protocol.Interaction) (*protocol.Response, error) {
	tasks, err := b.tasks.TasksDueOn(ctx, b.now(), b.loc)
	if err != nil {
		return nil, fmt.Errorf("load tasks due today: %w", err)
	}
	return protocol.EphemeralComponents(TodayContainer(tasks, b.loc)), nil
}

// TodayContainer renders the tasks due today.
func TodayContainer(tasks []todoist.Task, loc *time.Location) protocol.Component {
	if len(tasks) == 0 {
		return protocol.Container(AccentOK, protocol.TextDisplay("You have no more tasks due today!"))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "There are **%d** tasks due today:\n", len(tasks))
	for _, t := range tasks {
		sb.WriteString("- ")
		sb.WriteString(taskLine(t, loc))
		sb.WriteByte('\n')
	}
	return protocol.Container(AccentPending, protocol.TextDisplay(sb.String()))
}

// taskLine is the markdown link of t, suffixed with a client-rendered
// timestamp when the due has a time of day.
func taskLine(t todoist.Task, loc *time.Location) string {
	line := t.Markdown()
	if t.Due == nil || t.Due.IsDateOnly() {
		return line
	}
	at, err := t.Due.Time(loc)
	if err != nil {
		return line
	}
	return fmt.Sprintf("%s <t:%d:t>", line, at.Unix())
}

type taskUpcomingCmd struct {
	Days *int
}

var taskUpcomingSchema = command.Schema[taskUpcomingCmd]{
	command.Optional("days", command.Int, func(c *taskUpcomingCmd, v *int) { c.Days = v }).
		Describe("How many days ahead to look (default 7)").
		Range(1, maxUpcomingDays),
}

func (b *bot) taskUpcoming(ctx context.Context, cmd taskUpcomingCmd, _ *protocol.Interaction) (*protocol.Response, error) {
	n := defaultUpcomingDays
	if cmd.Days != nil {
		n = min(max(*cmd.Days, 1), maxUpcomingDays)
	}

	days, err := b.tasks.TasksDueWithin(ctx, b.now(), n, b.loc)
	if err != nil {
		return nil, fmt.Errorf("load upcoming tasks: %w", err)
	}
	return protocol.EphemeralComponents(UpcomingContainer(days, n, b.loc)), nil
}

// UpcomingContainer renders tasks grouped by day. Days without tasks are left out.
func UpcomingContainer(days []todoist.DayTasks, n int, loc *time.Location) protocol.Component {
	total := 0
	for _, d := range days {
		total += len(d.Tasks)
	}
	if total == 0 {
		return protocol.Container(AccentOK, protocol.TextDisplay(fmt.Sprintf("Nothing is due in the next %d days.", n)))
	}

	children := []protocol.Component{
		protocol.TextDisplay(fmt.Sprintf("There are **%d** tasks due in the next %d days:", total, n)),
	}
	for _, d := range days {
		if len(d.Tasks) == 0 {
			continue
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "**%s**\n", d.Date.Format("Mon, Jan 2"))
		for _, t := range d.Tasks {
			sb.WriteString("- ")
			sb.WriteString(taskLine(t, loc))
			sb.WriteByte('\n')
		}
		children = append(children,
			protocol.Separator(false, protocol.SpacingSmall),
			protocol.TextDisplay(sb.String()),
		)
	}
	return protocol.Container(AccentPending, children...)
}
