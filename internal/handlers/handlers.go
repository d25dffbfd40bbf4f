// Package handlers declares the bot's commands and implements them against
// the task source and the reminder generator.
package handlers

import (
	"context"
	"time"

	"github.com/mrkirby153/todoist-bot/internal/command"
	"github.com/mrkirby153/todoist-bot/internal/dispatch"
	"github.com/mrkirby153/todoist-bot/internal/reminder"
	"github.com/mrkirby153/todoist-bot/internal/todoist"
)

// Accent colours of rendered containers.
const (
	AccentOK      = 0x00AA00
	AccentPending = 0xAAAA00
	AccentFailed  = 0xAA0000
)

const (
	emojiTick  = "✅"
	emojiCross = "❌"
	emojiLink  = "🔗"
)

// AddToDoCommand is the display name of the message context-menu command.
const AddToDoCommand = "Add To-Do"

// SectionSelectPrefix is the custom id prefix of the project/section picker.
const SectionSelectPrefix = "section_select"

// TaskSource is the task-management backend.
type TaskSource interface {
	TasksDueOn(ctx context.Context, day time.Time, loc *time.Location) ([]todoist.Task, error)
	TasksDueWithin(ctx context.Context, from time.Time, n int, loc *time.Location) ([]todoist.DayTasks, error)
	CreateTask(ctx context.Context, nt todoist.NewTask) (todoist.Task, error)
	MoveTask(ctx context.Context, taskID string, dst todoist.Destination) error
	ProjectsWithSections(ctx context.Context) ([]todoist.ProjectSections, error)
}

// ReminderGenerator turns free text into a reminder.
type ReminderGenerator interface {
	Generate(ctx context.Context, text string, now time.Time) (reminder.Reminder, error)
}

// ComponentRouter accepts message component handlers by custom id prefix.
type ComponentRouter interface {
	HandleComponent(prefix string, h dispatch.ComponentHandler)
}

// Deps are the collaborators of the handlers.
type Deps struct {
	Tasks     TaskSource
	Reminders ReminderGenerator
	Location  *time.Location
	DryRun    bool
	Now       func() time.Time
}

type bot struct {
	tasks     TaskSource
	reminders ReminderGenerator
	loc       *time.Location
	dryRun    bool
	now       func() time.Time
}

// Register declares every command on reg and every component on router.
func Register(reg *command.Registry, router ComponentRouter, deps Deps) {
	b := &bot{
		tasks:     deps.Tasks,
		reminders: deps.Reminders,
		loc:       deps.Location,
		dryRun:    deps.DryRun,
		now:       deps.Now,
	}
	if b.loc == nil {
		b.loc = time.Local
	}
	if b.now == nil {
		b.now = time.Now
	}

	command.Register(reg, "today", "Get reminders due today", command.Schema[todayCmd]{}, b.today)

	reg.DescribeGroup("task", "Manage tasks")
	command.Register(reg, "task add", "Add a task", taskAddSchema, b.taskAdd)
	command.Register(reg, "task upcoming", "List tasks due in the coming days", taskUpcomingSchema, b.taskUpcoming)

	reg.DescribeGroup("task ai", "Create tasks from free text")
	command.Register(reg, "task ai add", "Let the assistant write the task", aiAddSchema, b.aiAdd)

	reg.RegisterMessage(AddToDoCommand, b.addToDo)
	router.HandleComponent(SectionSelectPrefix, b.sectionSelect)
}
