package todoist

import "fmt"

// TaskURLBase prefixes a task id to form its web link.
const TaskURLBase = "https://app.todoist.com/app/task/"

// Task is the subset of a Todoist task the bot reads.
type Task struct {
	ID          string   `json:"id"`
	ProjectID   string   `json:"project_id"`
	SectionID   *string  `json:"section_id"`
	ParentID    *string  `json:"parent_id"`
	Content     string   `json:"content"`
	Description string   `json:"description"`
	Labels      []string `json:"labels"`
	Priority    int      `json:"priority"`
	Checked     bool     `json:"checked"`
	IsDeleted   bool     `json:"is_deleted"`
	Due         *Due     `json:"due"`
}

// URL links to the task in the web app.
func (t Task) URL() string {
	return TaskURLBase + t.ID
}

// Markdown renders the task as a markdown link.
func (t Task) Markdown() string {
	return fmt.Sprintf("[%s](%s)", t.Content, t.URL())
}

// Project is a Todoist project.
type Project struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	ParentID     *string `json:"parent_id"`
	ChildOrder   int     `json:"child_order"`
	InboxProject bool    `json:"inbox_project"`
	IsArchived   bool    `json:"is_archived"`
}

// Section is a section inside a project.
type Section struct {
	ID           string `json:"id"`
	ProjectID    string `json:"project_id"`
	Name         string `json:"name"`
	SectionOrder int    `json:"section_order"`
	IsArchived   bool   `json:"is_archived"`
}

// ProjectSections pairs a project with its sections.
type ProjectSections struct {
	Project  Project
	Sections []Section
}

// NewTask is the body of a task creation. DueString is parsed by Todoist's
// natural-language engine; DueDatetime takes precedence when both are set.
type NewTask struct {
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	ProjectID   string   `json:"project_id,omitempty"`
	SectionID   string   `json:"section_id,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	DueString   string   `json:"due_string,omitempty"`
	DueDatetime string   `json:"due_datetime,omitempty"`
}

// Destination is where MoveTask puts a task. Exactly one field is set.
type Destination struct {
	ProjectID string `json:"project_id,omitempty"`
	SectionID string `json:"section_id,omitempty"`
}

// page is one response of a cursor-paginated listing.
type page[T any] struct {
	Results    []T     `json:"results"`
	NextCursor *string `json:"next_cursor"`
}
