// Package todoist is the task source the bot's handlers read from and write
// to, backed by the Todoist REST API v1.
package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mrkirby153/todoist-bot/internal/log"
)

const (
	// DefaultBaseURL is the Todoist API root.
	DefaultBaseURL = "https://api.todoist.com/api/v1"

	userAgent        = "todoist-bot/1.0"
	defaultTimeout   = 15 * time.Second
	maxResponseBytes = 8 << 20
	maxPages         = 100
	sectionFetches   = 4
)

// APIError is a non-2xx Todoist response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("todoist api: status %d", e.Status)
	}
	return fmt.Sprintf("todoist api: status %d: %s", e.Status, e.Body)
}

// Client is a Todoist API client. Safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client. An empty baseURL uses DefaultBaseURL.
func New(baseURL, token string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  log.WithComponent("todoist"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tasks lists every active task.
func (c *Client) Tasks(ctx context.Context) ([]Task, error) {
	return getAll[Task](ctx, c, "/tasks", nil)
}

// TasksDueOn returns the tasks whose due date falls on day's calendar date in
// loc, ordered by due time. A nil loc means the local zone.
func (c *Client) TasksDueOn(ctx context.Context, day time.Time, loc *time.Location) ([]Task, error) {
	days, err := c.TasksDueWithin(ctx, day, 1, loc)
	if err != nil {
		return nil, err
	}
	return days[0].Tasks, nil
}

// DayTasks is the tasks due on one calendar date.
type DayTasks struct {
	Date  time.Time
	Tasks []Task
}

// TasksDueWithin groups tasks due on the n calendar dates starting at from,
// in loc. The result always has n entries, in date order.
func (c *Client) TasksDueWithin(ctx context.Context, from time.Time, n int, loc *time.Location) ([]DayTasks, error) {
	if n < 1 {
		return nil, fmt.Errorf("day count must be positive, got %d", n)
	}
	tasks, err := c.Tasks(ctx)
	if err != nil {
		return nil, err
	}
	return groupByDay(tasks, from, n, loc, c.logger), nil
}

func groupByDay(tasks []Task, from time.Time, n int, loc *time.Location, logger *slog.Logger) []DayTasks {
	if loc == nil {
		loc = time.Local
	}
	from = from.In(loc)
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)

	days := make([]DayTasks, n)
	index := make(map[string]int, n)
	for i := range days {
		d := start.AddDate(0, 0, i)
		days[i].Date = d
		index[d.Format(dateOnlyLayout)] = i
	}

	dueAt := make(map[string]time.Time)
	for _, t := range tasks {
		if t.Due == nil {
			continue
		}
		at, err := t.Due.Time(loc)
		if err != nil {
			logger.Debug("skipping task with unparseable due", "task_id", t.ID, "error", err)
			continue
		}
		i, ok := index[at.In(loc).Format(dateOnlyLayout)]
		if !ok {
			continue
		}
		dueAt[t.ID] = at
		days[i].Tasks = append(days[i].Tasks, t)
	}

	for i := range days {
		sort.SliceStable(days[i].Tasks, func(a, b int) bool {
			return dueAt[days[i].Tasks[a].ID].Before(dueAt[days[i].Tasks[b].ID])
		})
	}
	return days
}

// CreateTask adds a task and returns it as stored.
func (c *Client) CreateTask(ctx context.Context, nt NewTask) (Task, error) {
	if strings.TrimSpace(nt.Content) == "" {
		return Task{}, fmt.Errorf("create task: content is empty")
	}
	var task Task
	if err := c.do(ctx, http.MethodPost, "/tasks", nil, nt, &task); err != nil {
		return Task{}, fmt.Errorf("create task: %w", err)
	}
	c.logger.Info("created task", "task_id", task.ID, "project_id", task.ProjectID)
	return task, nil
}

// MoveTask moves a task to a project or a section.
func (c *Client) MoveTask(ctx context.Context, taskID string, dst Destination) error {
	if taskID == "" {
		return fmt.Errorf("move task: task id is empty")
	}
	if (dst.ProjectID == "") == (dst.SectionID == "") {
		return fmt.Errorf("move task: exactly one of project or section is required")
	}
	path := "/tasks/" + url.PathEscape(taskID) + "/move"
	if err := c.do(ctx, http.MethodPost, path, nil, dst, nil); err != nil {
		return fmt.Errorf("move task %s: %w", taskID, err)
	}
	return nil
}

// Projects lists every project.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	return getAll[Project](ctx, c, "/projects", nil)
}

// Sections lists the sections of a project.
func (c *Client) Sections(ctx context.Context, projectID string) ([]Section, error) {
	return getAll[Section](ctx, c, "/sections", url.Values{"project_id": {projectID}})
}

// ProjectsWithSections lists projects and fetches their sections
// concurrently. A project whose sections fail to load is kept with none.
func (c *Client) ProjectsWithSections(ctx context.Context) ([]ProjectSections, error) {
	projects, err := c.Projects(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ProjectSections, len(projects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sectionFetches)
	for i, p := range projects {
		out[i].Project = p
		g.Go(func() error {
			sections, err := c.Sections(gctx, p.ID)
			if err != nil {
				c.logger.Warn("failed to load sections", "project_id", p.ID, "error", err)
				return nil
			}
			out[i].Sections = sections
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func getAll[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	var all []T
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}

	for i := 0; i < maxPages; i++ {
		var p page[T]
		if err := c.do(ctx, http.MethodGet, path, q, nil, &p); err != nil {
			return nil, fmt.Errorf("list %s: %w", path, err)
		}
		all = append(all, p.Results...)
		if p.NextCursor == nil || *p.NextCursor == "" {
			return all, nil
		}
		q.Set("cursor", *p.NextCursor)
	}
	return nil, fmt.Errorf("list %s: more than %d pages", path, maxPages)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
