package todoist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, "tok")
}

func TestTasksPaginates(t *testing.T) {
	var cursors []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tasks", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		cursor := r.URL.Query().Get("cursor")
		cursors = append(cursors, cursor)
		switch cursor {
		case "":
			_, _ = io.WriteString(w, `{"results":[{"id":"1","content":"a"}],"next_cursor":"c2"}`)
		case "c2":
			_, _ = io.WriteString(w, `{"results":[{"id":"2","content":"b"}],"next_cursor":null}`)
		default:
			t.Errorf("unexpected cursor %q", cursor)
		}
	})

	tasks, err := c.Tasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "1", tasks[0].ID)
	assert.Equal(t, "2", tasks[1].ID)
	assert.Equal(t, []string{"", "c2"}, cursors)
}

func TestTasksDueOn(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"results":[
			{"id":"late","content":"Late","due":{"date":"2025-03-10T22:00:00Z"}},
			{"id":"early","content":"Early","due":{"date":"2025-03-10T13:00:00Z"}},
			{"id":"allday","content":"All day","due":{"date":"2025-03-10"}},
			{"id":"tomorrow","content":"Tomorrow","due":{"date":"2025-03-11T15:00:00Z"}},
			{"id":"utc-next-day","content":"Evening","due":{"date":"2025-03-11T02:00:00Z"}},
			{"id":"nodue","content":"None"},
			{"id":"bad","content":"Bad","due":{"date":"soon"}}
		],"next_cursor":null}`)
	})

	day := time.Date(2025, 3, 10, 12, 0, 0, 0, loc)
	tasks, err := c.TasksDueOn(context.Background(), day, loc)
	require.NoError(t, err)

	var ids []string
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []string{"allday", "early", "late", "utc-next-day"}, ids)
}

func TestTasksDueWithin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"results":[
			{"id":"d0","content":"zero","due":{"date":"2025-03-10"}},
			{"id":"d2","content":"two","due":{"date":"2025-03-12"}},
			{"id":"d9","content":"nine","due":{"date":"2025-03-19"}}
		]}`)
	})

	from := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	days, err := c.TasksDueWithin(context.Background(), from, 3, time.UTC)
	require.NoError(t, err)
	require.Len(t, days, 3)

	assert.Equal(t, "2025-03-10", days[0].Date.Format("2006-01-02"))
	assert.Len(t, days[0].Tasks, 1)
	assert.Empty(t, days[1].Tasks)
	require.Len(t, days[2].Tasks, 1)
	assert.Equal(t, "d2", days[2].Tasks[0].ID)

	_, err = c.TasksDueWithin(context.Background(), from, 0, time.UTC)
	assert.Error(t, err)
}

func TestCreateTask(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tasks", r.URL.Path)
		var nt NewTask
		require.NoError(t, json.NewDecoder(r.Body).Decode(&nt))
		assert.Equal(t, "Buy milk", nt.Content)
		assert.Equal(t, "tomorrow 9am", nt.DueString)
		_, _ = io.WriteString(w, `{"id":"t1","project_id":"p1","content":"Buy milk"}`)
	})

	task, err := c.CreateTask(context.Background(), NewTask{Content: "Buy milk", DueString: "tomorrow 9am"})
	require.NoError(t, err)
	assert.Equal(t, "t1", task.ID)
	assert.Equal(t, "https://app.todoist.com/app/task/t1", task.URL())
	assert.Equal(t, "[Buy milk](https://app.todoist.com/app/task/t1)", task.Markdown())

	_, err = c.CreateTask(context.Background(), NewTask{Content: "  "})
	assert.Error(t, err)
}

func TestMoveTask(t *testing.T) {
	var got map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tasks/t1/move", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.MoveTask(context.Background(), "t1", Destination{SectionID: "s9"}))
	assert.Equal(t, map[string]string{"section_id": "s9"}, got)

	assert.Error(t, c.MoveTask(context.Background(), "t1", Destination{}))
	assert.Error(t, c.MoveTask(context.Background(), "t1", Destination{ProjectID: "p", SectionID: "s"}))
	assert.Error(t, c.MoveTask(context.Background(), "", Destination{ProjectID: "p"}))
}

func TestAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Forbidden", http.StatusForbidden)
	})

	_, err := c.Projects(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "Forbidden", apiErr.Body)
}

func TestProjectsWithSections(t *testing.T) {
	var mu sync.Mutex
	sectionCalls := map[string]int{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/projects":
			_, _ = io.WriteString(w, `{"results":[{"id":"p1","name":"Inbox"},{"id":"p2","name":"Work"},{"id":"p3","name":"Broken"}]}`)
		case "/sections":
			pid := r.URL.Query().Get("project_id")
			mu.Lock()
			sectionCalls[pid]++
			mu.Unlock()
			switch pid {
			case "p2":
				_, _ = fmt.Fprint(w, `{"results":[{"id":"s1","project_id":"p2","name":"Backlog"}]}`)
			case "p3":
				http.Error(w, "boom", http.StatusInternalServerError)
			default:
				_, _ = fmt.Fprint(w, `{"results":[]}`)
			}
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	got, err := c.ProjectsWithSections(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Inbox", got[0].Project.Name)
	assert.Empty(t, got[0].Sections)
	require.Len(t, got[1].Sections, 1)
	assert.Equal(t, "Backlog", got[1].Sections[0].Name)
	assert.Empty(t, got[2].Sections, "failed section fetch keeps the project")
	assert.Equal(t, map[string]int{"p1": 1, "p2": 1, "p3": 1}, sectionCalls)
}
