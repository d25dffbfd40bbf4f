package watch

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrkirby153/todoist-bot/internal/events"
)

func lifecycle(t *testing.T, id int64, typ string, data events.InteractionData, at time.Time) events.Event {
	t.Helper()
	b, err := json.Marshal(data)
	require.NoError(t, err)
	return events.Event{ID: id, Type: typ, At: at, Data: b}
}

func TestReadSSE(t *testing.T) {
	stream := "id: 1\nevent: interaction.responded\ndata: {\"interaction_id\":\"a\"}\n\n" +
		": keep-alive\n\n" +
		"id: 2\nevent: interaction.deferred\ndata: {\"interaction_id\":\"b\",\n" +
		"data: \"label\":\"today\"}\n\n" +
		"id: 3\nevent: dangling\n"

	var got []events.Event
	require.NoError(t, readSSE(strings.NewReader(stream), func(e events.Event) { got = append(got, e) }))

	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, "interaction.responded", got[0].Type)
	assert.JSONEq(t, `{"interaction_id":"a"}`, string(got[0].Data))
	assert.Equal(t, "{\"interaction_id\":\"b\",\n\"label\":\"today\"}", string(got[1].Data))
}

func TestTracker(t *testing.T) {
	tr := NewTracker()
	t0 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	assert.True(t, tr.Apply(lifecycle(t, 1, events.InteractionResponded, events.InteractionData{InteractionID: "a", Label: "today", DurationMS: 40}, t0)))
	assert.True(t, tr.Apply(lifecycle(t, 2, events.InteractionDeferred, events.InteractionData{InteractionID: "b", Label: "task ai add"}, t0.Add(time.Second))))
	assert.True(t, tr.Apply(lifecycle(t, 3, events.InteractionDeferred, events.InteractionData{InteractionID: "c", Label: "Add To-Do"}, t0.Add(2*time.Second))))
	assert.True(t, tr.Apply(lifecycle(t, 4, events.InteractionFollowedUp, events.InteractionData{InteractionID: "b", DurationMS: 4200}, t0.Add(3*time.Second))))
	assert.False(t, tr.Apply(events.Event{Type: "something.else", Data: []byte(`{}`)}))
	assert.False(t, tr.Apply(events.Event{Type: events.InteractionResponded, Data: []byte(`not json`)}))

	assert.Equal(t, Counters{Responded: 1, Deferred: 2, FollowedUp: 1}, tr.Totals())
	assert.Equal(t, 1, tr.Pending())

	recent := tr.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].ID)
	assert.Equal(t, "task ai add", recent[0].Label, "label kept from the deferred event")
	assert.Equal(t, StatusFollowedUp, recent[0].Status)
	assert.True(t, recent[0].Deferred)
	assert.Equal(t, "c", recent[1].ID)
}

func TestTrackerEvicts(t *testing.T) {
	tr := NewTracker()
	t0 := time.Now()
	for i := 0; i < maxTracked+10; i++ {
		id := string(rune('A'+i%26)) + strings.Repeat("x", i/26)
		tr.Apply(lifecycle(t, int64(i), events.InteractionResponded, events.InteractionData{InteractionID: id}, t0.Add(time.Duration(i)*time.Millisecond)))
	}
	assert.Len(t, tr.Recent(-1), maxTracked)
}

func TestPulseFades(t *testing.T) {
	var p Pulse
	t0 := time.Now()
	p.Hit(t0)
	p.Fade(t0.Add(time.Second))
	assert.Equal(t, pulseDots, p.level)
	p.Fade(t0.Add(5 * time.Second))
	assert.Equal(t, 3, p.level)
	p.Fade(t0.Add(time.Minute))
	assert.Equal(t, 0, p.level)
}

func TestModelUpdateAndView(t *testing.T) {
	m := New("http://bot.local/", "")
	assert.Equal(t, "http://bot.local", m.baseURL)

	var model tea.Model = *m
	model, _ = model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	model, _ = model.Update(healthMsg{OK: true, Latency: 3 * time.Millisecond})
	model, cmd := model.Update(eventMsg(lifecycle(t, 7, events.InteractionDeferred,
		events.InteractionData{InteractionID: "123456789012", Label: "task upcoming"}, time.Now())))
	assert.NotNil(t, cmd, "keeps receiving events")

	got := model.(Model)
	assert.Equal(t, int64(7), got.lastID)
	assert.Len(t, got.log, 1)

	view := got.View()
	assert.Contains(t, view, "TODOIST-BOT WATCH")
	assert.Contains(t, view, "HEALTHY")
	assert.Contains(t, view, "task upcoming")
	assert.Contains(t, view, "interaction.deferred")

	model, _ = got.Update(sseDisconnectedMsg{})
	assert.Contains(t, model.(Model).View(), "reconnecting")
}

func TestSubscribeToEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		assert.Equal(t, "5", r.Header.Get("Last-Event-ID"))
		_, _ = io.WriteString(w, "id: 6\nevent: interaction.responded\ndata: {\"interaction_id\":\"z\"}\n\n")
	}))
	defer srv.Close()

	ch := make(chan events.Event, 1)
	msg := subscribeToEvents(srv.URL, "k", 5, ch)()
	assert.IsType(t, sseDisconnectedMsg{}, msg)

	e := <-ch
	assert.Equal(t, int64(6), e.ID)
}

func TestFetchHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/_health", r.URL.Path)
		_, _ = io.WriteString(w, "OK")
	}))
	defer srv.Close()

	msg := fetchHealth(srv.URL)
	h, ok := msg.(healthMsg)
	require.True(t, ok)
	assert.True(t, h.OK)
}
