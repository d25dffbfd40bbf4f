// Package e2e drives signed interactions through the HTTP server, the
// dispatcher and the command handlers against fake upstream APIs.
package e2e

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/mrkirby153/todoist-bot/internal/command"
	"github.com/mrkirby153/todoist-bot/internal/config"
	"github.com/mrkirby153/todoist-bot/internal/dispatch"
	"github.com/mrkirby153/todoist-bot/internal/events"
	"github.com/mrkirby153/todoist-bot/internal/handlers"
	"github.com/mrkirby153/todoist-bot/internal/log"
	"github.com/mrkirby153/todoist-bot/internal/platform"
	"github.com/mrkirby153/todoist-bot/internal/protocol"
	"github.com/mrkirby153/todoist-bot/internal/reminder"
	"github.com/mrkirby153/todoist-bot/internal/todoist"
	"github.com/mrkirby153/todoist-bot/internal/webhook"
)

func TestMain(m *testing.M) {
	log.Setup("ERROR")
	os.Exit(m.Run())
}

const tasksPage = `{"results":[
 {"id":"1","project_id":"p1","content":"Pay rent","due":{"date":"2025-03-10","is_recurring":false}},
 {"id":"2","project_id":"p1","content":"Dentist","due":{"date":"2025-03-11","is_recurring":false}}
],"next_cursor":null}`

type noReminders struct{}

func (noReminders) Generate(context.Context, string, time.Time) (reminder.Reminder, error) {
	return reminder.Reminder{Title: "unused"}, nil
}

// followUps records every webhook the fake platform receives.
type followUps struct {
	mu     sync.Mutex
	paths  []string
	bodies [][]byte
}

func (f *followUps) record(path string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	f.bodies = append(f.bodies, body)
}

func (f *followUps) snapshot() ([]string, [][]byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...), append([][]byte(nil), f.bodies...)
}

type stack struct {
	url       string
	priv      ed25519.PrivateKey
	disp      *dispatch.Dispatcher
	hub       *events.Hub
	followUps *followUps
}

// newStack wires the bot against fake task and platform APIs. gate, when
// non-nil, holds every task request until it is closed.
func newStack(t *testing.T, ack time.Duration, gate <-chan struct{}) *stack {
	t.Helper()

	tasksAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gate != nil {
			<-gate
		}
		if r.URL.Path != "/tasks" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, tasksPage)
	}))
	t.Cleanup(tasksAPI.Close)

	fu := &followUps{}
	platformAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fu.record(r.URL.Path, body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"m1"}`)
	}))
	t.Cleanup(platformAPI.Close)

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	verifier, err := webhook.NewVerifier(hex.EncodeToString(pub))
	require.NoError(t, err)

	hub := events.NewHub(32)
	reg := command.NewRegistry()
	client := platform.New(platformAPI.URL, "bot-token", platform.WithApplicationID("app-1"))
	disp := dispatch.New(reg, client, dispatch.Config{AckDeadline: ack, GraceWindow: 5 * time.Second}, dispatch.WithEvents(hub))

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	handlers.Register(reg, disp, handlers.Deps{
		Tasks:     todoist.New(tasksAPI.URL, "todoist-token"),
		Reminders: noReminders{},
		Location:  time.UTC,
		Now:       func() time.Time { return now },
	})

	cfg, err := webhook.FromGlobalConfig(&config.ServerConfig{Path: "/interactions", MaxBodySize: "1MB"})
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(webhook.New(cfg, verifier, disp, hub, logger).Handler())
	t.Cleanup(srv.Close)

	return &stack{url: srv.URL, priv: priv, disp: disp, hub: hub, followUps: fu}
}

func (s *stack) post(t *testing.T, body []byte, signer ed25519.PrivateKey) (*http.Response, []byte) {
	t.Helper()
	const stamp = "1741608000"
	req, err := http.NewRequest(http.MethodPost, s.url+"/interactions", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set(webhook.HeaderTimestamp, stamp)
	req.Header.Set(webhook.HeaderSignature, hex.EncodeToString(ed25519.Sign(signer, append([]byte(stamp), body...))))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func (s *stack) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.disp.Wait(ctx))
}

func todayInteraction(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"id":             "int-1",
		"application_id": "app-1",
		"type":           protocol.InteractionApplicationCommand,
		"token":          "tok-1",
		"version":        1,
		"data":           map[string]any{"id": "cmd-1", "name": "today", "type": 1},
	})
	require.NoError(t, err)
	return body
}

func TestPing(t *testing.T) {
	s := newStack(t, time.Second, nil)

	resp, body := s.post(t, []byte(`{"id":"p","type":1,"token":"t","version":1}`), s.priv)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(1), gjson.GetBytes(body, "type").Int())
}

func TestTodayAnsweredImmediately(t *testing.T) {
	s := newStack(t, 2*time.Second, nil)

	resp, body := s.post(t, todayInteraction(t), s.priv)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, int64(protocol.ResponseChannelMessage), gjson.GetBytes(body, "type").Int())

	text := gjson.GetBytes(body, "data.components.0.components.0.content").String()
	assert.Contains(t, text, "There are **1** tasks due today")
	assert.Contains(t, text, "[Pay rent]("+todoist.TaskURLBase+"1)")
	assert.NotContains(t, text, "Dentist")

	s.wait(t)
	paths, _ := s.followUps.snapshot()
	assert.Empty(t, paths)
}

func TestTodayDeferredThenFollowedUp(t *testing.T) {
	gate := make(chan struct{})
	s := newStack(t, 30*time.Millisecond, gate)

	resp, body := s.post(t, todayInteraction(t), s.priv)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, int64(protocol.ResponseDeferredChannelMessage), gjson.GetBytes(body, "type").Int())
	assert.Equal(t, int64(protocol.FlagEphemeral), gjson.GetBytes(body, "data.flags").Int()&int64(protocol.FlagEphemeral))
	assert.Equal(t, 1, s.disp.Pending())

	close(gate)
	s.wait(t)

	paths, bodies := s.followUps.snapshot()
	require.Len(t, paths, 1)
	assert.Equal(t, "/webhooks/app-1/tok-1", paths[0])
	assert.Contains(t, gjson.GetBytes(bodies[0], "components.0.components.0.content").String(), "Pay rent")

	var types []string
	for _, ev := range s.hub.SnapshotSince(0) {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{events.InteractionDeferred, events.InteractionFollowedUp}, types)
}

func TestForgedSignatureRejected(t *testing.T) {
	s := newStack(t, time.Second, nil)
	_, other, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	resp, _ := s.post(t, todayInteraction(t), other)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	paths, _ := s.followUps.snapshot()
	assert.Empty(t, paths)
	assert.Empty(t, s.hub.SnapshotSince(0))
}
