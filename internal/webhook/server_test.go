package webhook

import (
	"bufio"
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrkirby153/todoist-bot/internal/command"
	"github.com/mrkirby153/todoist-bot/internal/events"
	"github.com/mrkirby153/todoist-bot/internal/protocol"
)

// mockDispatcher is a mock implementation of Dispatcher for testing.
type mockDispatcher struct {
	dispatchFn func(ctx context.Context, in *protocol.Interaction) (*protocol.Response, error)
	calls      int
}

func (m *mockDispatcher) Dispatch(ctx context.Context, in *protocol.Interaction) (*protocol.Response, error) {
	m.calls++
	if m.dispatchFn != nil {
		return m.dispatchFn(ctx, in)
	}
	return protocol.Pong(), nil
}

type testServer struct {
	*Server
	priv       ed25519.PrivateKey
	dispatcher *mockDispatcher
	hub        *events.Hub
}

func newTestServer(t *testing.T, cfg Config) *testServer {
	t.Helper()
	pub, priv := newKeyPair(t)
	v, err := NewVerifier(pub)
	require.NoError(t, err)

	md := &mockDispatcher{}
	hub := events.NewHub(10)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return &testServer{
		Server:     New(cfg, v, md, hub, logger),
		priv:       priv,
		dispatcher: md,
		hub:        hub,
	}
}

func (ts *testServer) signedRequest(body []byte) *http.Request {
	const stamp = "1700000000"
	req := httptest.NewRequest(http.MethodPost, DefaultPath, bytes.NewReader(body))
	req.Header.Set(HeaderTimestamp, stamp)
	req.Header.Set(HeaderSignature, sign(ts.priv, stamp, body))
	return req
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleInteraction_Ping(t *testing.T) {
	ts := newTestServer(t, Config{})

	rec := ts.do(ts.signedRequest([]byte(`{"id":"1","type":1,"token":"t"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp protocol.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, protocol.ResponsePong, resp.Type)
	assert.Equal(t, 1, ts.dispatcher.calls)
}

func TestHandleInteraction_ReturnsDispatcherResponse(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.dispatcher.dispatchFn = func(_ context.Context, in *protocol.Interaction) (*protocol.Response, error) {
		if in.Command == nil || in.Command.Name != "today" {
			t.Errorf("unexpected interaction: %+v", in)
		}
		return protocol.EphemeralText("hi"), nil
	}

	rec := ts.do(ts.signedRequest([]byte(`{"id":"1","type":2,"token":"t","data":{"name":"today","type":1}}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp protocol.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, protocol.ResponseChannelMessage, resp.Type)
	assert.Equal(t, "hi", resp.Data.Content)
}

func TestHandleInteraction_MissingHeaders(t *testing.T) {
	ts := newTestServer(t, Config{})

	for _, drop := range []string{HeaderSignature, HeaderTimestamp} {
		req := ts.signedRequest([]byte(`{"type":1}`))
		req.Header.Del(drop)
		rec := ts.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "without %s", drop)
	}
	assert.Zero(t, ts.dispatcher.calls)
}

func TestHandleInteraction_InvalidSignature(t *testing.T) {
	ts := newTestServer(t, Config{})

	req := ts.signedRequest([]byte(`{"type":1}`))
	req.Header.Set(HeaderTimestamp, "1700000001")
	rec := ts.do(req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "invalid request signature", resp.Error)
	assert.Zero(t, ts.dispatcher.calls, "unauthenticated body must not be dispatched")
}

func TestHandleInteraction_Malformed(t *testing.T) {
	ts := newTestServer(t, Config{})

	rec := ts.do(ts.signedRequest([]byte(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, ts.dispatcher.calls)
}

func TestHandleInteraction_UnresolvablePath(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.dispatcher.dispatchFn = func(context.Context, *protocol.Interaction) (*protocol.Response, error) {
		return nil, fmt.Errorf("resolve: %w", command.ErrUnresolvablePath)
	}

	rec := ts.do(ts.signedRequest([]byte(`{"id":"1","type":2,"token":"t","data":{"name":"task","type":1}}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleInteraction_BodyTooLarge(t *testing.T) {
	ts := newTestServer(t, Config{MaxBodySize: 64})

	body := []byte(`{"type":1,"pad":"` + strings.Repeat("a", 128) + `"}`)
	rec := ts.do(ts.signedRequest(body))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Zero(t, ts.dispatcher.calls)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Config{})

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/_health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestEvents_RequiresKey(t *testing.T) {
	ts := newTestServer(t, Config{EventsAPIKey: "secret"})

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = ts.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEvents_StreamsSnapshot(t *testing.T) {
	ts := newTestServer(t, Config{EventsAPIKey: "secret"})
	ts.hub.Publish(events.InteractionDeferred, events.InteractionData{InteractionID: "42"})

	srv := httptest.NewServer(ts.Handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	sc := bufio.NewScanner(resp.Body)
	var lines []string
	for sc.Scan() {
		if sc.Text() == "" {
			break
		}
		lines = append(lines, sc.Text())
	}
	require.Len(t, lines, 3)
	assert.Equal(t, "id: 1", lines[0])
	assert.Equal(t, "event: "+events.InteractionDeferred, lines[1])
	assert.Contains(t, lines[2], `"interaction_id":"42"`)
}

func TestExtractAPIKey(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc", "abc", false},
		{"Bearer   abc  ", "abc", false},
		{"Bearer ", "", true},
		{"Basic abc", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		got, err := ExtractAPIKey(req)
		if tt.wantErr {
			assert.Error(t, err, "header %q", tt.header)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
