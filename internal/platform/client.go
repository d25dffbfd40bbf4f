// Package platform is a minimal REST client for the chat platform: follow-up
// messages, bulk command sync, and application lookup.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/mrkirby153/todoist-bot/internal/log"
	"github.com/mrkirby153/todoist-bot/internal/protocol"
)

const (
	// DefaultBaseURL is the versioned REST root.
	DefaultBaseURL = "https://discord.com/api/v10"

	userAgent        = "DiscordBot (https://github.com/mrkirby153/todoist-bot, 1.0)"
	maxResponseBytes = 1 << 20
	defaultTimeout   = 15 * time.Second
)

// APIError is a non-2xx platform response.
type APIError struct {
	Status  int
	Code    int64
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("platform api: status %d", e.Status)
	}
	return fmt.Sprintf("platform api: status %d: %s (code %d)", e.Status, e.Message, e.Code)
}

// RegisteredCommand is a command as stored by the platform.
type RegisteredCommand struct {
	ID      string               `json:"id"`
	Name    string               `json:"name"`
	Type    protocol.CommandType `json:"type"`
	Version string               `json:"version"`
}

// Client talks to the platform REST API with a bot token. Safe for concurrent use.
type Client struct {
	baseURL  string
	botToken string
	http     *http.Client
	logger   *slog.Logger

	mu    sync.Mutex
	appID string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithApplicationID skips the application lookup.
func WithApplicationID(id string) Option {
	return func(c *Client) { c.appID = id }
}

// New creates a client. An empty baseURL uses DefaultBaseURL.
func New(baseURL, botToken string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		botToken: botToken,
		http:     &http.Client{Timeout: defaultTimeout},
		logger:   log.WithComponent("platform"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ApplicationID returns the configured application id, resolving it from
// GET /applications/@me on first use.
func (c *Client) ApplicationID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.appID != "" {
		return c.appID, nil
	}

	body, err := c.do(ctx, http.MethodGet, "/applications/@me", nil, true)
	if err != nil {
		return "", fmt.Errorf("resolve application id: %w", err)
	}
	id := gjson.GetBytes(body, "id").String()
	if id == "" {
		return "", fmt.Errorf("resolve application id: response has no id")
	}
	c.appID = id
	c.logger.Info("resolved application id", "application_id", id)
	return id, nil
}

// FollowUp posts the late result of a deferred interaction. Interaction
// webhooks are authorised by the token in the path.
func (c *Client) FollowUp(ctx context.Context, token string, data *protocol.ResponseData) error {
	if token == "" {
		return fmt.Errorf("follow-up: empty interaction token")
	}
	if data == nil {
		return fmt.Errorf("follow-up: nil data")
	}
	appID, err := c.ApplicationID(ctx)
	if err != nil {
		return err
	}

	path := "/webhooks/" + url.PathEscape(appID) + "/" + url.PathEscape(token)
	if _, err := c.do(ctx, http.MethodPost, path, data, false); err != nil {
		return fmt.Errorf("follow-up: %w", err)
	}
	return nil
}

// SyncCommands replaces every command in scope with cmds. An empty guildID
// targets the global scope.
func (c *Client) SyncCommands(ctx context.Context, guildID string, cmds []protocol.ApplicationCommand) ([]RegisteredCommand, error) {
	appID, err := c.ApplicationID(ctx)
	if err != nil {
		return nil, err
	}

	path := "/applications/" + url.PathEscape(appID) + "/commands"
	if guildID != "" {
		path = "/applications/" + url.PathEscape(appID) + "/guilds/" + url.PathEscape(guildID) + "/commands"
	}
	if cmds == nil {
		cmds = []protocol.ApplicationCommand{}
	}

	body, err := c.do(ctx, http.MethodPut, path, cmds, true)
	if err != nil {
		return nil, fmt.Errorf("sync commands: %w", err)
	}

	var registered []RegisteredCommand
	if err := json.Unmarshal(body, &registered); err != nil {
		return nil, fmt.Errorf("sync commands: decode response: %w", err)
	}
	return registered, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, auth bool) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bot "+c.botToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if len(data) > 0 && gjson.ValidBytes(data) {
			apiErr.Code = gjson.GetBytes(data, "code").Int()
			apiErr.Message = gjson.GetBytes(data, "message").String()
		}
		return nil, apiErr
	}
	return data, nil
}
