// Package reminder turns free text into a to-do title, due time and links
// using a hosted language model.
package reminder

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tidwall/gjson"

	"github.com/mrkirby153/todoist-bot/internal/log"
)

//go:embed prompt.txt
var systemPrompt string

const (
	// DefaultModel is used when Config.Model is empty.
	DefaultModel = "claude-3-5-haiku-latest"

	// DefaultMaxTokens is used when Config.MaxTokens is not positive.
	DefaultMaxTokens = 1024

	userPrefix = "Create a reminder to add to my to-do list from the following message: "
)

// ErrBadAnswer is returned when the model's answer is not a usable reminder.
var ErrBadAnswer = errors.New("unusable reminder answer")

// Reminder is a generated to-do entry.
type Reminder struct {
	Title string
	Due   *time.Time
	Links []string
}

// Config configures a Generator.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int64
	BaseURL   string
	Location  *time.Location
}

// Generator asks the model for reminders. Safe for concurrent use.
type Generator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	loc       *time.Location
	logger    *slog.Logger
}

// New creates a Generator.
func New(cfg Config, opts ...option.RequestOption) *Generator {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	reqOpts = append(reqOpts, opts...)

	return &Generator{
		client:    anthropic.NewClient(reqOpts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		loc:       cfg.Location,
		logger:    log.WithComponent("reminder"),
	}
}

// Generate derives a reminder from text as of now.
func (g *Generator) Generate(ctx context.Context, text string, now time.Time) (Reminder, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reminder{}, fmt.Errorf("generate reminder: text is empty")
	}

	started := time.Now()
	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: g.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: SystemPrompt(g.loc, now)}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrefix + text)),
		},
	})
	if err != nil {
		return Reminder{}, fmt.Errorf("generate reminder: %w", err)
	}

	var answer strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			answer.WriteString(block.Text)
		}
	}
	g.logger.Debug("model answered",
		"model", g.model,
		"duration_ms", time.Since(started).Milliseconds(),
		"output_tokens", msg.Usage.OutputTokens,
	)

	return ParseAnswer(answer.String())
}

// SystemPrompt renders the instruction prompt for loc at now.
func SystemPrompt(loc *time.Location, now time.Time) string {
	if loc == nil {
		loc = time.Local
	}
	r := strings.NewReplacer(
		"{{TIMEZONE}}", loc.String(),
		"{{CURRENT_TIME}}", now.In(loc).Format(time.RFC3339),
	)
	return r.Replace(systemPrompt)
}

// ParseAnswer reads the model's JSON answer. Surrounding code fences are
// tolerated; a missing title or malformed due is an error.
func ParseAnswer(answer string) (Reminder, error) {
	raw := stripFences(answer)
	if !gjson.Valid(raw) {
		return Reminder{}, fmt.Errorf("%w: not json", ErrBadAnswer)
	}

	root := gjson.Parse(raw)
	title := strings.TrimSpace(root.Get("title").String())
	if title == "" {
		return Reminder{}, fmt.Errorf("%w: missing title", ErrBadAnswer)
	}
	r := Reminder{Title: title}

	if due := root.Get("due"); due.Exists() && due.Type != gjson.Null && due.String() != "" {
		at, err := time.Parse(time.RFC3339, due.String())
		if err != nil {
			return Reminder{}, fmt.Errorf("%w: due %q: %v", ErrBadAnswer, due.String(), err)
		}
		r.Due = &at
	}

	for _, link := range root.Get("links").Array() {
		if s := strings.TrimSpace(link.String()); s != "" {
			r.Links = append(r.Links, s)
		}
	}
	return r, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
