package webhook

import (
	"context"

	"github.com/mrkirby153/todoist-bot/internal/protocol"
)

// Dispatcher turns an authenticated interaction into its synchronous response.
type Dispatcher interface {
	Dispatch(ctx context.Context, in *protocol.Interaction) (*protocol.Response, error)
}

// Config holds interaction server configuration.
type Config struct {
	Listen string `yaml:"listen"`

	// Path is the interactions callback path (default: "/interactions")
	Path string `yaml:"path"`

	// MaxBodySize is the maximum allowed request body size in bytes (default: 1MB)
	MaxBodySize int64 `yaml:"max_body_size,omitempty"`

	// EventsAPIKey guards GET /events when set
	EventsAPIKey string `yaml:"events_api_key,omitempty"`
}

// ErrorResponse is the JSON response for rejected requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Signature headers sent with every interaction.
const (
	HeaderSignature = "X-Signature-Ed25519"
	HeaderTimestamp = "X-Signature-Timestamp"
)

// Default values
const (
	DefaultMaxBodySize = 1048576 // 1 MB
	DefaultPath        = "/interactions"
)
