package config

import "time"

// Config represents the complete todoist-bot configuration.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Server    ServerConfig    `yaml:"server"`
	Discord   DiscordConfig   `yaml:"discord"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
	Todoist   TodoistConfig   `yaml:"todoist"`
	Reminder  ReminderConfig  `yaml:"reminder"`
	State     StateConfig     `yaml:"state"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name     string `yaml:"name"`
	LogLevel string `yaml:"log_level"`

	// Timezone overrides the local zone for due dates ("" = local)
	Timezone string `yaml:"timezone"`

	// DryRun skips task creation in the message command
	DryRun bool `yaml:"dry_run"`
}

// ServerConfig defines the interactions HTTP server.
type ServerConfig struct {
	Listen       string `yaml:"listen"`
	Path         string `yaml:"path"`
	MaxBodySize  string `yaml:"max_body_size"` // e.g. "1MB", "65536"
	EventsAPIKey string `yaml:"events_api_key,omitempty"`
}

// DiscordConfig defines platform credentials.
type DiscordConfig struct {
	PublicKey     string `yaml:"public_key"`
	BotToken      string `yaml:"bot_token"`
	ApplicationID string `yaml:"application_id,omitempty"` // resolved from the API when empty
	GuildID       string `yaml:"guild_id,omitempty"`       // guild-scoped command sync when set
	APIBaseURL    string `yaml:"api_base_url"`
}

// DispatchConfig defines the deferred-response timings.
type DispatchConfig struct {
	AckDeadline     time.Duration `yaml:"ack_deadline"`
	GraceWindow     time.Duration `yaml:"grace_window"`
	FollowUpTimeout time.Duration `yaml:"followup_timeout"`
}

// TodoistConfig defines the task source.
type TodoistConfig struct {
	APIToken string `yaml:"api_token"`
	BaseURL  string `yaml:"base_url"`
}

// ReminderConfig defines the reminder generator model.
type ReminderConfig struct {
	APIToken  string `yaml:"api_token"`
	Model     string `yaml:"model"`
	MaxTokens int64  `yaml:"max_tokens"`
}

// StateConfig defines state storage settings.
type StateConfig struct {
	Path string `yaml:"path"`
}

// TelemetryConfig defines trace export.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"` // OTLP/HTTP host:port
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:     "todoist-bot",
			LogLevel: "info",
		},
		Server: ServerConfig{
			Listen:      "0.0.0.0:8080",
			Path:        "/interactions",
			MaxBodySize: "1MB",
		},
		Discord: DiscordConfig{
			APIBaseURL: "https://discord.com/api/v10",
		},
		Dispatch: DispatchConfig{
			AckDeadline:     2 * time.Second,
			GraceWindow:     14 * time.Minute,
			FollowUpTimeout: 10 * time.Second,
		},
		Todoist: TodoistConfig{
			BaseURL: "https://api.todoist.com/api/v1",
		},
		Reminder: ReminderConfig{
			Model:     "claude-3-5-haiku-latest",
			MaxTokens: 1024,
		},
		State: StateConfig{
			Path: "./data/state.db",
		},
	}
}
