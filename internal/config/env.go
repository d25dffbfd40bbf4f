package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envOverlay holds the environment variables the bot honours. Unset
// variables leave the pointer nil so the file value stands.
type envOverlay struct {
	InteractionKey *string `env:"INTERACTION_KEY"`
	BotToken       *string `env:"BOT_TOKEN"`
	ApplicationID  *string `env:"APPLICATION_ID"`
	GuildID        *string `env:"GUILD_ID"`
	TodoistToken   *string `env:"TODOIST_API_TOKEN"`
	ClaudeToken    *string `env:"CLAUDE_API_TOKEN"`
	TZOverride     *string `env:"TZ_OVERRIDE"`
	DryRun         *bool   `env:"DRY_RUN"`
	LogLevel       *string `env:"LOG_LEVEL"`
	OTelEndpoint   *string `env:"OTEL_ENDPOINT"`
	Listen         *string `env:"LISTEN_ADDR"`
	StatePath      *string `env:"STATE_PATH"`
	EventsAPIKey   *string `env:"EVENTS_API_KEY"`
}

// ApplyEnv overlays environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	var o envOverlay
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	setString(&cfg.Discord.PublicKey, o.InteractionKey)
	setString(&cfg.Discord.BotToken, o.BotToken)
	setString(&cfg.Discord.ApplicationID, o.ApplicationID)
	setString(&cfg.Discord.GuildID, o.GuildID)
	setString(&cfg.Todoist.APIToken, o.TodoistToken)
	setString(&cfg.Reminder.APIToken, o.ClaudeToken)
	setString(&cfg.Service.Timezone, o.TZOverride)
	setString(&cfg.Service.LogLevel, o.LogLevel)
	setString(&cfg.Server.Listen, o.Listen)
	setString(&cfg.State.Path, o.StatePath)
	setString(&cfg.Server.EventsAPIKey, o.EventsAPIKey)
	if o.DryRun != nil {
		cfg.Service.DryRun = *o.DryRun
	}
	if o.OTelEndpoint != nil && *o.OTelEndpoint != "" {
		cfg.Telemetry.Endpoint = *o.OTelEndpoint
		cfg.Telemetry.Enabled = true
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
