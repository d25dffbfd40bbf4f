package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads configuration from a YAML file, then overlays environment
// variables. An empty configPath loads defaults plus environment only.
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	if configPath != "" {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
		}

		info, err := os.Stat(absPath)
		if err != nil {
			return nil, fmt.Errorf("config file not found: %s\n"+
				"Hint: Check the path or run with --config flag", absPath)
		}
		if info.IsDir() {
			absPath = filepath.Join(absPath, "config.yaml")
		}

		if err := loadConfigFile(absPath, cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", absPath, err)
		}
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadConfigFile parses path over the defaults already in cfg.
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	interpolated := interpolateEnv(string(data))

	if err := yaml.Unmarshal([]byte(interpolated), cfg); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}

		// Leave the placeholder; validation reports it for required fields.
		return match
	})
}

func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(cfg.Service.LogLevel)] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}

	if cfg.Service.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Service.Timezone); err != nil {
			return fmt.Errorf("service.timezone: %w", err)
		}
	}

	if cfg.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}

	if cfg.State.Path == "" {
		return fmt.Errorf("state.path is required")
	}

	if err := checkResolved("discord.public_key", cfg.Discord.PublicKey); err != nil {
		return err
	}
	if err := checkResolved("discord.bot_token", cfg.Discord.BotToken); err != nil {
		return err
	}
	if err := checkResolved("todoist.api_token", cfg.Todoist.APIToken); err != nil {
		return err
	}
	if err := checkResolved("reminder.api_token", cfg.Reminder.APIToken); err != nil {
		return err
	}

	d := cfg.Dispatch
	if d.AckDeadline <= 0 || d.AckDeadline >= 3*time.Second {
		return fmt.Errorf("dispatch.ack_deadline must be between 0 and 3s (got %s)", d.AckDeadline)
	}
	if d.GraceWindow <= d.AckDeadline || d.GraceWindow > 15*time.Minute {
		return fmt.Errorf("dispatch.grace_window must exceed ack_deadline and not exceed 15m (got %s)", d.GraceWindow)
	}
	if d.FollowUpTimeout <= 0 {
		return fmt.Errorf("dispatch.followup_timeout must be positive")
	}

	if cfg.Reminder.MaxTokens <= 0 {
		return fmt.Errorf("reminder.max_tokens must be positive")
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry.endpoint is required when telemetry is enabled")
	}

	return nil
}

// checkResolved rejects values still holding a ${VAR} placeholder.
func checkResolved(field, value string) error {
	if matches := envVarPattern.FindStringSubmatch(value); len(matches) > 1 {
		return fmt.Errorf("%s: environment variable ${%s} is not set", field, matches[1])
	}
	return nil
}

// RequireSecrets checks the credentials needed to serve interactions.
func (c *Config) RequireSecrets() error {
	missing := []string{}
	if c.Discord.PublicKey == "" {
		missing = append(missing, "discord.public_key (INTERACTION_KEY)")
	}
	if c.Discord.BotToken == "" {
		missing = append(missing, "discord.bot_token (BOT_TOKEN)")
	}
	if c.Todoist.APIToken == "" {
		missing = append(missing, "todoist.api_token (TODOIST_API_TOKEN)")
	}
	if c.Reminder.APIToken == "" {
		missing = append(missing, "reminder.api_token (CLAUDE_API_TOKEN)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Location returns the configured timezone, or time.Local.
func (c *Config) Location() *time.Location {
	if c.Service.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Service.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
