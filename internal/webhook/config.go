package webhook

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mrkirby153/todoist-bot/internal/config"
)

// FromGlobalConfig converts config.ServerConfig to webhook.Config.
func FromGlobalConfig(sc *config.ServerConfig) (Config, error) {
	if sc == nil {
		return Config{}, fmt.Errorf("server config is nil")
	}

	maxBodySize, err := parseMaxBodySize(sc.MaxBodySize)
	if err != nil {
		return Config{}, fmt.Errorf("server: invalid max_body_size %q: %w", sc.MaxBodySize, err)
	}

	path := sc.Path
	if path == "" {
		path = DefaultPath
	}
	if !strings.HasPrefix(path, "/") {
		return Config{}, fmt.Errorf("server: path %q must start with /", path)
	}

	return Config{
		Listen:       sc.Listen,
		Path:         path,
		MaxBodySize:  maxBodySize,
		EventsAPIKey: sc.EventsAPIKey,
	}, nil
}

// parseMaxBodySize parses size strings like "1MB", "64KB", "1048576" to bytes.
// Returns DefaultMaxBodySize if empty.
func parseMaxBodySize(size string) (int64, error) {
	if size == "" {
		return DefaultMaxBodySize, nil
	}

	upper := strings.ToUpper(strings.TrimSpace(size))
	multiplier := int64(1)

	switch {
	case strings.HasSuffix(upper, "KB"):
		multiplier = 1024
		upper = strings.TrimSuffix(upper, "KB")
	case strings.HasSuffix(upper, "MB"):
		multiplier = 1024 * 1024
		upper = strings.TrimSuffix(upper, "MB")
	}

	value, err := strconv.ParseInt(strings.TrimSpace(upper), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value: %w", err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("size must be positive")
	}

	result := value * multiplier
	if result/multiplier != value {
		return 0, fmt.Errorf("size too large")
	}
	return result, nil
}
