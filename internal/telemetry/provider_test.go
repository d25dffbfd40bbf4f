package telemetry

import (
	"context"
	"testing"

	"github.com/mrkirby153/todoist-bot/internal/config"
)

func TestSetup_NoopWhenDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TelemetryConfig{Enabled: false, Endpoint: "localhost:4318"}, "test", "dev")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("noop shutdown should not error: %v", err)
	}
}

func TestSetup_NoopWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TelemetryConfig{Enabled: true}, "test", "dev")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_CreatesProvider(t *testing.T) {
	for _, endpoint := range []string{"192.0.2.1:4318", "http://192.0.2.1:4318"} {
		t.Run(endpoint, func(t *testing.T) {
			// Non-routable; nothing is exported because no spans are recorded.
			shutdown, err := Setup(context.Background(), config.TelemetryConfig{Enabled: true, Endpoint: endpoint}, "test", "dev")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := shutdown(context.Background()); err != nil {
				t.Fatalf("shutdown error: %v", err)
			}
		})
	}
}
