package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mrkirby153/todoist-bot/internal/command"
	"github.com/mrkirby153/todoist-bot/internal/config"
	"github.com/mrkirby153/todoist-bot/internal/dispatch"
	"github.com/mrkirby153/todoist-bot/internal/events"
	"github.com/mrkirby153/todoist-bot/internal/handlers"
	"github.com/mrkirby153/todoist-bot/internal/lock"
	"github.com/mrkirby153/todoist-bot/internal/log"
	"github.com/mrkirby153/todoist-bot/internal/platform"
	"github.com/mrkirby153/todoist-bot/internal/reminder"
	"github.com/mrkirby153/todoist-bot/internal/state"
	"github.com/mrkirby153/todoist-bot/internal/storage"
	"github.com/mrkirby153/todoist-bot/internal/telemetry"
	"github.com/mrkirby153/todoist-bot/internal/todoist"
	"github.com/mrkirby153/todoist-bot/internal/webhook"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// drainTimeout bounds how long shutdown waits for deferred handlers.
const drainTimeout = 30 * time.Second

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage()
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	switch cmd {
	case "start":
		return runStart(args)
	case "commands":
		return runCommandsNoun(args)
	case "config":
		return runConfigNoun(args)
	case "watch":
		return runWatch(args)
	case "version", "--version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Print(`todoist-bot - chat interactions for a Todoist task list

Usage:
  todoist-bot <command> [flags]

Commands:
  start                 Serve interactions in the foreground
  commands sync         Upload the command schema (skipped when unchanged)
  commands show         Print the registered commands
  config show           Print the effective configuration (secrets redacted)
  config get <path>     Print one configuration value
  config check          Validate configuration and required secrets
  watch                 Follow interaction lifecycle events in a TUI
  version               Show version information

Configuration is read from --config (file or directory) and overlaid with
environment variables such as INTERACTION_KEY, BOT_TOKEN, TODOIST_API_TOKEN
and CLAUDE_API_TOKEN.
`)
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Usage: todoist-bot version [--json]")
		return 1
	}

	info := currentVersionInfo()
	if *jsonOut {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render version JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("todoist-bot %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	fmt.Printf("built_at: %s\n", info.BuildTime)
	return 0
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:   strings.TrimSpace(version),
		Commit:    "unknown",
		BuildTime: "unknown",
	}
	if info.Version == "" {
		info.Version = "0.0.0-dev"
	}

	commit := strings.TrimSpace(gitCommit)
	if commit == "" || commit == "unknown" {
		commit = strings.TrimSpace(readBuildSetting("vcs.revision"))
	}
	if commit != "" {
		if len(commit) > 12 {
			commit = commit[:12]
		}
		info.Commit = commit
	}

	built := strings.TrimSpace(buildDate)
	if built == "" || built == "unknown" {
		built = strings.TrimSpace(readBuildSetting("vcs.time"))
	}
	if t, err := time.Parse(time.RFC3339Nano, built); err == nil {
		info.BuildTime = t.UTC().Format(time.RFC3339)
	}
	return info
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

// app is the wired bot shared by start and the command tools.
type app struct {
	registry   *command.Registry
	dispatcher *dispatch.Dispatcher
	platform   *platform.Client
	hub        *events.Hub
}

func newApp(cfg *config.Config) *app {
	client := platform.New(cfg.Discord.APIBaseURL, cfg.Discord.BotToken,
		platform.WithApplicationID(cfg.Discord.ApplicationID))
	hub := events.NewHub(256)
	reg := command.NewRegistry()
	disp := dispatch.New(reg, client, dispatch.Config{
		AckDeadline:     cfg.Dispatch.AckDeadline,
		GraceWindow:     cfg.Dispatch.GraceWindow,
		FollowUpTimeout: cfg.Dispatch.FollowUpTimeout,
	}, dispatch.WithEvents(hub))

	loc := cfg.Location()
	handlers.Register(reg, disp, handlers.Deps{
		Tasks: todoist.New(cfg.Todoist.BaseURL, cfg.Todoist.APIToken),
		Reminders: reminder.New(reminder.Config{
			APIKey:    cfg.Reminder.APIToken,
			Model:     cfg.Reminder.Model,
			MaxTokens: cfg.Reminder.MaxTokens,
			Location:  loc,
		}),
		Location: loc,
		DryRun:   cfg.Service.DryRun,
	})

	return &app{registry: reg, dispatcher: disp, platform: client, hub: hub}
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	skipSync := fs.Bool("skip-sync", false, "Do not upload the command schema on startup")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if err := cfg.RequireSecrets(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("todoist-bot starting", "version", version, "config", *configPath, "dry_run", cfg.Service.DryRun)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry, cfg.Service.Name, version)
	if err != nil {
		logger.Error("failed to set up tracing", "error", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("trace flush failed", "error", err)
		}
	}()

	pidLock, err := lock.Acquire(lock.PathFor(cfg.State.Path))
	if err != nil {
		logger.Error("failed to acquire instance lock", "error", err)
		return 1
	}
	defer pidLock.Release()

	db, err := storage.OpenSQLite(ctx, cfg.State.Path)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.State.Path, "error", err)
		return 1
	}
	defer db.Close()

	verifier, err := webhook.NewVerifier(cfg.Discord.PublicKey)
	if err != nil {
		logger.Error("invalid interaction public key", "error", err)
		return 1
	}

	a := newApp(cfg)

	if !*skipSync {
		if _, err := syncCommands(ctx, a.platform, state.NewStore(db), cfg.Discord.GuildID,
			a.registry.ExportWireSchema(), syncOptions{}); err != nil {
			logger.Error("command sync failed", "error", err)
			return 1
		}
	}

	serverConfig, err := webhook.FromGlobalConfig(&cfg.Server)
	if err != nil {
		logger.Error("invalid server config", "error", err)
		return 1
	}
	server := webhook.New(serverConfig, verifier, a.dispatcher, a.hub, log.WithComponent("webhook"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	logger.Info("todoist-bot running (press Ctrl+C to stop)", "listen", serverConfig.Listen, "path", serverConfig.Path)
	runErr := g.Wait()

	// Deferred handlers still owe a follow-up; give them a bounded window.
	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if pending := a.dispatcher.Pending(); pending > 0 {
		logger.Info("waiting for deferred interactions", "pending", pending)
	}
	if err := a.dispatcher.Wait(drainCtx); err != nil {
		logger.Warn("abandoning deferred interactions", "pending", a.dispatcher.Pending())
	}

	if runErr != nil {
		logger.Error("server failed", "error", runErr)
		return 1
	}
	logger.Info("todoist-bot stopped")
	return 0
}
