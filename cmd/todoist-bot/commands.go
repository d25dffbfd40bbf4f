package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mrkirby153/todoist-bot/internal/config"
	"github.com/mrkirby153/todoist-bot/internal/log"
	"github.com/mrkirby153/todoist-bot/internal/platform"
	"github.com/mrkirby153/todoist-bot/internal/protocol"
	"github.com/mrkirby153/todoist-bot/internal/state"
	"github.com/mrkirby153/todoist-bot/internal/storage"
)

// commandSyncer uploads a command schema to the platform.
type commandSyncer interface {
	ApplicationID(ctx context.Context) (string, error)
	SyncCommands(ctx context.Context, guildID string, cmds []protocol.ApplicationCommand) ([]platform.RegisteredCommand, error)
}

type syncOptions struct {
	Force  bool
	DryRun bool
}

// syncCommands uploads schema unless the stored hash for the scope already
// matches. It reports whether an upload happened.
func syncCommands(ctx context.Context, syncer commandSyncer, store *state.Store, guildID string, schema []protocol.ApplicationCommand, opts syncOptions) (bool, error) {
	logger := log.WithComponent("sync")

	scope := state.GlobalScope
	if guildID != "" {
		scope = state.GuildScope(guildID)
	}

	appID, err := syncer.ApplicationID(ctx)
	if err != nil {
		return false, fmt.Errorf("resolve application id: %w", err)
	}
	hash, err := state.SchemaHash(schema)
	if err != nil {
		return false, err
	}

	if !opts.Force {
		unchanged, err := store.Unchanged(ctx, scope, appID, hash)
		if err != nil {
			return false, err
		}
		if unchanged {
			logger.Info("command schema unchanged, skipping upload", "scope", scope, "commands", len(schema))
			return false, nil
		}
	}

	if opts.DryRun {
		logger.Info("dry run, command schema not uploaded", "scope", scope, "commands", len(schema), "hash", hash)
		return false, nil
	}

	registered, err := syncer.SyncCommands(ctx, guildID, schema)
	if err != nil {
		return false, fmt.Errorf("upload commands: %w", err)
	}
	if err := store.Put(ctx, state.SyncRecord{
		Scope:         scope,
		ApplicationID: appID,
		SchemaHash:    hash,
		CommandCount:  len(registered),
	}); err != nil {
		return true, err
	}

	logger.Info("command schema uploaded", "scope", scope, "commands", len(registered))
	return true, nil
}

func runCommandsNoun(args []string) int {
	if len(args) == 0 {
		printCommandsHelp()
		return 1
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "sync":
		return runCommandsSync(actionArgs)
	case "show":
		return runCommandsShow(actionArgs)
	case "help", "--help", "-h":
		printCommandsHelp()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown commands action: %s\n", action)
		printCommandsHelp()
		return 1
	}
}

func printCommandsHelp() {
	fmt.Println("Usage: todoist-bot commands <action> [flags]")
	fmt.Println()
	fmt.Println("Actions:")
	fmt.Println("  sync [--config PATH] [--force] [--dry-run]   Upload the command schema")
	fmt.Println("  show [--json]                                Print the registered commands")
}

func runCommandsSync(args []string) int {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	force := fs.Bool("force", false, "Upload even when the stored schema hash matches")
	dryRun := fs.Bool("dry-run", false, "Compare hashes without uploading")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		return 1
	}
	if cfg.Discord.BotToken == "" {
		fmt.Fprintln(os.Stderr, "Error: discord.bot_token (BOT_TOKEN) is required to sync commands.")
		return 1
	}
	log.Setup(cfg.Service.LogLevel)

	ctx := context.Background()
	db, err := storage.OpenSQLite(ctx, cfg.State.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		return 1
	}
	defer db.Close()

	a := newApp(cfg)
	synced, err := syncCommands(ctx, a.platform, state.NewStore(db), cfg.Discord.GuildID,
		a.registry.ExportWireSchema(), syncOptions{Force: *force, DryRun: *dryRun})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sync failed: %v\n", err)
		return 1
	}
	if synced {
		fmt.Println("Commands uploaded.")
	} else {
		fmt.Println("Commands not uploaded.")
	}
	return 0
}

func runCommandsShow(args []string) int {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "Print the bulk upload payload as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	a := newApp(config.Defaults())
	if *jsonOut {
		data, err := json.MarshalIndent(a.registry.ExportWireSchema(), "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render commands: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tCOMMAND\tOPTIONS")
	for _, p := range a.registry.Paths() {
		leaf, ok := a.registry.Resolve(p)
		if !ok {
			continue
		}
		names := make([]string, 0, len(leaf.Options))
		for _, o := range leaf.Options {
			name := o.Name
			if !o.Required {
				name += "?"
			}
			names = append(names, name)
		}
		fmt.Fprintf(w, "slash\t/%s\t%s\n", p, strings.Join(names, " "))
	}
	for _, name := range a.registry.MessageCommands() {
		fmt.Fprintf(w, "message\t%s\t\n", name)
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
		return 1
	}
	return 0
}
