package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"gopkg.in/yaml.v3"

	"github.com/mrkirby153/todoist-bot/internal/config"
	"github.com/mrkirby153/todoist-bot/internal/tui/watch"
	"github.com/mrkirby153/todoist-bot/internal/webhook"
)

func runConfigNoun(args []string) int {
	if len(args) == 0 {
		printConfigHelp()
		return 1
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "show":
		return runConfigShow(actionArgs)
	case "get":
		return runConfigGet(actionArgs)
	case "check":
		return runConfigCheck(actionArgs)
	case "help", "--help", "-h":
		printConfigHelp()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", action)
		printConfigHelp()
		return 1
	}
}

func printConfigHelp() {
	fmt.Println("Usage: todoist-bot config <action> [flags]")
	fmt.Println()
	fmt.Println("Actions:")
	fmt.Println("  show [--config PATH] [--json]          Print the effective configuration")
	fmt.Println("  get <path> [--config PATH] [--json]    Print one value, e.g. dispatch.grace_window")
	fmt.Println("  check [--config PATH]                  Validate configuration and secrets")
}

func runConfigShow(args []string) int {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	jsonOut := fs.Bool("json", false, "Output in structured JSON format")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		return 1
	}
	return printValue(cfg.Redacted(), *jsonOut)
}

func runConfigGet(args []string) int {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	jsonOut := fs.Bool("json", false, "Output in structured JSON format")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: todoist-bot config get <path> [--json]")
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	val, err := cfg.GetPath(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return printValue(val, *jsonOut)
}

func printValue(v any, jsonOut bool) int {
	var (
		data []byte
		err  error
	)
	if jsonOut {
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(v)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Render error: %v\n", err)
		return 1
	}
	fmt.Print(string(data))
	return 0
}

func runConfigCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		return 1
	}

	failed := false
	report := func(name string, err error) {
		if err != nil {
			failed = true
			fmt.Printf("✗ %s: %v\n", name, err)
			return
		}
		fmt.Printf("✓ %s\n", name)
	}

	report("secrets", cfg.RequireSecrets())
	_, err = webhook.FromGlobalConfig(&cfg.Server)
	report("server", err)
	if cfg.Discord.PublicKey != "" {
		_, err = webhook.NewVerifier(cfg.Discord.PublicKey)
		report("public key", err)
	}

	if failed {
		return 1
	}
	return 0
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	apiURL := fs.String("url", "http://localhost:8080", "Bot base URL")
	apiKey := fs.String("api-key", os.Getenv("EVENTS_API_KEY"), "Events bearer token")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	m := watch.New(*apiURL, *apiKey)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		return 1
	}
	return 0
}
