package command

import (
	"errors"
	"fmt"

	"github.com/mrkirby153/todoist-bot/internal/protocol"
)

// ErrUnresolvablePath is returned when a payload's nesting cannot be mapped to a path.
var ErrUnresolvablePath = errors.New("unresolvable command path")

// ResolvePath derives the registry path and the leaf's own options from a
// command payload. A subcommand group always carries exactly one active
// subcommand, so resolution descends at most two levels.
func ResolvePath(data *protocol.CommandData) (Path, []protocol.CommandDataOption, error) {
	if data == nil || data.Name == "" {
		return nil, nil, fmt.Errorf("%w: missing command name", ErrUnresolvablePath)
	}

	path := Path{data.Name}
	if len(data.Options) == 0 || !data.Options[0].Type.IsGrouping() {
		return path, data.Options, nil
	}

	first := data.Options[0]
	switch first.Type {
	case protocol.OptionSubCommand:
		return append(path, first.Name), first.Options, nil
	case protocol.OptionSubCommandGroup:
		if len(first.Options) == 0 || first.Options[0].Type != protocol.OptionSubCommand {
			return nil, nil, fmt.Errorf("%w: group %q has no active subcommand", ErrUnresolvablePath, first.Name)
		}
		sub := first.Options[0]
		return append(path, first.Name, sub.Name), sub.Options, nil
	}

	return nil, nil, fmt.Errorf("%w: unexpected option type %s", ErrUnresolvablePath, first.Type)
}
