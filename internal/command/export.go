package command

import (
	"github.com/mrkirby153/todoist-bot/internal/protocol"
)

// DefaultDescription is exported for branches registered without one.
const DefaultDescription = "No description provided"

var (
	exportIntegrationTypes = []int{protocol.IntegrationGuildInstall, protocol.IntegrationUserInstall}
	exportContexts         = []int{protocol.ContextGuild, protocol.ContextBotDM, protocol.ContextPrivateChannel}
)

// ExportWireSchema flattens the registry into the bulk command declaration.
// Top-level leaves become plain commands, depth-two leaves subcommands and
// depth-three leaves subcommands of a group. Every level is sorted by name.
func (r *Registry) ExportWireSchema() []protocol.ApplicationCommand {
	var out []protocol.ApplicationCommand

	for _, name := range sortedKeys(r.root.children) {
		n := r.root.children[name]
		cmd := protocol.ApplicationCommand{
			Name:             name,
			Type:             protocol.CommandChatInput,
			IntegrationTypes: exportIntegrationTypes,
			Contexts:         exportContexts,
		}
		if n.isLeaf() {
			cmd.Description = describe(n.leaf.Description)
			cmd.Options = n.leaf.Options
		} else {
			cmd.Description = describe(n.description)
			cmd.Options = exportChildren(n)
		}
		out = append(out, cmd)
	}

	for _, name := range r.MessageCommands() {
		out = append(out, protocol.ApplicationCommand{
			Name:             name,
			Type:             protocol.CommandMessage,
			IntegrationTypes: exportIntegrationTypes,
			Contexts:         exportContexts,
		})
	}
	return out
}

func exportChildren(branch *node) []protocol.CommandOption {
	opts := make([]protocol.CommandOption, 0, len(branch.children))
	for _, name := range sortedKeys(branch.children) {
		child := branch.children[name]
		if child.isLeaf() {
			opts = append(opts, protocol.CommandOption{
				Type:        protocol.OptionSubCommand,
				Name:        name,
				Description: describe(child.leaf.Description),
				Options:     child.leaf.Options,
			})
			continue
		}
		opts = append(opts, protocol.CommandOption{
			Type:        protocol.OptionSubCommandGroup,
			Name:        name,
			Description: describe(child.description),
			Options:     exportChildren(child),
		})
	}
	return opts
}

func describe(s string) string {
	if s == "" {
		return DefaultDescription
	}
	return s
}
