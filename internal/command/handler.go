package command

import (
	"context"
	"errors"

	"github.com/mrkirby153/todoist-bot/internal/log"
	"github.com/mrkirby153/todoist-bot/internal/protocol"
)

// BindingFailedMessage is shown when options cannot be bound to a command.
const BindingFailedMessage = "Failed to parse command data."

// Handler is the type-erased capability stored in registry leaves.
type Handler interface {
	Handle(ctx context.Context, in *protocol.Interaction, options []protocol.CommandDataOption) (*protocol.Response, error)
}

// HandlerFunc is a strongly typed command handler.
type HandlerFunc[C any] func(ctx context.Context, cmd C, in *protocol.Interaction) (*protocol.Response, error)

// MessageHandlerFunc handles a message context-menu command.
type MessageHandlerFunc func(ctx context.Context, in *protocol.Interaction) (*protocol.Response, error)

// typedHandler binds raw options with its schema before calling fn.
type typedHandler[C any] struct {
	path   Path
	schema Schema[C]
	fn     HandlerFunc[C]
}

func (h *typedHandler[C]) Handle(ctx context.Context, in *protocol.Interaction, options []protocol.CommandDataOption) (*protocol.Response, error) {
	cmd, err := h.schema.Bind(options)
	if err != nil {
		var bindErr *BindError
		option := ""
		if errors.As(err, &bindErr) {
			option = bindErr.Option
		}
		log.WithCommand(h.path.String()).Warn("command binding failed", "option", option, "error", err)
		return BindingFailedResponse(), nil
	}
	return h.fn(ctx, cmd, in)
}

// BindingFailedResponse is the generic ephemeral reply for unparseable options.
func BindingFailedResponse() *protocol.Response {
	return protocol.EphemeralText(BindingFailedMessage)
}
