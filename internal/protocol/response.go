package protocol

// Pong answers a ping interaction.
func Pong() *Response {
	return &Response{Type: ResponsePong}
}

// Reply is an immediate channel-message response.
func Reply(data *ResponseData) *Response {
	return &Response{Type: ResponseChannelMessage, Data: data}
}

// EphemeralText is an immediate text reply visible only to the invoking user.
func EphemeralText(content string) *Response {
	return Reply(&ResponseData{Content: content, Flags: FlagEphemeral})
}

// EphemeralComponents is an immediate components-v2 reply visible only to the invoking user.
func EphemeralComponents(components ...Component) *Response {
	return Reply(&ResponseData{
		Components: components,
		Flags:      FlagEphemeral | FlagIsComponentsV2,
	})
}

// DeferredAck acknowledges an interaction whose result will arrive as a follow-up.
func DeferredAck() *Response {
	return &Response{
		Type: ResponseDeferredChannelMessage,
		Data: &ResponseData{Flags: FlagEphemeral},
	}
}

// Update replaces the message a component is attached to.
func Update(data *ResponseData) *Response {
	return &Response{Type: ResponseUpdateMessage, Data: data}
}
