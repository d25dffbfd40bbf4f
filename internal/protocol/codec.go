package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMalformedEnvelope is returned when an inbound body is not a valid interaction.
var ErrMalformedEnvelope = errors.New("malformed interaction envelope")

// DecodeInteraction parses an authenticated request body. The per-kind
// payload is decoded into Command or Component according to Type.
func DecodeInteraction(body []byte) (*Interaction, error) {
	var in Interaction
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	if in.Type == 0 {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedEnvelope)
	}

	switch in.Type {
	case InteractionApplicationCommand, InteractionAutocomplete:
		if len(in.Data) == 0 {
			return nil, fmt.Errorf("%w: %s without data", ErrMalformedEnvelope, in.Type)
		}
		var data CommandData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return nil, fmt.Errorf("%w: command data: %v", ErrMalformedEnvelope, err)
		}
		if data.Name == "" {
			return nil, fmt.Errorf("%w: command data missing name", ErrMalformedEnvelope)
		}
		if data.Type == 0 {
			data.Type = CommandChatInput
		}
		in.Command = &data
	case InteractionMessageComponent:
		if len(in.Data) == 0 {
			return nil, fmt.Errorf("%w: %s without data", ErrMalformedEnvelope, in.Type)
		}
		var data ComponentData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return nil, fmt.Errorf("%w: component data: %v", ErrMalformedEnvelope, err)
		}
		in.Component = &data
	}

	return &in, nil
}

// EncodeResponse serializes a Response to JSON and writes it to w.
func EncodeResponse(w io.Writer, resp *Response) error {
	if resp == nil {
		return fmt.Errorf("response is nil")
	}
	if resp.Type == 0 {
		return fmt.Errorf("response missing type")
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	return nil
}
