package protocol

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestDecodeInteraction(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
		checkFn func(t *testing.T, in *Interaction)
	}{
		{
			name: "ping",
			body: `{"id":"1","application_id":"2","type":1,"token":"tok","version":1}`,
			checkFn: func(t *testing.T, in *Interaction) {
				if in.Type != InteractionPing {
					t.Errorf("Type = %v, want ping", in.Type)
				}
				if in.Command != nil || in.Component != nil {
					t.Error("ping should not carry decoded payloads")
				}
			},
		},
		{
			name: "application command with nested subcommand",
			body: `{"id":"1","type":2,"token":"tok","data":{"id":"9","name":"task","type":1,
				"options":[{"name":"add","type":1,"options":[{"name":"text","type":3,"value":"buy milk"}]}]}}`,
			checkFn: func(t *testing.T, in *Interaction) {
				if in.Command == nil {
					t.Fatal("Command is nil")
				}
				if in.Command.Name != "task" {
					t.Errorf("Name = %q, want task", in.Command.Name)
				}
				if len(in.Command.Options) != 1 || in.Command.Options[0].Type != OptionSubCommand {
					t.Fatalf("unexpected options: %+v", in.Command.Options)
				}
				text := in.Command.Options[0].Options[0]
				if string(text.Value) != `"buy milk"` {
					t.Errorf("Value = %s, want \"buy milk\"", text.Value)
				}
			},
		},
		{
			name: "command type defaults to chat input",
			body: `{"type":2,"token":"tok","data":{"name":"today"}}`,
			checkFn: func(t *testing.T, in *Interaction) {
				if in.Command.Type != CommandChatInput {
					t.Errorf("Type = %v, want chat input", in.Command.Type)
				}
			},
		},
		{
			name: "message component",
			body: `{"type":3,"token":"tok","data":{"custom_id":"section_select:42","component_type":3,"values":["p1"]}}`,
			checkFn: func(t *testing.T, in *Interaction) {
				if in.Component == nil {
					t.Fatal("Component is nil")
				}
				if in.Component.CustomID != "section_select:42" {
					t.Errorf("CustomID = %q", in.Component.CustomID)
				}
				if len(in.Component.Values) != 1 || in.Component.Values[0] != "p1" {
					t.Errorf("Values = %v", in.Component.Values)
				}
			},
		},
		{
			name:    "not json",
			body:    `not json`,
			wantErr: true,
		},
		{
			name:    "missing type",
			body:    `{"token":"tok"}`,
			wantErr: true,
		},
		{
			name:    "command without data",
			body:    `{"type":2,"token":"tok"}`,
			wantErr: true,
		},
		{
			name:    "command without name",
			body:    `{"type":2,"token":"tok","data":{"type":1}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := DecodeInteraction([]byte(tt.body))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrMalformedEnvelope) {
					t.Errorf("error %v does not wrap ErrMalformedEnvelope", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.checkFn != nil {
				tt.checkFn(t, in)
			}
		})
	}
}

func TestEncodeResponse(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeResponse(&buf, EphemeralText("No tasks")); err != nil {
		t.Fatalf("EncodeResponse: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"type":4`) {
		t.Errorf("missing type: %s", out)
	}
	if !strings.Contains(out, `"content":"No tasks"`) {
		t.Errorf("missing content: %s", out)
	}
	if !strings.Contains(out, `"flags":64`) {
		t.Errorf("missing ephemeral flag: %s", out)
	}

	buf.Reset()
	if err := EncodeResponse(&buf, Pong()); err != nil {
		t.Fatalf("EncodeResponse(pong): %v", err)
	}
	if strings.TrimSpace(buf.String()) != `{"type":1}` {
		t.Errorf("pong = %s", buf.String())
	}

	if err := EncodeResponse(&buf, nil); err == nil {
		t.Error("expected error for nil response")
	}
	if err := EncodeResponse(&buf, &Response{}); err == nil {
		t.Error("expected error for response without type")
	}
}

func TestDeferredAckIsEphemeral(t *testing.T) {
	ack := DeferredAck()
	if ack.Type != ResponseDeferredChannelMessage {
		t.Errorf("Type = %v, want deferred channel message", ack.Type)
	}
	if ack.Data == nil || !ack.Data.Flags.Has(FlagEphemeral) {
		t.Error("deferred ack should be ephemeral")
	}
}

func TestEphemeralComponentsFlags(t *testing.T) {
	resp := EphemeralComponents(Container(0x00AA00, TextDisplay("hi")))
	if !resp.Data.Flags.Has(FlagEphemeral | FlagIsComponentsV2) {
		t.Errorf("flags = %d, want ephemeral|components_v2", resp.Data.Flags)
	}
	if *resp.Data.Components[0].AccentColor != 0x00AA00 {
		t.Errorf("accent = %x", *resp.Data.Components[0].AccentColor)
	}
}
