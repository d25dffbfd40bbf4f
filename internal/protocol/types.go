package protocol

import "encoding/json"

// InteractionType discriminates inbound interaction envelopes.
type InteractionType int

const (
	InteractionPing               InteractionType = 1
	InteractionApplicationCommand InteractionType = 2
	InteractionMessageComponent   InteractionType = 3
	InteractionAutocomplete       InteractionType = 4
	InteractionModalSubmit        InteractionType = 5
)

func (t InteractionType) String() string {
	switch t {
	case InteractionPing:
		return "ping"
	case InteractionApplicationCommand:
		return "application_command"
	case InteractionMessageComponent:
		return "message_component"
	case InteractionAutocomplete:
		return "autocomplete"
	case InteractionModalSubmit:
		return "modal_submit"
	default:
		return "unknown"
	}
}

// CommandType is the kind of an application command.
type CommandType int

const (
	CommandChatInput CommandType = 1
	CommandUser      CommandType = 2
	CommandMessage   CommandType = 3
)

// OptionType is the wire type tag of a command option.
type OptionType int

const (
	OptionSubCommand      OptionType = 1
	OptionSubCommandGroup OptionType = 2
	OptionString          OptionType = 3
	OptionInteger         OptionType = 4
	OptionBoolean         OptionType = 5
	OptionUser            OptionType = 6
	OptionChannel         OptionType = 7
	OptionRole            OptionType = 8
	OptionMentionable     OptionType = 9
	OptionNumber          OptionType = 10
	OptionAttachment      OptionType = 11
)

func (t OptionType) String() string {
	switch t {
	case OptionSubCommand:
		return "subcommand"
	case OptionSubCommandGroup:
		return "subcommand_group"
	case OptionString:
		return "string"
	case OptionInteger:
		return "integer"
	case OptionBoolean:
		return "boolean"
	case OptionUser:
		return "user"
	case OptionChannel:
		return "channel"
	case OptionRole:
		return "role"
	case OptionMentionable:
		return "mentionable"
	case OptionNumber:
		return "number"
	case OptionAttachment:
		return "attachment"
	default:
		return "unknown"
	}
}

// IsGrouping reports whether the option marks a nested subcommand or group.
func (t OptionType) IsGrouping() bool {
	return t == OptionSubCommand || t == OptionSubCommandGroup
}

// Interaction is a decoded inbound envelope. Handlers share it read-only.
type Interaction struct {
	ID            string          `json:"id"`
	ApplicationID string          `json:"application_id"`
	Type          InteractionType `json:"type"`
	Data          json.RawMessage `json:"data,omitempty"`
	GuildID       string          `json:"guild_id,omitempty"`
	ChannelID     string          `json:"channel_id,omitempty"`
	Token         string          `json:"token"`
	Version       int             `json:"version"`

	// Populated by DecodeInteraction according to Type.
	Command   *CommandData   `json:"-"`
	Component *ComponentData `json:"-"`
}

// CommandData is the payload of an application-command interaction.
type CommandData struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Type     CommandType         `json:"type"`
	Options  []CommandDataOption `json:"options,omitempty"`
	Resolved *ResolvedData       `json:"resolved,omitempty"`
	TargetID string              `json:"target_id,omitempty"`
	GuildID  string              `json:"guild_id,omitempty"`
}

// CommandDataOption is one wire-typed option value. Grouping options carry
// their children in Options; leaf options carry Value.
type CommandDataOption struct {
	Name    string              `json:"name"`
	Type    OptionType          `json:"type"`
	Value   json.RawMessage     `json:"value,omitempty"`
	Options []CommandDataOption `json:"options,omitempty"`
	Focused bool                `json:"focused,omitempty"`
}

// ResolvedData carries entities referenced by a command, keyed by id.
type ResolvedData struct {
	Messages map[string]Message `json:"messages,omitempty"`
}

// Message is the subset of a chat message the bot reads.
type Message struct {
	ID         string      `json:"id"`
	ChannelID  string      `json:"channel_id"`
	Content    string      `json:"content"`
	Embeds     []Embed     `json:"embeds,omitempty"`
	Components []Component `json:"components,omitempty"`
}

// Embed is a rich embed attached to a message.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

// EmbedField is a name/value pair inside an embed.
type EmbedField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ComponentData is the payload of a message-component interaction.
type ComponentData struct {
	CustomID      string        `json:"custom_id"`
	ComponentType ComponentType `json:"component_type"`
	Values        []string      `json:"values,omitempty"`
}

// ResponseType is the kind tag of an interaction response.
type ResponseType int

const (
	ResponsePong                   ResponseType = 1
	ResponseChannelMessage         ResponseType = 4
	ResponseDeferredChannelMessage ResponseType = 5
	ResponseDeferredUpdateMessage  ResponseType = 6
	ResponseUpdateMessage          ResponseType = 7
)

// MessageFlags is the response visibility/format bit set.
type MessageFlags uint64

const (
	FlagEphemeral      MessageFlags = 1 << 6
	FlagIsComponentsV2 MessageFlags = 1 << 15
)

// Has reports whether all bits of f are set.
func (m MessageFlags) Has(f MessageFlags) bool {
	return m&f == f
}

// Response is the synchronous reply to an interaction.
type Response struct {
	Type ResponseType  `json:"type"`
	Data *ResponseData `json:"data,omitempty"`
}

// ResponseData is the body shared by direct responses and follow-ups.
type ResponseData struct {
	Content    string       `json:"content,omitempty"`
	Components []Component  `json:"components,omitempty"`
	Flags      MessageFlags `json:"flags,omitempty"`
}

// ApplicationCommand is one entry of the bulk command declaration.
type ApplicationCommand struct {
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	Type             CommandType     `json:"type"`
	Options          []CommandOption `json:"options,omitempty"`
	IntegrationTypes []int           `json:"integration_types,omitempty"`
	Contexts         []int           `json:"contexts,omitempty"`
}

// CommandOption declares one option (or nested subcommand/group) of a command.
type CommandOption struct {
	Type         OptionType            `json:"type"`
	Name         string                `json:"name"`
	Description  string                `json:"description"`
	Required     bool                  `json:"required,omitempty"`
	Choices      []CommandOptionChoice `json:"choices,omitempty"`
	Options      []CommandOption       `json:"options,omitempty"`
	MinLength    *int                  `json:"min_length,omitempty"`
	MaxLength    *int                  `json:"max_length,omitempty"`
	MinValue     *float64              `json:"min_value,omitempty"`
	MaxValue     *float64              `json:"max_value,omitempty"`
	Autocomplete bool                  `json:"autocomplete,omitempty"`
}

// CommandOptionChoice is a fixed choice for a string/integer/number option.
type CommandOptionChoice struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Integration types and contexts used when declaring commands.
const (
	IntegrationGuildInstall = 0
	IntegrationUserInstall  = 1

	ContextGuild          = 0
	ContextBotDM          = 1
	ContextPrivateChannel = 2
)
