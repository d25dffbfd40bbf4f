package protocol

// ComponentType identifies a message component.
type ComponentType int

const (
	ComponentActionRow    ComponentType = 1
	ComponentButton       ComponentType = 2
	ComponentStringSelect ComponentType = 3
	ComponentSection      ComponentType = 9
	ComponentTextDisplay  ComponentType = 10
	ComponentSeparator    ComponentType = 14
	ComponentContainer    ComponentType = 17
)

// ButtonStyleLink is the only button style the bot renders.
const ButtonStyleLink = 5

// Separator spacing sizes.
const (
	SpacingSmall = 1
	SpacingLarge = 2
)

// Component is a node of the structured component tree. Only the fields
// relevant to Type are set.
type Component struct {
	Type        ComponentType  `json:"type"`
	CustomID    string         `json:"custom_id,omitempty"`
	Style       int            `json:"style,omitempty"`
	Label       string         `json:"label,omitempty"`
	URL         string         `json:"url,omitempty"`
	Emoji       *Emoji         `json:"emoji,omitempty"`
	Placeholder string         `json:"placeholder,omitempty"`
	Options     []SelectOption `json:"options,omitempty"`
	Content     string         `json:"content,omitempty"`
	AccentColor *int           `json:"accent_color,omitempty"`
	Divider     *bool          `json:"divider,omitempty"`
	Spacing     int            `json:"spacing,omitempty"`
	Accessory   *Component     `json:"accessory,omitempty"`
	Components  []Component    `json:"components,omitempty"`
}

// Emoji is a unicode or custom emoji reference.
type Emoji struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// SelectOption is one entry of a string select menu.
type SelectOption struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// TextDisplay builds a markdown text component.
func TextDisplay(content string) Component {
	return Component{Type: ComponentTextDisplay, Content: content}
}

// Container builds an accented container around children.
func Container(accent int, children ...Component) Component {
	return Component{Type: ComponentContainer, AccentColor: &accent, Components: children}
}

// Section builds a section with an accessory (button or thumbnail).
func Section(accessory Component, children ...Component) Component {
	return Component{Type: ComponentSection, Accessory: &accessory, Components: children}
}

// Separator builds a separator.
func Separator(divider bool, spacing int) Component {
	return Component{Type: ComponentSeparator, Divider: &divider, Spacing: spacing}
}

// ActionRow wraps interactive components.
func ActionRow(children ...Component) Component {
	return Component{Type: ComponentActionRow, Components: children}
}

// LinkButton builds a URL button.
func LinkButton(label, url string, emoji *Emoji) Component {
	return Component{Type: ComponentButton, Style: ButtonStyleLink, Label: label, URL: url, Emoji: emoji}
}

// StringSelect builds a string select menu.
func StringSelect(customID, placeholder string, options ...SelectOption) Component {
	return Component{Type: ComponentStringSelect, CustomID: customID, Placeholder: placeholder, Options: options}
}
