package entities

import "strings"

const (
	// DefaultPanelTitle is the title of a panel that has not been edited.
	DefaultPanelTitle = "Ticket Panel"

	// DefaultPanelDescription is the description of a panel that has not been edited.
	DefaultPanelDescription = "Select an option to open a ticket."

	// DefaultPanelColor is the embed color used when none, or an invalid one, is given.
	DefaultPanelColor = 0x2B2D31

	// MaxPanelOptions is the maximum number of options a select menu can hold.
	MaxPanelOptions = 25
)

// Embed is the display content of a panel.
type Embed struct {
	Title       string `json:"title" bson:"title"`
	Description string `json:"description" bson:"description"`
	Color       int    `json:"color" bson:"color"`
	ImageURL    string `json:"image_url,omitempty" bson:"image_url,omitempty"`
}

// TicketOption is one selectable ticket type on a panel.
type TicketOption struct {
	// Label is the name of the option. Unique within a panel.
	Label string `json:"label" bson:"label"`

	// Emoji is shown next to the label.
	Emoji Emoji `json:"emoji" bson:"emoji"`

	// StaffRoleID is the role that handles tickets of this type.
	StaffRoleID string `json:"staff_role_id" bson:"staff_role_id"`
}

// Panel is the ticket panel of a guild.
type Panel struct {
	// GuildID is the ID of the guild that owns the panel.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// Embed is the display content of the panel.
	Embed Embed `json:"embed" bson:"embed"`

	// Options are the ticket types members can pick from, in display order.
	Options []TicketOption `json:"options" bson:"options"`

	// CategoryID is the category ticket channels are created under.
	CategoryID string `json:"category_id,omitempty" bson:"category_id,omitempty"`

	// ChannelID is the channel the panel message was posted in.
	ChannelID string `json:"channel_id,omitempty" bson:"channel_id,omitempty"`

	// MessageID is the ID of the posted panel message.
	MessageID string `json:"message_id,omitempty" bson:"message_id,omitempty"`

	// TicketCounter is the number of the last ticket opened in the guild. It never decreases.
	TicketCounter int64 `json:"ticket_counter" bson:"ticket_counter"`
}

// NewPanel returns the default panel for a guild.
func NewPanel(guildID string) *Panel {
	return &Panel{
		GuildID: guildID,
		Embed: Embed{
			Title:       DefaultPanelTitle,
			Description: DefaultPanelDescription,
			Color:       DefaultPanelColor,
		},
		Options: make([]TicketOption, 0),
	}
}

// Option finds an option by label. Labels are compared case-insensitively.
func (p *Panel) Option(label string) (*TicketOption, bool) {
	for i := range p.Options {
		if strings.EqualFold(p.Options[i].Label, label) {
			return &p.Options[i], true
		}
	}
	return nil, false
}

// IsPublished is whether the panel has been posted.
func (p *Panel) IsPublished() bool {
	return p.ChannelID != "" && p.MessageID != ""
}

// Clone returns a deep copy of the panel.
func (p *Panel) Clone() *Panel {
	if p == nil {
		return nil
	}
	c := *p
	c.Options = make([]TicketOption, len(p.Options))
	copy(c.Options, p.Options)
	return &c
}
