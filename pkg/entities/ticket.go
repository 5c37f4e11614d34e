package entities

import (
	"fmt"

	"github.com/Jacobbrewer1/ticketpanel/pkg/custom"
)

// TicketStatus is the state of a ticket.
type TicketStatus string

const (
	TicketStatusOpen    TicketStatus = "open"
	TicketStatusClaimed TicketStatus = "claimed"
	TicketStatusClosed  TicketStatus = "closed"
)

// Valid is whether the status is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusClaimed, TicketStatusClosed:
		return true
	default:
		return false
	}
}

// Ticket is a private support channel between a member and staff.
type Ticket struct {
	// ChannelID is the ID of the ticket channel. This identifies the ticket.
	ChannelID string `json:"channel_id" bson:"channel_id"`

	// GuildID is the ID of the guild that the ticket is in.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// UserID is the ID of the user that opened the ticket.
	UserID string `json:"user_id" bson:"user_id"`

	// OptionLabel is the label of the panel option the ticket was opened with.
	OptionLabel string `json:"option_label" bson:"option_label"`

	// ClaimedBy is the ID of the staff member that claimed the ticket.
	ClaimedBy string `json:"claimed_by,omitempty" bson:"claimed_by,omitempty"`

	// Status is the state of the ticket.
	Status TicketStatus `json:"status" bson:"status"`

	// Number is the per guild ticket number.
	Number int64 `json:"number" bson:"number"`

	// CreatedAt is the time that the ticket was opened.
	CreatedAt custom.Datetime `json:"created_at" bson:"created_at"`
}

// Active is whether the ticket still counts against the one ticket per member limit.
func (t *Ticket) Active() bool {
	return t.Status == TicketStatusOpen || t.Status == TicketStatusClaimed
}

// Name is a display name for the ticket, e.g. "#0007 Buy".
func (t *Ticket) Name() string {
	return fmt.Sprintf("#%04d %s", t.Number, t.OptionLabel)
}

// Clone returns a copy of the ticket.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
