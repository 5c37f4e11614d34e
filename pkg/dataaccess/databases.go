package dataaccess

import (
	"context"
	"errors"

	"github.com/Jacobbrewer1/ticketpanel/pkg/entities"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateTicket is returned when the user already has an active ticket in the guild, or the channel is
	// already a ticket.
	ErrDuplicateTicket = errors.New("duplicate ticket")

	// ErrAlreadyClaimed is returned when claiming a ticket that is not open.
	ErrAlreadyClaimed = errors.New("ticket already claimed")
)

// GuildDal stores the per guild panel, configuration and ticket counter.
//
// SavePanel has full overwrite semantics: two writers racing on the same guild lose one of the updates (last write
// wins). The ticket counter is the exception, it is only ever raised.
type GuildDal interface {
	// LoadPanel gets the panel of a guild. Returns ErrNotFound if the guild has no panel.
	LoadPanel(ctx context.Context, guildID string) (*entities.Panel, error)

	// SavePanel overwrites the panel of a guild.
	SavePanel(ctx context.Context, panel *entities.Panel) error

	// NextTicketNumber atomically increments the ticket counter of a guild and returns the new value.
	NextTicketNumber(ctx context.Context, guildID string) (int64, error)

	// GetGuildConfig gets the ticketing configuration of a guild. Returns ErrNotFound if it was never set.
	GetGuildConfig(ctx context.Context, guildID string) (*entities.GuildConfig, error)

	// SetGuildConfig overwrites the ticketing configuration of a guild.
	SetGuildConfig(ctx context.Context, cfg *entities.GuildConfig) error
}

// TicketDal stores active tickets.
type TicketDal interface {
	// HasActiveTicket is whether the user has an open or claimed ticket in the guild.
	HasActiveTicket(ctx context.Context, userID, guildID string) (bool, error)

	// AddTicket records a new ticket. Returns ErrDuplicateTicket if the user already has an active ticket in the
	// guild or the channel is already a ticket.
	AddTicket(ctx context.Context, ticket *entities.Ticket) error

	// GetTicket gets a ticket by its channel. Returns ErrNotFound if the channel is not a ticket.
	GetTicket(ctx context.Context, channelID string) (*entities.Ticket, error)

	// ClaimTicket atomically moves an open ticket to claimed. Returns ErrAlreadyClaimed if the ticket is not open.
	ClaimTicket(ctx context.Context, channelID, actorID string) (*entities.Ticket, error)

	// RemoveTicket deletes a ticket. Returns ErrNotFound if there was nothing to delete.
	RemoveTicket(ctx context.Context, channelID string) error

	// ListTickets lists the tickets of a guild ordered by number.
	ListTickets(ctx context.Context, guildID string) ([]*entities.Ticket, error)
}

// Store is the persistence adapter. Every call completes before it returns, a read after a write always sees it.
type Store interface {
	GuildDal
	TicketDal

	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases the resources of the store.
	Close(ctx context.Context) error
}
