// Package events publishes ticket lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/ticketpanel/pkg/logging"
)

// Type is the kind of event. It is also the routing key.
type Type string

const (
	TypePanelPublished Type = "panel.published"
	TypeTicketOpened   Type = "ticket.opened"
	TypeTicketClaimed  Type = "ticket.claimed"
	TypeTicketClosed   Type = "ticket.closed"
)

// Event is something that happened to a panel or ticket.
type Event struct {
	Type      Type      `json:"type"`
	GuildID   string    `json:"guild_id"`
	ChannelID string    `json:"channel_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
	Option    string    `json:"option,omitempty"`
	Number    int64     `json:"number,omitempty"`
	Time      time.Time `json:"time"`
}

// Publisher sends events somewhere. Publishing is best effort, callers log failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, e *Event) error
	Close() error
}

// Marshal encodes an event for the wire.
func Marshal(e *Event) ([]byte, error) {
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	return json.Marshal(e)
}

type logPublisher struct {
	l *slog.Logger
}

// NewLogPublisher creates a publisher that writes events to the log.
func NewLogPublisher(l *slog.Logger) Publisher {
	return &logPublisher{l: l}
}

func (p *logPublisher) Publish(_ context.Context, e *Event) error {
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}

	p.l.Info("Ticket event",
		slog.String("event", string(e.Type)),
		slog.String(logging.KeyGuildID, e.GuildID),
		slog.String(logging.KeyChannelID, e.ChannelID),
		slog.String(logging.KeyUserID, e.UserID),
		slog.String("actor_id", e.ActorID),
		slog.String(logging.KeyOption, e.Option),
		slog.Int64("number", e.Number),
	)
	return nil
}

func (p *logPublisher) Close() error {
	return nil
}
