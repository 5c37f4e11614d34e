package dataaccess

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/Jacobbrewer1/ticketpanel/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/ticketpanel/pkg/entities"
	"github.com/Jacobbrewer1/ticketpanel/pkg/logging"
)

const memoryDalName = "memory"

// guildRecord is everything stored for one guild. The file backend serialises it as is.
type guildRecord struct {
	Panel         *entities.Panel             `json:"panel,omitempty"`
	Config        *entities.GuildConfig       `json:"config,omitempty"`
	TicketCounter int64                       `json:"ticket_counter"`
	Tickets       map[string]*entities.Ticket `json:"active_tickets"`
}

func (r *guildRecord) clone() *guildRecord {
	c := &guildRecord{
		Tickets: make(map[string]*entities.Ticket),
	}
	if r == nil {
		return c
	}

	c.Panel = r.Panel.Clone()
	c.TicketCounter = r.TicketCounter
	if r.Config != nil {
		cfg := *r.Config
		c.Config = &cfg
	}
	for id, t := range r.Tickets {
		c.Tickets[id] = t.Clone()
	}
	return c
}

// persistFunc is called with the full state after every mutation, while the store is locked.
type persistFunc func(guilds map[string]*guildRecord) error

type memoryStore struct {
	// l is the logger.
	l *slog.Logger

	// name is the backend name used in metrics.
	name string

	mu sync.RWMutex

	// guilds is the state keyed by guild ID.
	guilds map[string]*guildRecord

	// channels maps ticket channel IDs to their guild ID.
	channels map[string]string

	// persist writes the state somewhere durable. Nil for the in-memory store.
	persist persistFunc
}

// NewMemoryStore creates a store that keeps everything in process memory.
func NewMemoryStore(l *slog.Logger) Store {
	return newMemoryStore(l, memoryDalName, nil, nil)
}

func newMemoryStore(l *slog.Logger, name string, guilds map[string]*guildRecord, persist persistFunc) *memoryStore {
	if guilds == nil {
		guilds = make(map[string]*guildRecord)
	}

	s := &memoryStore{
		l:        l.With(slog.String(logging.KeyDal, name)),
		name:     name,
		guilds:   guilds,
		channels: make(map[string]string),
		persist:  persist,
	}

	for guildID, rec := range guilds {
		if rec.Tickets == nil {
			rec.Tickets = make(map[string]*entities.Ticket)
		}
		for channelID := range rec.Tickets {
			s.channels[channelID] = guildID
		}
	}
	return s
}

// mutate applies fn to a copy of the guild record and only swaps it in once it has been persisted.
func (s *memoryStore) mutate(guildID string, fn func(rec *guildRecord) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.guilds[guildID]
	next := prev.clone()
	if err := fn(next); err != nil {
		return err
	}

	s.guilds[guildID] = next
	if s.persist != nil {
		if err := s.persist(s.guilds); err != nil {
			s.l.Error("Error persisting state, rolling back",
				slog.String(logging.KeyGuildID, guildID),
				slog.String(logging.KeyError, err.Error()),
			)
			if prev == nil {
				delete(s.guilds, guildID)
			} else {
				s.guilds[guildID] = prev
			}
			return fmt.Errorf("error persisting state: %w", err)
		}
	}

	if prev != nil {
		for channelID := range prev.Tickets {
			delete(s.channels, channelID)
		}
	}
	for channelID := range next.Tickets {
		s.channels[channelID] = guildID
	}
	return nil
}

func (s *memoryStore) LoadPanel(_ context.Context, guildID string) (*entities.Panel, error) {
	defer monitoring.Observe(s.name, "load_panel")()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.guilds[guildID]
	if !ok || rec.Panel == nil {
		return nil, ErrNotFound
	}

	p := rec.Panel.Clone()
	p.TicketCounter = rec.TicketCounter
	return p, nil
}

func (s *memoryStore) SavePanel(_ context.Context, panel *entities.Panel) error {
	defer monitoring.Observe(s.name, "save_panel")()

	err := s.mutate(panel.GuildID, func(rec *guildRecord) error {
		rec.Panel = panel.Clone()
		rec.TicketCounter = max(rec.TicketCounter, panel.TicketCounter)
		rec.Panel.TicketCounter = rec.TicketCounter
		return nil
	})
	if err != nil {
		monitoring.Failed(s.name, "save_panel")
		return fmt.Errorf("error saving panel: %w", err)
	}
	return nil
}

func (s *memoryStore) NextTicketNumber(_ context.Context, guildID string) (int64, error) {
	defer monitoring.Observe(s.name, "next_ticket_number")()

	var n int64
	err := s.mutate(guildID, func(rec *guildRecord) error {
		rec.TicketCounter++
		if rec.Panel != nil {
			rec.Panel.TicketCounter = rec.TicketCounter
		}
		n = rec.TicketCounter
		return nil
	})
	if err != nil {
		monitoring.Failed(s.name, "next_ticket_number")
		return 0, fmt.Errorf("error incrementing ticket counter: %w", err)
	}
	return n, nil
}

func (s *memoryStore) GetGuildConfig(_ context.Context, guildID string) (*entities.GuildConfig, error) {
	defer monitoring.Observe(s.name, "get_guild_config")()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.guilds[guildID]
	if !ok || rec.Config == nil {
		return nil, ErrNotFound
	}

	cfg := *rec.Config
	return &cfg, nil
}

func (s *memoryStore) SetGuildConfig(_ context.Context, cfg *entities.GuildConfig) error {
	defer monitoring.Observe(s.name, "set_guild_config")()

	err := s.mutate(cfg.GuildID, func(rec *guildRecord) error {
		c := *cfg
		rec.Config = &c
		return nil
	})
	if err != nil {
		monitoring.Failed(s.name, "set_guild_config")
		return fmt.Errorf("error saving guild config: %w", err)
	}
	return nil
}

func (s *memoryStore) HasActiveTicket(_ context.Context, userID, guildID string) (bool, error) {
	defer monitoring.Observe(s.name, "has_active_ticket")()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.guilds[guildID]
	if !ok {
		return false, nil
	}
	for _, t := range rec.Tickets {
		if t.UserID == userID && t.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) AddTicket(_ context.Context, ticket *entities.Ticket) error {
	defer monitoring.Observe(s.name, "add_ticket")()

	s.mu.RLock()
	_, taken := s.channels[ticket.ChannelID]
	s.mu.RUnlock()
	if taken {
		return fmt.Errorf("channel %s: %w", ticket.ChannelID, ErrDuplicateTicket)
	}

	err := s.mutate(ticket.GuildID, func(rec *guildRecord) error {
		for _, t := range rec.Tickets {
			if t.UserID == ticket.UserID && t.Active() {
				return fmt.Errorf("user %s: %w", ticket.UserID, ErrDuplicateTicket)
			}
		}
		if _, ok := rec.Tickets[ticket.ChannelID]; ok {
			return fmt.Errorf("channel %s: %w", ticket.ChannelID, ErrDuplicateTicket)
		}
		rec.Tickets[ticket.ChannelID] = ticket.Clone()
		return nil
	})
	if err != nil {
		monitoring.Failed(s.name, "add_ticket")
		return err
	}
	return nil
}

func (s *memoryStore) GetTicket(_ context.Context, channelID string) (*entities.Ticket, error) {
	defer monitoring.Observe(s.name, "get_ticket")()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ticketLocked(channelID)
}

func (s *memoryStore) ticketLocked(channelID string) (*entities.Ticket, error) {
	guildID, ok := s.channels[channelID]
	if !ok {
		return nil, ErrNotFound
	}
	t, ok := s.guilds[guildID].Tickets[channelID]
	if !ok {
		return nil, ErrNotFound
	}
	return t.Clone(), nil
}

func (s *memoryStore) ClaimTicket(_ context.Context, channelID, actorID string) (*entities.Ticket, error) {
	defer monitoring.Observe(s.name, "claim_ticket")()

	s.mu.RLock()
	guildID, ok := s.channels[channelID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	var claimed *entities.Ticket
	err := s.mutate(guildID, func(rec *guildRecord) error {
		t, ok := rec.Tickets[channelID]
		if !ok {
			return ErrNotFound
		}
		if t.Status != entities.TicketStatusOpen {
			return ErrAlreadyClaimed
		}
		t.Status = entities.TicketStatusClaimed
		t.ClaimedBy = actorID
		claimed = t.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (s *memoryStore) RemoveTicket(_ context.Context, channelID string) error {
	defer monitoring.Observe(s.name, "remove_ticket")()

	s.mu.RLock()
	guildID, ok := s.channels[channelID]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	return s.mutate(guildID, func(rec *guildRecord) error {
		if _, ok := rec.Tickets[channelID]; !ok {
			return ErrNotFound
		}
		delete(rec.Tickets, channelID)
		return nil
	})
}

func (s *memoryStore) ListTickets(_ context.Context, guildID string) ([]*entities.Ticket, error) {
	defer monitoring.Observe(s.name, "list_tickets")()

	s.mu.RLock()
	defer s.mu.RUnlock()

	tickets := make([]*entities.Ticket, 0)
	if rec, ok := s.guilds[guildID]; ok {
		for _, t := range rec.Tickets {
			tickets = append(tickets, t.Clone())
		}
	}

	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].Number < tickets[j].Number
	})
	return tickets, nil
}

func (s *memoryStore) Ping(_ context.Context) error {
	return nil
}

func (s *memoryStore) Close(_ context.Context) error {
	return nil
}
