// Package platformtest provides an in-memory platform for tests.
package platformtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/Jacobbrewer1/ticketpanel/pkg/platform"
)

// Channel is a channel created on the fake platform.
type Channel struct {
	ID         string
	GuildID    string
	Name       string
	CategoryID string
	Grants     []platform.Grant
	Messages   []*Message
}

// Message is a message posted on the fake platform.
type Message struct {
	ID      string
	Content *platform.Content
	Edits   int
}

// Platform records everything done through it. The zero value is not usable, use New.
type Platform struct {
	mu sync.Mutex

	seq        int
	channels   map[string]*Channel
	categories map[string]string
	dms        map[string][]*platform.Content
	history    map[string][]platform.HistoryMessage

	// Deleted lists deleted channel IDs in order.
	Deleted []string

	// FailDM makes direct messages to these users fail with platform.ErrDelivery.
	FailDM map[string]bool

	// FailSend makes SendMessage fail for these channel IDs.
	FailSend map[string]error

	// OnFetchHistory, when set, runs at the start of FetchHistory without the platform locked.
	OnFetchHistory func(channelID string)
}

// New creates an empty fake platform.
func New() *Platform {
	return &Platform{
		channels:   make(map[string]*Channel),
		categories: make(map[string]string),
		dms:        make(map[string][]*platform.Content),
		history:    make(map[string][]platform.HistoryMessage),
		FailDM:     make(map[string]bool),
		FailSend:   make(map[string]error),
	}
}

func (p *Platform) nextID(prefix string) string {
	p.seq++
	return fmt.Sprintf("%s-%d", prefix, p.seq)
}

// AddCategory registers a category in a guild.
func (p *Platform) AddCategory(guildID, categoryID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.categories[categoryID] = guildID
}

// AddChannel registers an existing channel, such as the one a panel is posted in.
func (p *Platform) AddChannel(guildID, channelID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels[channelID] = &Channel{ID: channelID, GuildID: guildID}
}

// SetHistory sets the messages FetchHistory returns for a channel.
func (p *Platform) SetHistory(channelID string, msgs []platform.HistoryMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history[channelID] = msgs
}

// Channel returns a copy of a channel, or nil.
func (p *Platform) Channel(channelID string) *Channel {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, ok := p.channels[channelID]
	if !ok {
		return nil
	}
	c := *ch
	c.Messages = append([]*Message(nil), ch.Messages...)
	return &c
}

// Channels returns how many channels currently exist.
func (p *Platform) Channels() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.channels)
}

// DMs returns the direct messages sent to a user.
func (p *Platform) DMs(userID string) []*platform.Content {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*platform.Content(nil), p.dms[userID]...)
}

func (p *Platform) CreatePrivateChannel(_ context.Context, guildID, name, categoryID string, grants []platform.Grant) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if categoryID != "" {
		if g, ok := p.categories[categoryID]; !ok || g != guildID {
			return "", fmt.Errorf("category %s: %w", categoryID, platform.ErrNotFound)
		}
	}

	ch := &Channel{
		ID:         p.nextID("channel"),
		GuildID:    guildID,
		Name:       name,
		CategoryID: categoryID,
		Grants:     append([]platform.Grant(nil), grants...),
	}
	p.channels[ch.ID] = ch
	return ch.ID, nil
}

func (p *Platform) SendMessage(_ context.Context, channelID string, content *platform.Content) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err, ok := p.FailSend[channelID]; ok {
		return "", err
	}

	ch, ok := p.channels[channelID]
	if !ok {
		return "", fmt.Errorf("channel %s: %w", channelID, platform.ErrNotFound)
	}

	msg := &Message{ID: p.nextID("message"), Content: content}
	ch.Messages = append(ch.Messages, msg)
	return msg.ID, nil
}

func (p *Platform) EditMessage(_ context.Context, channelID, messageID string, content *platform.Content) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, ok := p.channels[channelID]
	if !ok {
		return fmt.Errorf("channel %s: %w", channelID, platform.ErrNotFound)
	}
	for _, m := range ch.Messages {
		if m.ID == messageID {
			m.Content = content
			m.Edits++
			return nil
		}
	}
	return fmt.Errorf("message %s: %w", messageID, platform.ErrNotFound)
}

// DeleteMessage removes a message, as if someone deleted it by hand.
func (p *Platform) DeleteMessage(channelID, messageID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, ok := p.channels[channelID]
	if !ok {
		return
	}
	for i, m := range ch.Messages {
		if m.ID == messageID {
			ch.Messages = append(ch.Messages[:i], ch.Messages[i+1:]...)
			return
		}
	}
}

func (p *Platform) DeleteChannel(_ context.Context, channelID, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.channels[channelID]; !ok {
		return fmt.Errorf("channel %s: %w", channelID, platform.ErrNotFound)
	}
	delete(p.channels, channelID)
	p.Deleted = append(p.Deleted, channelID)
	return nil
}

func (p *Platform) FetchHistory(_ context.Context, channelID string) ([]platform.HistoryMessage, error) {
	if p.OnFetchHistory != nil {
		p.OnFetchHistory(channelID)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.channels[channelID]; !ok {
		return nil, fmt.Errorf("channel %s: %w", channelID, platform.ErrNotFound)
	}
	return append([]platform.HistoryMessage(nil), p.history[channelID]...), nil
}

func (p *Platform) SendDirectMessage(_ context.Context, userID string, content *platform.Content) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.FailDM[userID] {
		return fmt.Errorf("user %s: %w", userID, platform.ErrDelivery)
	}
	p.dms[userID] = append(p.dms[userID], content)
	return nil
}

func (p *Platform) ResolveCategory(_ context.Context, guildID, categoryID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if g, ok := p.categories[categoryID]; !ok || g != guildID {
		return fmt.Errorf("category %s: %w", categoryID, platform.ErrNotFound)
	}
	return nil
}
