// Package followup lets a command wait for the next message a user sends in a channel.
package followup

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"time"
)

// DefaultTimeout is how long a follow-up is waited for when no timeout is configured.
const DefaultTimeout = 30 * time.Second

var (
	// ErrTimeout is returned when the user did not answer in time.
	ErrTimeout = errors.New("timed out waiting for follow-up")

	// ErrReplaced is returned to a wait that was replaced by a newer wait for the same user and channel.
	ErrReplaced = errors.New("follow-up replaced by a newer one")
)

var channelMention = regexp.MustCompile(`<#(\d+)>`)

// Message is a message that may answer a wait.
type Message struct {
	GuildID   string
	ChannelID string
	AuthorID  string
	Content   string
}

// ChannelMentions returns the channel IDs mentioned in the message, in order.
func (m *Message) ChannelMentions() []string {
	matches := channelMention.FindAllStringSubmatch(m.Content, -1)
	ids := make([]string, 0, len(matches))
	for _, match := range matches {
		ids = append(ids, match[1])
	}
	return ids
}

type key struct {
	channelID string
	userID    string
}

type wait struct {
	ch     chan *Message
	accept func(*Message) bool
}

// Waiter hands incoming messages to the commands waiting for them.
type Waiter struct {
	mu      sync.Mutex
	waits   map[key]*wait
	timeout time.Duration
}

// NewWaiter creates a waiter. A timeout of zero or less uses DefaultTimeout.
func NewWaiter(timeout time.Duration) *Waiter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Waiter{
		waits:   make(map[key]*wait),
		timeout: timeout,
	}
}

// Timeout is how long Wait waits.
func (w *Waiter) Timeout() time.Duration {
	return w.timeout
}

// Wait blocks until the user sends a message in the channel that accept returns true for, the timeout passes or ctx
// is done. A nil accept takes the first message. Starting a new wait for the same user and channel ends the old one
// with ErrReplaced.
func (w *Waiter) Wait(ctx context.Context, channelID, userID string, accept func(*Message) bool) (*Message, error) {
	k := key{channelID: channelID, userID: userID}
	wt := &wait{ch: make(chan *Message, 1), accept: accept}

	w.mu.Lock()
	if old, ok := w.waits[k]; ok {
		close(old.ch)
	}
	w.waits[k] = wt
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		if w.waits[k] == wt {
			delete(w.waits, k)
		}
		w.mu.Unlock()
	}()

	timer := time.NewTimer(w.timeout)
	defer timer.Stop()

	select {
	case m, ok := <-wt.ch:
		if !ok {
			return nil, ErrReplaced
		}
		return m, nil
	case <-timer.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Deliver passes a message to the wait for its author and channel. It reports whether the message was taken.
func (w *Waiter) Deliver(m *Message) bool {
	k := key{channelID: m.ChannelID, userID: m.AuthorID}

	w.mu.Lock()
	defer w.mu.Unlock()

	wt, ok := w.waits[k]
	if !ok {
		return false
	}
	if wt.accept != nil && !wt.accept(m) {
		return false
	}

	delete(w.waits, k)
	wt.ch <- m
	return true
}

// Pending is how many waits are in progress.
func (w *Waiter) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.waits)
}
