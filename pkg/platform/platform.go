// Package platform is the boundary between the ticket core and the chat platform.
package platform

import (
	"context"
	"errors"
	"time"

	"github.com/Jacobbrewer1/ticketpanel/pkg/entities"
)

var (
	// ErrNotFound is returned when the channel, category or message does not exist.
	ErrNotFound = errors.New("platform: not found")

	// ErrDelivery is returned when a direct message cannot be delivered to the user.
	ErrDelivery = errors.New("platform: delivery failed")
)

// GrantTarget is what a permission grant applies to.
type GrantTarget int

const (
	// GrantRole applies the grant to a role. The guild ID is the @everyone role.
	GrantRole GrantTarget = iota

	// GrantMember applies the grant to a single member.
	GrantMember
)

// Grant allows or denies viewing a private channel.
type Grant struct {
	Target GrantTarget
	ID     string
	Allow  bool
}

// ButtonStyle is how a button is drawn.
type ButtonStyle int

const (
	ButtonPrimary ButtonStyle = iota
	ButtonSecondary
	ButtonDanger
)

// Button is a clickable component.
type Button struct {
	Label    string
	CustomID string
	Style    ButtonStyle
	Emoji    *entities.Emoji
}

// SelectOption is one entry of a select menu.
type SelectOption struct {
	Label string
	Value string
	Emoji *entities.Emoji
}

// SelectMenu is a dropdown component.
type SelectMenu struct {
	CustomID    string
	Placeholder string
	Options     []SelectOption
}

// File is a message attachment.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Content is a platform neutral message.
type Content struct {
	Text    string
	Embed   *entities.Embed
	Select  *SelectMenu
	Buttons []Button
	Files   []File

	// Mentions are the role and user IDs the message is allowed to ping.
	MentionRoles []string
	MentionUsers []string
}

// HistoryMessage is a message read back from a channel.
type HistoryMessage struct {
	ID          string
	AuthorID    string
	AuthorName  string
	Content     string
	Attachments []string
	Timestamp   time.Time
}

// Platform is what the ticket core needs from the chat platform.
type Platform interface {
	// CreatePrivateChannel creates a text channel only the grantees can see and returns its ID.
	CreatePrivateChannel(ctx context.Context, guildID, name, categoryID string, grants []Grant) (string, error)

	// SendMessage posts a message and returns its ID.
	SendMessage(ctx context.Context, channelID string, content *Content) (string, error)

	// EditMessage replaces a message. Returns ErrNotFound if the message or channel is gone.
	EditMessage(ctx context.Context, channelID, messageID string, content *Content) error

	// DeleteChannel deletes a channel.
	DeleteChannel(ctx context.Context, channelID, reason string) error

	// FetchHistory returns every message of a channel, oldest first.
	FetchHistory(ctx context.Context, channelID string) ([]HistoryMessage, error)

	// SendDirectMessage messages a user privately. Returns ErrDelivery if the user cannot be reached.
	SendDirectMessage(ctx context.Context, userID string, content *Content) error

	// ResolveCategory checks a category exists in the guild. Returns ErrNotFound otherwise.
	ResolveCategory(ctx context.Context, guildID, categoryID string) error
}
