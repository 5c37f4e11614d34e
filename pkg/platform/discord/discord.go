// Package discord implements the platform adapter on a discordgo session.
package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/ticketpanel/pkg/logging"
	"github.com/Jacobbrewer1/ticketpanel/pkg/platform"
)

// historyPageSize is the most messages the API returns per request.
const historyPageSize = 100

// Platform is the discord implementation of platform.Platform.
type Platform struct {
	// l is the logger.
	l *slog.Logger

	// s is the discord session.
	s *discordgo.Session
}

// NewPlatform creates a platform adapter on the session.
func NewPlatform(l *slog.Logger, s *discordgo.Session) *Platform {
	return &Platform{
		l: l,
		s: s,
	}
}

// restCode returns the discord error code of err, or 0 when err is not a REST error.
func restCode(err error) int {
	restErr := new(discordgo.RESTError)
	if !errors.As(err, &restErr) {
		return 0
	}
	if restErr.Message != nil && restErr.Message.Code != 0 {
		return restErr.Message.Code
	}
	if restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return discordgo.ErrCodeUnknownChannel
	}
	return 0
}

func isNotFound(err error) bool {
	switch restCode(err) {
	case discordgo.ErrCodeUnknownChannel, discordgo.ErrCodeUnknownMessage:
		return true
	default:
		return false
	}
}

func (p *Platform) CreatePrivateChannel(ctx context.Context, guildID, name, categoryID string, grants []platform.Grant) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	overwrites := make([]*discordgo.PermissionOverwrite, 0, len(grants))
	for _, g := range grants {
		ow := &discordgo.PermissionOverwrite{
			ID:   g.ID,
			Type: discordgo.PermissionOverwriteTypeRole,
		}
		if g.Target == platform.GrantMember {
			ow.Type = discordgo.PermissionOverwriteTypeMember
		}
		if g.Allow {
			ow.Allow = discordgo.PermissionAllText
			ow.Deny = discordgo.PermissionMentionEveryone
		} else {
			ow.Deny = discordgo.PermissionViewChannel
		}
		overwrites = append(overwrites, ow)
	}

	ch, err := p.s.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             categoryID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("category %s: %w", categoryID, platform.ErrNotFound)
		}
		return "", fmt.Errorf("error creating channel: %w", err)
	}
	return ch.ID, nil
}

func (p *Platform) SendMessage(ctx context.Context, channelID string, content *platform.Content) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	msg, err := p.s.ChannelMessageSendComplex(channelID, renderSend(content))
	if err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("channel %s: %w", channelID, platform.ErrNotFound)
		}
		return "", fmt.Errorf("error sending message: %w", err)
	}
	return msg.ID, nil
}

func (p *Platform) EditMessage(ctx context.Context, channelID, messageID string, content *platform.Content) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	send := renderSend(content)
	edit := &discordgo.MessageEdit{
		Channel:         channelID,
		ID:              messageID,
		Content:         &send.Content,
		Embed:           send.Embed,
		Components:      send.Components,
		AllowedMentions: send.AllowedMentions,
	}

	if _, err := p.s.ChannelMessageEditComplex(edit); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("message %s: %w", messageID, platform.ErrNotFound)
		}
		return fmt.Errorf("error editing message: %w", err)
	}
	return nil
}

func (p *Platform) DeleteChannel(ctx context.Context, channelID, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.l.Info("Deleting channel",
		slog.String(logging.KeyChannelID, channelID),
		slog.String("reason", reason),
	)

	if _, err := p.s.ChannelDelete(channelID); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("channel %s: %w", channelID, platform.ErrNotFound)
		}
		return fmt.Errorf("error deleting channel: %w", err)
	}
	return nil
}

func (p *Platform) FetchHistory(ctx context.Context, channelID string) ([]platform.HistoryMessage, error) {
	history := make([]platform.HistoryMessage, 0)

	// Pages come back newest first, walk backwards until a short page.
	before := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := p.s.ChannelMessages(channelID, historyPageSize, before, "", "")
		if err != nil {
			if isNotFound(err) {
				return nil, fmt.Errorf("channel %s: %w", channelID, platform.ErrNotFound)
			}
			return nil, fmt.Errorf("error getting channel messages: %w", err)
		}

		for _, m := range page {
			history = append(history, historyMessage(m))
		}

		if len(page) < historyPageSize {
			break
		}
		before = page[len(page)-1].ID
	}

	slices.Reverse(history)
	return history, nil
}

func historyMessage(m *discordgo.Message) platform.HistoryMessage {
	hm := platform.HistoryMessage{
		ID:        m.ID,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
	if m.Author != nil {
		hm.AuthorID = m.Author.ID
		hm.AuthorName = m.Author.Username
	}
	for _, a := range m.Attachments {
		hm.Attachments = append(hm.Attachments, a.URL)
	}
	return hm
}

func (p *Platform) SendDirectMessage(ctx context.Context, userID string, content *platform.Content) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dm, err := p.s.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("error opening direct message with %s: %w: %w", userID, platform.ErrDelivery, err)
	}

	if _, err := p.s.ChannelMessageSendComplex(dm.ID, renderSend(content)); err != nil {
		if restCode(err) == discordgo.ErrCodeCannotSendMessagesToThisUser {
			return fmt.Errorf("user %s does not accept direct messages: %w", userID, platform.ErrDelivery)
		}
		return fmt.Errorf("error sending direct message: %w: %w", platform.ErrDelivery, err)
	}
	return nil
}

func (p *Platform) ResolveCategory(ctx context.Context, guildID, categoryID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ch, err := p.s.Channel(categoryID)
	if err != nil {
		if isNotFound(err) || restCode(err) == discordgo.ErrCodeMissingAccess {
			return fmt.Errorf("category %s: %w", categoryID, platform.ErrNotFound)
		}
		return fmt.Errorf("error getting category: %w", err)
	}

	if ch.Type != discordgo.ChannelTypeGuildCategory || ch.GuildID != guildID {
		return fmt.Errorf("channel %s is not a category of guild %s: %w", categoryID, guildID, platform.ErrNotFound)
	}
	return nil
}

// renderSend turns neutral content into a discord message.
func renderSend(c *platform.Content) *discordgo.MessageSend {
	send := &discordgo.MessageSend{
		Content: c.Text,
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{},
			Roles: c.MentionRoles,
			Users: c.MentionUsers,
		},
	}

	if c.Embed != nil {
		send.Embed = RenderEmbed(c.Embed)
	}

	if c.Select != nil {
		send.Components = append(send.Components, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{renderSelect(c.Select)},
		})
	}

	if len(c.Buttons) > 0 {
		row := discordgo.ActionsRow{}
		for _, b := range c.Buttons {
			row.Components = append(row.Components, renderButton(b))
		}
		send.Components = append(send.Components, row)
	}

	for _, f := range c.Files {
		send.Files = append(send.Files, &discordgo.File{
			Name:        f.Name,
			ContentType: f.ContentType,
			Reader:      bytes.NewReader(f.Data),
		})
	}
	return send
}
