package main

import (
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/ticketpanel/pkg/ticketing"
)

// noMentions stops replies from pinging anyone.
var noMentions = &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}}

// interaction is an interaction being handled. Every reply it sends is ephemeral.
type interaction struct {
	*discordgo.InteractionCreate

	// s is the discord session.
	s *discordgo.Session

	// l is the logger with the interaction attributes attached.
	l *slog.Logger

	// deferred is whether the interaction was acknowledged without a reply.
	deferred bool

	// responded is whether a reply was sent.
	responded bool
}

// userID is the ID of the user that caused the interaction.
func (in *interaction) userID() string {
	if in.Member != nil && in.Member.User != nil {
		return in.Member.User.ID
	}
	if in.User != nil {
		return in.User.ID
	}
	return ""
}

// actor describes the member that caused the interaction.
func (in *interaction) actor() *ticketing.Actor {
	a := &ticketing.Actor{UserID: in.userID()}
	if in.Member == nil {
		return a
	}

	a.RoleIDs = in.Member.Roles
	a.ManageChannels = in.Member.Permissions&discordgo.PermissionManageChannels != 0 ||
		in.Member.Permissions&discordgo.PermissionAdministrator != 0
	if in.Member.User != nil {
		a.Username = in.Member.User.Username
	}
	if in.Member.Nick != "" {
		a.Username = in.Member.Nick
	}
	return a
}

// isAdmin is whether the member is an administrator of the guild.
func (in *interaction) isAdmin() bool {
	return in.Member != nil && in.Member.Permissions&discordgo.PermissionAdministrator != 0
}

// deferReply acknowledges the interaction. The answer is sent later with reply.
func (in *interaction) deferReply() error {
	if in.deferred || in.responded {
		return nil
	}
	err := in.s.InteractionRespond(in.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		return fmt.Errorf("error deferring interaction: %w", err)
	}
	in.deferred = true
	return nil
}

// reply answers the interaction, or follows up when it was already answered or deferred.
func (in *interaction) reply(content string, embeds ...*discordgo.MessageEmbed) error {
	if in.deferred || in.responded {
		_, err := in.s.FollowupMessageCreate(in.Interaction, true, &discordgo.WebhookParams{
			Content:         content,
			Embeds:          embeds,
			AllowedMentions: noMentions,
			Flags:           discordgo.MessageFlagsEphemeral,
		})
		if err != nil {
			return fmt.Errorf("error sending followup: %w", err)
		}
		in.responded = true
		return nil
	}

	err := in.s.InteractionRespond(in.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:         content,
			Embeds:          embeds,
			AllowedMentions: noMentions,
			Flags:           discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		return fmt.Errorf("error responding to interaction: %w", err)
	}
	in.responded = true
	return nil
}
