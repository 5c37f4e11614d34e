package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/ticketpanel/pkg/messages"
	"github.com/Jacobbrewer1/ticketpanel/pkg/ticketing"
)

const (
	// configureCmdName is the command for the guild ticketing configuration.
	configureCmdName = "configure-tickets"

	// panelCmdName is the command for editing the ticket panel.
	panelCmdName = "panel"

	// postPanelCmdName is the command for posting the ticket panel.
	postPanelCmdName = "post-panel"

	// refreshPanelCmdName is the command for updating the posted ticket panel.
	refreshPanelCmdName = "refresh-panel"

	// ticketCmdName is the command for handling tickets.
	ticketCmdName = "ticket"
)

// Sub commands.
const (
	embedSubCmdName        = "embed"
	addOptionSubCmdName    = "add-option"
	removeOptionSubCmdName = "remove-option"
	categorySubCmdName     = "category"
	showSubCmdName         = "show"
	claimSubCmdName        = "claim"
	closeSubCmdName        = "close"
	listSubCmdName         = "list"
)

// Command options.
const (
	categoryOptName    = "category"
	logChannelOptName  = "log-channel"
	staffRoleOptName   = "staff-role"
	titleOptName       = "title"
	descriptionOptName = "description"
	colorOptName       = "color"
	imageOptName       = "image"
	labelOptName       = "label"
	emojiOptName       = "emoji"
	channelOptName     = "channel"
	transcriptOptName  = "transcript"
)

var (
	adminPermission int64 = discordgo.PermissionAdministrator

	dmPermission = false

	categoryOption = &discordgo.ApplicationCommandOption{
		Name:         categoryOptName,
		Type:         discordgo.ApplicationCommandOptionChannel,
		Description:  "The category ticket channels are created in.",
		ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory},
		Required:     true,
	}
)

// commands are the slash commands registered in every guild.
func commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:                     configureCmdName,
			Type:                     discordgo.ChatApplicationCommand,
			Description:              "Configure ticketing for this server.",
			DefaultMemberPermissions: &adminPermission,
			DMPermission:             &dmPermission,
			Options: []*discordgo.ApplicationCommandOption{
				categoryOption,
				{
					Name:         logChannelOptName,
					Type:         discordgo.ApplicationCommandOptionChannel,
					Description:  "The channel closed tickets are logged in.",
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				},
				{
					Name:        staffRoleOptName,
					Type:        discordgo.ApplicationCommandOptionRole,
					Description: "The role that can handle every ticket.",
				},
			},
		},
		{
			Name:                     panelCmdName,
			Type:                     discordgo.ChatApplicationCommand,
			Description:              "Edit the ticket panel.",
			DefaultMemberPermissions: &adminPermission,
			DMPermission:             &dmPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        embedSubCmdName,
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Description: "Change the panel message.",
					Options: []*discordgo.ApplicationCommandOption{
						{Name: titleOptName, Type: discordgo.ApplicationCommandOptionString, Description: "The title."},
						{Name: descriptionOptName, Type: discordgo.ApplicationCommandOptionString, Description: "The description."},
						{Name: colorOptName, Type: discordgo.ApplicationCommandOptionString, Description: "The color as hex, e.g. #3498db."},
						{Name: imageOptName, Type: discordgo.ApplicationCommandOptionString, Description: "The image URL."},
					},
				},
				{
					Name:        addOptionSubCmdName,
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Description: "Add a ticket type to the panel.",
					Options: []*discordgo.ApplicationCommandOption{
						{Name: labelOptName, Type: discordgo.ApplicationCommandOptionString, Description: "The name of the ticket type.", Required: true},
						{Name: emojiOptName, Type: discordgo.ApplicationCommandOptionString, Description: "The emoji shown next to it.", Required: true},
						{Name: staffRoleOptName, Type: discordgo.ApplicationCommandOptionRole, Description: "The role that handles these tickets.", Required: true},
					},
				},
				{
					Name:        removeOptionSubCmdName,
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Description: "Remove a ticket type from the panel.",
					Options: []*discordgo.ApplicationCommandOption{
						{Name: labelOptName, Type: discordgo.ApplicationCommandOptionString, Description: "The name of the ticket type.", Required: true},
					},
				},
				{
					Name:        categorySubCmdName,
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Description: "Set the category ticket channels are created in.",
					Options:     []*discordgo.ApplicationCommandOption{categoryOption},
				},
				{
					Name:        showSubCmdName,
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Description: "Preview the panel.",
				},
			},
		},
		{
			Name:                     postPanelCmdName,
			Type:                     discordgo.ChatApplicationCommand,
			Description:              "Post the ticket panel.",
			DefaultMemberPermissions: &adminPermission,
			DMPermission:             &dmPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:         channelOptName,
					Type:         discordgo.ApplicationCommandOptionChannel,
					Description:  "The channel to post in. You are asked for it when left out.",
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				},
			},
		},
		{
			Name:                     refreshPanelCmdName,
			Type:                     discordgo.ChatApplicationCommand,
			Description:              "Update the posted ticket panel.",
			DefaultMemberPermissions: &adminPermission,
			DMPermission:             &dmPermission,
		},
		{
			Name:         ticketCmdName,
			Type:         discordgo.ChatApplicationCommand,
			Description:  "Handle the ticket of this channel.",
			DMPermission: &dmPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        claimSubCmdName,
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Description: "Claim this ticket.",
				},
				{
					Name:        closeSubCmdName,
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Description: "Close this ticket.",
					Options: []*discordgo.ApplicationCommandOption{
						{Name: transcriptOptName, Type: discordgo.ApplicationCommandOptionBoolean, Description: "Send a transcript to the ticket owner."},
					},
				},
				{
					Name:        listSubCmdName,
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Description: "List the open tickets of this server.",
				},
			},
		},
	}
}

// commandKey names the handler of a command: the command name, followed by the sub command if there is one.
func commandKey(data discordgo.ApplicationCommandInteractionData) string {
	if len(data.Options) > 0 && data.Options[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		return data.Name + " " + data.Options[0].Name
	}
	return data.Name
}

// options returns the options of the command, or of its sub command, by name.
func options(data discordgo.ApplicationCommandInteractionData) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := data.Options
	if len(opts) > 0 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		opts = opts[0].Options
	}

	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

func stringOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) (string, bool) {
	o, ok := opts[name]
	if !ok || o.Type != discordgo.ApplicationCommandOptionString {
		return "", false
	}
	return strings.TrimSpace(o.StringValue()), true
}

func boolOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) bool {
	o, ok := opts[name]
	if !ok || o.Type != discordgo.ApplicationCommandOptionBoolean {
		return false
	}
	return o.BoolValue()
}

// channelOption returns the channel ID of the option, or "" when it was not given.
func channelOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	o, ok := opts[name]
	if !ok || o.Type != discordgo.ApplicationCommandOptionChannel {
		return ""
	}
	// Without a session only the ID is filled in.
	return o.ChannelValue(nil).ID
}

// roleOption returns the role ID of the option, or "" when it was not given.
func roleOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	o, ok := opts[name]
	if !ok || o.Type != discordgo.ApplicationCommandOptionRole {
		return ""
	}
	return o.RoleValue(nil, "").ID
}

// errAdminOnly is returned when a member without administrator runs an administrator command.
var errAdminOnly = &ticketing.Error{Kind: ticketing.ErrPermissionDenied, Msg: messages.ErrAdminOnly}

// adminOnly refuses the interaction unless the member is an administrator.
func adminOnly(p processor) processor {
	return func(ctx context.Context, a IApp, in *interaction) error {
		if !in.isAdmin() {
			return errAdminOnly
		}
		return p(ctx, a, in)
	}
}

func formatChannel(id string) string {
	if id == "" {
		return "not set"
	}
	return fmt.Sprintf("<#%s>", id)
}

func formatRole(id string) string {
	if id == "" {
		return "not set"
	}
	return fmt.Sprintf("<@&%s>", id)
}
