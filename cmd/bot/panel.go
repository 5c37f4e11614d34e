package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Jacobbrewer1/ticketpanel/pkg/entities"
	"github.com/Jacobbrewer1/ticketpanel/pkg/followup"
	"github.com/Jacobbrewer1/ticketpanel/pkg/logging"
	"github.com/Jacobbrewer1/ticketpanel/pkg/messages"
	"github.com/Jacobbrewer1/ticketpanel/pkg/platform/discord"
	"github.com/Jacobbrewer1/ticketpanel/pkg/ticketing"
)

// configureTicketsCmd stores the guild configuration. Options that are left out keep their current value.
func configureTicketsCmd(ctx context.Context, a IApp, in *interaction) error {
	opts := options(in.ApplicationCommandData())

	cfg, err := a.Registry().GuildConfig(ctx, in.GuildID)
	if err != nil {
		return err
	}
	if cfg == nil {
		cfg = &entities.GuildConfig{GuildID: in.GuildID}
	}

	if id := channelOption(opts, categoryOptName); id != "" {
		cfg.CategoryID = id
	}
	if id := channelOption(opts, logChannelOptName); id != "" {
		cfg.LogChannelID = id
	}
	if id := roleOption(opts, staffRoleOptName); id != "" {
		cfg.StaffRoleID = id
	}

	if err := a.Registry().Configure(ctx, cfg); err != nil {
		return err
	}

	in.l.Info("Ticketing configured",
		slog.String("category_id", cfg.CategoryID),
		slog.String("log_channel_id", cfg.LogChannelID),
		slog.String("staff_role_id", cfg.StaffRoleID),
	)
	return in.reply(configSummary(cfg))
}

func configSummary(cfg *entities.GuildConfig) string {
	return fmt.Sprintf("Ticketing configured.\nCategory: %s\nLog channel: %s\nStaff role: %s",
		formatChannel(cfg.CategoryID),
		formatChannel(cfg.LogChannelID),
		formatRole(cfg.StaffRoleID),
	)
}

// panelChanged tells the admin the panel was saved, and how to update the posted one.
func panelChanged(in *interaction, panel *entities.Panel, what string) error {
	msg := what
	if panel.IsPublished() {
		msg += "\nRun `/" + refreshPanelCmdName + "` to update the posted panel."
	}
	return in.reply(msg)
}

func panelEmbedCmd(ctx context.Context, a IApp, in *interaction) error {
	opts := options(in.ApplicationCommandData())

	var fields ticketing.EmbedFields
	if v, ok := stringOption(opts, titleOptName); ok {
		fields.Title = &v
	}
	if v, ok := stringOption(opts, descriptionOptName); ok {
		fields.Description = &v
	}
	if v, ok := stringOption(opts, colorOptName); ok {
		fields.Color = &v
	}
	if v, ok := stringOption(opts, imageOptName); ok {
		fields.ImageURL = &v
	}

	panel, err := a.Registry().CreateOrLoadPanel(ctx, in.GuildID)
	if err != nil {
		return err
	}
	if err := a.Registry().SetEmbed(ctx, panel, fields); err != nil {
		return err
	}
	return panelChanged(in, panel, "Panel message updated.")
}

func panelAddOptionCmd(ctx context.Context, a IApp, in *interaction) error {
	opts := options(in.ApplicationCommandData())
	label, _ := stringOption(opts, labelOptName)
	emoji, _ := stringOption(opts, emojiOptName)
	role := roleOption(opts, staffRoleOptName)

	panel, err := a.Registry().CreateOrLoadPanel(ctx, in.GuildID)
	if err != nil {
		return err
	}
	if err := a.Registry().AddOption(ctx, panel, label, emoji, role); err != nil {
		return err
	}
	return panelChanged(in, panel, fmt.Sprintf("Added **%s**, handled by <@&%s>.", label, role))
}

func panelRemoveOptionCmd(ctx context.Context, a IApp, in *interaction) error {
	label, _ := stringOption(options(in.ApplicationCommandData()), labelOptName)

	panel, err := a.Registry().CreateOrLoadPanel(ctx, in.GuildID)
	if err != nil {
		return err
	}
	if err := a.Registry().RemoveOption(ctx, panel, label); err != nil {
		return err
	}
	return panelChanged(in, panel, fmt.Sprintf("Removed **%s**.", label))
}

func panelCategoryCmd(ctx context.Context, a IApp, in *interaction) error {
	categoryID := channelOption(options(in.ApplicationCommandData()), categoryOptName)

	panel, err := a.Registry().CreateOrLoadPanel(ctx, in.GuildID)
	if err != nil {
		return err
	}
	if err := a.Registry().SetCategory(ctx, panel, categoryID); err != nil {
		return err
	}
	return in.reply(fmt.Sprintf("New tickets will be created in %s.", formatChannel(categoryID)))
}

func panelShowCmd(ctx context.Context, a IApp, in *interaction) error {
	panel, err := a.Registry().CreateOrLoadPanel(ctx, in.GuildID)
	if err != nil {
		return err
	}
	return in.reply(panelSummary(panel), discord.RenderEmbed(&panel.Embed))
}

func panelSummary(panel *entities.Panel) string {
	var sb strings.Builder
	sb.WriteString("**Options**\n")
	if len(panel.Options) == 0 {
		sb.WriteString("None yet, add one with `/panel add-option`.\n")
	}
	for _, o := range panel.Options {
		sb.WriteString(fmt.Sprintf("%s %s, handled by %s\n", o.Emoji.String(), o.Label, formatRole(o.StaffRoleID)))
	}

	sb.WriteString(fmt.Sprintf("\n**Category**: %s\n", formatChannel(panel.CategoryID)))
	if panel.IsPublished() {
		sb.WriteString(fmt.Sprintf("**Posted in**: %s\n", formatChannel(panel.ChannelID)))
	} else {
		sb.WriteString("**Posted in**: not posted yet\n")
	}
	return sb.String()
}

// postPanelCmd posts the panel in the given channel. Without a channel the admin is asked to mention one.
func postPanelCmd(ctx context.Context, a IApp, in *interaction) error {
	panel, err := a.Registry().CreateOrLoadPanel(ctx, in.GuildID)
	if err != nil {
		return err
	}

	channelID := channelOption(options(in.ApplicationCommandData()), channelOptName)
	if channelID == "" {
		if err := in.reply(messages.MentionChannelPrompt); err != nil {
			return err
		}

		channelID, err = waitForChannel(ctx, a, in)
		if err != nil {
			return err
		}
		if channelID == "" {
			// The admin has been told why.
			return nil
		}
	} else if err := in.deferReply(); err != nil {
		return err
	}

	if _, err := a.Registry().Publish(ctx, panel, channelID); err != nil {
		return err
	}

	in.l.Info("Panel posted", slog.String(logging.KeyChannelID, channelID))
	return in.reply(fmt.Sprintf("Ticket panel posted in <#%s>.", channelID))
}

// waitForChannel waits for the admin's next message and returns the first channel it mentions. An empty ID means the
// admin was already told what went wrong.
func waitForChannel(ctx context.Context, a IApp, in *interaction) (string, error) {
	m, err := a.Waiter().Wait(ctx, in.ChannelID, in.userID(), nil)
	switch {
	case errors.Is(err, followup.ErrTimeout):
		return "", in.reply(messages.ErrFollowUpTimeout)
	case errors.Is(err, followup.ErrReplaced):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("error waiting for channel mention: %w", err)
	}

	mentions := m.ChannelMentions()
	if len(mentions) == 0 {
		return "", in.reply(messages.ErrNoChannelMentioned)
	}
	return mentions[0], nil
}

// refreshPanelCmd updates the posted panel. When the message is gone the panel is posted again in the same channel.
func refreshPanelCmd(ctx context.Context, a IApp, in *interaction) error {
	panel, err := a.Registry().CreateOrLoadPanel(ctx, in.GuildID)
	if err != nil {
		return err
	}

	if err := in.deferReply(); err != nil {
		return err
	}

	err = a.Registry().Refresh(ctx, panel)
	if errors.Is(err, ticketing.ErrNotFound) && panel.ChannelID != "" {
		in.l.Info("Posted panel is gone, posting it again", slog.String(logging.KeyChannelID, panel.ChannelID))
		if _, err := a.Registry().Publish(ctx, panel, panel.ChannelID); err != nil {
			return err
		}
		return in.reply(fmt.Sprintf("The panel message was missing, it has been posted again in <#%s>.", panel.ChannelID))
	} else if err != nil {
		return err
	}
	return in.reply("Ticket panel updated.")
}
