package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Jacobbrewer1/ticketpanel/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/ticketpanel/pkg/entities"
	"github.com/Jacobbrewer1/ticketpanel/pkg/logging"
	"github.com/Jacobbrewer1/ticketpanel/pkg/messages"
	"github.com/Jacobbrewer1/ticketpanel/pkg/ticketing"
)

// maxListLength keeps the ticket list under the message length limit.
const maxListLength = 1800

// errStaffOnly is returned when a member without manage channels lists tickets.
var errStaffOnly = &ticketing.Error{Kind: ticketing.ErrPermissionDenied, Msg: "Only staff can list tickets."}

// openTicketSelect opens a ticket of the option picked in the panel select menu.
func openTicketSelect(ctx context.Context, a IApp, in *interaction) error {
	values := in.MessageComponentData().Values
	if len(values) == 0 {
		return errors.New("no ticket option selected")
	}

	if !a.Limiter().Allow(in.userID()) {
		monitoring.RateLimitedInteractions.Inc()
		return in.reply(messages.ErrSlowDown)
	}

	if err := in.deferReply(); err != nil {
		return err
	}

	t, err := a.Manager().OpenTicket(ctx, in.GuildID, values[0], in.actor())
	if err != nil {
		return err
	}
	return in.reply(fmt.Sprintf("Your ticket has been created: <#%s>", t.ChannelID))
}

func claimTicket(ctx context.Context, a IApp, in *interaction) error {
	t, err := a.Manager().Claim(ctx, in.ChannelID, in.actor())
	if err != nil {
		return err
	}
	return in.reply(fmt.Sprintf("You claimed ticket **%s**.", t.Name()))
}

func closeTicketButton(ctx context.Context, a IApp, in *interaction) error {
	return closeTicket(ctx, a, in, false)
}

func closeTicketTranscriptButton(ctx context.Context, a IApp, in *interaction) error {
	return closeTicket(ctx, a, in, true)
}

func closeTicketCmd(ctx context.Context, a IApp, in *interaction) error {
	return closeTicket(ctx, a, in, boolOption(options(in.ApplicationCommandData()), transcriptOptName))
}

// closeTicket closes the ticket of the channel. The channel is deleted, so the closing member may never see the
// reply. Delivery failures also go to the guild log channel.
func closeTicket(ctx context.Context, a IApp, in *interaction, withTranscript bool) error {
	if err := in.deferReply(); err != nil {
		return err
	}

	res, err := a.Manager().Close(ctx, in.ChannelID, in.actor(), withTranscript)
	if err != nil {
		return err
	}

	if err := in.reply(closeSummary(res)); err != nil {
		in.l.Debug("Could not answer close after the channel was deleted", slog.String(logging.KeyError, err.Error()))
	}
	return nil
}

func closeSummary(res *ticketing.CloseResult) string {
	msg := fmt.Sprintf("Ticket **%s** closed.", res.Ticket.Name())
	if res.DeliveryErr != nil {
		msg += "\n" + res.DeliveryErr.Error()
	} else if res.Transcript != nil {
		msg += fmt.Sprintf("\nThe transcript was sent to <@%s>.", res.Ticket.UserID)
	}
	if !res.ChannelDeleted {
		msg += "\nThe channel could not be deleted, please delete it by hand."
	}
	return msg
}

func listTicketsCmd(ctx context.Context, a IApp, in *interaction) error {
	if !in.actor().ManageChannels {
		return errStaffOnly
	}

	tickets, err := a.Manager().List(ctx, in.GuildID)
	if err != nil {
		return err
	}
	return in.reply(ticketList(tickets))
}

func ticketList(tickets []*entities.Ticket) string {
	if len(tickets) == 0 {
		return "There are no open tickets."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**%d open tickets**\n", len(tickets)))
	for i, t := range tickets {
		if sb.Len() > maxListLength {
			sb.WriteString(fmt.Sprintf("...and %d more\n", len(tickets)-i))
			break
		}
		sb.WriteString(fmt.Sprintf("`#%04d` <#%s> %s by <@%s>", t.Number, t.ChannelID, t.OptionLabel, t.UserID))
		if t.ClaimedBy != "" {
			sb.WriteString(fmt.Sprintf(", claimed by <@%s>", t.ClaimedBy))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
