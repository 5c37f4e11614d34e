package ticketing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/Jacobbrewer1/ticketpanel/pkg/custom"
	"github.com/Jacobbrewer1/ticketpanel/pkg/dataaccess"
	"github.com/Jacobbrewer1/ticketpanel/pkg/entities"
	"github.com/Jacobbrewer1/ticketpanel/pkg/events"
	"github.com/Jacobbrewer1/ticketpanel/pkg/logging"
	"github.com/Jacobbrewer1/ticketpanel/pkg/platform"
	"github.com/Jacobbrewer1/ticketpanel/pkg/transcripts"
)

// Ticket channel button IDs.
const (
	ClaimButtonID           = "ticket_claim"
	CloseButtonID           = "ticket_close"
	CloseTranscriptButtonID = "ticket_close_transcript"
)

// ticketEmbedColor is the color of the message posted in new ticket channels. (Blurple)
const ticketEmbedColor = 0x5865F2

// Actor is the user doing something to a ticket.
type Actor struct {
	UserID   string
	Username string

	// RoleIDs are the roles the user holds in the guild.
	RoleIDs []string

	// ManageChannels is whether the user can manage channels in the guild.
	ManageChannels bool
}

func (a *Actor) hasRole(roleID string) bool {
	return roleID != "" && slices.Contains(a.RoleIDs, roleID)
}

// CloseResult is what happened while closing a ticket.
type CloseResult struct {
	// Ticket is the ticket as it was before it was closed.
	Ticket *entities.Ticket

	// Transcript is the rendered transcript. Nil when none was asked for or the history could not be read.
	Transcript []byte

	// DeliveryErr is set when the transcript could not be sent to the ticket owner.
	DeliveryErr error

	// ArchiveLocation is where the transcript was archived, if it was.
	ArchiveLocation string

	// ChannelDeleted is whether the ticket channel was deleted.
	ChannelDeleted bool
}

// Manager creates tickets and moves them through their lifecycle. It is the only thing that changes tickets.
type Manager struct {
	// l is the logger.
	l *slog.Logger

	store     dataaccess.Store
	platform  platform.Platform
	policy    *Policy
	publisher events.Publisher

	// archiver stores transcripts. Nil when archiving is off.
	archiver transcripts.Archiver

	now func() time.Time
}

// NewManager creates a ticket lifecycle manager. archiver may be nil.
func NewManager(l *slog.Logger, store dataaccess.Store, p platform.Platform, policy *Policy, publisher events.Publisher, archiver transcripts.Archiver) *Manager {
	return &Manager{
		l:         l,
		store:     store,
		platform:  p,
		policy:    policy,
		publisher: publisher,
		archiver:  archiver,
		now:       time.Now,
	}
}

func (m *Manager) guildConfig(ctx context.Context, guildID string) (*entities.GuildConfig, error) {
	cfg, err := m.store.GetGuildConfig(ctx, guildID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return &entities.GuildConfig{GuildID: guildID}, nil
	} else if err != nil {
		return nil, fmt.Errorf("error getting guild config: %w", err)
	}
	return cfg, nil
}

// OpenTicket opens a ticket of the option for the requester. The panel is read from the store on every call.
func (m *Manager) OpenTicket(ctx context.Context, guildID, optionLabel string, requester *Actor) (*entities.Ticket, error) {
	l := m.l.With(
		slog.String(logging.KeyGuildID, guildID),
		slog.String(logging.KeyUserID, requester.UserID),
		slog.String(logging.KeyOption, optionLabel),
	)

	panel, err := m.store.LoadPanel(ctx, guildID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return nil, newError(ErrConfiguration, err, "Tickets have not been set up on this server yet.")
	} else if err != nil {
		return nil, fmt.Errorf("error loading panel: %w", err)
	}

	has, err := m.store.HasActiveTicket(ctx, requester.UserID, guildID)
	if err != nil {
		return nil, fmt.Errorf("error checking active tickets: %w", err)
	}
	if has {
		return nil, newError(ErrDuplicateTicket, nil, "You already have an open ticket. Close it before opening another.")
	}

	opt, ok := panel.Option(optionLabel)
	if !ok {
		return nil, newError(ErrOptionNotFound, nil, "The ticket type **%s** no longer exists.", optionLabel)
	}

	cfg, err := m.guildConfig(ctx, guildID)
	if err != nil {
		return nil, err
	}

	categoryID, err := m.resolveCategory(ctx, panel, cfg)
	if err != nil {
		return nil, err
	}

	n, err := m.store.NextTicketNumber(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("error getting ticket number: %w", err)
	}

	name := m.policy.ChannelName(opt.Label, requester.Username, n)
	channelID, err := m.platform.CreatePrivateChannel(ctx, guildID, name, categoryID, ticketGrants(guildID, requester.UserID, opt.StaffRoleID, cfg.StaffRoleID))
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return nil, newError(ErrConfiguration, err, "The ticket category no longer exists. Ask an administrator to set it again.")
		}
		return nil, fmt.Errorf("error creating ticket channel: %w", err)
	}

	// The channel exists from here on. A crash before the ticket is stored leaves it behind.
	t := &entities.Ticket{
		ChannelID:   channelID,
		GuildID:     guildID,
		UserID:      requester.UserID,
		OptionLabel: opt.Label,
		Status:      entities.TicketStatusOpen,
		Number:      n,
		CreatedAt:   custom.Datetime(m.now().UTC().Truncate(time.Second)),
	}

	if err := m.store.AddTicket(ctx, t); err != nil {
		m.deleteChannel(ctx, l, channelID, "Ticket could not be recorded")
		if errors.Is(err, dataaccess.ErrDuplicateTicket) {
			return nil, newError(ErrDuplicateTicket, err, "You already have an open ticket. Close it before opening another.")
		}
		return nil, fmt.Errorf("error saving ticket: %w", err)
	}

	if _, err := m.platform.SendMessage(ctx, channelID, welcomeContent(t, opt)); err != nil {
		l.Error("Error sending ticket welcome message",
			slog.String(logging.KeyChannelID, channelID),
			slog.String(logging.KeyError, err.Error()),
		)
	}

	ticketsOpened.WithLabelValues(guildID).Inc()
	activeTickets.WithLabelValues(guildID).Inc()
	m.publish(ctx, &events.Event{
		Type:      events.TypeTicketOpened,
		GuildID:   guildID,
		ChannelID: channelID,
		UserID:    requester.UserID,
		Option:    opt.Label,
		Number:    n,
	})

	l.Info("Ticket opened", slog.String(logging.KeyChannelID, channelID), slog.Int64("number", n))
	return t, nil
}

// resolveCategory returns the category new tickets go in: the panel's, else the guild's.
func (m *Manager) resolveCategory(ctx context.Context, panel *entities.Panel, cfg *entities.GuildConfig) (string, error) {
	categoryID := panel.CategoryID
	if categoryID == "" {
		categoryID = cfg.CategoryID
	}

	if categoryID == "" {
		if m.policy.RequireCategory {
			return "", newError(ErrConfiguration, nil, "No ticket category is set. Ask an administrator to run `/configure-tickets`.")
		}
		return "", nil
	}

	if err := m.platform.ResolveCategory(ctx, panel.GuildID, categoryID); err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return "", newError(ErrConfiguration, err, "The ticket category no longer exists. Ask an administrator to set it again.")
		}
		return "", fmt.Errorf("error resolving category: %w", err)
	}
	return categoryID, nil
}

// ticketGrants hides the channel from everyone but the requester and the staff roles.
func ticketGrants(guildID, userID, optionRoleID, guildRoleID string) []platform.Grant {
	grants := []platform.Grant{
		{Target: platform.GrantRole, ID: guildID, Allow: false},
		{Target: platform.GrantMember, ID: userID, Allow: true},
	}
	if optionRoleID != "" {
		grants = append(grants, platform.Grant{Target: platform.GrantRole, ID: optionRoleID, Allow: true})
	}
	if guildRoleID != "" && guildRoleID != optionRoleID {
		grants = append(grants, platform.Grant{Target: platform.GrantRole, ID: guildRoleID, Allow: true})
	}
	return grants
}

func welcomeContent(t *entities.Ticket, opt *entities.TicketOption) *platform.Content {
	return &platform.Content{
		Text: fmt.Sprintf("<@%s> <@&%s>", t.UserID, opt.StaffRoleID),
		Embed: &entities.Embed{
			Title:       fmt.Sprintf("%s Ticket", opt.Label),
			Description: fmt.Sprintf("<@%s> created a ticket. <@&%s> will be with you shortly.\nPlease describe what you need while you wait.", t.UserID, opt.StaffRoleID),
			Color:       ticketEmbedColor,
		},
		Buttons: []platform.Button{
			{Label: "Claim", CustomID: ClaimButtonID, Style: platform.ButtonPrimary, Emoji: &entities.Emoji{Name: "\U0001F4CC"}},
			{Label: "Close", CustomID: CloseButtonID, Style: platform.ButtonSecondary, Emoji: &entities.Emoji{Name: "\U0001F512"}},
			{Label: "Close with transcript", CustomID: CloseTranscriptButtonID, Style: platform.ButtonDanger, Emoji: &entities.Emoji{Name: "\U0001F4DC"}},
		},
		MentionUsers: []string{t.UserID},
		MentionRoles: []string{opt.StaffRoleID},
	}
}

// getTicket returns the ticket of a channel, or a NotFound error when the channel is not a ticket.
func (m *Manager) getTicket(ctx context.Context, channelID string) (*entities.Ticket, error) {
	t, err := m.store.GetTicket(ctx, channelID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return nil, newError(ErrNotFound, err, "This channel is not a ticket.")
	} else if err != nil {
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}
	return t, nil
}

// isStaff is whether the actor may handle the ticket: a channel manager, or a holder of the option or guild staff role.
func (m *Manager) isStaff(ctx context.Context, t *entities.Ticket, actor *Actor) (bool, *entities.GuildConfig, error) {
	cfg, err := m.guildConfig(ctx, t.GuildID)
	if err != nil {
		return false, nil, err
	}

	if actor.ManageChannels || actor.hasRole(cfg.StaffRoleID) {
		return true, cfg, nil
	}

	panel, err := m.store.LoadPanel(ctx, t.GuildID)
	if err != nil && !errors.Is(err, dataaccess.ErrNotFound) {
		return false, nil, fmt.Errorf("error loading panel: %w", err)
	}
	if panel != nil {
		if opt, ok := panel.Option(t.OptionLabel); ok && actor.hasRole(opt.StaffRoleID) {
			return true, cfg, nil
		}
	}
	return false, cfg, nil
}

// Claim marks the actor as the handler of the ticket in the channel. A ticket can only be claimed once.
func (m *Manager) Claim(ctx context.Context, channelID string, actor *Actor) (*entities.Ticket, error) {
	t, err := m.getTicket(ctx, channelID)
	if err != nil {
		return nil, err
	}

	staff, _, err := m.isStaff(ctx, t, actor)
	if err != nil {
		return nil, err
	}
	if !staff {
		return nil, newError(ErrPermissionDenied, nil, "Only staff can claim tickets.")
	}

	claimed, err := m.store.ClaimTicket(ctx, channelID, actor.UserID)
	switch {
	case errors.Is(err, dataaccess.ErrAlreadyClaimed):
		if current, getErr := m.store.GetTicket(ctx, channelID); getErr == nil && current.ClaimedBy != "" {
			return nil, newError(ErrAlreadyClaimed, err, "This ticket is already claimed by <@%s>.", current.ClaimedBy)
		}
		return nil, newError(ErrAlreadyClaimed, err, "This ticket is already claimed.")
	case errors.Is(err, dataaccess.ErrNotFound):
		return nil, newError(ErrNotFound, err, "This ticket has already been closed.")
	case err != nil:
		return nil, fmt.Errorf("error claiming ticket: %w", err)
	}

	if _, err := m.platform.SendMessage(ctx, channelID, &platform.Content{
		Text:         fmt.Sprintf("<@%s> claimed this ticket.", actor.UserID),
		MentionUsers: []string{},
	}); err != nil {
		m.l.Error("Error announcing claim",
			slog.String(logging.KeyChannelID, channelID),
			slog.String(logging.KeyError, err.Error()),
		)
	}

	ticketsClaimed.WithLabelValues(t.GuildID).Inc()
	m.publish(ctx, &events.Event{
		Type:      events.TypeTicketClaimed,
		GuildID:   t.GuildID,
		ChannelID: channelID,
		UserID:    t.UserID,
		ActorID:   actor.UserID,
		Option:    t.OptionLabel,
		Number:    t.Number,
	})
	return claimed, nil
}

// Close closes the ticket in the channel: optionally sends its transcript, forgets the ticket and deletes the channel.
// A transcript that cannot be delivered is reported in the result and does not stop the close.
func (m *Manager) Close(ctx context.Context, channelID string, actor *Actor, withTranscript bool) (*CloseResult, error) {
	t, err := m.getTicket(ctx, channelID)
	if err != nil {
		return nil, err
	}

	l := m.l.With(
		slog.String(logging.KeyGuildID, t.GuildID),
		slog.String(logging.KeyChannelID, channelID),
	)

	allowed := actor.UserID == t.UserID
	staff, cfg, err := m.isStaff(ctx, t, actor)
	if err != nil {
		return nil, err
	}
	if !allowed && !staff {
		return nil, newError(ErrPermissionDenied, nil, "Only the ticket owner or staff can close this ticket.")
	}

	// Only the caller that removes the record delivers the transcript and the log entry, a concurrent close
	// stops here. The channel outlives the record until the end of Close, a crash in between leaves it behind.
	if err := m.store.RemoveTicket(ctx, channelID); err != nil {
		if errors.Is(err, dataaccess.ErrNotFound) {
			return nil, newError(ErrNotFound, err, "This ticket has already been closed.")
		}
		return nil, fmt.Errorf("error removing ticket: %w", err)
	}

	ticketsClosed.WithLabelValues(t.GuildID, fmt.Sprint(withTranscript)).Inc()
	activeTickets.WithLabelValues(t.GuildID).Dec()

	res := &CloseResult{Ticket: t}
	closedAt := m.now()

	if withTranscript {
		m.transcript(ctx, l, res, actor, closedAt)
	}

	if cfg.LogChannelID != "" {
		m.postLog(ctx, l, cfg.LogChannelID, res, actor)
	}


	if err := m.platform.DeleteChannel(ctx, channelID, fmt.Sprintf("Ticket closed by %s", actor.UserID)); err != nil {
		l.Error("Error deleting ticket channel", slog.String(logging.KeyError, err.Error()))
	} else {
		res.ChannelDeleted = true
	}

	m.publish(ctx, &events.Event{
		Type:      events.TypeTicketClosed,
		GuildID:   t.GuildID,
		ChannelID: channelID,
		UserID:    t.UserID,
		ActorID:   actor.UserID,
		Option:    t.OptionLabel,
		Number:    t.Number,
	})

	l.Info("Ticket closed",
		slog.String("closed_by", actor.UserID),
		slog.Bool("transcript", withTranscript),
		slog.Bool("delivered", withTranscript && res.DeliveryErr == nil && res.Transcript != nil),
	)
	return res, nil
}

// transcript renders the channel history and hands it out. Failures are recorded in res.
func (m *Manager) transcript(ctx context.Context, l *slog.Logger, res *CloseResult, actor *Actor, closedAt time.Time) {
	t := res.Ticket

	history, err := m.platform.FetchHistory(ctx, t.ChannelID)
	if err != nil {
		l.Error("Error fetching ticket history", slog.String(logging.KeyError, err.Error()))
		res.DeliveryErr = newError(ErrDelivery, err, "The transcript could not be created.")
		return
	}

	res.Transcript = transcripts.Render(t, history, actor.UserID, closedAt)
	file := platform.File{
		Name:        transcripts.FileName(t),
		ContentType: transcripts.ContentType,
		Data:        res.Transcript,
	}

	err = m.platform.SendDirectMessage(ctx, t.UserID, &platform.Content{
		Text:  fmt.Sprintf("Your ticket **%s** was closed. Here is the transcript.", t.Name()),
		Files: []platform.File{file},
	})
	if err != nil {
		transcriptDeliveries.WithLabelValues("failed").Inc()
		l.Warn("Transcript could not be delivered",
			slog.String(logging.KeyUserID, t.UserID),
			slog.String(logging.KeyError, err.Error()),
		)
		res.DeliveryErr = newError(ErrDelivery, err, "The transcript could not be sent to <@%s>, they may have direct messages disabled.", t.UserID)
	} else {
		transcriptDeliveries.WithLabelValues("delivered").Inc()
	}

	if m.archiver != nil {
		loc, err := m.archiver.Archive(ctx, transcripts.Key(t), res.Transcript)
		if err != nil {
			l.Error("Error archiving transcript", slog.String(logging.KeyError, err.Error()))
		} else {
			res.ArchiveLocation = loc
		}
	}
}

// postLog posts a summary of the closed ticket, with its transcript, to the guild log channel.
func (m *Manager) postLog(ctx context.Context, l *slog.Logger, logChannelID string, res *CloseResult, actor *Actor) {
	t := res.Ticket

	desc := fmt.Sprintf("Opened by <@%s>\nClosed by <@%s>", t.UserID, actor.UserID)
	if t.ClaimedBy != "" {
		desc += fmt.Sprintf("\nClaimed by <@%s>", t.ClaimedBy)
	}
	if res.DeliveryErr != nil {
		desc += "\n" + res.DeliveryErr.Error()
	}
	if res.ArchiveLocation != "" {
		desc += "\nArchived at `" + res.ArchiveLocation + "`"
	}

	content := &platform.Content{
		Embed: &entities.Embed{
			Title:       fmt.Sprintf("Ticket %s closed", t.Name()),
			Description: desc,
			Color:       ticketEmbedColor,
		},
		MentionUsers: []string{},
	}
	if res.Transcript != nil {
		content.Files = []platform.File{{
			Name:        transcripts.FileName(t),
			ContentType: transcripts.ContentType,
			Data:        res.Transcript,
		}}
	}

	if _, err := m.platform.SendMessage(ctx, logChannelID, content); err != nil {
		l.Error("Error posting ticket log", slog.String(logging.KeyError, err.Error()))
	}
}

// Get returns the ticket of a channel.
func (m *Manager) Get(ctx context.Context, channelID string) (*entities.Ticket, error) {
	return m.getTicket(ctx, channelID)
}

// SyncActiveTickets sets the active ticket gauge of a guild from the store, covering tickets opened before a restart.
func (m *Manager) SyncActiveTickets(ctx context.Context, guildID string) error {
	tickets, err := m.store.ListTickets(ctx, guildID)
	if err != nil {
		return fmt.Errorf("error listing tickets: %w", err)
	}
	activeTickets.WithLabelValues(guildID).Set(float64(len(tickets)))
	return nil
}

// ForgetGuild drops the metrics of a guild the bot left.
func (m *Manager) ForgetGuild(guildID string) {
	activeTickets.DeleteLabelValues(guildID)
}

// List returns the active tickets of a guild ordered by number.
func (m *Manager) List(ctx context.Context, guildID string) ([]*entities.Ticket, error) {
	tickets, err := m.store.ListTickets(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("error listing tickets: %w", err)
	}
	return tickets, nil
}

func (m *Manager) deleteChannel(ctx context.Context, l *slog.Logger, channelID, reason string) {
	if err := m.platform.DeleteChannel(ctx, channelID, reason); err != nil {
		l.Error("Error deleting ticket channel, it is now orphaned",
			slog.String(logging.KeyChannelID, channelID),
			slog.String(logging.KeyError, err.Error()),
		)
	}
}

func (m *Manager) publish(ctx context.Context, e *events.Event) {
	if err := m.publisher.Publish(ctx, e); err != nil {
		m.l.Warn("Error publishing event",
			slog.String("event", string(e.Type)),
			slog.String(logging.KeyError, err.Error()),
		)
	}
}
