package ticketing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/Jacobbrewer1/ticketpanel/pkg/dataaccess"
	"github.com/Jacobbrewer1/ticketpanel/pkg/entities"
	"github.com/Jacobbrewer1/ticketpanel/pkg/events"
	"github.com/Jacobbrewer1/ticketpanel/pkg/logging"
	"github.com/Jacobbrewer1/ticketpanel/pkg/platform"
)

const (
	// PanelSelectID is the custom ID of the panel select menu.
	PanelSelectID = "ticket_panel_select"

	panelPlaceholder = "Select a ticket type"

	// maxLabelLength is the longest select option label the platform accepts.
	maxLabelLength = 100
)

// EmbedFields are the embed fields to change. Nil fields are left as they are.
type EmbedFields struct {
	Title       *string
	Description *string
	Color       *string
	ImageURL    *string
}

// Registry owns the ticket panel of every guild and keeps the posted message in line with it.
type Registry struct {
	// l is the logger.
	l *slog.Logger

	store     dataaccess.Store
	platform  platform.Platform
	policy    *Policy
	publisher events.Publisher
}

// NewRegistry creates a panel registry.
func NewRegistry(l *slog.Logger, store dataaccess.Store, p platform.Platform, policy *Policy, publisher events.Publisher) *Registry {
	return &Registry{
		l:         l,
		store:     store,
		platform:  p,
		policy:    policy,
		publisher: publisher,
	}
}

// CreateOrLoadPanel returns the stored panel of the guild, or a new default one. The default panel is only stored
// once it is first changed.
func (r *Registry) CreateOrLoadPanel(ctx context.Context, guildID string) (*entities.Panel, error) {
	p, err := r.store.LoadPanel(ctx, guildID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		p := entities.NewPanel(guildID)
		p.Embed.Color = r.policy.FallbackColor()
		return p, nil
	} else if err != nil {
		return nil, fmt.Errorf("error loading panel: %w", err)
	}
	return p, nil
}

// save writes next and, once stored, makes it the caller's panel.
func (r *Registry) save(ctx context.Context, panel, next *entities.Panel) error {
	if err := r.store.SavePanel(ctx, next); err != nil {
		return fmt.Errorf("error saving panel: %w", err)
	}
	*panel = *next
	return nil
}

// SetEmbed changes the embed of the panel. A color that does not parse falls back to the default color.
func (r *Registry) SetEmbed(ctx context.Context, panel *entities.Panel, fields EmbedFields) error {
	next := panel.Clone()

	if fields.Title != nil {
		next.Embed.Title = *fields.Title
	}
	if fields.Description != nil {
		next.Embed.Description = *fields.Description
	}
	if fields.Color != nil {
		c, ok := ParseColor(*fields.Color)
		if !ok {
			r.l.Debug("Invalid panel color, using the default",
				slog.String(logging.KeyGuildID, panel.GuildID),
				slog.String("color", *fields.Color),
			)
			c = r.policy.FallbackColor()
		}
		next.Embed.Color = c
	}
	if fields.ImageURL != nil {
		next.Embed.ImageURL = *fields.ImageURL
	}

	return r.save(ctx, panel, next)
}

// AddOption adds a ticket type to the panel.
func (r *Registry) AddOption(ctx context.Context, panel *entities.Panel, label, emoji, staffRoleID string) error {
	label = strings.TrimSpace(label)
	switch {
	case label == "":
		return newError(ErrValidation, nil, "The option label must not be empty.")
	case utf8.RuneCountInString(label) > maxLabelLength:
		return newError(ErrValidation, nil, "The option label must be at most %d characters.", maxLabelLength)
	case staffRoleID == "":
		return newError(ErrValidation, nil, "A staff role is required for the option.")
	case len(panel.Options) >= entities.MaxPanelOptions:
		return newError(ErrValidation, nil, "A panel can have at most %d options.", entities.MaxPanelOptions)
	}

	if _, ok := panel.Option(label); ok {
		return newError(ErrValidation, nil, "An option called **%s** already exists.", label)
	}

	e, err := entities.ParseEmoji(strings.TrimSpace(emoji))
	if err != nil {
		return newError(ErrValidation, err, "%q is not a valid emoji. Use a unicode emoji or a custom emoji.", emoji)
	}

	next := panel.Clone()
	next.Options = append(next.Options, entities.TicketOption{
		Label:       label,
		Emoji:       e,
		StaffRoleID: staffRoleID,
	})
	return r.save(ctx, panel, next)
}

// RemoveOption removes a ticket type from the panel.
func (r *Registry) RemoveOption(ctx context.Context, panel *entities.Panel, label string) error {
	next := panel.Clone()

	idx := -1
	for i, o := range next.Options {
		if strings.EqualFold(o.Label, strings.TrimSpace(label)) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return newError(ErrOptionNotFound, nil, "There is no option called **%s**.", label)
	}

	next.Options = append(next.Options[:idx], next.Options[idx+1:]...)
	return r.save(ctx, panel, next)
}

// SetCategory sets the category ticket channels are created in. It is not checked until a ticket is opened.
func (r *Registry) SetCategory(ctx context.Context, panel *entities.Panel, categoryID string) error {
	next := panel.Clone()
	next.CategoryID = categoryID
	return r.save(ctx, panel, next)
}

// Configure stores the ticketing configuration of a guild.
func (r *Registry) Configure(ctx context.Context, cfg *entities.GuildConfig) error {
	if cfg.CategoryID != "" {
		if err := r.platform.ResolveCategory(ctx, cfg.GuildID, cfg.CategoryID); err != nil {
			if errors.Is(err, platform.ErrNotFound) {
				return newError(ErrValidation, err, "<#%s> is not a category of this server.", cfg.CategoryID)
			}
			return fmt.Errorf("error resolving category: %w", err)
		}
	}

	if err := r.store.SetGuildConfig(ctx, cfg); err != nil {
		return fmt.Errorf("error saving guild config: %w", err)
	}
	return nil
}

// GuildConfig returns the ticketing configuration of a guild, or nil when it was never configured.
func (r *Registry) GuildConfig(ctx context.Context, guildID string) (*entities.GuildConfig, error) {
	cfg, err := r.store.GetGuildConfig(ctx, guildID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("error getting guild config: %w", err)
	}
	return cfg, nil
}

// Publish posts the panel in the channel and remembers where it was posted.
func (r *Registry) Publish(ctx context.Context, panel *entities.Panel, channelID string) (string, error) {
	if len(panel.Options) == 0 {
		return "", newError(ErrValidation, nil, "Add at least one option before posting the panel.")
	}

	if r.policy.RequireCategory && panel.CategoryID == "" {
		cfg, err := r.GuildConfig(ctx, panel.GuildID)
		if err != nil {
			return "", err
		}
		if cfg == nil || cfg.CategoryID == "" {
			return "", newError(ErrConfiguration, nil, "Set a ticket category with `/panel category` or `/configure-tickets` before posting the panel.")
		}
	}

	messageID, err := r.platform.SendMessage(ctx, channelID, PanelContent(panel))
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return "", newError(ErrNotFound, err, "The channel <#%s> could not be found.", channelID)
		}
		return "", fmt.Errorf("error sending panel: %w", err)
	}

	next := panel.Clone()
	next.ChannelID = channelID
	next.MessageID = messageID
	if err := r.save(ctx, panel, next); err != nil {
		return "", err
	}

	r.publish(ctx, &events.Event{
		Type:      events.TypePanelPublished,
		GuildID:   panel.GuildID,
		ChannelID: channelID,
	})
	return messageID, nil
}

// Refresh reloads the panel from the store and edits the posted message to match it.
func (r *Registry) Refresh(ctx context.Context, panel *entities.Panel) error {
	stored, err := r.store.LoadPanel(ctx, panel.GuildID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return newError(ErrNotFound, err, "This server has no ticket panel yet.")
	} else if err != nil {
		return fmt.Errorf("error loading panel: %w", err)
	}
	*panel = *stored

	if !panel.IsPublished() {
		return newError(ErrNotFound, nil, "The ticket panel has not been posted yet.")
	}

	if err := r.platform.EditMessage(ctx, panel.ChannelID, panel.MessageID, PanelContent(panel)); err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return newError(ErrNotFound, err, "The posted ticket panel no longer exists.")
		}
		return fmt.Errorf("error editing panel message: %w", err)
	}
	return nil
}

func (r *Registry) publish(ctx context.Context, e *events.Event) {
	if err := r.publisher.Publish(ctx, e); err != nil {
		r.l.Warn("Error publishing event",
			slog.String("event", string(e.Type)),
			slog.String(logging.KeyError, err.Error()),
		)
	}
}

// PanelContent renders a panel as a platform message.
func PanelContent(panel *entities.Panel) *platform.Content {
	embed := panel.Embed
	menu := &platform.SelectMenu{
		CustomID:    PanelSelectID,
		Placeholder: panelPlaceholder,
	}
	for i := range panel.Options {
		o := panel.Options[i]
		menu.Options = append(menu.Options, platform.SelectOption{
			Label: o.Label,
			Value: o.Label,
			Emoji: &o.Emoji,
		})
	}

	return &platform.Content{
		Embed:  &embed,
		Select: menu,
	}
}
