package discord

import (
	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/ticketpanel/pkg/entities"
	"github.com/Jacobbrewer1/ticketpanel/pkg/platform"
)

// RenderEmbed converts a panel embed into a discord embed.
func RenderEmbed(e *entities.Embed) *discordgo.MessageEmbed {
	me := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	if e.ImageURL != "" {
		me.Image = &discordgo.MessageEmbedImage{
			URL: e.ImageURL,
		}
	}
	return me
}

func renderEmoji(e *entities.Emoji) discordgo.ComponentEmoji {
	if e == nil {
		return discordgo.ComponentEmoji{}
	}
	return discordgo.ComponentEmoji{
		Name:     e.Name,
		ID:       e.ID,
		Animated: e.Animated,
	}
}

func renderSelect(m *platform.SelectMenu) discordgo.SelectMenu {
	sm := discordgo.SelectMenu{
		CustomID:    m.CustomID,
		Placeholder: m.Placeholder,
		MaxValues:   1,
	}
	for _, o := range m.Options {
		sm.Options = append(sm.Options, discordgo.SelectMenuOption{
			Label: o.Label,
			Value: o.Value,
			Emoji: renderEmoji(o.Emoji),
		})
	}
	return sm
}

func renderButton(b platform.Button) discordgo.Button {
	style := discordgo.PrimaryButton
	switch b.Style {
	case platform.ButtonSecondary:
		style = discordgo.SecondaryButton
	case platform.ButtonDanger:
		style = discordgo.DangerButton
	}

	return discordgo.Button{
		Label:    b.Label,
		Style:    style,
		CustomID: b.CustomID,
		Emoji:    renderEmoji(b.Emoji),
	}
}
