package main

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/ticketpanel/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/ticketpanel/pkg/followup"
	"github.com/Jacobbrewer1/ticketpanel/pkg/logging"
)

// syncTimeout bounds the store read made when a guild becomes available.
const syncTimeout = 10 * time.Second

// guildSet is the set of guilds the bot is in.
type guildSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func newGuildSet() *guildSet {
	return &guildSet{ids: make(map[string]struct{})}
}

// add reports whether the guild was new.
func (g *guildSet) add(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.ids[id]; ok {
		return false
	}
	g.ids[id] = struct{}{}
	monitoring.TotalDiscordGuilds.Set(float64(len(g.ids)))
	return true
}

func (g *guildSet) remove(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.ids, id)
	monitoring.TotalDiscordGuilds.Set(float64(len(g.ids)))
}

func (g *guildSet) list() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ids := make([]string, 0, len(g.ids))
	for id := range g.ids {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// guildJoinedHandler registers the commands in a guild. It also runs for every guild on connect.
func guildJoinedHandler(a *App) func(s *discordgo.Session, g *discordgo.GuildCreate) {
	return func(_ *discordgo.Session, g *discordgo.GuildCreate) {
		if !a.guilds.add(g.ID) {
			// The guild came back from an outage.
			return
		}

		a.l.Info(fmt.Sprintf("Joined guild %s", g.Name), slog.String(logging.KeyGuildID, g.ID))
		if err := a.registerSlashCommands(g.ID); err != nil {
			a.l.Error("Error registering slash commands",
				slog.String(logging.KeyGuildID, g.ID),
				slog.String(logging.KeyError, err.Error()),
			)
		}

		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		if err := a.manager.SyncActiveTickets(ctx, g.ID); err != nil {
			a.l.Error("Error counting active tickets",
				slog.String(logging.KeyGuildID, g.ID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
	}
}

func guildLeaveHandler(a *App) func(s *discordgo.Session, g *discordgo.GuildDelete) {
	return func(_ *discordgo.Session, g *discordgo.GuildDelete) {
		if g.Unavailable {
			// An outage, not a removal.
			return
		}

		a.l.Info("Left guild", slog.String(logging.KeyGuildID, g.ID))
		a.guilds.remove(g.ID)
		a.manager.ForgetGuild(g.ID)
	}
}

// messageCreateHandler hands messages to the commands waiting for a follow up.
func messageCreateHandler(a IApp) func(s *discordgo.Session, m *discordgo.MessageCreate) {
	return func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}

		a.Waiter().Deliver(&followup.Message{
			GuildID:   m.GuildID,
			ChannelID: m.ChannelID,
			AuthorID:  m.Author.ID,
			Content:   m.Content,
		})
	}
}
