package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/ticketpanel/cmd/bot/config"
	"github.com/Jacobbrewer1/ticketpanel/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/ticketpanel/pkg/dataaccess"
	"github.com/Jacobbrewer1/ticketpanel/pkg/followup"
	"github.com/Jacobbrewer1/ticketpanel/pkg/logging"
	"github.com/Jacobbrewer1/ticketpanel/pkg/ticketing"
	"github.com/gorilla/mux"
)

// shutdownTimeout bounds the graceful shutdown of the monitoring server.
const shutdownTimeout = 10 * time.Second

// IApp is the interface for the application.
type IApp interface {
	// Log returns the logger.
	Log() *slog.Logger

	// Session returns the discord session.
	Session() *discordgo.Session

	// Registry returns the panel registry.
	Registry() *ticketing.Registry

	// Manager returns the ticket lifecycle manager.
	Manager() *ticketing.Manager

	// Waiter returns the follow up message waiter.
	Waiter() *followup.Waiter

	// Limiter returns the ticket open rate limiter.
	Limiter() *userRateLimiter
}

type App struct {
	// l is the logger.
	l *slog.Logger

	// cfg is the configuration of the bot.
	cfg *config.Values

	// r is the router for the monitoring server.
	r *mux.Router

	// svr is the monitoring server.
	svr *http.Server

	// s is the discord session.
	s *discordgo.Session

	store    dataaccess.Store
	registry *ticketing.Registry
	manager  *ticketing.Manager
	waiter   *followup.Waiter
	limiter  *userRateLimiter

	// checks are reported on the health endpoint.
	checks healthChecks

	// guilds are the guilds the bot is in.
	guilds *guildSet

	// eventNotifier is the channel for notifying of events.
	eventNotifier chan any
}

// NewApp creates a new instance of App.
func NewApp(
	l *slog.Logger,
	cfg *config.Values,
	r *mux.Router,
	s *discordgo.Session,
	store dataaccess.Store,
	registry *ticketing.Registry,
	manager *ticketing.Manager,
	waiter *followup.Waiter,
	limiter *userRateLimiter,
	checks healthChecks,
) *App {
	return &App{
		l:        l,
		cfg:      cfg,
		r:        r,
		s:        s,
		store:    store,
		registry: registry,
		manager:  manager,
		waiter:   waiter,
		limiter:  limiter,
		checks:   checks,
		guilds:   newGuildSet(),
	}
}

// Run connects to Discord and serves until ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		a.l.Info(fmt.Sprintf("Logged in as %s", r.User.Username))
	})

	a.registerDiscordHandlers()

	if a.eventNotifier == nil {
		// Buffered so the gateway never blocks on the listener.
		a.eventNotifier = make(chan any, 100)
	}
	a.s.SetEventNotifier(a.eventNotifier)
	go a.eventListener()

	// Open websocket.
	if err := a.s.Open(); err != nil {
		return fmt.Errorf("error opening connection to Discord: %w", err)
	}

	a.l.Info("Bot is now running.")

	a.setupRoutes()
	a.svr = &http.Server{
		Addr:              ":" + a.cfg.MonitoringPort,
		Handler:           a.r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.l.Info("Starting monitoring server", slog.String("addr", a.svr.Addr))
		if err := a.svr.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.l.Error("Error starting monitoring server", slog.String(logging.KeyError, err.Error()))
			a.l.Warn("Monitoring server will not be available")
		}
	}()

	<-ctx.Done()
	a.l.Info("Received shutdown signal")
	return a.ShutdownHook()
}

func (a *App) ShutdownHook() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if a.svr != nil {
		if err := a.svr.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("error shutting down monitoring server: %w", err))
		}
	}

	if err := a.unregisterSlashCommands(); err != nil {
		errs = append(errs, err)
	}

	// Close the connection to Discord.
	if err := a.s.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing connection to Discord: %w", err))
	}

	monitoring.TotalDiscordGuilds.Set(0)
	return errors.Join(errs...)
}

func (a *App) registerDiscordHandlers() {
	// Bot joined guild.
	a.s.AddHandler(guildJoinedHandler(a))

	// Bot left guild.
	a.s.AddHandler(guildLeaveHandler(a))

	// Follow up messages.
	a.s.AddHandler(messageCreateHandler(a))

	a.s.AddHandler(interactionHandler(a, processors()))
}

// processors maps every command and component to its handler.
func processors() map[string]processor {
	return map[string]processor{
		// Slash commands.
		configureCmdName:                             adminOnly(configureTicketsCmd),
		panelCmdName + " " + embedSubCmdName:         adminOnly(panelEmbedCmd),
		panelCmdName + " " + addOptionSubCmdName:     adminOnly(panelAddOptionCmd),
		panelCmdName + " " + removeOptionSubCmdName:  adminOnly(panelRemoveOptionCmd),
		panelCmdName + " " + categorySubCmdName:      adminOnly(panelCategoryCmd),
		panelCmdName + " " + showSubCmdName:          adminOnly(panelShowCmd),
		postPanelCmdName:                             adminOnly(postPanelCmd),
		refreshPanelCmdName:                          adminOnly(refreshPanelCmd),
		ticketCmdName + " " + claimSubCmdName:        claimTicket,
		ticketCmdName + " " + closeSubCmdName:        closeTicketCmd,
		ticketCmdName + " " + listSubCmdName:         listTicketsCmd,

		// Components.
		ticketing.PanelSelectID:           openTicketSelect,
		ticketing.ClaimButtonID:           claimTicket,
		ticketing.CloseButtonID:           closeTicketButton,
		ticketing.CloseTranscriptButtonID: closeTicketTranscriptButton,
	}
}

func (a *App) eventListener() {
	for e := range a.eventNotifier {
		switch t := e.(type) {
		case *discordgo.Event:
			if t.Type != "" {
				monitoring.TotalDiscordEvents.WithLabelValues(t.Type).Inc()
			} else {
				// If there is no type, then use the operation name.
				monitoring.TotalDiscordEvents.WithLabelValues(strings.ToUpper(t.Operation.String())).Inc()
			}
		default:
			a.l.Error("Unknown event type", slog.String("type", fmt.Sprintf("%T", e)))
			monitoring.TotalDiscordEvents.WithLabelValues("UNKNOWN").Inc()
		}
	}
}

func (a *App) registerSlashCommands(guildID string) error {
	if _, err := a.s.ApplicationCommandBulkOverwrite(a.cfg.ApplicationId, guildID, commands()); err != nil {
		return fmt.Errorf("error registering commands for guild %s: %w", guildID, err)
	}
	return nil
}

func (a *App) unregisterSlashCommands() error {
	var errs []error
	for _, guildID := range a.guilds.list() {
		if _, err := a.s.ApplicationCommandBulkOverwrite(a.cfg.ApplicationId, guildID, []*discordgo.ApplicationCommand{}); err != nil {
			errs = append(errs, fmt.Errorf("error deleting commands for guild %s: %w", guildID, err))
		}
	}
	return errors.Join(errs...)
}

func (a *App) Log() *slog.Logger {
	return a.l
}

func (a *App) Session() *discordgo.Session {
	return a.s
}

func (a *App) Registry() *ticketing.Registry {
	return a.registry
}

func (a *App) Manager() *ticketing.Manager {
	return a.manager
}

func (a *App) Waiter() *followup.Waiter {
	return a.waiter
}

func (a *App) Limiter() *userRateLimiter {
	return a.limiter
}
