package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/ticketpanel/cmd/bot/config"
	"github.com/Jacobbrewer1/ticketpanel/pkg/dataaccess"
	"github.com/Jacobbrewer1/ticketpanel/pkg/events"
	"github.com/Jacobbrewer1/ticketpanel/pkg/followup"
	"github.com/Jacobbrewer1/ticketpanel/pkg/logging"
	"github.com/Jacobbrewer1/ticketpanel/pkg/ticketing"
	"github.com/Jacobbrewer1/ticketpanel/pkg/transcripts"
)

func provideLoggingName() logging.Name {
	return logging.Name(config.AppName)
}

func provideSession(cfg *config.Values) (*discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent
	return dg, nil
}

func provideStore(ctx context.Context, l *slog.Logger, cfg *config.Values) (dataaccess.Store, func(), error) {
	store, err := dataaccess.Open(ctx, l.With(slog.String(logging.KeyDal, string(cfg.Store.Driver))), &cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening store: %w", err)
	}

	cleanup := func() {
		if err := store.Close(context.Background()); err != nil {
			l.Error("Error closing store", slog.String(logging.KeyError, err.Error()))
		}
	}
	return store, cleanup, nil
}

// providePublisher publishes to RabbitMQ when it is configured, and to the log otherwise.
func providePublisher(l *slog.Logger, cfg *config.Values) (events.Publisher, func(), error) {
	var p events.Publisher
	if cfg.AmqpUrl == "" {
		p = events.NewLogPublisher(l)
	} else {
		amqpPublisher, err := events.NewAMQPPublisher(l, cfg.AmqpUrl, cfg.AmqpExchange)
		if err != nil {
			return nil, nil, fmt.Errorf("error creating event publisher: %w", err)
		}
		p = amqpPublisher
	}

	cleanup := func() {
		if err := p.Close(); err != nil {
			l.Error("Error closing event publisher", slog.String(logging.KeyError, err.Error()))
		}
	}
	return p, cleanup, nil
}

// provideArchiver returns nil when archiving is off.
func provideArchiver(ctx context.Context, l *slog.Logger, cfg *config.Values) (transcripts.Archiver, error) {
	if cfg.Minio == nil {
		l.Info("Transcript archiving is off")
		return nil, nil
	}

	archiver, err := transcripts.NewMinioArchiver(ctx, l, cfg.Minio)
	if err != nil {
		return nil, fmt.Errorf("error creating transcript archiver: %w", err)
	}
	return archiver, nil
}

func providePolicy(cfg *config.Values) (*ticketing.Policy, error) {
	return ticketing.LoadPolicy(cfg.TicketsConfig)
}

func provideWaiter(cfg *config.Values) *followup.Waiter {
	return followup.NewWaiter(cfg.FollowUpTimeout)
}

func provideLimiter(policy *ticketing.Policy) *userRateLimiter {
	return newUserRateLimiter(policy.OpenRate, policy.OpenBurst)
}
