package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/ticketpanel/pkg/dataaccess"
	"github.com/Jacobbrewer1/ticketpanel/pkg/events"
	"github.com/Jacobbrewer1/ticketpanel/pkg/transcripts"
	"github.com/alexliesenfeld/health"
)

const (
	healthCacheDuration = time.Second
	healthTimeout       = 2 * time.Second

	// Checks that call out of the process run on an interval instead of per request.
	periodicInterval = 15 * time.Second
	periodicDelay    = 5 * time.Second
)

// pinger is a dependency that can report whether it is reachable.
type pinger interface {
	Ping(ctx context.Context) error
}

// pingerFunc adapts a function to pinger.
type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// dependency is one component the bot reports the health of.
type dependency struct {
	name     string
	p        pinger
	periodic bool
}

// healthChecks are the dependencies checked by the health endpoint.
type healthChecks []dependency

// provideHealthChecks lists the store, the Discord API, and the broker and archive when they are configured.
func provideHealthChecks(
	s *discordgo.Session,
	store dataaccess.Store,
	publisher events.Publisher,
	archiver transcripts.Archiver,
) healthChecks {
	checks := healthChecks{
		{name: "store", p: store},
		{name: "discord_api", periodic: true, p: pingerFunc(func(_ context.Context) error {
			_, err := s.GatewayBot()
			return err
		})},
	}

	// The log publisher has nothing to reach.
	if p, ok := publisher.(pinger); ok {
		checks = append(checks, dependency{name: "event_broker", p: p, periodic: true})
	}
	if p, ok := archiver.(pinger); ok {
		checks = append(checks, dependency{name: "transcript_archive", p: p, periodic: true})
	}
	return checks
}

// check turns a dependency into a health check that logs its status changes.
func (d dependency) check(l *slog.Logger) health.Check {
	return health.Check{
		Name: d.name,
		Check: func(ctx context.Context) error {
			if err := d.p.Ping(ctx); err != nil {
				return fmt.Errorf("failed to ping %s: %w", d.name, err)
			}
			return nil
		},
		Timeout: healthTimeout,
		StatusListener: func(_ context.Context, name string, state health.CheckState) {
			l.Info("Health check status changed",
				slog.String("name", name),
				slog.String("state", string(state.Status)),
			)
		},
	}
}

func (a *App) healthCheck() Controller {
	opts := []health.CheckerOption{
		health.WithCacheDuration(healthCacheDuration),
		health.WithTimeout(healthTimeout),
	}

	for _, d := range a.checks {
		if d.periodic {
			opts = append(opts, health.WithPeriodicCheck(periodicInterval, periodicDelay, d.check(a.l)))
		} else {
			opts = append(opts, health.WithCheck(d.check(a.l)))
		}
	}

	return Controller(health.NewHandler(health.NewChecker(opts...)))
}
