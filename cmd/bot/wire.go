//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/Jacobbrewer1/ticketpanel/cmd/bot/config"
	"github.com/Jacobbrewer1/ticketpanel/pkg/logging"
	"github.com/Jacobbrewer1/ticketpanel/pkg/platform"
	"github.com/Jacobbrewer1/ticketpanel/pkg/platform/discord"
	"github.com/Jacobbrewer1/ticketpanel/pkg/ticketing"
	"github.com/google/wire"
	"github.com/gorilla/mux"
)

func InitializeApp(ctx context.Context) (*App, func(), error) {
	wire.Build(
		provideLoggingName,
		logging.NewConfig,
		logging.CommonLogger,
		config.Parse,
		provideSession,
		provideStore,
		providePublisher,
		provideArchiver,
		providePolicy,
		provideWaiter,
		provideLimiter,
		provideHealthChecks,
		discord.NewPlatform,
		wire.Bind(new(platform.Platform), new(*discord.Platform)),
		ticketing.NewRegistry,
		ticketing.NewManager,
		mux.NewRouter,
		NewApp,
	)
	return new(App), nil, nil
}
