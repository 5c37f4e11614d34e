package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Jacobbrewer1/ticketpanel/cmd/bot/config"
	"github.com/Jacobbrewer1/ticketpanel/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(slog.Default()); err != nil {
		log.Fatalln(err)
	}

	a, cleanup, err := InitializeApp(ctx)
	if err != nil {
		log.Fatalln(err)
	}
	defer cleanup()

	a.Log().Info("Starting application")
	if err := a.Run(ctx); err != nil {
		a.Log().Error("Error running application", slog.String(logging.KeyError, err.Error()))
		cleanup()
		os.Exit(1)
	}
}
