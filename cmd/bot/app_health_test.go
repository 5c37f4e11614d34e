package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/ticketpanel/pkg/dataaccess"
	"github.com/Jacobbrewer1/ticketpanel/pkg/events"
	"github.com/stretchr/testify/require"
)

type archivePinger struct {
	err error
}

func (a *archivePinger) Archive(context.Context, string, []byte) (string, error) {
	return "", nil
}

func (a *archivePinger) Ping(context.Context) error {
	return a.err
}

func TestProvideHealthChecks(t *testing.T) {
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := dataaccess.NewMemoryStore(l)

	checks := provideHealthChecks(new(discordgo.Session), store, events.NewLogPublisher(l), nil)
	require.Len(t, checks, 2)
	require.Equal(t, "store", checks[0].name)
	require.False(t, checks[0].periodic)
	require.Equal(t, "discord_api", checks[1].name)
	require.True(t, checks[1].periodic)

	checks = provideHealthChecks(new(discordgo.Session), store, events.NewLogPublisher(l), new(archivePinger))
	require.Len(t, checks, 3)
	require.Equal(t, "transcript_archive", checks[2].name)
}

func TestHealthCheck(t *testing.T) {
	l := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "up", status: http.StatusOK},
		{name: "down", err: errors.New("unreachable"), status: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &App{
				l:      l,
				checks: healthChecks{{name: "archive", p: &archivePinger{err: tt.err}}},
			}

			w := httptest.NewRecorder()
			a.healthCheck()(w, httptest.NewRequest(http.MethodGet, PathHealth, nil))
			require.Equal(t, tt.status, w.Code)
		})
	}
}
