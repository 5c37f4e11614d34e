package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Jacobbrewer1/ticketpanel/pkg/dataaccess"
	"github.com/Jacobbrewer1/ticketpanel/pkg/entities"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

func TestPanelRoute(t *testing.T) {
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := dataaccess.NewMemoryStore(l)

	panel := entities.NewPanel("G")
	panel.Options = append(panel.Options, entities.TicketOption{Label: "Buy", Emoji: entities.Emoji{Name: "💸"}, StaffRoleID: "R"})
	require.NoError(t, store.SavePanel(context.Background(), panel))

	r := mux.NewRouter()
	addStoreRoutes(l, r, store)

	t.Run("found", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guilds/G/panel", nil))
		require.Equal(t, http.StatusOK, w.Code)

		got := new(entities.Panel)
		require.NoError(t, json.NewDecoder(w.Body).Decode(got))
		require.Equal(t, "G", got.GuildID)
		require.Len(t, got.Options, 1)
		require.Equal(t, "Buy", got.Options[0].Label)
	})

	t.Run("unknown guild", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guilds/X/panel", nil))
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/guilds/G/panel", nil))
		require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("unknown path", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}
