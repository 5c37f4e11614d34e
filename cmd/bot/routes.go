package main

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Jacobbrewer1/ticketpanel/pkg/dataaccess"
	"github.com/Jacobbrewer1/ticketpanel/pkg/logging"
	"github.com/Jacobbrewer1/ticketpanel/pkg/request"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// PathMetrics is the path for metrics.
	PathMetrics = "/metrics"

	// PathHealth is the path for the health check.
	PathHealth = "/health"

	// PathGuildPanel is the path for the panel of a guild.
	PathGuildPanel = "/guilds/{guildID}/panel"
)

func (a *App) setupRoutes() {
	a.r.HandleFunc(PathMetrics, promhttp.Handler().ServeHTTP).Methods(http.MethodGet)
	a.r.HandleFunc(PathHealth, middlewareHttp(a.l, a.healthCheck())).Methods(http.MethodGet)
	addStoreRoutes(a.l, a.r, a.store)
}

// addStoreRoutes adds the read only store routes and the fallback handlers.
func addStoreRoutes(l *slog.Logger, r *mux.Router, store dataaccess.Store) {
	r.HandleFunc(PathGuildPanel, middlewareHttp(l, panelHandler(l, store))).Methods(http.MethodGet)

	r.NotFoundHandler = request.NotFoundHandler(l)
	r.MethodNotAllowedHandler = request.MethodNotAllowedHandler(l)
}

// panelHandler returns the stored panel of a guild as JSON.
func panelHandler(l *slog.Logger, store dataaccess.Store) Controller {
	return func(w http.ResponseWriter, r *http.Request) {
		guildID := mux.Vars(r)["guildID"]

		panel, err := store.LoadPanel(r.Context(), guildID)
		if errors.Is(err, dataaccess.ErrNotFound) {
			request.NotFoundHandler(l)(w, r)
			return
		} else if err != nil {
			l.Error("Error loading panel",
				slog.String(logging.KeyGuildID, guildID),
				slog.String(logging.KeyError, err.Error()),
			)
			request.InternalServerError(l, w, r)
			return
		}

		request.Encode(l, w, http.StatusOK, panel)
	}
}
