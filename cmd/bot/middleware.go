package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/ticketpanel/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/ticketpanel/pkg/logging"
	"github.com/Jacobbrewer1/ticketpanel/pkg/messages"
	"github.com/Jacobbrewer1/ticketpanel/pkg/request"
	"github.com/Jacobbrewer1/ticketpanel/pkg/ticketing"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// processor handles one kind of interaction.
type processor func(ctx context.Context, a IApp, in *interaction) error

// Controller is the handler for http requests.
type Controller func(w http.ResponseWriter, r *http.Request)

// interactionTimeoutSlack is added to the follow up timeout to bound the handling of an interaction.
const interactionTimeoutSlack = time.Minute

// interactionKey names the processor of an interaction, or "" when the interaction is not handled.
func interactionKey(i *discordgo.InteractionCreate) string {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		return commandKey(i.ApplicationCommandData())
	case discordgo.InteractionMessageComponent:
		return i.MessageComponentData().CustomID
	default:
		return ""
	}
}

// interactionHandler routes interactions to their processors. Failures the member caused are answered with what went
// wrong, anything else is logged and answered with a generic message.
func interactionHandler(a IApp, processors map[string]processor) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		key := interactionKey(i)
		if key == "" {
			return
		}

		in := &interaction{
			InteractionCreate: i,
			s:                 s,
		}
		in.l = a.Log().With(
			slog.String(logging.KeyRequestID, uuid.NewString()),
			slog.String(logging.KeyCommand, key),
			slog.String(logging.KeyGuildID, i.GuildID),
			slog.String(logging.KeyChannelID, i.ChannelID),
			slog.String(logging.KeyUserID, in.userID()),
		)

		start := time.Now()
		result := "ok"
		defer func() {
			monitoring.DiscordInteractionDuration.WithLabelValues(key, result).Observe(time.Since(start).Seconds())
		}()

		defer func() {
			if rec := recover(); rec != nil {
				result = "panic"
				in.l.Error("Panic in interaction handler",
					slog.String(logging.KeyError, fmt.Sprint(rec)),
					slog.String("stack", string(debug.Stack())),
				)
				replyError(in, nil)
			}
		}()

		p, ok := processors[key]
		if !ok {
			result = "unknown"
			in.l.Error("No processor found for interaction")
			replyError(in, nil)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), a.Waiter().Timeout()+interactionTimeoutSlack)
		defer cancel()

		in.l.Debug("Handling interaction")
		if err := p(ctx, a, in); err != nil {
			if _, ok := ticketing.UserMessage(err); ok {
				result = "refused"
				in.l.Info("Interaction refused", slog.String(logging.KeyError, err.Error()))
			} else {
				result = "error"
				in.l.Error("Error processing interaction", slog.String(logging.KeyError, err.Error()))
			}
			replyError(in, err)
		}
	}
}

// replyError tells the member what went wrong.
func replyError(in *interaction, err error) {
	msg, ok := ticketing.UserMessage(err)
	if !ok {
		msg = messages.ErrUserErrorProcessing
	}
	if err := in.reply(msg); err != nil {
		in.l.Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
	}
}

func middlewareHttp(l *slog.Logger, handler Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		cw := request.NewClientWriter(w)

		var path string
		route := mux.CurrentRoute(r)
		if route != nil { // The route may be nil if the request is not routed.
			var err error
			path, err = route.GetPathTemplate()
			if err != nil {
				// An error here is only returned if the route does not define a path.
				l.Error("Error getting path template", slog.String(logging.KeyError, err.Error()))
				path = r.URL.Path
			}
		} else {
			path = r.URL.Path
		}

		defer func() {
			// Run after the request has been handled, the status code is not known until then.
			monitoring.HttpTotalRequests.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Inc()
			monitoring.HttpRequestDuration.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Observe(time.Since(now).Seconds())
		}()

		// Recover from any panics that occur in the handler.
		defer func() {
			if rec := recover(); rec != nil {
				l.Error("Panic in handler",
					slog.String(logging.KeyError, fmt.Sprint(rec)),
					slog.String("stack", string(debug.Stack())),
				)
				request.InternalServerError(l, cw, r)
			}
		}()

		handler(cw, r)
	}
}
