package monitoring

import (
	"fmt"

	"github.com/Jacobbrewer1/ticketpanel/cmd/bot/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TotalDiscordEvents counts gateway events by type, or by opcode for events without one.
	TotalDiscordEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_total_discord_events", config.AppName),
			Help: "Total number of gateway events received from Discord",
		},
		[]string{"event"},
	)

	// HttpTotalRequests counts requests to the monitoring server by route template.
	HttpTotalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_http_total_requests", config.AppName),
			Help: "Total number of requests to the monitoring server",
		},
		[]string{"path", "method", "status_code"},
	)

	// HttpRequestDuration is how long the monitoring server took to answer, in seconds.
	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    fmt.Sprintf("%s_http_request_duration_seconds", config.AppName),
			Help:    "Duration of requests to the monitoring server",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 2.5},
		},
		[]string{"path", "method", "status_code"},
	)

	// TotalDiscordGuilds is how many guilds the bot has commands registered in.
	TotalDiscordGuilds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_total_discord_guilds", config.AppName),
			Help: "Number of guilds the bot is serving",
		},
	)

	// DiscordInteractionDuration is the duration of handling an interaction.
	DiscordInteractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: fmt.Sprintf("%s_discord_interaction_duration", config.AppName),
			Help: "Duration of handling a discord interaction",
		},
		[]string{"interaction", "result"},
	)

	// RateLimitedInteractions is the number of ticket opens refused for going too fast.
	RateLimitedInteractions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_rate_limited_interactions_total", config.AppName),
			Help: "Total number of ticket open attempts refused by the rate limiter",
		},
	)
)
