package ticketing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticketsOpened = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_tickets_opened_total",
			Help: "Total number of tickets opened",
		},
		[]string{"guild_id"},
	)

	ticketsClaimed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_tickets_claimed_total",
			Help: "Total number of tickets claimed",
		},
		[]string{"guild_id"},
	)

	ticketsClosed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_tickets_closed_total",
			Help: "Total number of tickets closed",
		},
		[]string{"guild_id", "transcript"},
	)

	// activeTickets is the stored tickets per guild, seeded by SyncActiveTickets and kept by open and close.
	activeTickets = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ticketing_active_tickets",
			Help: "Number of tickets currently open per guild",
		},
		[]string{"guild_id"},
	)

	transcriptDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_transcript_deliveries_total",
			Help: "Total number of transcript direct messages by result",
		},
		[]string{"result"},
	)
)
