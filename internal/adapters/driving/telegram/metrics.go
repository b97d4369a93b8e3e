package telegram

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/custodia-labs/pocketbot/internal/core/domain"
)

var updatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pocketbot_updates_total",
	Help: "Telegram updates handled, by kind and result",
}, []string{"kind", "status"})

var updateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "pocketbot_update_duration_seconds",
	Help:    "Time to handle a Telegram update",
	Buckets: prometheus.ExponentialBucketsRange(0.005, 60, 15),
}, []string{"kind"})

var authOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pocketbot_auth_outcomes_total",
	Help: "Decisions of the authorization flow shown to users",
}, []string{"outcome"})

// ObserveOutcome counts a rendered decision. It is passed to the chat
// service as its outcome observer.
func ObserveOutcome(o domain.Outcome) {
	authOutcomes.WithLabelValues(string(o)).Inc()
}
