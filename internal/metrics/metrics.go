package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "careline_messages_sent_total",
		Help: "Messages appended to chats, by message type.",
	}, []string{"type"})

	CallsEnded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "careline_calls_ended_total",
		Help: "Call sessions torn down.",
	})

	NotesUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "careline_notes_updated_total",
		Help: "Clinical note section writes.",
	})

	ScribeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "careline_scribe_failures_total",
		Help: "AI collaborator calls that degraded to a fallback result.",
	}, []string{"operation"})
)

// Handler serves the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
