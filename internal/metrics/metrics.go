package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tictactoe"

// Read operations reported by RecordReadFallback.
const (
	ReadTally   = "tally"
	ReadHistory = "history"
)

type Collector struct {
	movesApplied   prometheus.Counter
	movesRejected  prometheus.Counter
	gamesFinished  *prometheus.CounterVec
	recordsSaved   prometheus.Counter
	recordsFailed  prometheus.Counter
	readFallbacks  *prometheus.CounterVec
	recordDuration prometheus.Histogram
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		movesApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_applied_total",
			Help:      "Moves placed on a board.",
		}),
		movesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_rejected_total",
			Help:      "Clicks ignored as invalid moves.",
		}),
		gamesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Finished games by result.",
		}, []string{"result"}),
		recordsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_saved_total",
			Help:      "Game records written to the document store.",
		}),
		recordsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_failed_total",
			Help:      "Game records that could not be written.",
		}),
		readFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_fallbacks_total",
			Help:      "Reads answered with a default value because storage failed.",
		}, []string{"read"}),
		recordDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "record_duration_seconds",
			Help:      "Time spent writing a game record.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.movesApplied,
		c.movesRejected,
		c.gamesFinished,
		c.recordsSaved,
		c.recordsFailed,
		c.readFallbacks,
		c.recordDuration,
	)

	return c
}

func (c *Collector) RecordMove(applied bool) {
	if applied {
		c.movesApplied.Inc()
		return
	}
	c.movesRejected.Inc()
}

// RecordGameFinished - result is "X", "O" or "draw".
func (c *Collector) RecordGameFinished(result string) {
	c.gamesFinished.WithLabelValues(result).Inc()
}

func (c *Collector) RecordSaved(duration time.Duration) {
	c.recordsSaved.Inc()
	c.recordDuration.Observe(duration.Seconds())
}

func (c *Collector) RecordSaveFailure(duration time.Duration) {
	c.recordsFailed.Inc()
	c.recordDuration.Observe(duration.Seconds())
}

func (c *Collector) RecordReadFallback(read string) {
	c.readFallbacks.WithLabelValues(read).Inc()
}

// Handler - the prometheus scrape endpoint.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop - drops every measurement.
type Nop struct{}

func (Nop) RecordMove(bool) {}
func (Nop) RecordGameFinished(string) {}
func (Nop) RecordSaved(time.Duration) {}
func (Nop) RecordSaveFailure(time.Duration) {}
func (Nop) RecordReadFallback(string) {}
