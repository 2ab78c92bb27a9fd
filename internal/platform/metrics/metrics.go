// Package metrics exposes engine counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	entriesPosted     *prometheus.CounterVec
	entriesSkipped    *prometheus.CounterVec
	postingFailures   *prometheus.CounterVec
	compensations     *prometheus.CounterVec
	directives        *prometheus.CounterVec
	storeRetries      *prometheus.CounterVec
	legalProvisioning *prometheus.GaugeVec
}

// New creates the engine metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		entriesPosted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "entries_posted_total",
			Help:      "Journal entries posted, by event type.",
		}, []string{"event_type"}),
		entriesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "entries_skipped_total",
			Help:      "Events skipped because an entry already existed for their source.",
		}, []string{"event_type"}),
		postingFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "posting_failures_total",
			Help:      "Failed postings, by event type and reason.",
		}, []string{"event_type", "reason"}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "compensations_total",
			Help:      "Partial commits rolled back by deleting the entry, by outcome.",
		}, []string{"outcome"}),
		directives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reconciliation",
			Name:      "directives_total",
			Help:      "Correction directives processed, by kind and result.",
		}, []string{"kind", "result"}),
		storeRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "store",
			Name:      "retries_total",
			Help:      "Store calls retried after a transient failure, by operation.",
		}, []string{"op"}),
		legalProvisioning: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "legal_collection",
			Name:      "provision_amount",
			Help:      "Total doubtful-debt provision from the last report, by company.",
		}, []string{"company_id"}),
	}
	reg.MustRegister(
		m.entriesPosted,
		m.entriesSkipped,
		m.postingFailures,
		m.compensations,
		m.directives,
		m.storeRetries,
		m.legalProvisioning,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) EntryPosted(eventType string) {
	if m == nil {
		return
	}
	m.entriesPosted.WithLabelValues(eventType).Inc()
}

func (m *Metrics) EntrySkipped(eventType string) {
	if m == nil {
		return
	}
	m.entriesSkipped.WithLabelValues(eventType).Inc()
}

func (m *Metrics) PostingFailed(eventType, reason string) {
	if m == nil {
		return
	}
	m.postingFailures.WithLabelValues(eventType, reason).Inc()
}

func (m *Metrics) Compensation(succeeded bool) {
	if m == nil {
		return
	}
	outcome := "rolled_back"
	if !succeeded {
		outcome = "orphaned"
	}
	m.compensations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) DirectiveProcessed(kind string, applied bool) {
	if m == nil {
		return
	}
	result := "applied"
	if !applied {
		result = "failed"
	}
	m.directives.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) StoreRetry(op string) {
	if m == nil {
		return
	}
	m.storeRetries.WithLabelValues(op).Inc()
}

func (m *Metrics) LegalProvision(companyID string, amount float64) {
	if m == nil {
		return
	}
	m.legalProvisioning.WithLabelValues(companyID).Set(amount)
}
