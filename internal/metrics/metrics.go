// Package metrics holds the Prometheus instruments for the decode pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the pipeline counters. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	DecryptOutcomes  *prometheus.CounterVec
	FatalDecodes     *prometheus.CounterVec
	Migrations       *prometheus.CounterVec
	MappingLookups   *prometheus.CounterVec
	DirectoryLookups *prometheus.CounterVec
}

// New registers the counters with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DecryptOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "msgcore_decrypt_total",
			Help: "Decrypted envelope children by ciphertext type and outcome",
		}, []string{"type", "outcome"}),
		FatalDecodes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "msgcore_fatal_decode_total",
			Help: "Envelopes rejected during classification, by NACK reason",
		}, []string{"reason"}),
		Migrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "msgcore_session_migrations_total",
			Help: "PN to LID session migrations by result",
		}, []string{"result"}),
		MappingLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "msgcore_lid_mapping_lookups_total",
			Help: "LID mapping cache lookups by result",
		}, []string{"result"}),
		DirectoryLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "msgcore_directory_lookups_total",
			Help: "Directory resolver calls by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveDecrypt counts one child decrypt attempt.
func (m *Metrics) ObserveDecrypt(kind string, err error) {
	if m == nil {
		return
	}
	m.DecryptOutcomes.WithLabelValues(kind, outcome(err)).Inc()
}

// ObserveFatal counts one rejected envelope.
func (m *Metrics) ObserveFatal(reason string) {
	if m == nil {
		return
	}
	m.FatalDecodes.WithLabelValues(reason).Inc()
}

// ObserveMigration counts a migration call: "migrated", "skipped", "noop" or
// "error".
func (m *Metrics) ObserveMigration(result string) {
	if m == nil {
		return
	}
	m.Migrations.WithLabelValues(result).Inc()
}

// ObserveMappingLookup counts cache hits and misses.
func (m *Metrics) ObserveMappingLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.MappingLookups.WithLabelValues(result).Inc()
}

// ObserveDirectory counts one directory resolver call.
func (m *Metrics) ObserveDirectory(err error) {
	if m == nil {
		return
	}
	m.DirectoryLookups.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
