/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package metrics records node metrics in Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "sidetree"

	casSubsystem      = "cas"
	observerSubsystem = "observer"
	batchSubsystem    = "batch"
	resolverSubsystem = "resolver"
)

// Provider records metrics in a Prometheus registry.
type Provider struct {
	gatherer prometheus.Gatherer

	casWriteSize *prometheus.HistogramVec
	casReadSize  *prometheus.HistogramVec
	casReadTime  *prometheus.HistogramVec

	observerCycleTime       prometheus.Histogram
	transactionsProcessed   prometheus.Counter
	transactionsUnresolvable prometheus.Counter
	reorgs                  prometheus.Counter

	batchCutSize   prometheus.Histogram
	batchWriteTime prometheus.Histogram

	resolveTime prometheus.Histogram
}

// New registers the node collectors with the given registry.
func New(reg *prometheus.Registry) *Provider {
	factory := promauto.With(reg)

	return &Provider{
		gatherer: reg,
		casWriteSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: casSubsystem,
			Name:      "write_size_bytes",
			Help:      "The size of content written to CAS.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		}, []string{"type"}),
		casReadSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: casSubsystem,
			Name:      "read_size_bytes",
			Help:      "The size of content read from CAS.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		}, []string{"type"}),
		casReadTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: casSubsystem,
			Name:      "read_seconds",
			Help:      "The time it takes to read content from CAS.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
		observerCycleTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: observerSubsystem,
			Name:      "cycle_seconds",
			Help:      "The time it takes to run one observer cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
		transactionsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: observerSubsystem,
			Name:      "transactions_processed_total",
			Help:      "The number of processed Sidetree transactions.",
		}),
		transactionsUnresolvable: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: observerSubsystem,
			Name:      "transactions_unresolvable_total",
			Help:      "The number of failed attempts to resolve the files of a Sidetree transaction.",
		}),
		reorgs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: observerSubsystem,
			Name:      "reorgs_total",
			Help:      "The number of ledger reorganizations rolled back.",
		}),
		batchCutSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: batchSubsystem,
			Name:      "cut_size",
			Help:      "The number of operations in a cut batch.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		batchWriteTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: batchSubsystem,
			Name:      "write_seconds",
			Help:      "The time it takes to write a batch and anchor it.",
			Buckets:   prometheus.DefBuckets,
		}),
		resolveTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: resolverSubsystem,
			Name:      "resolve_seconds",
			Help:      "The time it takes to resolve a DID.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Handler returns the HTTP handler that exposes the registry.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

// CASWriteSize records the size of content written to CAS.
func (p *Provider) CASWriteSize(dataType string, size int) {
	p.casWriteSize.WithLabelValues(dataType).Observe(float64(size))
}

// CASReadSize records the size of content read from CAS.
func (p *Provider) CASReadSize(dataType string, size int) {
	p.casReadSize.WithLabelValues(dataType).Observe(float64(size))
}

// CASReadTime records the time to read content from CAS.
func (p *Provider) CASReadTime(dataType string, value time.Duration) {
	p.casReadTime.WithLabelValues(dataType).Observe(value.Seconds())
}

// ObserverCycleTime records the time of one observer cycle.
func (p *Provider) ObserverCycleTime(value time.Duration) {
	p.observerCycleTime.Observe(value.Seconds())
}

// TransactionProcessed increments the processed transaction count.
func (p *Provider) TransactionProcessed() {
	p.transactionsProcessed.Inc()
}

// TransactionUnresolvable increments the unresolvable transaction count.
func (p *Provider) TransactionUnresolvable() {
	p.transactionsUnresolvable.Inc()
}

// Reorg increments the reorganization count.
func (p *Provider) Reorg() {
	p.reorgs.Inc()
}

// BatchCutSize records the number of operations in a cut batch.
func (p *Provider) BatchCutSize(size int) {
	p.batchCutSize.Observe(float64(size))
}

// BatchWriteTime records the time to write a batch.
func (p *Provider) BatchWriteTime(value time.Duration) {
	p.batchWriteTime.Observe(value.Seconds())
}

// ResolveTime records the time to resolve a DID.
func (p *Provider) ResolveTime(value time.Duration) {
	p.resolveTime.Observe(value.Seconds())
}
