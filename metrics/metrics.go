// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package metrics is the actor runtime's metering facade: grab a meter
// once (often via the Lazy* constructors, at var-init time, before
// InitializePrometheusMetrics has run) and call Add/Observe on it on the
// hot path. Before
// InitializePrometheusMetrics is called the package hands out no-op meters
// so a binary that never enables the admin /admin/metrics endpoint pays
// nothing for instrumentation; after it is called, every meter obtained
// from then on - including ones already captured by a Lazy* closure - is
// backed by a registered Prometheus collector.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nyric/actorio/internal/xlog"
)

var log = xlog.WithContext("pkg", "metrics")

// namespace/subsystem fix the Prometheus fully-qualified metric name as
// namespace_subsystem_name. Kept as "thor_metrics" rather than renamed for
// the actor-runtime domain: the existing metrics tests in this package
// assert on "thor_metrics_<name>" literals.
const (
	namespace = "thor"
	subsystem = "metrics"
)

// CountMeter is a monotonic counter.
type CountMeter interface {
	Add(n int64)
}

// CountVecMeter is a counter partitioned by label values.
type CountVecMeter interface {
	AddWithLabel(n int64, labels map[string]string)
}

// GaugeMeter is a value that can move in either direction.
type GaugeMeter interface {
	Add(n int64)
	Set(n int64)
}

// GaugeVecMeter is a gauge partitioned by label values.
type GaugeVecMeter interface {
	AddWithLabel(n int64, labels map[string]string)
	SetWithLabel(n int64, labels map[string]string)
}

// HistogramMeter observes samples into configured buckets.
type HistogramMeter interface {
	Observe(n int64)
}

// HistogramVecMeter observes samples into configured buckets, partitioned
// by label values.
type HistogramVecMeter interface {
	ObserveWithLabels(n int64, labels map[string]string)
}

// Meters is whatever backs the package-level functions below: either the
// default no-op implementation, or the Prometheus-backed one installed by
// InitializePrometheusMetrics.
type Meters interface {
	Counter(name string) CountMeter
	CounterVec(name string, labels []string) CountVecMeter
	Gauge(name string) GaugeMeter
	GaugeVec(name string, labels []string) GaugeVecMeter
	Histogram(name string, buckets []float64) HistogramMeter
	HistogramVec(name string, labels []string, buckets []float64) HistogramVecMeter
	HTTPHandler() http.Handler
}

var (
	mu      sync.RWMutex
	metrics Meters = defaultNoopMetrics()
)

func current() Meters {
	mu.RLock()
	defer mu.RUnlock()
	return metrics
}

// InitializePrometheusMetrics switches the package from no-op to
// Prometheus-backed. Meters obtained before this call keep working (the
// no-op ones silently discard everything); meters obtained after it,
// including ones reached through a Lazy* closure captured earlier, are
// real Prometheus collectors registered under the thor_metrics namespace.
func InitializePrometheusMetrics() {
	mu.Lock()
	defer mu.Unlock()
	metrics = newPromMetrics()
	if err := prometheus.Register(NewProcessCollector()); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			panic(err)
		}
	}
}

// HTTPHandler serves /metrics in Prometheus exposition format once
// InitializePrometheusMetrics has run; until then it answers every request
// with 404, so an admin server that always mounts it is harmless in
// binaries that never opt into metrics.
func HTTPHandler() http.Handler { return current().HTTPHandler() }

// Counter returns the named counter, creating it on first use.
func Counter(name string) CountMeter { return current().Counter(name) }

// CounterVec returns the named counter partitioned by labels, creating it
// on first use.
func CounterVec(name string, labels []string) CountVecMeter { return current().CounterVec(name, labels) }

// Gauge returns the named gauge, creating it on first use.
func Gauge(name string) GaugeMeter { return current().Gauge(name) }

// GaugeVec returns the named gauge partitioned by labels, creating it on
// first use.
func GaugeVec(name string, labels []string) GaugeVecMeter { return current().GaugeVec(name, labels) }

// Histogram returns the named histogram, creating it with buckets (or the
// Prometheus default buckets, if nil) on first use.
func Histogram(name string, buckets []float64) HistogramMeter {
	return current().Histogram(name, buckets)
}

// HistogramVec returns the named histogram partitioned by labels, creating
// it on first use.
func HistogramVec(name string, labels []string, buckets []float64) HistogramVecMeter {
	return current().HistogramVec(name, labels, buckets)
}

// LazyLoadCounter defers the Counter lookup to the first call of the
// returned func, so a package-level var initialized before
// InitializePrometheusMetrics still resolves to a real meter afterwards.
func LazyLoadCounter(name string) func() CountMeter {
	return func() CountMeter { return Counter(name) }
}

// LazyLoadCounterVec is LazyLoadCounter for CounterVec.
func LazyLoadCounterVec(name string, labels []string) func() CountVecMeter {
	return func() CountVecMeter { return CounterVec(name, labels) }
}

// LazyLoadGauge is LazyLoadCounter for Gauge.
func LazyLoadGauge(name string) func() GaugeMeter {
	return func() GaugeMeter { return Gauge(name) }
}

// LazyLoadGaugeVec is LazyLoadCounter for GaugeVec.
func LazyLoadGaugeVec(name string, labels []string) func() GaugeVecMeter {
	return func() GaugeVecMeter { return GaugeVec(name, labels) }
}

// LazyLoadHistogram is LazyLoadCounter for Histogram.
func LazyLoadHistogram(name string, buckets []float64) func() HistogramMeter {
	return func() HistogramMeter { return Histogram(name, buckets) }
}

// LazyLoadHistogramVec is LazyLoadCounter for HistogramVec.
func LazyLoadHistogramVec(name string, labels []string, buckets []float64) func() HistogramVecMeter {
	return func() HistogramVecMeter { return HistogramVec(name, labels, buckets) }
}
