// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// promMeters is the Prometheus-backed Meters implementation installed by
// InitializePrometheusMetrics. Each lookup caches its meter by name so
// repeated Counter("x")/Gauge("x") calls return the same collector instead
// of re-registering it.
type promMeters struct {
	mu sync.Mutex

	counters    map[string]*promCountMeter
	counterVecs map[string]*promCountVecMeter
	gauges      map[string]*promGaugeMeter
	gaugeVecs   map[string]*promGaugeVecMeter
	hists       map[string]*promHistogramMeter
	histVecs    map[string]*promHistogramVecMeter
}

func newPromMetrics() *promMeters {
	return &promMeters{
		counters:    make(map[string]*promCountMeter),
		counterVecs: make(map[string]*promCountVecMeter),
		gauges:      make(map[string]*promGaugeMeter),
		gaugeVecs:   make(map[string]*promGaugeVecMeter),
		hists:       make(map[string]*promHistogramMeter),
		histVecs:    make(map[string]*promHistogramVecMeter),
	}
}

// register registers c with the default registerer, falling back to the
// already-registered collector if this exact metric was registered by an
// earlier promMeters instance (e.g. a prior InitializePrometheusMetrics
// call in the same process, such as in tests).
func register[T prometheus.Collector](c T) T {
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (p *promMeters) Counter(name string) CountMeter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := p.counters[name]; ok {
		return m
	}
	c := register(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
	}))
	m := &promCountMeter{c: c}
	p.counters[name] = m
	return m
}

func (p *promMeters) CounterVec(name string, labels []string) CountVecMeter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := p.counterVecs[name]; ok {
		return m
	}
	v := register(prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
	}, labels))
	m := &promCountVecMeter{v: v}
	p.counterVecs[name] = m
	return m
}

func (p *promMeters) Gauge(name string) GaugeMeter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := p.gauges[name]; ok {
		return m
	}
	g := register(prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
	}))
	m := &promGaugeMeter{g: g}
	p.gauges[name] = m
	return m
}

func (p *promMeters) GaugeVec(name string, labels []string) GaugeVecMeter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := p.gaugeVecs[name]; ok {
		return m
	}
	v := register(prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
	}, labels))
	m := &promGaugeVecMeter{v: v}
	p.gaugeVecs[name] = m
	return m
}

func (p *promMeters) Histogram(name string, buckets []float64) HistogramMeter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := p.hists[name]; ok {
		return m
	}
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	h := register(prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Buckets:   buckets,
	}))
	m := &promHistogramMeter{h: h}
	p.hists[name] = m
	return m
}

func (p *promMeters) HistogramVec(name string, labels []string, buckets []float64) HistogramVecMeter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := p.histVecs[name]; ok {
		return m
	}
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	v := register(prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Buckets:   buckets,
	}, labels))
	m := &promHistogramVecMeter{v: v}
	p.histVecs[name] = m
	return m
}

func (p *promMeters) HTTPHandler() http.Handler {
	return promhttp.Handler()
}

type promCountMeter struct{ c prometheus.Counter }

func (m *promCountMeter) Add(n int64) { m.c.Add(float64(n)) }

type promCountVecMeter struct{ v *prometheus.CounterVec }

func (m *promCountVecMeter) AddWithLabel(n int64, labels map[string]string) {
	m.v.With(prometheus.Labels(labels)).Add(float64(n))
}

type promGaugeMeter struct{ g prometheus.Gauge }

func (m *promGaugeMeter) Add(n int64) { m.g.Add(float64(n)) }
func (m *promGaugeMeter) Set(n int64) { m.g.Set(float64(n)) }

type promGaugeVecMeter struct{ v *prometheus.GaugeVec }

func (m *promGaugeVecMeter) AddWithLabel(n int64, labels map[string]string) {
	m.v.With(prometheus.Labels(labels)).Add(float64(n))
}

func (m *promGaugeVecMeter) SetWithLabel(n int64, labels map[string]string) {
	m.v.With(prometheus.Labels(labels)).Set(float64(n))
}

type promHistogramMeter struct{ h prometheus.Histogram }

func (m *promHistogramMeter) Observe(n int64) { m.h.Observe(float64(n)) }

type promHistogramVecMeter struct{ v *prometheus.HistogramVec }

func (m *promHistogramVecMeter) ObserveWithLabels(n int64, labels map[string]string) {
	m.v.With(prometheus.Labels(labels)).Observe(float64(n))
}
