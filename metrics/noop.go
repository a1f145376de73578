// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import "net/http"

// noopMeters is both the default Meters implementation and the meter it
// hands out for every kind: a single stateless value that satisfies
// CountMeter, CountVecMeter, GaugeMeter, GaugeVecMeter, HistogramMeter and
// HistogramVecMeter at once, so Counter/Gauge/Histogram/... all return the
// same underlying type before InitializePrometheusMetrics is called.
type noopMeters struct{}

func defaultNoopMetrics() *noopMeters { return &noopMeters{} }

func (*noopMeters) Counter(string) CountMeter                       { return &noopMeters{} }
func (*noopMeters) CounterVec(string, []string) CountVecMeter       { return &noopMeters{} }
func (*noopMeters) Gauge(string) GaugeMeter                         { return &noopMeters{} }
func (*noopMeters) GaugeVec(string, []string) GaugeVecMeter         { return &noopMeters{} }
func (*noopMeters) Histogram(string, []float64) HistogramMeter      { return &noopMeters{} }
func (*noopMeters) HistogramVec(string, []string, []float64) HistogramVecMeter {
	return &noopMeters{}
}

// HTTPHandler answers every request with 404: a binary that mounts
// /admin/metrics unconditionally stays harmless until metrics are enabled.
func (*noopMeters) HTTPHandler() http.Handler { return http.NotFoundHandler() }

func (*noopMeters) Add(int64)                                {}
func (*noopMeters) Set(int64)                                {}
func (*noopMeters) AddWithLabel(int64, map[string]string)    {}
func (*noopMeters) SetWithLabel(int64, map[string]string)    {}
func (*noopMeters) Observe(int64)                             {}
func (*noopMeters) ObserveWithLabels(int64, map[string]string) {}
