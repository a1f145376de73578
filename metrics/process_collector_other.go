// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

//go:build !linux

package metrics

import "github.com/prometheus/client_golang/prometheus"

// ProcessCollector is a no-op off Linux: /proc/self/io doesn't exist, and
// this runtime has no other OS-specific source for the same counters.
type ProcessCollector struct{}

// NewProcessCollector returns a ProcessCollector ready to register.
func NewProcessCollector() *ProcessCollector { return &ProcessCollector{} }

func (c *ProcessCollector) Describe(chan<- *prometheus.Desc) {}
func (c *ProcessCollector) Collect(chan<- prometheus.Metric)  {}
