// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

//go:build linux

package metrics

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ioReadSyscallsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, subsystem, "process_read_syscalls_total"),
		"Total number of read(2)-family syscalls issued by the process.", nil, nil)
	ioWriteSyscallsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, subsystem, "process_write_syscalls_total"),
		"Total number of write(2)-family syscalls issued by the process.", nil, nil)
	ioReadBytesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, subsystem, "process_read_bytes_total"),
		"Total bytes the process has caused to be fetched from storage.", nil, nil)
	ioWriteBytesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, subsystem, "process_write_bytes_total"),
		"Total bytes the process has caused to be sent to storage.", nil, nil)
)

// ioStats holds the counters read from /proc/self/io.
type ioStats struct {
	readSyscalls  int64
	writeSyscalls int64
	readBytes     int64
	writeBytes    int64
}

// IOCollector is a prometheus.Collector exposing the process's I/O
// counters from /proc/self/io, so the admin /admin/metrics endpoint
// carries some signal about an actor's storage and network pressure even
// without per-component instrumentation.
type IOCollector struct{}

// NewIOCollector returns an IOCollector ready to register.
func NewIOCollector() *IOCollector { return &IOCollector{} }

func (c *IOCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- ioReadSyscallsDesc
	ch <- ioWriteSyscallsDesc
	ch <- ioReadBytesDesc
	ch <- ioWriteBytesDesc
}

func (c *IOCollector) Collect(ch chan<- prometheus.Metric) {
	stats, err := c.getIOStats()
	if err != nil {
		log.Warn("read /proc/self/io failed", "err", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(ioReadSyscallsDesc, prometheus.CounterValue, float64(stats.readSyscalls))
	ch <- prometheus.MustNewConstMetric(ioWriteSyscallsDesc, prometheus.CounterValue, float64(stats.writeSyscalls))
	ch <- prometheus.MustNewConstMetric(ioReadBytesDesc, prometheus.CounterValue, float64(stats.readBytes))
	ch <- prometheus.MustNewConstMetric(ioWriteBytesDesc, prometheus.CounterValue, float64(stats.writeBytes))
}

func (c *IOCollector) getIOStats() (*ioStats, error) {
	f, err := os.Open("/proc/self/io")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stats := &ioStats{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			continue
		}
		switch strings.TrimSpace(key) {
		case "syscr":
			stats.readSyscalls = n
		case "syscw":
			stats.writeSyscalls = n
		case "read_bytes":
			stats.readBytes = n
		case "write_bytes":
			stats.writeBytes = n
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

// ProcessCollector is the process-wide collector registered with
// InitializePrometheusMetrics. It wraps IOCollector directly today; the
// split exists so CPU/memory/fd collectors can be folded in later without
// touching callers that only know about ProcessCollector.
type ProcessCollector struct {
	*IOCollector
}

// NewProcessCollector returns a ProcessCollector ready to register.
func NewProcessCollector() *ProcessCollector {
	return &ProcessCollector{IOCollector: NewIOCollector()}
}
