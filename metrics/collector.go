// Package metrics exposes the engine's per-packet outcomes and table
// occupancy as Prometheus metrics, following the
// prometheus.Collector-with-precomputed-Desc pattern used throughout the
// example pack's exporters (see
// runZeroInc-conniver/pkg/exporter.TCPInfoCollector): Describe publishes a
// fixed set of *prometheus.Desc, Collect emits a fresh snapshot on every
// scrape rather than registering individual Counter/Gauge objects.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/moraru210/rematcher/avail"
	"github.com/moraru210/rematcher/clientstate"
	"github.com/moraru210/rematcher/conntrack"
	"github.com/moraru210/rematcher/engine"
	"github.com/moraru210/rematcher/seqtrack"
)

var (
	descActionsTotal = prometheus.NewDesc(
		"rematcher_actions_total",
		"Packets processed by the core, partitioned by verdict and (for aborts) reason.",
		[]string{"action", "reason"}, nil,
	)
	descTableEntries = prometheus.NewDesc(
		"rematcher_table_entries",
		"Current occupancy of a fixed-capacity table.",
		[]string{"table"}, nil,
	)
	descTableCapacity = prometheus.NewDesc(
		"rematcher_table_capacity",
		"Configured capacity of a fixed-capacity table.",
		[]string{"table"}, nil,
	)
)

// Tables is the subset of an Engine's table accessors Collect needs to
// report occupancy. *engine.Engine satisfies it via its Routes/Numbers/
// Availability/ClientState getters.
type Tables interface {
	Routes() *conntrack.Table
	Numbers() *seqtrack.Table
	Availability() *avail.Table
	ClientState() *clientstate.Table
}

// Collector implements engine.Recorder and prometheus.Collector: it counts
// every ProcessFrame verdict as it happens, and reports table occupancy
// lazily on each scrape.
type Collector struct {
	tables Tables

	pass    atomic.Uint64
	tx      atomic.Uint64
	aborted [reasonCount]atomic.Uint64
}

const reasonCount = 5 // reasonNone + the four engine.AbortReason values

// New returns a Collector with no table source attached yet. Attach it
// once the Engine exists, since the Engine itself is typically constructed
// with this Collector as its Recorder — Collector and Engine reference
// each other, so neither can be fully built first.
func New() *Collector {
	return &Collector{}
}

// Attach points Collect at tables. Safe to call once, before the Collector
// is registered with a prometheus.Registerer.
func (c *Collector) Attach(tables Tables) {
	c.tables = tables
}

// ObserveAction implements engine.Recorder.
func (c *Collector) ObserveAction(action engine.Action, reason engine.AbortReason) {
	switch action {
	case engine.Pass:
		c.pass.Add(1)
	case engine.TX:
		c.tx.Add(1)
	case engine.Aborted:
		if int(reason) < len(c.aborted) {
			c.aborted[reason].Add(1)
		}
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(descs chan<- *prometheus.Desc) {
	descs <- descActionsTotal
	descs <- descTableEntries
	descs <- descTableCapacity
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(metrics chan<- prometheus.Metric) {
	metrics <- prometheus.MustNewConstMetric(descActionsTotal, prometheus.CounterValue, float64(c.pass.Load()), "pass", "")
	metrics <- prometheus.MustNewConstMetric(descActionsTotal, prometheus.CounterValue, float64(c.tx.Load()), "tx", "")
	for reason := engine.AbortReason(1); int(reason) < len(c.aborted); reason++ {
		metrics <- prometheus.MustNewConstMetric(descActionsTotal, prometheus.CounterValue,
			float64(c.aborted[reason].Load()), "aborted", reason.String())
	}

	if c.tables == nil {
		return
	}
	c.collectTable(metrics, "conn_map", c.tables.Routes().Len(), c.tables.Routes().Cap())
	c.collectTable(metrics, "numbers_map", c.tables.Numbers().Len(), c.tables.Numbers().Cap())
	c.collectTable(metrics, "available_map", c.tables.Availability().Len(), c.tables.Availability().Cap())
	c.collectTable(metrics, "state_map", c.tables.ClientState().Len(), c.tables.ClientState().Cap())
}

func (c *Collector) collectTable(metrics chan<- prometheus.Metric, name string, entries, capacity int) {
	metrics <- prometheus.MustNewConstMetric(descTableEntries, prometheus.GaugeValue, float64(entries), name)
	metrics <- prometheus.MustNewConstMetric(descTableCapacity, prometheus.GaugeValue, float64(capacity), name)
}
