/*
Package metrics exposes the hub's operational metrics through a dedicated
prometheus registry: application gauges read straight from the state store,
an inbound frame counter fed by the session read pumps, and the standard
process/runtime collectors.
*/
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"prismhub/internal/app/store"
)

// Metrics bundles the registry with the counters components feed directly.
type Metrics struct {
	Registry *prometheus.Registry

	// InboundMessages counts frames read from authenticated connections.
	InboundMessages prometheus.Counter
}

// New builds the registry and registers every collector.
func New(st *store.Store) *Metrics {
	reg := prometheus.NewRegistry()

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	inbound := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "messages_total",
		Help: "Frames received from authenticated connections.",
	})
	reg.MustRegister(inbound)

	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "connected_users",
		Help: "Users with a live session.",
	}, func() float64 {
		return float64(st.ConnectedCount())
	}))

	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "blocked_irc_users",
		Help: "Users barred from the chat relay.",
	}, func() float64 {
		return float64(st.BlacklistedCount())
	}))

	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "cosmetics",
		Help: "Cosmetic catalog size.",
	}, func() float64 {
		return float64(st.CosmeticCount())
	}))

	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "cosmetic_users",
		Help: "Known user records.",
	}, func() float64 {
		return float64(st.UserCount())
	}))

	return &Metrics{
		Registry:        reg,
		InboundMessages: inbound,
	}
}
