/*
Package hub implements the connection/session core.

This file defines the Hub struct, the long-lived owner of the shared
dependencies every session needs: the state store, the bus, the identity
verifier, and the inbound rate-limit quota.
*/
package hub

import (
	"github.com/prometheus/client_golang/prometheus"

	"prismhub/internal/app/identity"
	"prismhub/internal/app/store"
)

// Hub wires sessions to their shared collaborators.
type Hub struct {
	store    *store.Store
	bus      *Bus
	verifier identity.Verifier

	// quotaPerMinute is the per-connection general inbound limit; burst
	// equals the quota.
	quotaPerMinute int

	// inbound counts received frames across all sessions. Optional.
	inbound prometheus.Counter
}

// Config carries the tunable parts of a Hub.
type Config struct {
	RatelimitPerMinute int

	// Inbound, when set, is incremented for every frame read from any
	// authenticated connection.
	Inbound prometheus.Counter
}

// NewHub constructs a Hub.
func NewHub(st *store.Store, bus *Bus, verifier identity.Verifier, cfg Config) *Hub {
	quota := cfg.RatelimitPerMinute
	if quota <= 0 {
		quota = 100
	}

	return &Hub{
		store:          st,
		bus:            bus,
		verifier:       verifier,
		quotaPerMinute: quota,
		inbound:        cfg.Inbound,
	}
}

// Bus exposes the hub's bus for publishers outside the session protocol
// (HTTP broadcast endpoint, relay task).
func (h *Hub) Bus() *Bus {
	return h.bus
}

func (h *Hub) countInbound() {
	if h.inbound != nil {
		h.inbound.Inc()
	}
}
