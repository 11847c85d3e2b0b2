/*
Package hub implements the connection/session core.

This file defines the supervisory relay task: one long-lived goroutine
draining the bus for the envelope kinds that need a store-wide scan or an
external call. Presence lookups are answered from the store; chat-relay
creations are delivered to the external sink at most once and republished
locally regardless of delivery outcome.
*/
package hub

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"prismhub/internal/app/identity"
	"prismhub/internal/app/irc"
	"prismhub/internal/app/store"
	"prismhub/internal/pkg/logx"
)

// Relay is the supervisory task resolving centralized envelope kinds.
type Relay struct {
	store    *store.Store
	bus      *Bus
	sink     irc.Sink
	resolver identity.Resolver
	logger   zerolog.Logger
}

// NewRelay constructs the relay task. resolver may be nil; display names
// then fall back to the sender uuid.
func NewRelay(st *store.Store, bus *Bus, sink irc.Sink, resolver identity.Resolver) *Relay {
	return &Relay{
		store:    st,
		bus:      bus,
		sink:     sink,
		resolver: resolver,
		logger:   logx.Logger().With().Str("component", "relay").Logger(),
	}
}

// Run drains the bus until ctx is cancelled. Start once at process boot.
func (r *Relay) Run(ctx context.Context) {
	sub := r.bus.Subscribe()
	defer sub.Cancel()

	r.logger.Info().Msg("Relay task started")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("Relay task stopped")
			return

		case env, ok := <-sub.C:
			if !ok {
				return
			}
			r.handle(ctx, env)
		}
	}
}

// handle resolves one envelope. The switch is exhaustive over every kind;
// kinds the relay task does not own are listed and skipped explicitly.
func (r *Relay) handle(ctx context.Context, env Envelope) {
	switch e := env.(type) {
	case PresenceRequest:
		r.bus.Publish(PresenceResponse{
			UserID:      e.UserID,
			IsOnline:    r.store.IsConnected(e.UserID),
			RequesterID: e.RequesterID,
			Nonce:       e.Nonce,
		})

	case PresenceBulkRequest:
		users := make(map[uuid.UUID]bool, len(e.UserIDs))
		for _, id := range e.UserIDs {
			users[id] = r.store.IsConnected(id)
		}
		r.bus.Publish(PresenceBulkResponse{
			Users:       users,
			RequesterID: e.RequesterID,
			Nonce:       e.Nonce,
		})

	case RelayCreate:
		r.deliver(ctx, e)

	case PresenceResponse, PresenceBulkResponse, Pong, ErrorReport,
		CosmeticsUpdate, Broadcast, RelayCreated:
		// Resolved by the per-connection write pumps.
	}
}

// deliver pushes one chat line to the external sink, then republishes the
// display event. Local fan-out is deliberately decoupled from external
// delivery: a sink failure is logged, never retried, and never suppresses
// the local line.
func (r *Relay) deliver(ctx context.Context, e RelayCreate) {
	sender := e.Sender.String()
	if r.resolver != nil {
		if name, err := r.resolver.Username(ctx, e.Sender); err == nil {
			sender = name
		} else {
			r.logger.Warn().Err(err).Stringer("sender", e.Sender).Msg("Display name lookup failed")
		}
	}

	if err := r.sink.Deliver(ctx, sender, e.Message); err != nil {
		r.logger.Error().Err(err).Stringer("sender", e.Sender).Msg("External relay delivery failed")
	}

	r.bus.Publish(RelayCreated{Message: e.Message, Sender: e.Sender, Date: e.Date})
}
