/*
Package hub implements the connection/session core.

This file is the per-connection protocol state machine:

	Handshaking -> Authenticated -> Terminating -> Closed

A session begins in Handshaking, where every frame is discarded until a
connect frame arrives and the external verifier accepts it. Authenticated
sessions run a paired write pump and read pump whose lifetimes are coupled:
whichever exits first forces the other down (the read pump by context
cancellation, the write pump by closing the socket out from under the
blocked read). Closed clears the identity's connected flag and drops the bus
subscription.
*/
package hub

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"prismhub/internal/app/store"
	"prismhub/internal/pkg/logx"
	"prismhub/internal/pkg/sanitize"
)

const (
	// timeout for writes to the websocket connection.
	writeWait = 10 * time.Second

	// maximum time to wait for a pong after sending a ping.
	pongWait = 60 * time.Second

	// frequency of transport-level pings.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of an inbound frame.
	maxMessageSize = 8192

	// relay limiter: fixed 4 chat-relay creations per minute, burst 8.
	relayQuotaPerMinute = 4
	relayBurst          = 8

	// MaxBulkLookup caps the identities accepted in one bulk presence
	// request, bounding relay-task work per request.
	MaxBulkLookup = 128
)

// Session is the ephemeral state of one live socket.
type Session struct {
	hub  *Hub
	conn *websocket.Conn

	// id and name are assigned once by the handshake and immutable after.
	id   uuid.UUID
	name string

	sub     *Subscription
	general *rate.Limiter
	relay   *rate.Limiter
	logger  zerolog.Logger
}

// ServeConn drives one connection from handshake to teardown. It blocks
// until the session is closed and always leaves the socket closed.
func (h *Hub) ServeConn(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	s := &Session{
		hub:  h,
		conn: conn,
		general: rate.NewLimiter(
			rate.Limit(float64(h.quotaPerMinute)/60.0), h.quotaPerMinute),
		relay: rate.NewLimiter(
			rate.Limit(float64(relayQuotaPerMinute)/60.0), relayBurst),
		logger: logx.Logger().With().Str("component", "session").Logger(),
	}

	conn.SetReadLimit(maxMessageSize)

	if !s.handshake(ctx) {
		return
	}

	s.logger = s.logger.With().
		Stringer("user_id", s.id).
		Str("username", s.name).
		Logger()

	// The acknowledgement must reach the client before anything else is
	// delivered; failure here terminates the session without spawning tasks.
	if err := s.writeFrame(TypeConnected, true); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to deliver connected ack")
		return
	}

	h.store.SetConnected(s.id, true)
	defer h.store.SetConnected(s.id, false)

	// Subscribe before announcing anything so the session cannot miss
	// envelopes published between ack and pump start.
	s.sub = h.bus.Subscribe()
	defer s.sub.Cancel()

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.logger.Info().Msg("Session authenticated")

	go s.writePump(sessionCtx, cancel)
	s.readPump(cancel)

	s.logger.Info().Msg("Session closed")
}

// handshake discards frames until a valid connect frame arrives, then calls
// the external verifier. Returns false when the session must close without
// entering the authenticated state.
func (s *Session) handshake(ctx context.Context) bool {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return false
		}

		msg, err := parseClientFrame(data)
		if err != nil {
			continue
		}

		connect, ok := msg.(ConnectMessage)
		if !ok {
			continue
		}

		verified, err := s.hub.verifier.Verify(ctx, connect.ServerID, connect.Username)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("claimed_username", connect.Username).
				Msg("Session verification failed")
			return false
		}

		s.id = verified.ID
		s.name = verified.Name
		return true
	}
}

// writePump consumes the bus subscription, filters envelopes addressed to
// this session, and serializes them to the socket. On exit it cancels the
// session context and closes the socket, unblocking the read pump.
func (s *Session) writePump(ctx context.Context, cancel context.CancelFunc) {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		cancel()
		s.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case env, ok := <-s.sub.C:
			if !ok {
				return
			}

			t, content, deliver := s.frameFor(env)
			if !deliver {
				continue
			}

			if err := s.writeFrame(t, content); err != nil {
				s.logger.Debug().Err(err).Msg("Socket write failed")
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// frameFor applies the addressing rule to one envelope. The switch is
// exhaustive over every envelope kind; request-shaped kinds are resolved by
// the relay task and never reach a client directly.
func (s *Session) frameFor(env Envelope) (string, any, bool) {
	switch e := env.(type) {
	case PresenceResponse:
		if e.RequesterID != s.id {
			return "", nil, false
		}
		return TypeIsOnline, isOnlineContent{IsOnline: e.IsOnline, UUID: e.UserID, Nonce: e.Nonce}, true

	case PresenceBulkResponse:
		if e.RequesterID != s.id {
			return "", nil, false
		}
		return TypeIsOnlineBulk, isOnlineBulkContent{Users: e.Users, Nonce: e.Nonce}, true

	case Pong:
		if e.RequesterID != s.id {
			return "", nil, false
		}
		return TypePong, e.Nonce, true

	case ErrorReport:
		if e.RequesterID != s.id {
			return "", nil, false
		}
		return TypeError, errorContent{Error: e.Error, Nonce: e.Nonce}, true

	case CosmeticsUpdate:
		// One internal event, two wire shapes: the requester gets the full
		// update, everyone else an ack.
		if e.RequesterID == s.id {
			return TypeCosmeticsUpdated, cosmeticsUpdatedContent{CosmeticID: e.CosmeticID, Nonce: e.Nonce}, true
		}
		return TypeCosmeticsAck, nil, true

	case Broadcast:
		if len(e.To) == 0 {
			return TypeBroadcast, e.Message, true
		}
		for _, target := range e.To {
			if target == s.id {
				return TypeBroadcast, e.Message, true
			}
		}
		return "", nil, false

	case RelayCreated:
		return TypeIrcCreated, ircCreatedContent{Message: e.Message, Sender: e.Sender, Date: e.Date}, true

	case PresenceRequest, PresenceBulkRequest, RelayCreate:
		return "", nil, false
	}

	return "", nil, false
}

// readPump reads frames from the socket, applies the general rate limiter,
// and dispatches typed messages into bus publications. On exit it cancels
// the session context, taking the write pump down with it.
func (s *Session) readPump(cancel context.CancelFunc) {
	defer cancel()

	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug().Err(err).Msg("Socket read ended")
			}
			return
		}

		s.hub.countInbound()

		// Over-limit frames are dropped silently; the client gets no signal
		// and the token is not consumed against future frames.
		if !s.general.Allow() {
			s.logger.Debug().Msg("General rate limit exceeded, dropping frame")
			continue
		}

		msg, err := parseClientFrame(data)
		if err != nil {
			// Unparseable frames become self-addressed errors so clients
			// can debug their own traffic.
			s.hub.bus.Publish(ErrorReport{RequesterID: s.id, Error: err.Error()})
			continue
		}

		s.dispatch(msg)
	}
}

// dispatch turns one inbound message into bus publications. Exhaustive over
// every client message kind.
func (s *Session) dispatch(msg ClientMessage) {
	switch m := msg.(type) {
	case ConnectMessage:
		// Only one connect attempt is honored per session.
		s.hub.bus.Publish(ErrorReport{RequesterID: s.id, Error: "Already connected"})

	case ClientErrorMessage:
		s.hub.bus.Publish(ErrorReport{RequesterID: s.id, Error: m.Error, Nonce: m.Nonce})

	case IsOnlineMessage:
		s.hub.bus.Publish(PresenceRequest{UserID: m.UUID, RequesterID: s.id, Nonce: m.Nonce})

	case IsOnlineBulkMessage:
		if len(m.UUIDs) > MaxBulkLookup {
			s.hub.bus.Publish(ErrorReport{RequesterID: s.id, Error: "Too many uuids in bulk request", Nonce: m.Nonce})
			return
		}
		s.hub.bus.Publish(PresenceBulkRequest{UserIDs: m.UUIDs, RequesterID: s.id, Nonce: m.Nonce})

	case PingMessage:
		s.hub.bus.Publish(Pong{RequesterID: s.id, Nonce: m.Nonce})

	case CosmeticsUpdateMessage:
		s.applyCosmetic(m)

	case IrcCreateMessage:
		s.relayChat(m)
	}
}

// applyCosmetic runs the store transaction and maps its outcome onto the
// wire: a sentinel error becomes a self-addressed error, success fans out as
// a cosmetics update.
func (s *Session) applyCosmetic(m CosmeticsUpdateMessage) {
	err := s.hub.store.ApplyCosmetic(s.id, m.CosmeticID)

	switch {
	case err == nil:
		s.hub.bus.Publish(CosmeticsUpdate{RequesterID: s.id, CosmeticID: m.CosmeticID, Nonce: m.Nonce})

	case errors.Is(err, store.ErrNoCosmetics):
		s.hub.bus.Publish(ErrorReport{RequesterID: s.id, Error: "You don't have any cosmetics", Nonce: m.Nonce})

	case errors.Is(err, store.ErrCosmeticNotFound):
		s.hub.bus.Publish(ErrorReport{RequesterID: s.id, Error: "Cosmetic not found", Nonce: m.Nonce})

	case errors.Is(err, store.ErrNotEntitled):
		s.hub.bus.Publish(ErrorReport{RequesterID: s.id, Error: "You don't have this cosmetic", Nonce: m.Nonce})
	}
}

// relayChat gates a chat-relay creation: blacklist first, then the relay
// limiter, then sanitization. Both rejections are silent by design of the
// protocol: the client receives no signal.
func (s *Session) relayChat(m IrcCreateMessage) {
	if s.hub.store.IsBlacklisted(s.id) {
		return
	}

	if !s.relay.Allow() {
		s.logger.Debug().Msg("Relay rate limit exceeded, dropping chat line")
		return
	}

	s.hub.bus.Publish(RelayCreate{
		Message: sanitize.Message(m.Message),
		Sender:  s.id,
		Date:    time.Now().UnixMilli(),
	})
}

// writeFrame serializes one outbound frame under the write deadline.
func (s *Session) writeFrame(t string, content any) error {
	data, err := encodeFrame(t, content)
	if err != nil {
		return err
	}

	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}
