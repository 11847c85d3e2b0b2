/*
Package hub implements the connection/session core: the internal multicast
bus, the per-connection protocol state machine with its paired pump
goroutines, and the supervisory relay task.

This file defines the closed set of envelopes exchanged on the bus.
Envelopes are immutable values; the bus hands each subscriber its own copy.
The Envelope interface is sealed so the two boundary switches (write pump and
relay task) can enumerate every kind.
*/
package hub

import "github.com/google/uuid"

// Envelope is an internal bus message. Implementations are the only message
// kinds that may cross the bus.
type Envelope interface {
	envelope()
}

// PresenceRequest asks the relay task whether UserID has a live session.
type PresenceRequest struct {
	UserID      uuid.UUID
	RequesterID uuid.UUID
	Nonce       *string
}

// PresenceBulkRequest asks the relay task for the presence of every id in
// UserIDs, answered as one response.
type PresenceBulkRequest struct {
	UserIDs     []uuid.UUID
	RequesterID uuid.UUID
	Nonce       *string
}

// PresenceResponse answers a PresenceRequest, addressed to RequesterID.
type PresenceResponse struct {
	UserID      uuid.UUID
	IsOnline    bool
	RequesterID uuid.UUID
	Nonce       *string
}

// PresenceBulkResponse answers a PresenceBulkRequest, addressed to RequesterID.
type PresenceBulkResponse struct {
	Users       map[uuid.UUID]bool
	RequesterID uuid.UUID
	Nonce       *string
}

// Pong echoes a client ping back to its own connection.
type Pong struct {
	RequesterID uuid.UUID
	Nonce       *string
}

// ErrorReport carries a protocol error addressed to one requester.
type ErrorReport struct {
	RequesterID uuid.UUID
	Error       string
	Nonce       *string
}

// CosmeticsUpdate announces a completed cosmetic assignment. The requester
// receives the full updated shape, every other connection an ack.
type CosmeticsUpdate struct {
	RequesterID uuid.UUID
	CosmeticID  *uint8
	Nonce       *string
}

// Broadcast delivers a message to the identities in To, or to every
// connection when To is empty.
type Broadcast struct {
	Message string
	To      []uuid.UUID
}

// RelayCreate is a sanitized chat line awaiting external delivery by the
// relay task. Date is the capture-time wall clock in Unix milliseconds.
type RelayCreate struct {
	Message string
	Sender  uuid.UUID
	Date    int64
}

// RelayCreated is the display event republished by the relay task; every
// connection shows it regardless of external delivery outcome.
type RelayCreated struct {
	Message string
	Sender  uuid.UUID
	Date    int64
}

func (PresenceRequest) envelope()      {}
func (PresenceBulkRequest) envelope()  {}
func (PresenceResponse) envelope()     {}
func (PresenceBulkResponse) envelope() {}
func (Pong) envelope()                 {}
func (ErrorReport) envelope()          {}
func (CosmeticsUpdate) envelope()      {}
func (Broadcast) envelope()            {}
func (RelayCreate) envelope()          {}
func (RelayCreated) envelope()         {}
