package hub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"prismhub/internal/app/identity"
	"prismhub/internal/app/irc"
	"prismhub/internal/app/store"
)

// stubVerifier accepts exactly the usernames it was built with.
type stubVerifier struct {
	ids map[string]uuid.UUID
}

func (v stubVerifier) Verify(_ context.Context, _, username string) (identity.Verified, error) {
	id, ok := v.ids[username]
	if !ok {
		return identity.Verified{}, errors.New("unknown session")
	}
	return identity.Verified{ID: id, Name: username}, nil
}

// newDispatchSession builds a session wired to a fresh hub, bypassing the
// socket layer, plus a probe subscription observing everything it publishes.
func newDispatchSession(t *testing.T, st *store.Store) (*Session, *Subscription) {
	t.Helper()

	b := NewBus()
	h := NewHub(st, b, nil, Config{})

	probe := b.Subscribe()
	t.Cleanup(probe.Cancel)

	s := &Session{
		hub:     h,
		id:      uuid.New(),
		general: rate.NewLimiter(rate.Inf, 0),
		relay: rate.NewLimiter(
			rate.Limit(float64(relayQuotaPerMinute)/60.0), relayBurst),
		logger: zerolog.Nop(),
	}
	return s, probe
}

func TestDispatchSecondConnect(t *testing.T) {
	s, probe := newDispatchSession(t, store.New())

	s.dispatch(ConnectMessage{ServerID: "s", Username: "again"})

	got := drainSub(probe)
	require.Len(t, got, 1)
	report := got[0].(ErrorReport)
	assert.Equal(t, s.id, report.RequesterID)
	assert.Equal(t, "Already connected", report.Error)
}

func TestDispatchPingPong(t *testing.T) {
	s, probe := newDispatchSession(t, store.New())

	s.dispatch(PingMessage{Nonce: strPtr("n1")})
	s.dispatch(PingMessage{})

	got := drainSub(probe)
	require.Len(t, got, 2)

	first := got[0].(Pong)
	assert.Equal(t, s.id, first.RequesterID)
	require.NotNil(t, first.Nonce)
	assert.Equal(t, "n1", *first.Nonce)
	assert.Nil(t, got[1].(Pong).Nonce)
}

func TestDispatchIsOnline(t *testing.T) {
	s, probe := newDispatchSession(t, store.New())
	target := uuid.New()

	s.dispatch(IsOnlineMessage{UUID: target, Nonce: strPtr("n2")})

	got := drainSub(probe)
	require.Len(t, got, 1)
	req := got[0].(PresenceRequest)
	assert.Equal(t, target, req.UserID)
	assert.Equal(t, s.id, req.RequesterID)
	require.NotNil(t, req.Nonce)
	assert.Equal(t, "n2", *req.Nonce)
}

func TestDispatchBulkCap(t *testing.T) {
	s, probe := newDispatchSession(t, store.New())

	atCap := make([]uuid.UUID, MaxBulkLookup)
	s.dispatch(IsOnlineBulkMessage{UUIDs: atCap})

	got := drainSub(probe)
	require.Len(t, got, 1)
	assert.Len(t, got[0].(PresenceBulkRequest).UserIDs, MaxBulkLookup)

	overCap := make([]uuid.UUID, MaxBulkLookup+1)
	s.dispatch(IsOnlineBulkMessage{UUIDs: overCap, Nonce: strPtr("n3")})

	got = drainSub(probe)
	require.Len(t, got, 1)
	report := got[0].(ErrorReport)
	assert.Equal(t, s.id, report.RequesterID)
	assert.Equal(t, "Too many uuids in bulk request", report.Error)
	require.NotNil(t, report.Nonce)
	assert.Equal(t, "n3", *report.Nonce)
}

func TestApplyCosmeticOutcomes(t *testing.T) {
	st := store.New()
	st.PutCosmetic(store.Cosmetic{ID: 1, Name: "Dev Prefix", RequiredFlags: store.FlagDeveloper})

	s, probe := newDispatchSession(t, st)

	// No record at all.
	s.dispatch(CosmeticsUpdateMessage{CosmeticID: uint8Ptr(1), Nonce: strPtr("a")})

	got := drainSub(probe)
	require.Len(t, got, 1)
	assert.Equal(t, "You don't have any cosmetics", got[0].(ErrorReport).Error)

	// Known user without the required flag.
	st.MutateUser(s.id, func(u *store.UserRecord) { u.Flags = store.FlagStaff })
	s.dispatch(CosmeticsUpdateMessage{CosmeticID: uint8Ptr(1), Nonce: strPtr("b")})

	got = drainSub(probe)
	require.Len(t, got, 1)
	report := got[0].(ErrorReport)
	assert.Equal(t, "You don't have this cosmetic", report.Error)
	require.NotNil(t, report.Nonce)
	assert.Equal(t, "b", *report.Nonce)

	u, _ := st.GetUser(s.id)
	assert.Nil(t, u.EnabledPrefix, "failed update must leave the store unchanged")

	// Unknown cosmetic id.
	s.dispatch(CosmeticsUpdateMessage{CosmeticID: uint8Ptr(99)})

	got = drainSub(probe)
	require.Len(t, got, 1)
	assert.Equal(t, "Cosmetic not found", got[0].(ErrorReport).Error)

	// Entitled: the update fans out.
	st.MutateUser(s.id, func(u *store.UserRecord) { u.Flags = store.FlagDeveloper })
	s.dispatch(CosmeticsUpdateMessage{CosmeticID: uint8Ptr(1), Nonce: strPtr("c")})

	got = drainSub(probe)
	require.Len(t, got, 1)
	update := got[0].(CosmeticsUpdate)
	assert.Equal(t, s.id, update.RequesterID)
	require.NotNil(t, update.CosmeticID)
	assert.Equal(t, uint8(1), *update.CosmeticID)

	u, _ = st.GetUser(s.id)
	require.NotNil(t, u.EnabledPrefix)
	assert.Equal(t, uint8(1), *u.EnabledPrefix)
}

func TestRelayChatLimiter(t *testing.T) {
	s, probe := newDispatchSession(t, store.New())

	for i := 0; i < 25; i++ {
		s.dispatch(IrcCreateMessage{Message: "hello"})
	}

	// The relay limiter admits the burst and silently drops the rest.
	assert.Len(t, drainSub(probe), relayBurst)
}

func TestRelayChatBlacklistPrecedesLimiter(t *testing.T) {
	st := store.New()
	s, probe := newDispatchSession(t, st)

	st.MutateUser(s.id, func(u *store.UserRecord) { u.IrcBlacklisted = true })

	for i := 0; i < 30; i++ {
		s.dispatch(IrcCreateMessage{Message: "spam"})
	}
	assert.Empty(t, drainSub(probe), "blacklisted chat must be dropped silently")

	// The drops above consumed no relay tokens.
	st.MutateUser(s.id, func(u *store.UserRecord) { u.IrcBlacklisted = false })
	s.dispatch(IrcCreateMessage{Message: "back"})

	got := drainSub(probe)
	require.Len(t, got, 1)
	assert.Equal(t, "back", got[0].(RelayCreate).Message)
}

func TestRelayChatSanitizes(t *testing.T) {
	s, probe := newDispatchSession(t, store.New())

	s.dispatch(IrcCreateMessage{Message: "hi ☃ there"})

	got := drainSub(probe)
	require.Len(t, got, 1)
	created := got[0].(RelayCreate)
	assert.Equal(t, "hi  there", created.Message)
	assert.Equal(t, s.id, created.Sender)
	assert.InDelta(t, time.Now().UnixMilli(), created.Date, 2000)
}

func TestFrameForAddressing(t *testing.T) {
	s, _ := newDispatchSession(t, store.New())
	other := uuid.New()

	tests := []struct {
		name     string
		env      Envelope
		wantT    string
		delivers bool
	}{
		{"own presence response", PresenceResponse{RequesterID: s.id}, TypeIsOnline, true},
		{"foreign presence response", PresenceResponse{RequesterID: other}, "", false},
		{"own pong", Pong{RequesterID: s.id}, TypePong, true},
		{"foreign pong", Pong{RequesterID: other}, "", false},
		{"own error", ErrorReport{RequesterID: s.id, Error: "x"}, TypeError, true},
		{"foreign error", ErrorReport{RequesterID: other, Error: "x"}, "", false},
		{"own cosmetics update", CosmeticsUpdate{RequesterID: s.id}, TypeCosmeticsUpdated, true},
		{"foreign cosmetics update", CosmeticsUpdate{RequesterID: other}, TypeCosmeticsAck, true},
		{"broadcast to everyone", Broadcast{Message: "m"}, TypeBroadcast, true},
		{"broadcast including us", Broadcast{Message: "m", To: []uuid.UUID{other, s.id}}, TypeBroadcast, true},
		{"broadcast excluding us", Broadcast{Message: "m", To: []uuid.UUID{other}}, "", false},
		{"relay created reaches all", RelayCreated{Sender: other}, TypeIrcCreated, true},
		{"request kinds never surface", PresenceRequest{RequesterID: s.id}, "", false},
		{"bulk request never surfaces", PresenceBulkRequest{RequesterID: s.id}, "", false},
		{"relay create never surfaces", RelayCreate{Sender: s.id}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotT, _, deliver := s.frameFor(tt.env)
			assert.Equal(t, tt.delivers, deliver)
			assert.Equal(t, tt.wantT, gotT)
		})
	}
}

// --- socket-level tests ---

func startHubServer(t *testing.T, h *Hub) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.ServeConn(r.Context(), conn)
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialHub(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendRaw(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

func readWireFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var f Frame
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

func connectClient(t *testing.T, url, username string) *websocket.Conn {
	t.Helper()

	conn := dialHub(t, url)
	sendRaw(t, conn, `{"t":"/connect","c":{"server_id":"srv","username":"`+username+`"}}`)

	f := readWireFrame(t, conn)
	require.Equal(t, TypeConnected, f.T)
	require.JSONEq(t, `true`, string(f.C))
	return conn
}

func waitSubscribers(t *testing.T, b *Bus, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return b.SubscriberCount() == n
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSessionHandshake(t *testing.T) {
	st := store.New()
	idAlice := uuid.New()
	h := NewHub(st, NewBus(), stubVerifier{ids: map[string]uuid.UUID{"alice": idAlice}}, Config{})
	url := startHubServer(t, h)

	conn := dialHub(t, url)

	// Pre-connect traffic of any shape is discarded without a reply.
	sendRaw(t, conn, `{"t":"/ping","c":"early"}`)
	sendRaw(t, conn, `garbage`)
	sendRaw(t, conn, `{"t":"/connect","c":{"server_id":"srv","username":"alice"}}`)

	f := readWireFrame(t, conn)
	assert.Equal(t, TypeConnected, f.T)

	require.Eventually(t, func() bool {
		return st.IsConnected(idAlice)
	}, 2*time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool {
		return !st.IsConnected(idAlice)
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSessionVerificationFailureCloses(t *testing.T) {
	h := NewHub(store.New(), NewBus(), stubVerifier{ids: map[string]uuid.UUID{}}, Config{})
	url := startHubServer(t, h)

	conn := dialHub(t, url)
	sendRaw(t, conn, `{"t":"/connect","c":{"server_id":"srv","username":"nobody"}}`)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "server must close an unverifiable session")
}

func TestSessionDoubleConnect(t *testing.T) {
	b := NewBus()
	h := NewHub(store.New(), b, stubVerifier{ids: map[string]uuid.UUID{"alice": uuid.New()}}, Config{})
	url := startHubServer(t, h)

	conn := connectClient(t, url, "alice")
	waitSubscribers(t, b, 1)

	sendRaw(t, conn, `{"t":"/connect","c":{"server_id":"srv","username":"alice"}}`)

	f := readWireFrame(t, conn)
	require.Equal(t, TypeError, f.T)
	assert.JSONEq(t, `{"error":"Already connected"}`, string(f.C))
}

func TestSessionBroadcastTargeting(t *testing.T) {
	b := NewBus()
	idAlice, idBob := uuid.New(), uuid.New()
	h := NewHub(store.New(), b,
		stubVerifier{ids: map[string]uuid.UUID{"alice": idAlice, "bob": idBob}}, Config{})
	url := startHubServer(t, h)

	alice := connectClient(t, url, "alice")
	bob := connectClient(t, url, "bob")
	waitSubscribers(t, b, 2)

	b.Publish(Broadcast{Message: "only alice", To: []uuid.UUID{idAlice}})
	b.Publish(Broadcast{Message: "everyone"})

	f := readWireFrame(t, alice)
	require.Equal(t, TypeBroadcast, f.T)
	assert.JSONEq(t, `"only alice"`, string(f.C))

	f = readWireFrame(t, alice)
	require.Equal(t, TypeBroadcast, f.T)
	assert.JSONEq(t, `"everyone"`, string(f.C))

	// Bob's first frame is the untargeted one: the targeted broadcast was
	// filtered out by his write pump.
	f = readWireFrame(t, bob)
	require.Equal(t, TypeBroadcast, f.T)
	assert.JSONEq(t, `"everyone"`, string(f.C))
}

func TestSessionCosmeticsFanout(t *testing.T) {
	st := store.New()
	st.PutCosmetic(store.Cosmetic{ID: 5, Name: "Star"})

	b := NewBus()
	idAlice, idBob := uuid.New(), uuid.New()
	st.MutateUser(idAlice, func(u *store.UserRecord) {})

	h := NewHub(st, b,
		stubVerifier{ids: map[string]uuid.UUID{"alice": idAlice, "bob": idBob}}, Config{})
	url := startHubServer(t, h)

	alice := connectClient(t, url, "alice")
	bob := connectClient(t, url, "bob")
	waitSubscribers(t, b, 2)

	sendRaw(t, alice, `{"t":"/cosmetics/update","c":{"cosmetic_id":5,"nonce":"n7"}}`)

	f := readWireFrame(t, alice)
	require.Equal(t, TypeCosmeticsUpdated, f.T)
	assert.JSONEq(t, `{"cosmetic_id":5,"nonce":"n7"}`, string(f.C))

	f = readWireFrame(t, bob)
	assert.Equal(t, TypeCosmeticsAck, f.T)
	assert.Empty(t, f.C)
}

func TestSessionPresenceEndToEnd(t *testing.T) {
	st := store.New()
	b := NewBus()
	idAlice, idBob := uuid.New(), uuid.New()
	h := NewHub(st, b,
		stubVerifier{ids: map[string]uuid.UUID{"alice": idAlice, "bob": idBob}}, Config{})
	url := startHubServer(t, h)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewRelay(st, b, irc.Discard{}, nil).Run(ctx)

	alice := connectClient(t, url, "alice")
	connectClient(t, url, "bob")
	waitSubscribers(t, b, 3)

	sendRaw(t, alice, `{"t":"/is_online","c":{"uuid":"`+idBob.String()+`","nonce":"q1"}}`)

	f := readWireFrame(t, alice)
	require.Equal(t, TypeIsOnline, f.T)
	assert.JSONEq(t, `{"is_online":true,"uuid":"`+idBob.String()+`","nonce":"q1"}`, string(f.C))

	ghost := uuid.New()
	sendRaw(t, alice, `{"t":"/is_online","c":{"uuid":"`+ghost.String()+`"}}`)

	f = readWireFrame(t, alice)
	require.Equal(t, TypeIsOnline, f.T)
	assert.JSONEq(t, `{"is_online":false,"uuid":"`+ghost.String()+`"}`, string(f.C))
}

func TestSessionMalformedFrameError(t *testing.T) {
	b := NewBus()
	h := NewHub(store.New(), b, stubVerifier{ids: map[string]uuid.UUID{"alice": uuid.New()}}, Config{})
	url := startHubServer(t, h)

	conn := connectClient(t, url, "alice")
	waitSubscribers(t, b, 1)

	sendRaw(t, conn, `{"t":"/no_such_thing","c":{}}`)

	f := readWireFrame(t, conn)
	assert.Equal(t, TypeError, f.T)
}
