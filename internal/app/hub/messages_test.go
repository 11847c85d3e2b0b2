package hub

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string {
	return &s
}

func uint8Ptr(v uint8) *uint8 {
	return &v
}

func TestParseClientFrameConnect(t *testing.T) {
	msg, err := parseClientFrame([]byte(`{"t":"/connect","c":{"server_id":"abc123","username":"Notch"}}`))
	require.NoError(t, err)

	connect, ok := msg.(ConnectMessage)
	require.True(t, ok)
	assert.Equal(t, "abc123", connect.ServerID)
	assert.Equal(t, "Notch", connect.Username)
}

func TestParseClientFrameIsOnline(t *testing.T) {
	id := uuid.New()
	msg, err := parseClientFrame([]byte(`{"t":"/is_online","c":{"uuid":"` + id.String() + `","nonce":"n1"}}`))
	require.NoError(t, err)

	online, ok := msg.(IsOnlineMessage)
	require.True(t, ok)
	assert.Equal(t, id, online.UUID)
	require.NotNil(t, online.Nonce)
	assert.Equal(t, "n1", *online.Nonce)
}

func TestParseClientFramePing(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		nonce *string
	}{
		{"bare nonce string", `{"t":"/ping","c":"abc"}`, strPtr("abc")},
		{"explicit null", `{"t":"/ping","c":null}`, nil},
		{"absent content", `{"t":"/ping"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := parseClientFrame([]byte(tt.raw))
			require.NoError(t, err)

			ping, ok := msg.(PingMessage)
			require.True(t, ok)
			assert.Equal(t, tt.nonce, ping.Nonce)
		})
	}
}

func TestParseClientFrameCosmeticsUpdate(t *testing.T) {
	msg, err := parseClientFrame([]byte(`{"t":"/cosmetics/update","c":{"cosmetic_id":3,"nonce":"n2"}}`))
	require.NoError(t, err)

	update, ok := msg.(CosmeticsUpdateMessage)
	require.True(t, ok)
	require.NotNil(t, update.CosmeticID)
	assert.Equal(t, uint8(3), *update.CosmeticID)

	// A null id is the "clear my prefix" form.
	msg, err = parseClientFrame([]byte(`{"t":"/cosmetics/update","c":{"cosmetic_id":null}}`))
	require.NoError(t, err)
	assert.Nil(t, msg.(CosmeticsUpdateMessage).CosmeticID)
}

func TestParseClientFrameRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `not json`},
		{"unknown type", `{"t":"/selfdestruct","c":{}}`},
		{"server-only type", `{"t":"/connected","c":true}`},
		{"content type mismatch", `{"t":"/is_online","c":{"uuid":12}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseClientFrame([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestEncodeFrameOmitsNilContent(t *testing.T) {
	data, err := encodeFrame(TypeCosmeticsAck, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":"/cosmetics/ack"}`, string(data))
}

func TestEncodeFrameShapes(t *testing.T) {
	data, err := encodeFrame(TypeConnected, true)
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":"/connected","c":true}`, string(data))

	data, err = encodeFrame(TypeError, errorContent{Error: "Cosmetic not found", Nonce: strPtr("n3")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":"/error","c":{"error":"Cosmetic not found","nonce":"n3"}}`, string(data))

	id := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	data, err = encodeFrame(TypeIrcCreated, ircCreatedContent{Message: "hi", Sender: id, Date: 1700000000000})
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"t":"/irc/created","c":{"message":"hi","sender":"11111111-2222-3333-4444-555555555555","date":1700000000000}}`,
		string(data))
}

func TestNonceRoundTrip(t *testing.T) {
	// The nonce is opaque: whatever the client sent comes back verbatim.
	msg, err := parseClientFrame([]byte(`{"t":"/is_online/bulk","c":{"uuids":[],"nonce":"  weird nonce  "}}`))
	require.NoError(t, err)

	bulk := msg.(IsOnlineBulkMessage)
	require.NotNil(t, bulk.Nonce)

	data, err := encodeFrame(TypeIsOnlineBulk, isOnlineBulkContent{Users: map[uuid.UUID]bool{}, Nonce: bulk.Nonce})
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":"/is_online/bulk","c":{"users":{},"nonce":"  weird nonce  "}}`, string(data))
}
