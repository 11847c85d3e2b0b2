package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	notchID     = "069a79f444e94726a5befca90e38aaf5"
	notchDashed = "069a79f4-44e9-4726-a5be-fca90e38aaf5"
)

// fakeMojang emulates the session and profile APIs on one server.
func fakeMojang(t *testing.T, joined bool) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/session/minecraft/hasJoined", func(w http.ResponseWriter, r *http.Request) {
		if !joined {
			// The real API answers 204 with no body for unjoined sessions.
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Write([]byte(`{"id":"` + notchID + `","name":"Notch"}`))
	})

	mux.HandleFunc("/users/profiles/minecraft/", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/users/profiles/minecraft/")
		if name != "Notch" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"id":"` + notchID + `","name":"Notch"}`))
	})

	mux.HandleFunc("/user/profile/", func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimPrefix(r.URL.Path, "/user/profile/") != notchID {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"id":"` + notchID + `","name":"Notch"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestVerifyDevelopmentSkipsJoinCheck(t *testing.T) {
	srv := fakeMojang(t, false)
	m := NewMojang(srv.URL, srv.URL, true)

	verified, err := m.Verify(context.Background(), "ignored", "Notch")
	require.NoError(t, err)
	assert.Equal(t, uuid.MustParse(notchDashed), verified.ID)
	assert.Equal(t, "Notch", verified.Name)
}

func TestVerifyProduction(t *testing.T) {
	srv := fakeMojang(t, true)
	m := NewMojang(srv.URL, srv.URL, false)

	// The canonical name from the join check drives the profile lookup,
	// regardless of the casing the client claimed.
	verified, err := m.Verify(context.Background(), "serverhash", "notch")
	require.NoError(t, err)
	assert.Equal(t, uuid.MustParse(notchDashed), verified.ID)
	assert.Equal(t, "Notch", verified.Name)
}

func TestVerifyProductionUnjoinedSession(t *testing.T) {
	srv := fakeMojang(t, false)
	m := NewMojang(srv.URL, srv.URL, false)

	_, err := m.Verify(context.Background(), "serverhash", "Notch")
	assert.Error(t, err)
}

func TestVerifyUnknownProfile(t *testing.T) {
	srv := fakeMojang(t, false)
	m := NewMojang(srv.URL, srv.URL, true)

	_, err := m.Verify(context.Background(), "ignored", "NoSuchPlayer")
	assert.Error(t, err)
}

func TestUsername(t *testing.T) {
	srv := fakeMojang(t, false)
	m := NewMojang(srv.URL, srv.URL, true)

	name, err := m.Username(context.Background(), uuid.MustParse(notchDashed))
	require.NoError(t, err)
	assert.Equal(t, "Notch", name)

	_, err = m.Username(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestSimpleUUID(t *testing.T) {
	assert.Equal(t, notchID, simpleUUID(uuid.MustParse(notchDashed)))
}
