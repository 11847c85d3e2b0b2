/*
Package identity resolves client-claimed credentials to stable identities.

The hub trusts the external verifier's result: a successful verification
yields the canonical uuid and display name for the session, a failure
terminates the handshake.
*/
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Verified is the result of a successful session verification.
type Verified struct {
	ID   uuid.UUID
	Name string
}

// Verifier validates a claimed session. Production implementations may need
// a second call to resolve the claimed name to a stable identity.
type Verifier interface {
	Verify(ctx context.Context, serverID, username string) (Verified, error)
}

// Resolver maps a stable identity back to its current display name.
type Resolver interface {
	Username(ctx context.Context, id uuid.UUID) (string, error)
}

// Mojang verifies sessions against the Mojang session server. In development
// mode the join check is skipped and only the name-to-uuid lookup runs.
type Mojang struct {
	// SessionURL and ProfileURL are the API bases, overridable for tests.
	SessionURL string
	ProfileURL string

	// Development skips the hasJoined check.
	Development bool

	Client *http.Client
}

// NewMojang builds a Mojang verifier with a bounded request timeout.
func NewMojang(sessionURL, profileURL string, development bool) *Mojang {
	return &Mojang{
		SessionURL:  sessionURL,
		ProfileURL:  profileURL,
		Development: development,
		Client:      &http.Client{Timeout: 10 * time.Second},
	}
}

type profileResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Verify implements Verifier.
func (m *Mojang) Verify(ctx context.Context, serverID, username string) (Verified, error) {
	name := username

	if !m.Development {
		joined, err := m.hasJoined(ctx, serverID, username)
		if err != nil {
			return Verified{}, err
		}
		name = joined
	}

	profile, err := m.profileByName(ctx, name)
	if err != nil {
		return Verified{}, err
	}

	return Verified{ID: profile.ID, Name: profile.Name}, nil
}

// Username implements Resolver.
func (m *Mojang) Username(ctx context.Context, id uuid.UUID) (string, error) {
	endpoint := fmt.Sprintf("%s/user/profile/%s", m.ProfileURL, simpleUUID(id))

	var profile profileResponse
	if err := m.getJSON(ctx, endpoint, &profile); err != nil {
		return "", err
	}

	return profile.Name, nil
}

// hasJoined checks the session server and returns the canonical name.
func (m *Mojang) hasJoined(ctx context.Context, serverID, username string) (string, error) {
	endpoint := fmt.Sprintf(
		"%s/session/minecraft/hasJoined?username=%s&serverId=%s",
		m.SessionURL, url.QueryEscape(username), url.QueryEscape(serverID),
	)

	var result struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := m.getJSON(ctx, endpoint, &result); err != nil {
		return "", fmt.Errorf("session not verifiable: %w", err)
	}

	if result.Name == "" {
		return "", fmt.Errorf("session not verifiable for %q", username)
	}

	return result.Name, nil
}

// profileByName resolves a username to its stable uuid.
func (m *Mojang) profileByName(ctx context.Context, name string) (profileResponse, error) {
	endpoint := fmt.Sprintf("%s/users/profiles/minecraft/%s", m.ProfileURL, url.PathEscape(name))

	var profile profileResponse
	if err := m.getJSON(ctx, endpoint, &profile); err != nil {
		return profileResponse{}, fmt.Errorf("profile lookup for %q: %w", name, err)
	}

	return profile, nil
}

func (m *Mojang) getJSON(ctx context.Context, endpoint string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	res, err := m.Client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", res.StatusCode)
	}

	return json.NewDecoder(res.Body).Decode(dst)
}

// simpleUUID renders id without dashes, the form the profile API expects.
func simpleUUID(id uuid.UUID) string {
	b := id.String()
	return b[0:8] + b[9:13] + b[14:18] + b[19:23] + b[24:]
}
