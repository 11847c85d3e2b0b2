/*
Package irc bridges relayed chat lines to the external chat platform.

Delivery is at-most-once: a failed delivery is logged by the caller and never
retried, and local display fan-out does not depend on it.
*/
package irc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Sink delivers one sanitized chat line to the external channel.
type Sink interface {
	Deliver(ctx context.Context, sender, text string) error
}

// Webhook posts chat lines to a Discord-compatible webhook URL.
type Webhook struct {
	URL    string
	Client *http.Client
}

// NewWebhook builds a webhook sink with a bounded request timeout.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Deliver implements Sink.
func (w *Webhook) Deliver(ctx context.Context, sender, text string) error {
	payload, err := json.Marshal(map[string]string{
		"content": fmt.Sprintf("%s: %s", sender, text),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := w.Client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return fmt.Errorf("webhook responded %d", res.StatusCode)
	}

	return nil
}

// Discard is the sink used when no external channel is configured.
type Discard struct{}

// Deliver implements Sink as a no-op.
func (Discard) Deliver(context.Context, string, string) error {
	return nil
}
