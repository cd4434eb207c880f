package sns

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Confirmer completes the subscription handshake by fetching the
// SubscribeURL SNS supplies. A failed confirmation is not retried here; SNS
// redelivers the confirmation request on its own schedule.
type Confirmer struct {
	client *http.Client
}

func NewConfirmer(client *http.Client) *Confirmer {
	return &Confirmer{client: client}
}

func (c *Confirmer) Confirm(ctx context.Context, subscribeURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, subscribeURL, nil)
	if err != nil {
		return fmt.Errorf("building confirmation request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("confirming subscription: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("confirming subscription: status %d", resp.StatusCode)
	}
	return nil
}
