// Package notify delivers best-effort webhooks to the external comms
// service.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Webhook posts notification events to a single endpoint. Deliveries are
// best-effort; callers log failures and move on.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates a webhook notifier for the given endpoint URL.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type completedEvent struct {
	Event         string `json:"event"`
	WalletAddress string `json:"walletAddress"`
	Amount        string `json:"amount"`
}

// DisbursementCompleted posts a completion notification.
func (w *Webhook) DisbursementCompleted(ctx context.Context, walletAddress, amount string) error {
	return w.post(ctx, completedEvent{
		Event:         "disbursement.completed",
		WalletAddress: walletAddress,
		Amount:        amount,
	})
}

func (w *Webhook) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
