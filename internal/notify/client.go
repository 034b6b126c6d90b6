// Package notify posts order receipt notifications to a configured sink
// (typically the merchant back office or a mail relay).
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Receipt struct {
	OrderID       string `json:"order_id"`
	CustomerEmail string `json:"customer_email"`
	Amount        int64  `json:"amount"`
	CurrencyCode  string `json:"currency_code"`
	PaymentMethod string `json:"payment_method,omitempty"`
	Status        string `json:"status"`
}

type Client struct {
	URL        string
	HTTPClient *http.Client
}

func New(url string) *Client {
	return &Client{URL: url, HTTPClient: &http.Client{Timeout: 10 * time.Second}}
}

func (c *Client) Send(ctx context.Context, r Receipt) error {
	if c.URL == "" {
		return nil // notifications disabled
	}
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify order %s: %w", r.OrderID, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify order %s: status %d", r.OrderID, resp.StatusCode)
	}
	return nil
}
