// Package paydunya wraps the PayDunya checkout-invoice API: hosted invoice
// creation, invoice status confirmation and webhook key verification.
package paydunya

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	SandboxBaseURL = "https://app.paydunya.com/sandbox-api/v1"
	LiveBaseURL    = "https://app.paydunya.com/api/v1"

	successCode = "00"
)

// GatewayError carries the provider's rejection message or the transport
// error text. Any invoice call that does not come back with response_code
// "00" is a GatewayError.
type GatewayError struct {
	Message string
}

func (e *GatewayError) Error() string { return "paydunya: " + e.Message }

type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	masterKey  string
	privateKey string
	token      string

	StoreName  string
	StoreURL   string
	StorePhone string
}

// New builds a client for the given mode ("live" selects the production API,
// anything else the sandbox).
func New(mode, masterKey, privateKey, token string) *Client {
	base := SandboxBaseURL
	if mode == "live" {
		base = LiveBaseURL
	}
	return &Client{
		BaseURL:    base,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		masterKey:  masterKey,
		privateKey: privateKey,
		token:      token,
		StoreName:  "AllSale",
		StorePhone: "+221000000000",
	}
}

// CreateInvoice issues a single create call; there is no retry. The caller
// re-initiates on failure.
func (c *Client) CreateInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error) {
	payload := invoicePayload{
		Invoice: wireInvoice{
			TotalAmount: req.TotalAmount,
			Description: req.Description,
		},
		Store: wireStore{
			Name:          c.StoreName,
			Tagline:       "Votre marketplace au Sénégal",
			Phone:         c.StorePhone,
			PostalAddress: "Dakar, Sénégal",
			WebsiteURL:    c.StoreURL,
		},
		CustomData: wireCustomData{OrderID: req.OrderID},
		Actions: wireActions{
			ReturnURL:   req.ReturnURL,
			CancelURL:   req.CancelURL,
			CallbackURL: req.CallbackURL,
		},
		Customer: req.Customer,
	}
	if len(req.Items) > 0 {
		payload.Invoice.Items = make(map[string]InvoiceItem, len(req.Items))
		for i, it := range req.Items {
			payload.Invoice.Items[fmt.Sprintf("item_%d", i)] = it
		}
	}

	var resp invoiceResponse
	if err := c.do(ctx, http.MethodPost, "/checkout-invoice/create", payload, &resp); err != nil {
		return nil, err
	}
	if resp.ResponseCode != successCode {
		return nil, &GatewayError{Message: orDefault(resp.ResponseText, "failed to create invoice")}
	}
	return &Invoice{Token: resp.Token, URL: resp.InvoiceURL}, nil
}

func (c *Client) CheckStatus(ctx context.Context, token string) (*StatusResult, error) {
	var resp statusResponse
	if err := c.do(ctx, http.MethodGet, "/checkout-invoice/confirm/"+token, nil, &resp); err != nil {
		return nil, err
	}
	if resp.ResponseCode != successCode {
		return nil, &GatewayError{Message: orDefault(resp.ResponseText, "failed to check status")}
	}
	return &StatusResult{
		Status:      resp.Invoice.Status,
		OrderID:     resp.CustomData.OrderID,
		TotalAmount: resp.Invoice.TotalAmount,
	}, nil
}

// VerifyWebhookKey checks the shared secret PayDunya sends with each IPN.
// Equality against the configured master key is the provider's whole
// authentication scheme; there is no body HMAC or replay protection.
func (c *Client) VerifyWebhookKey(presented string) bool {
	if presented == "" || c.masterKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(c.masterKey)) == 1
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("paydunya: marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return &GatewayError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("PAYDUNYA-MASTER-KEY", c.masterKey)
	req.Header.Set("PAYDUNYA-PRIVATE-KEY", c.privateKey)
	req.Header.Set("PAYDUNYA-TOKEN", c.token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &GatewayError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &GatewayError{Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
