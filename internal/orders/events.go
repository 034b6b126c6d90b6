package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated     = "OrderCreated"
	EventPaymentCompleted = "PaymentCompleted"
	EventPaymentFailed    = "PaymentFailed"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID       string `json:"order_id"`
	CustomerEmail string `json:"customer_email"`
	CustomerName  string `json:"customer_name"`
	TotalAmount   int64  `json:"total_amount"`
	CurrencyCode  string `json:"currency_code"`
}

type PaymentCompletedPayload struct {
	OrderID       string `json:"order_id"`
	Token         string `json:"token"`
	Amount        int64  `json:"amount"`
	CurrencyCode  string `json:"currency_code"`
	PaymentMethod string `json:"payment_method,omitempty"`
	CustomerEmail string `json:"customer_email"`
}

type PaymentFailedPayload struct {
	OrderID        string `json:"order_id"`
	Token          string `json:"token"`
	ProviderStatus string `json:"provider_status"`
	CustomerEmail  string `json:"customer_email"`
}
