package orders

import (
	"encoding/json"
	"time"
)

type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type CartCost struct {
	SubtotalAmount Money `json:"subtotalAmount"`
	TotalAmount    Money `json:"totalAmount"`
	TotalTaxAmount Money `json:"totalTaxAmount"`
}

// CartSnapshot is the cart as the storefront sends it at checkout. Lines are
// kept raw and stored verbatim on the order so historical orders survive
// later catalog edits.
type CartSnapshot struct {
	ID    string          `json:"id"`
	Lines json.RawMessage `json:"lines"`
	Cost  CartCost        `json:"cost"`
}

type CustomerInfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// LineItem is the parsed view of one stored cart line, read back when
// building the PayDunya invoice item list.
type LineItem struct {
	Quantity int `json:"quantity"`
	Cost     struct {
		TotalAmount Money `json:"totalAmount"`
	} `json:"cost"`
	Merchandise struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Product struct {
			Title string `json:"title"`
		} `json:"product"`
	} `json:"merchandise"`
}

type Order struct {
	ID                 string          `json:"id"`
	CartID             *string         `json:"cart_id,omitempty"`
	CustomerEmail      string          `json:"customer_email"`
	CustomerName       string          `json:"customer_name"`
	CustomerPhone      string          `json:"customer_phone"`
	ShippingAddress    json.RawMessage `json:"shipping_address"`
	SubtotalAmount     int64           `json:"subtotal_amount"`
	TaxAmount          int64           `json:"tax_amount"`
	TotalAmount        int64           `json:"total_amount"`
	CurrencyCode       string          `json:"currency_code"`
	LineItems          json.RawMessage `json:"line_items"`
	Status             OrderStatus     `json:"status"`
	PaymentStatus      PaymentStatus   `json:"payment_status"`
	PaydunyaToken      *string         `json:"paydunya_token,omitempty"`
	PaydunyaInvoiceURL *string         `json:"paydunya_invoice_url,omitempty"`
	PaymentMethod      *string         `json:"payment_method,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	PaidAt             *time.Time      `json:"paid_at,omitempty"`
}

type Transaction struct {
	ID               string          `json:"id"`
	OrderID          string          `json:"order_id"`
	PaydunyaToken    string          `json:"paydunya_token"`
	Amount           int64           `json:"amount"`
	CurrencyCode     string          `json:"currency_code"`
	PaymentMethod    string          `json:"payment_method"`
	Status           string          `json:"status"`
	PaydunyaResponse json.RawMessage `json:"paydunya_response,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ParseLineItems decodes the stored cart lines of an order.
func (o *Order) ParseLineItems() ([]LineItem, error) {
	var items []LineItem
	if len(o.LineItems) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(o.LineItems, &items); err != nil {
		return nil, err
	}
	return items, nil
}
