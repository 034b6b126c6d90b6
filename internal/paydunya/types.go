package paydunya

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type InvoiceItem struct {
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unit_price"`
	TotalPrice int64  `json:"total_price"`
}

type InvoiceRequest struct {
	OrderID     string
	TotalAmount int64
	Description string
	Customer    Customer
	ReturnURL   string
	CancelURL   string
	CallbackURL string
	Items       []InvoiceItem
}

// Invoice is the outcome of a successful invoice creation: the token
// identifies the invoice, URL is the hosted checkout page.
type Invoice struct {
	Token string
	URL   string
}

type StatusResult struct {
	Status      string
	OrderID     string
	TotalAmount int64
}

// Wire shapes.

type invoicePayload struct {
	Invoice    wireInvoice    `json:"invoice"`
	Store      wireStore      `json:"store"`
	CustomData wireCustomData `json:"custom_data"`
	Actions    wireActions    `json:"actions"`
	Customer   Customer       `json:"customer"`
}

type wireInvoice struct {
	TotalAmount int64  `json:"total_amount"`
	Description string `json:"description"`
	// Items are keyed by position: item_0, item_1, ...
	Items map[string]InvoiceItem `json:"items,omitempty"`
}

type wireStore struct {
	Name          string `json:"name"`
	Tagline       string `json:"tagline"`
	Phone         string `json:"phone"`
	PostalAddress string `json:"postal_address"`
	WebsiteURL    string `json:"website_url"`
}

type wireCustomData struct {
	OrderID string `json:"order_id"`
}

type wireActions struct {
	ReturnURL   string `json:"return_url"`
	CancelURL   string `json:"cancel_url"`
	CallbackURL string `json:"callback_url"`
}

type invoiceResponse struct {
	ResponseCode string `json:"response_code"`
	ResponseText string `json:"response_text"`
	Token        string `json:"token"`
	InvoiceURL   string `json:"invoice_url"`
}

type statusResponse struct {
	ResponseCode string `json:"response_code"`
	ResponseText string `json:"response_text"`
	Invoice      struct {
		Token       string `json:"token"`
		Status      string `json:"status"`
		TotalAmount int64  `json:"total_amount"`
	} `json:"invoice"`
	CustomData struct {
		OrderID string `json:"order_id"`
	} `json:"custom_data"`
}

// WebhookPayload is the IPN body PayDunya posts to the callback URL.
type WebhookPayload struct {
	ResponseCode string `json:"response_code"`
	ResponseText string `json:"response_text"`
	Hash         string `json:"hash"`
	Invoice      struct {
		Token       string `json:"token"`
		Status      string `json:"status"`
		TotalAmount int64  `json:"total_amount"`
	} `json:"invoice"`
	CustomData struct {
		OrderID string `json:"order_id"`
	} `json:"custom_data"`
	Customer   *Customer `json:"customer,omitempty"`
	ReceiptURL string    `json:"receipt_url,omitempty"`
}
