package orders

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/allsale/allsale-api/internal/kafka"
	"github.com/allsale/allsale-api/internal/paydunya"
)

type Repository interface {
	CreateOrder(ctx context.Context, customer CustomerInfo, shipping json.RawMessage, cart *CartSnapshot) (*Order, error)
	GetOrder(ctx context.Context, id string) (*Order, error)
	GetOrderByToken(ctx context.Context, token string) (*Order, error)
	UpdateOrderPaymentInit(ctx context.Context, orderID, token, invoiceURL, method string) error
	ReconcilePaymentStatus(ctx context.Context, orderID string, ps PaymentStatus, os OrderStatus) error
	RecordTransaction(ctx context.Context, orderID, token string, amount int64, currency, method string) (*Transaction, error)
	UpdateTransactionFromWebhook(ctx context.Context, orderID, token, status string, raw json.RawMessage) error
}

type Gateway interface {
	CreateInvoice(ctx context.Context, req paydunya.InvoiceRequest) (*paydunya.Invoice, error)
	CheckStatus(ctx context.Context, token string) (*paydunya.StatusResult, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Service drives order creation, payment initiation against PayDunya and
// webhook/poll reconciliation.
type Service struct {
	Repo    Repository
	Gateway Gateway

	// Per-topic producers; any of them may be nil (events skipped).
	Created Publisher
	Paid    Publisher
	Failed  Publisher

	ServiceName   string
	PublicBaseURL string
}

type PaymentInit struct {
	RedirectURL string `json:"redirectUrl"`
	Token       string `json:"token"`
}

func (s *Service) CreateOrder(ctx context.Context, customer CustomerInfo, shipping json.RawMessage, cart *CartSnapshot) (*Order, error) {
	o, err := s.Repo.CreateOrder(ctx, customer, shipping, cart)
	if err != nil {
		return nil, err
	}
	s.publish(s.Created, EventOrderCreated, o.ID, OrderCreatedPayload{
		OrderID:       o.ID,
		CustomerEmail: o.CustomerEmail,
		CustomerName:  o.CustomerName,
		TotalAmount:   o.TotalAmount,
		CurrencyCode:  o.CurrencyCode,
	})
	return o, nil
}

// InitiatePayment creates a PayDunya hosted invoice for the order. On gateway
// failure nothing is written; the caller must re-initiate. Each successful
// initiation creates a fresh transaction row.
func (s *Service) InitiatePayment(ctx context.Context, orderID, method, returnURL, cancelURL string) (*PaymentInit, error) {
	if orderID == "" || method == "" || returnURL == "" || cancelURL == "" {
		return nil, ErrValidation
	}
	if !ValidPaymentMethod(method) {
		return nil, ErrValidation
	}

	o, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentStatus == PaymentCompleted {
		return nil, ErrAlreadyPaid
	}

	items, err := o.ParseLineItems()
	if err != nil {
		log.Printf("payment init: bad line items on order %s: %v", o.ID, err)
		items = nil // invoice items are optional on the provider side
	}

	inv, err := s.Gateway.CreateInvoice(ctx, paydunya.InvoiceRequest{
		OrderID:     o.ID,
		TotalAmount: o.TotalAmount,
		Description: "Commande " + o.ID + " - AllSale",
		Customer: paydunya.Customer{
			Name:  o.CustomerName,
			Email: o.CustomerEmail,
			Phone: o.CustomerPhone,
		},
		ReturnURL:   returnURL,
		CancelURL:   cancelURL,
		CallbackURL: s.callbackURL(),
		Items:       invoiceItems(items),
	})
	if err != nil {
		return nil, err
	}

	if err := s.Repo.UpdateOrderPaymentInit(ctx, o.ID, inv.Token, inv.URL, method); err != nil {
		return nil, err
	}
	if _, err := s.Repo.RecordTransaction(ctx, o.ID, inv.Token, o.TotalAmount, o.CurrencyCode, method); err != nil {
		return nil, err
	}

	return &PaymentInit{RedirectURL: inv.URL, Token: inv.Token}, nil
}

// Reconcile applies a provider status onto the order and its transaction.
// It is idempotent: the same provider status applied twice lands on the same
// state and paid_at never regresses.
func (s *Service) Reconcile(ctx context.Context, o *Order, token, providerStatus string, providerAmount int64, raw json.RawMessage) error {
	ps, os := MapProviderStatus(providerStatus)

	if providerAmount != 0 && providerAmount != o.TotalAmount {
		// Policy: trust the provider status, log the discrepancy.
		log.Printf("webhook: amount mismatch on order %s: have %d, provider says %d",
			o.ID, o.TotalAmount, providerAmount)
	}

	if err := s.Repo.ReconcilePaymentStatus(ctx, o.ID, ps, os); err != nil {
		return err
	}
	if err := s.Repo.UpdateTransactionFromWebhook(ctx, o.ID, token, TransactionStatusFor(ps), raw); err != nil {
		return err
	}

	// Emit an event only when the order actually moved into the state.
	switch {
	case ps == PaymentCompleted && o.PaymentStatus != PaymentCompleted:
		s.publish(s.Paid, EventPaymentCompleted, o.ID, PaymentCompletedPayload{
			OrderID:       o.ID,
			Token:         token,
			Amount:        o.TotalAmount,
			CurrencyCode:  o.CurrencyCode,
			PaymentMethod: deref(o.PaymentMethod),
			CustomerEmail: o.CustomerEmail,
		})
	case ps == PaymentFailed && o.PaymentStatus != PaymentFailed:
		s.publish(s.Failed, EventPaymentFailed, o.ID, PaymentFailedPayload{
			OrderID:        o.ID,
			Token:          token,
			ProviderStatus: providerStatus,
			CustomerEmail:  o.CustomerEmail,
		})
	}
	return nil
}

// CheckStatus polls the provider for the invoice status. The order is looked
// up by token and, when present, reconciled through the same mapping the
// webhook uses so a poll never disagrees with a later webhook. Transactions
// are untouched here (the webhook owns them).
func (s *Service) CheckStatus(ctx context.Context, token string) (string, *Order, error) {
	st, err := s.Gateway.CheckStatus(ctx, token)
	if err != nil {
		return "", nil, err
	}

	o, err := s.Repo.GetOrderByToken(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return st.Status, nil, nil
	}
	if err != nil {
		return "", nil, err
	}

	ps, os := MapProviderStatus(st.Status)
	if err := s.Repo.ReconcilePaymentStatus(ctx, o.ID, ps, os); err != nil {
		log.Printf("status poll: reconcile order %s: %v", o.ID, err)
	} else {
		o.PaymentStatus, o.Status = ps, os
		if ps == PaymentCompleted && o.PaidAt == nil {
			now := time.Now().UTC()
			o.PaidAt = &now
		}
	}
	return st.Status, o, nil
}

func (s *Service) callbackURL() string {
	return strings.TrimRight(s.PublicBaseURL, "/") + "/api/webhooks/paydunya"
}

func (s *Service) publish(p Publisher, eventType, orderID string, payload any) {
	if p == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func invoiceItems(items []LineItem) []paydunya.InvoiceItem {
	out := make([]paydunya.InvoiceItem, 0, len(items))
	for _, it := range items {
		total, err := strconv.ParseFloat(it.Cost.TotalAmount.Amount, 64)
		if err != nil || it.Quantity <= 0 {
			continue
		}
		name := it.Merchandise.Product.Title
		if name == "" {
			name = it.Merchandise.Title
		}
		out = append(out, paydunya.InvoiceItem{
			Name:       name,
			Quantity:   it.Quantity,
			UnitPrice:  int64(math.Round(total / float64(it.Quantity))),
			TotalPrice: int64(math.Round(total)),
		})
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
