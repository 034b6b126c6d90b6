package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

type ListFilter struct {
	Email  string
	Status string
	Limit  int
	Offset int
}

const orderColumns = `id, cart_id, customer_email, customer_name, customer_phone,
	shipping_address, subtotal_amount, tax_amount, total_amount, currency_code,
	line_items, status, payment_status, paydunya_token, paydunya_invoice_url,
	payment_method, created_at, updated_at, paid_at`

// roundAmount converts a decimal-string amount to integer currency units.
// XOF has no minor unit, so this is a plain round of the source amount.
func roundAmount(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return int64(math.Round(f)), nil
}

func (r *Repo) CreateOrder(ctx context.Context, customer CustomerInfo, shipping json.RawMessage, cart *CartSnapshot) (*Order, error) {
	if cart == nil || len(shipping) == 0 || len(cart.Lines) == 0 {
		return nil, ErrValidation
	}
	if customer.Email == "" || customer.Name == "" || customer.Phone == "" {
		return nil, ErrValidation
	}

	subtotal, err := roundAmount(cart.Cost.SubtotalAmount.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	tax, err := roundAmount(cart.Cost.TotalTaxAmount.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	total, err := roundAmount(cart.Cost.TotalAmount.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	currency := cart.Cost.TotalAmount.CurrencyCode
	if currency == "" {
		currency = "XOF"
	}

	o := &Order{
		ID:              NewOrderID(),
		CustomerEmail:   customer.Email,
		CustomerName:    customer.Name,
		CustomerPhone:   customer.Phone,
		ShippingAddress: shipping,
		SubtotalAmount:  subtotal,
		TaxAmount:       tax,
		TotalAmount:     total,
		CurrencyCode:    currency,
		LineItems:       cart.Lines,
		Status:          OrderPending,
		PaymentStatus:   PaymentPending,
	}
	if cart.ID != "" {
		o.CartID = &cart.ID
	}

	err = r.DB.QueryRow(ctx, `
		INSERT INTO orders (id, cart_id, customer_email, customer_name, customer_phone,
			shipping_address, subtotal_amount, tax_amount, total_amount, currency_code,
			line_items, status, payment_status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING created_at, updated_at`,
		o.ID, o.CartID, o.CustomerEmail, o.CustomerName, o.CustomerPhone,
		o.ShippingAddress, o.SubtotalAmount, o.TaxAmount, o.TotalAmount, o.CurrencyCode,
		o.LineItems, o.Status, o.PaymentStatus,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	return o, nil
}

func (r *Repo) GetOrder(ctx context.Context, id string) (*Order, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
	return scanOrder(row)
}

func (r *Repo) GetOrderByToken(ctx context.Context, token string) (*Order, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE paydunya_token=$1`, token)
	return scanOrder(row)
}

// GetOrderByIDAndToken is the webhook lookup: both the correlation order id
// and the invoice token must match the same row.
func (r *Repo) GetOrderByIDAndToken(ctx context.Context, id, token string) (*Order, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1 AND paydunya_token=$2`, id, token)
	return scanOrder(row)
}

func (r *Repo) ListOrders(ctx context.Context, f ListFilter) ([]*Order, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	sql := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`
	args := []any{}
	if f.Email != "" {
		args = append(args, f.Email)
		sql += fmt.Sprintf(" AND customer_email=$%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		sql += fmt.Sprintf(" AND status=$%d", len(args))
	}
	args = append(args, f.Limit, f.Offset)
	sql += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// UpdateOrderPaymentInit records the gateway token after a successful invoice
// creation and moves the payment into processing. Order status is untouched.
func (r *Repo) UpdateOrderPaymentInit(ctx context.Context, orderID, token, invoiceURL, method string) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE orders
		SET paydunya_token=$2, paydunya_invoice_url=$3, payment_method=$4,
		    payment_status=$5, updated_at=now()
		WHERE id=$1`,
		orderID, token, invoiceURL, method, PaymentProcessing)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReconcilePaymentStatus applies a status transition in a single statement.
// paid_at is only ever set when entering completed and never moved or
// cleared afterwards, so the transition is idempotent and race-safe without
// row locks.
func (r *Repo) ReconcilePaymentStatus(ctx context.Context, orderID string, ps PaymentStatus, os OrderStatus) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE orders
		SET payment_status=$2, status=$3, updated_at=now(),
		    paid_at = CASE WHEN $2 = 'completed' THEN COALESCE(paid_at, now()) ELSE paid_at END
		WHERE id=$1`,
		orderID, ps, os)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateOrderStatus is the admin fulfilment path (shipped, delivered, ...).
func (r *Repo) UpdateOrderStatus(ctx context.Context, orderID string, status OrderStatus) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, orderID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) RecordTransaction(ctx context.Context, orderID, token string, amount int64, currency, method string) (*Transaction, error) {
	t := &Transaction{
		ID:            NewTransactionID(),
		OrderID:       orderID,
		PaydunyaToken: token,
		Amount:        amount,
		CurrencyCode:  currency,
		PaymentMethod: method,
		Status:        TxInitiated,
	}
	err := r.DB.QueryRow(ctx, `
		INSERT INTO transactions (id, order_id, paydunya_token, amount, currency_code, payment_method, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		t.ID, t.OrderID, t.PaydunyaToken, t.Amount, t.CurrencyCode, t.PaymentMethod, t.Status,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	return t, nil
}

// UpdateTransactionFromWebhook stores the webhook outcome on the matching
// transaction. A missing row is tolerated (logged, no error): the webhook may
// race ahead of a visible transaction insert.
func (r *Repo) UpdateTransactionFromWebhook(ctx context.Context, orderID, token, status string, raw json.RawMessage) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE transactions
		SET status=$3, paydunya_response=$4, updated_at=now()
		WHERE order_id=$1 AND paydunya_token=$2`,
		orderID, token, status, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		log.Printf("webhook: no transaction for order=%s token=%s", orderID, token)
	}
	return nil
}

func (r *Repo) GetTransactionByToken(ctx context.Context, orderID, token string) (*Transaction, error) {
	t := &Transaction{}
	err := r.DB.QueryRow(ctx, `
		SELECT id, order_id, paydunya_token, amount, currency_code, payment_method, status,
		       coalesce(paydunya_response, 'null'), created_at, updated_at
		FROM transactions WHERE order_id=$1 AND paydunya_token=$2
		ORDER BY created_at DESC LIMIT 1`,
		orderID, token,
	).Scan(&t.ID, &t.OrderID, &t.PaydunyaToken, &t.Amount, &t.CurrencyCode,
		&t.PaymentMethod, &t.Status, &t.PaydunyaResponse, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func scanOrder(row pgx.Row) (*Order, error) {
	o := &Order{}
	err := row.Scan(
		&o.ID, &o.CartID, &o.CustomerEmail, &o.CustomerName, &o.CustomerPhone,
		&o.ShippingAddress, &o.SubtotalAmount, &o.TaxAmount, &o.TotalAmount, &o.CurrencyCode,
		&o.LineItems, &o.Status, &o.PaymentStatus, &o.PaydunyaToken, &o.PaydunyaInvoiceURL,
		&o.PaymentMethod, &o.CreatedAt, &o.UpdatedAt, &o.PaidAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}
