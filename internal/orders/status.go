package orders

import "strings"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderProcess   OrderStatus = "processing"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
	OrderRefunded  OrderStatus = "refunded"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentCancelled  PaymentStatus = "cancelled"
)

// Transaction statuses. "initiated" only exists on freshly created rows;
// webhooks move it to one of the other three.
const (
	TxInitiated = "initiated"
	TxPending   = "pending"
	TxCompleted = "completed"
	TxFailed    = "failed"
)

var validOrderStatus = map[OrderStatus]bool{
	OrderPending: true, OrderConfirmed: true, OrderProcess: true,
	OrderShipped: true, OrderDelivered: true, OrderCancelled: true, OrderRefunded: true,
}

func ValidOrderStatus(s string) bool { return validOrderStatus[OrderStatus(s)] }

var validMethods = map[string]bool{
	"wave":         true,
	"orange_money": true,
	"free_money":   true,
	"card":         true,
}

func ValidPaymentMethod(m string) bool { return validMethods[m] }

// MapProviderStatus maps a PayDunya invoice status onto the local payment
// and order statuses. Unknown or absent provider statuses count as failed.
func MapProviderStatus(provider string) (PaymentStatus, OrderStatus) {
	switch strings.ToLower(provider) {
	case "completed", "success":
		return PaymentCompleted, OrderConfirmed
	case "pending":
		return PaymentProcessing, OrderPending
	case "cancelled":
		return PaymentCancelled, OrderCancelled
	default:
		return PaymentFailed, OrderPending
	}
}

// TransactionStatusFor returns the transaction status recorded alongside a
// payment status transition.
func TransactionStatusFor(ps PaymentStatus) string {
	switch ps {
	case PaymentCompleted:
		return TxCompleted
	case PaymentFailed:
		return TxFailed
	default:
		return TxPending
	}
}
