package orders

const (
	TopicOrderCreated     = "order.created"
	TopicPaymentCompleted = "order.payment.completed"
	TopicPaymentFailed    = "order.payment.failed"
)

// Partition key = order_id so all events of one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
