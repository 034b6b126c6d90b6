package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/allsale/allsale-api/internal/kafka"
	"github.com/allsale/allsale-api/internal/orders"
	"github.com/allsale/allsale-api/internal/redisx"
)

// Worker consumes payment events and posts customer receipts.
type Worker struct {
	Notify      *Client
	Redis       *redis.Client
	ServiceName string
}

// HandlePaymentEvent is installed as the consumer handler for both the
// payment.completed and payment.failed topics.
func (w *Worker) HandlePaymentEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		return err
	}

	// dedup via Redis on event_id; redelivery after a crash sends at most
	// one duplicate receipt.
	dkey := fmt.Sprintf(redisx.KeyNotifierDedup, env.EventID)
	if exists, _ := redisx.Exists(ctx, w.Redis, dkey); exists {
		return nil
	}

	var rcpt Receipt
	switch env.EventType {
	case orders.EventPaymentCompleted:
		p, err := kafkax.UnwrapPayload[orders.PaymentCompletedPayload](env.Payload)
		if err != nil {
			return err
		}
		rcpt = Receipt{
			OrderID:       p.OrderID,
			CustomerEmail: p.CustomerEmail,
			Amount:        p.Amount,
			CurrencyCode:  p.CurrencyCode,
			PaymentMethod: p.PaymentMethod,
			Status:        "completed",
		}
	case orders.EventPaymentFailed:
		p, err := kafkax.UnwrapPayload[orders.PaymentFailedPayload](env.Payload)
		if err != nil {
			return err
		}
		rcpt = Receipt{
			OrderID:       p.OrderID,
			CustomerEmail: p.CustomerEmail,
			Status:        "failed",
		}
	default:
		return nil // ignore
	}

	// Receipts are best effort: one immediate retry, then give up and
	// commit so the partition does not stall on a dead sink.
	if err := w.Notify.Send(ctx, rcpt); err != nil {
		log.Printf("notify order %s: %v (retrying)", rcpt.OrderID, err)
		if err := w.Notify.Send(ctx, rcpt); err != nil {
			log.Printf("notify order %s failed twice: %v", rcpt.OrderID, err)
			return nil
		}
	}

	_ = w.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	log.Printf("receipt sent: order=%s status=%s", rcpt.OrderID, rcpt.Status)
	return nil
}
