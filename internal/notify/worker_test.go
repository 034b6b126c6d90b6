package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafkax "github.com/allsale/allsale-api/internal/kafka"
	"github.com/allsale/allsale-api/internal/orders"
)

func paymentMessage(t *testing.T, eventID, eventType string, payload any) kafkago.Message {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	env := orders.Envelope{
		EventID:      eventID,
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "test",
		Payload:      b,
	}
	return kafkago.Message{Key: []byte("ORD-1"), Value: kafkax.MustMarshal(env)}
}

func setupWorker(t *testing.T) (*Worker, *[]Receipt) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	var got []Receipt
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var rcpt Receipt
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rcpt))
		got = append(got, rcpt)
	}))
	t.Cleanup(srv.Close)

	return &Worker{Notify: New(srv.URL), Redis: client, ServiceName: "test-notifier"}, &got
}

func TestHandlePaymentEvent_Completed(t *testing.T) {
	w, got := setupWorker(t)

	m := paymentMessage(t, "evt-1", orders.EventPaymentCompleted, orders.PaymentCompletedPayload{
		OrderID:       "ORD-1",
		Token:         "tok_1",
		Amount:        25000,
		CurrencyCode:  "XOF",
		PaymentMethod: "wave",
		CustomerEmail: "awa@example.sn",
	})
	require.NoError(t, w.HandlePaymentEvent(context.Background(), m))

	require.Len(t, *got, 1)
	rcpt := (*got)[0]
	assert.Equal(t, "ORD-1", rcpt.OrderID)
	assert.Equal(t, int64(25000), rcpt.Amount)
	assert.Equal(t, "completed", rcpt.Status)

	// redelivery of the same event id sends nothing
	require.NoError(t, w.HandlePaymentEvent(context.Background(), m))
	assert.Len(t, *got, 1)
}

func TestHandlePaymentEvent_Failed(t *testing.T) {
	w, got := setupWorker(t)

	m := paymentMessage(t, "evt-2", orders.EventPaymentFailed, orders.PaymentFailedPayload{
		OrderID:        "ORD-2",
		Token:          "tok_2",
		ProviderStatus: "cancelled",
		CustomerEmail:  "moussa@example.sn",
	})
	require.NoError(t, w.HandlePaymentEvent(context.Background(), m))

	require.Len(t, *got, 1)
	assert.Equal(t, "failed", (*got)[0].Status)
}

func TestHandlePaymentEvent_IgnoresOtherEvents(t *testing.T) {
	w, got := setupWorker(t)

	m := paymentMessage(t, "evt-3", orders.EventOrderCreated, orders.OrderCreatedPayload{OrderID: "ORD-3"})
	require.NoError(t, w.HandlePaymentEvent(context.Background(), m))
	assert.Empty(t, *got)
}

func TestHandlePaymentEvent_SinkFailureCommitsAfterRetry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	w := &Worker{Notify: New(srv.URL), Redis: client}
	m := paymentMessage(t, "evt-4", orders.EventPaymentCompleted, orders.PaymentCompletedPayload{OrderID: "ORD-4"})

	// best effort: one retry, then the offset is committed anyway
	require.NoError(t, w.HandlePaymentEvent(context.Background(), m))
	assert.Equal(t, 2, attempts)
	assert.Empty(t, mr.Keys(), "no dedup mark for an unsent receipt")
}

func TestSend_Disabled(t *testing.T) {
	c := New("")
	assert.NoError(t, c.Send(context.Background(), Receipt{OrderID: "ORD-1"}))
}
