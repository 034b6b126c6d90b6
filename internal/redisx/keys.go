package redisx

import "time"

const (
	// Cached order payload: order:{order_id} -> order JSON
	KeyOrder = "order:%s"

	// Cached product payload: product:{handle} -> product JSON
	KeyProduct = "product:%s"

	// Webhook replay damper: dedup:webhook:{token}:{status}
	// Best effort only; reconcile itself is idempotent.
	KeyWebhookDedup = "dedup:webhook:%s:%s"

	// Notifier event dedup: dedup:notifier:{event_id}
	KeyNotifierDedup = "dedup:notifier:%s"
)

var (
	TTLOrderCache   = 5 * time.Minute
	TTLProductCache = 15 * time.Minute
	TTLDedup        = 48 * time.Hour
)
