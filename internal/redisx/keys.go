package redisx

import (
	"fmt"
	"time"
)

const (
	// Cached order status: order_status:{order_id} -> orders.StatusView JSON
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Held while the sample catalog is being seeded.
	KeySeedLock = "lock:init-data"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
	TTLSeedLock    = 30 * time.Second
)

func StatusKey(orderID string) string { return fmt.Sprintf(KeyOrderStatus, orderID) }

func DedupKey(service, eventID string) string { return fmt.Sprintf(KeyDedup, service, eventID) }
