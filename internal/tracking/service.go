// Package tracking keeps the order status cache in step with status-changed
// events.
package tracking

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	kafkax "github.com/ariefcatur/go-organic-store/internal/kafka"
	"github.com/ariefcatur/go-organic-store/internal/orders"
)

// Cache is the state the service reads and writes. RedisCache is the
// production implementation.
type Cache interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	MarkSeen(ctx context.Context, eventID string) error
	Status(ctx context.Context, orderID string) (orders.StatusView, bool, error)
	PutStatus(ctx context.Context, v orders.StatusView) error
}

type Service struct {
	Cache Cache
	Log   *logrus.Entry
}

// HandleStatusChanged is installed as the consumer handler. Returning an
// error leaves the offset uncommitted.
func (s *Service) HandleStatusChanged(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// poison message: log and commit so it does not block the partition
		s.Log.WithError(err).WithField("offset", m.Offset).Warn("undecodable envelope skipped")
		return nil
	}
	if env.EventType != orders.EventOrderStatusChanged {
		return nil
	}

	seen, err := s.Cache.Seen(ctx, env.EventID)
	if err != nil {
		return fmt.Errorf("dedup lookup: %w", err)
	}
	if seen {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderStatusChangedPayload](env.Payload)
	if err != nil {
		s.Log.WithError(err).WithField("event_id", env.EventID).Warn("bad payload skipped")
		return nil
	}
	if !p.Status.Valid() {
		s.Log.WithFields(logrus.Fields{"event_id": env.EventID, "status": p.Status}).Warn("unknown status skipped")
		return nil
	}

	if err := s.apply(ctx, p); err != nil {
		return err
	}
	if err := s.Cache.MarkSeen(ctx, env.EventID); err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	s.Log.WithFields(logrus.Fields{"order_id": p.OrderID, "status": p.Status}).Debug("status cached")
	return nil
}

// apply writes the new status unless the cache already holds a later one;
// events for one order share a partition but may be redelivered.
func (s *Service) apply(ctx context.Context, p orders.OrderStatusChangedPayload) error {
	cur, ok, err := s.Cache.Status(ctx, p.OrderID)
	if err != nil {
		return fmt.Errorf("read status: %w", err)
	}
	if ok && cur.UpdatedAt.After(p.ChangedAt) {
		return nil
	}
	v := orders.StatusView{OrderID: p.OrderID, UserID: p.UserID, Status: p.Status, UpdatedAt: p.ChangedAt}
	if err := s.Cache.PutStatus(ctx, v); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	return nil
}
